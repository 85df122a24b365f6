package resource

import (
	"context"
	"io"
)

type throttledWriter struct {
	ctx context.Context
	w   io.Writer
	c   *Controller
}

// ThrottleWriter charges every write to w against c's archive bandwidth.
func ThrottleWriter(ctx context.Context, w io.Writer, c *Controller) io.Writer {
	if c == nil || c.archive == nil {
		return w
	}
	return &throttledWriter{ctx: ctx, w: w, c: c}
}

func (t *throttledWriter) Write(p []byte) (int, error) {
	if err := t.c.WaitArchive(t.ctx, len(p)); err != nil {
		return 0, err
	}
	return t.w.Write(p)
}
