package blobstore

import (
	"io"
	"sync"
)

// NewPipeWriter returns a Writer whose bytes are consumed by upload running in
// its own goroutine. Close waits for upload and returns its error. Abort
// fails the reader with ErrAborted so upload can clean up.
func NewPipeWriter(upload func(r io.Reader) error) Writer {
	pr, pw := io.Pipe()
	w := &pipeWriter{pw: pw, result: make(chan error, 1)}

	go func() {
		err := upload(pr)
		_ = pr.CloseWithError(err)
		w.result <- err
	}()

	return w
}

type pipeWriter struct {
	pw     *io.PipeWriter
	result chan error

	mu      sync.Mutex
	done    bool
	aborted bool
}

func (w *pipeWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()
	if done {
		return 0, io.ErrClosedPipe
	}
	return w.pw.Write(p)
}

func (w *pipeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.aborted {
		return ErrAborted
	}
	if w.done {
		return io.ErrClosedPipe
	}
	w.done = true

	_ = w.pw.Close()
	return <-w.result
}

func (w *pipeWriter) Abort() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done {
		return nil
	}
	w.done, w.aborted = true, true

	_ = w.pw.CloseWithError(ErrAborted)
	<-w.result
	return nil
}
