package resource

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config sets the limits shared by one database.
type Config struct {
	// MaxConcurrentEmbeds caps in-flight Embed calls. 0 means no cap.
	MaxConcurrentEmbeds int64

	// BackgroundJobs caps concurrent background flushes. Defaults to 1.
	BackgroundJobs int64

	// ArchiveBytesPerSec throttles segment uploads. 0 means unthrottled.
	ArchiveBytesPerSec int64
}

// Controller hands out embed slots, background slots and archive bandwidth.
// A nil *Controller imposes no limits.
type Controller struct {
	embeds     *semaphore.Weighted
	background *semaphore.Weighted
	archive    *rate.Limiter
}

// NewController builds a controller from cfg.
func NewController(cfg Config) *Controller {
	c := &Controller{
		background: semaphore.NewWeighted(max(cfg.BackgroundJobs, 1)),
	}
	if cfg.MaxConcurrentEmbeds > 0 {
		c.embeds = semaphore.NewWeighted(cfg.MaxConcurrentEmbeds)
	}
	if cfg.ArchiveBytesPerSec > 0 {
		c.archive = rate.NewLimiter(rate.Limit(cfg.ArchiveBytesPerSec), int(cfg.ArchiveBytesPerSec))
	}
	return c
}

// AcquireEmbed blocks until an embed slot is free or ctx is done.
func (c *Controller) AcquireEmbed(ctx context.Context) error {
	if c == nil || c.embeds == nil {
		return nil
	}
	return c.embeds.Acquire(ctx, 1)
}

// ReleaseEmbed returns a slot taken by AcquireEmbed.
func (c *Controller) ReleaseEmbed() {
	if c != nil && c.embeds != nil {
		c.embeds.Release(1)
	}
}

// TryAcquireBackground reports whether a background slot was taken.
func (c *Controller) TryAcquireBackground() bool {
	return c == nil || c.background.TryAcquire(1)
}

// ReleaseBackground returns a slot taken by TryAcquireBackground.
func (c *Controller) ReleaseBackground() {
	if c != nil {
		c.background.Release(1)
	}
}

// WaitArchive blocks until n bytes of archive bandwidth are available.
// Large writes are charged in burst-sized steps.
func (c *Controller) WaitArchive(ctx context.Context, n int) error {
	if c == nil || c.archive == nil {
		return nil
	}
	step := c.archive.Burst()
	for n > 0 {
		chunk := min(n, step)
		if err := c.archive.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
