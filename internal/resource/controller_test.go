package resource

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Nil(t *testing.T) {
	var c *Controller
	ctx := context.Background()

	require.NoError(t, c.AcquireEmbed(ctx))
	c.ReleaseEmbed()
	assert.True(t, c.TryAcquireBackground())
	c.ReleaseBackground()
	require.NoError(t, c.WaitArchive(ctx, 1<<30))

	var buf bytes.Buffer
	assert.Same(t, &buf, ThrottleWriter(ctx, &buf, c))
}

func TestController_UnlimitedEmbeds(t *testing.T) {
	c := NewController(Config{})
	for range 100 {
		require.NoError(t, c.AcquireEmbed(context.Background()))
	}
}

func TestController_EmbedConcurrency(t *testing.T) {
	c := NewController(Config{MaxConcurrentEmbeds: 2})

	var active, peak atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, c.AcquireEmbed(context.Background()))
			defer c.ReleaseEmbed()

			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			active.Add(-1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestController_EmbedCanceled(t *testing.T) {
	c := NewController(Config{MaxConcurrentEmbeds: 1})
	require.NoError(t, c.AcquireEmbed(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, c.AcquireEmbed(ctx), context.DeadlineExceeded)

	c.ReleaseEmbed()
	require.NoError(t, c.AcquireEmbed(context.Background()))
}

func TestController_Background(t *testing.T) {
	c := NewController(Config{})

	assert.True(t, c.TryAcquireBackground())
	assert.False(t, c.TryAcquireBackground())
	c.ReleaseBackground()
	assert.True(t, c.TryAcquireBackground())
}

func TestController_WaitArchive(t *testing.T) {
	c := NewController(Config{ArchiveBytesPerSec: 1024})

	require.NoError(t, c.WaitArchive(context.Background(), 1024))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.Error(t, c.WaitArchive(ctx, 4096))
}

func TestThrottleWriter(t *testing.T) {
	c := NewController(Config{ArchiveBytesPerSec: 1 << 20})

	var buf bytes.Buffer
	w := ThrottleWriter(context.Background(), &buf, c)
	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", buf.String())
}
