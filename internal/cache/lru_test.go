package cache

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRU_GetSet(t *testing.T) {
	c := NewLRU[string, int](2, nil)

	c.Set("a", 1)
	c.Set("b", 2)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	// b is now least recently used.
	c.Set("c", 3)
	_, ok = c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestLRU_Cost(t *testing.T) {
	c := NewLRU[string, []byte](10, func(b []byte) int64 { return int64(len(b)) })

	c.Set("big", make([]byte, 11))
	_, ok := c.Get("big")
	assert.False(t, ok)

	c.Set("a", make([]byte, 6))
	c.Set("b", make([]byte, 4))
	assert.Equal(t, int64(10), c.Size())

	c.Set("c", make([]byte, 1))
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, int64(5), c.Size())

	// Growing an entry evicts others.
	c.Set("c", make([]byte, 9))
	assert.Equal(t, int64(9), c.Size())
	assert.Equal(t, 1, c.Len())
}

func TestLRU_Invalidate(t *testing.T) {
	c := NewLRU[int, int](10, nil)
	for i := range 10 {
		c.Set(i, i)
	}

	c.Invalidate(func(k int) bool { return k%2 == 0 })
	assert.Equal(t, 5, c.Len())
	_, ok := c.Get(2)
	assert.False(t, ok)
	_, ok = c.Get(3)
	assert.True(t, ok)
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[string, int](64, nil)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				k := strconv.Itoa((g * i) % 100)
				c.Set(k, i)
				c.Get(k)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 64)
}
