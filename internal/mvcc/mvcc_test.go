package mvcc

import (
	"sync"
	"testing"

	"github.com/hupe1980/vecrow/model"
	"github.com/stretchr/testify/assert"
)

func ts(v uint64) *model.Timestamp { return &v }

func TestVisibleAt(t *testing.T) {
	tests := []struct {
		name   string
		v      model.VersionedRow
		readTS model.Timestamp
		want   bool
	}{
		{"open version after begin", model.VersionedRow{BeginTS: 5}, 7, true},
		{"open version at begin", model.VersionedRow{BeginTS: 5}, 5, true},
		{"before begin", model.VersionedRow{BeginTS: 5}, 4, false},
		{"closed before end", model.VersionedRow{BeginTS: 5, EndTS: ts(9)}, 8, true},
		{"closed at end", model.VersionedRow{BeginTS: 5, EndTS: ts(9)}, 9, false},
		{"closed after end", model.VersionedRow{BeginTS: 5, EndTS: ts(9)}, 12, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VisibleAt(&tt.v, tt.readTS))
		})
	}
}

func TestClock(t *testing.T) {
	c := NewClock(1)
	assert.Equal(t, model.Timestamp(1), c.Now())
	assert.Equal(t, model.Timestamp(2), c.Next())
	assert.Equal(t, model.Timestamp(2), c.Now())

	c.AdvanceTo(10)
	assert.Equal(t, model.Timestamp(10), c.Now())
	c.AdvanceTo(3)
	assert.Equal(t, model.Timestamp(10), c.Now())
}

func TestClock_ConcurrentNextIsUnique(t *testing.T) {
	c := NewClock(0)
	const workers, perWorker = 8, 200

	var mu sync.Mutex
	seen := make(map[model.Timestamp]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				v := c.Next()
				mu.Lock()
				seen[v] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, model.Timestamp(workers*perWorker), c.Now())
}
