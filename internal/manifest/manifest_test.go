package manifest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecrow/blobstore"
	"github.com/hupe1980/vecrow/codec"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	store := NewStore(blobstore.NewLocalStore(t.TempDir()), nil)

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	m := New(4, "hnsw")
	m.AddSegment(Segment{ID: "a", RowPath: "segments/a.rows", ColumnPath: "segments/a.cols", Rows: 3, MinTS: 2, MaxTS: 4})
	require.NoError(t, store.Save(ctx, m))
	assert.Equal(t, uint64(1), m.ID)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), loaded.ID)
	assert.Equal(t, 4, loaded.Dims)
	assert.Equal(t, "hnsw", loaded.Index)
	assert.Equal(t, uint64(4), loaded.CheckpointTS)
	require.Len(t, loaded.Segments, 1)
	assert.Equal(t, "segments/a.rows", loaded.Segments[0].RowPath)

	m.AddSegment(Segment{ID: "b", Rows: 2, MinTS: 5, MaxTS: 6})
	require.NoError(t, store.Save(ctx, m))
	assert.Equal(t, uint64(2), m.ID)

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), loaded.ID)
	assert.Equal(t, uint64(5), loaded.Rows())
	assert.Equal(t, uint64(6), loaded.CheckpointTS)

	v1, err := store.LoadVersion(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, v1.Segments, 1)

	versions, err := store.ListVersions(ctx)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, uint64(1), versions[0].ID)
	assert.Equal(t, uint64(2), versions[1].ID)
}

func TestStore_IncompatibleVersion(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()
	store := NewStore(blobs, codec.JSON{})

	require.NoError(t, blobs.Put(ctx, FileName(1), []byte(`{"version":999,"id":1}`)))
	require.NoError(t, blobs.Put(ctx, CurrentFileName, []byte(FileName(1))))

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrIncompatibleVersion)

	versions, err := store.ListVersions(ctx)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestStore_DanglingCurrent(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()
	store := NewStore(blobs, nil)

	require.NoError(t, blobs.Put(ctx, CurrentFileName, []byte(FileName(999999))))

	_, err := store.Load(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestStore_CorruptManifest(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()
	store := NewStore(blobs, nil)

	require.NoError(t, blobs.Put(ctx, FileName(1), []byte("{not json")))
	require.NoError(t, blobs.Put(ctx, CurrentFileName, []byte(FileName(1)+"\n")))

	_, err := store.Load(ctx)
	assert.Error(t, err)
}

type failingPut struct {
	*blobstore.MemoryStore
	failOn string
}

func (f failingPut) Put(ctx context.Context, name string, data []byte) error {
	if name == f.failOn {
		return assert.AnError
	}
	return f.MemoryStore.Put(ctx, name, data)
}

func TestStore_SaveErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("Manifest", func(t *testing.T) {
		store := NewStore(failingPut{blobstore.NewMemoryStore(), FileName(1)}, nil)
		m := New(2, "flat")
		assert.ErrorIs(t, store.Save(ctx, m), assert.AnError)
		assert.Equal(t, uint64(0), m.ID)
	})

	t.Run("Current", func(t *testing.T) {
		blobs := blobstore.NewMemoryStore()
		store := NewStore(failingPut{blobs, CurrentFileName}, nil)
		m := New(2, "flat")
		assert.ErrorIs(t, store.Save(ctx, m), assert.AnError)
		assert.Equal(t, uint64(0), m.ID)

		_, err := blobs.Get(ctx, FileName(1))
		require.NoError(t, err)
	})
}

func TestManifest_Clone(t *testing.T) {
	m := New(2, "flat")
	m.AddSegment(Segment{ID: "a", MaxTS: 3})

	c := m.Clone()
	c.AddSegment(Segment{ID: "b", MaxTS: 9})

	assert.Len(t, m.Segments, 1)
	assert.Equal(t, uint64(3), m.CheckpointTS)
	assert.Len(t, c.Segments, 2)
}
