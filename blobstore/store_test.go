package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]BlobStore {
	t.Helper()
	return map[string]BlobStore{
		"local":  NewLocalStore(t.TempDir()),
		"memory": NewMemoryStore(),
	}
}

func TestBlobStore_StreamAndList(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			w, err := store.Create(ctx, "segments/seg-001.rows")
			require.NoError(t, err)
			_, err = w.Write([]byte("row data "))
			require.NoError(t, err)
			_, err = w.Write([]byte("in two parts"))
			require.NoError(t, err)

			_, err = store.Get(ctx, "segments/seg-001.rows")
			require.ErrorIs(t, err, ErrNotFound, "blob must stay invisible until Close")

			require.NoError(t, w.Close())
			assert.ErrorIs(t, w.Close(), io.ErrClosedPipe)
			_, err = w.Write([]byte("late"))
			assert.ErrorIs(t, err, io.ErrClosedPipe)

			got, err := store.Get(ctx, "segments/seg-001.rows")
			require.NoError(t, err)
			assert.Equal(t, "row data in two parts", string(got))

			require.NoError(t, store.Put(ctx, "CURRENT", []byte("MANIFEST-000001.json")))

			names, err := store.List(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, []string{"CURRENT", "segments/seg-001.rows"}, names)

			names, err = store.List(ctx, "segments/")
			require.NoError(t, err)
			assert.Equal(t, []string{"segments/seg-001.rows"}, names)
		})
	}
}

func TestBlobStore_Abort(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			w, err := store.Create(ctx, "segments/seg-002.cols")
			require.NoError(t, err)
			_, err = w.Write([]byte("half a segment"))
			require.NoError(t, err)

			require.NoError(t, w.Abort())
			require.NoError(t, w.Abort())
			assert.ErrorIs(t, w.Close(), ErrAborted)

			_, err = store.Get(ctx, "segments/seg-002.cols")
			assert.ErrorIs(t, err, ErrNotFound)

			names, err := store.List(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, names)
		})
	}
}

func TestBlobStore_GetEmptyAndMissing(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Put(ctx, "empty", nil))

			got, err := store.Get(ctx, "empty")
			require.NoError(t, err)
			assert.Empty(t, got)

			_, err = store.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestMemoryStore_Copies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("abc")
	require.NoError(t, store.Put(ctx, "k", data))
	data[0] = 'x'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'x'
	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
	assert.Equal(t, 1, store.Len())
}

func TestLocalStore_NoPartialFilesLeft(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := NewLocalStore(root)

	require.NoError(t, store.Put(ctx, "x/y.bin", []byte("data")))

	entries, err := os.ReadDir(filepath.Join(root, "x"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "y.bin", entries[0].Name())
	assert.Equal(t, root, store.Root())
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "nope"))

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewLocalStore(t.TempDir())
	assert.ErrorIs(t, store.Put(ctx, "a", []byte("x")), context.Canceled)

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}
