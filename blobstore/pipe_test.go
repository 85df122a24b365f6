package blobstore

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeWriter_Close(t *testing.T) {
	var got []byte
	w := NewPipeWriter(func(r io.Reader) error {
		var err error
		got, err = io.ReadAll(r)
		return err
	})

	_, err := w.Write([]byte("segment "))
	require.NoError(t, err)
	_, err = w.Write([]byte("bytes"))
	require.NoError(t, err)

	require.NoError(t, w.Close())
	assert.Equal(t, "segment bytes", string(got))
	assert.ErrorIs(t, w.Close(), io.ErrClosedPipe)
}

func TestPipeWriter_UploadError(t *testing.T) {
	boom := errors.New("bucket gone")
	w := NewPipeWriter(func(io.Reader) error { return boom })

	assert.ErrorIs(t, w.Close(), boom)
}

func TestPipeWriter_Abort(t *testing.T) {
	var readErr error
	w := NewPipeWriter(func(r io.Reader) error {
		_, readErr = io.ReadAll(r)
		return readErr
	})

	_, err := w.Write([]byte("partial"))
	require.NoError(t, err)

	require.NoError(t, w.Abort())
	assert.ErrorIs(t, readErr, ErrAborted)
	assert.ErrorIs(t, w.Close(), ErrAborted)

	_, err = w.Write([]byte("x"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}
