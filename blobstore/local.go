package blobstore

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const partialSuffix = ".partial"

// LocalStore keeps blobs as files below a root directory. Slash separated
// names map to subdirectories. A write lands in a ".partial" sibling and is
// renamed over the target once synced.
type LocalStore struct {
	root string
}

// NewLocalStore returns a store rooted at dir. The directory is created on the
// first write.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{root: dir}
}

// Root returns the directory the store writes to.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) file(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

func (s *LocalStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(s.file(name))
}

func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Abort()
		return err
	}
	return w.Close()
}

func (s *LocalStore) Create(ctx context.Context, name string) (Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dst := s.file(name)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*"+partialSuffix)
	if err != nil {
		return nil, err
	}
	return &fileWriter{f: f, dst: dst}, nil
}

func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		switch {
		case err != nil && p == s.root && errors.Is(err, fs.ErrNotExist):
			return filepath.SkipAll
		case err != nil:
			return err
		case ctx.Err() != nil:
			return ctx.Err()
		case d.IsDir(), strings.HasSuffix(p, partialSuffix):
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		if name := filepath.ToSlash(rel); strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(names)
	return names, nil
}

type fileWriter struct {
	f       *os.File
	dst     string
	done    bool
	aborted bool
}

func (w *fileWriter) Write(p []byte) (int, error) {
	if w.done {
		return 0, io.ErrClosedPipe
	}
	return w.f.Write(p)
}

func (w *fileWriter) Close() error {
	if w.aborted {
		return ErrAborted
	}
	if w.done {
		return io.ErrClosedPipe
	}
	w.done = true

	err := w.f.Sync()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(w.f.Name())
		return err
	}
	return os.Rename(w.f.Name(), w.dst)
}

func (w *fileWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done, w.aborted = true, true
	_ = w.f.Close()
	return os.Remove(w.f.Name())
}

var (
	_ BlobStore = (*LocalStore)(nil)
	_ BlobStore = (*MemoryStore)(nil)
)
