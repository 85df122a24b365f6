package manifest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/vecrow/blobstore"
	"github.com/hupe1980/vecrow/codec"
	"github.com/hupe1980/vecrow/model"
)

const (
	// CurrentFileName names the pointer blob.
	CurrentFileName = "CURRENT"
	// Dir is the prefix under which manifest blobs are stored.
	Dir = "manifests/"
	// CurrentVersion is the version of the manifest format.
	CurrentVersion = 1
)

// Segment describes one flushed segment pair.
type Segment struct {
	ID         string          `json:"id"`
	RowPath    string          `json:"row_path"`
	ColumnPath string          `json:"column_path"`
	Rows       uint64          `json:"rows"`
	MinTS      model.Timestamp `json:"min_ts"`
	MaxTS      model.Timestamp `json:"max_ts"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Manifest describes the flushed state of an engine.
type Manifest struct {
	Version   int       `json:"version"`
	ID        uint64    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Dims      int       `json:"dims"`
	Index     string    `json:"index"`
	// CheckpointTS is the highest timestamp contained in a flushed segment.
	CheckpointTS model.Timestamp `json:"checkpoint_ts"`
	Segments     []Segment       `json:"segments"`
}

// New creates a new empty manifest.
func New(dims int, index string) *Manifest {
	return &Manifest{
		Version:   CurrentVersion,
		CreatedAt: time.Now(),
		Dims:      dims,
		Index:     index,
	}
}

// AddSegment appends s and advances the checkpoint.
func (m *Manifest) AddSegment(s Segment) {
	m.Segments = append(m.Segments, s)
	if s.MaxTS > m.CheckpointTS {
		m.CheckpointTS = s.MaxTS
	}
}

// Rows returns the number of versions across all segments.
func (m *Manifest) Rows() uint64 {
	var n uint64
	for _, s := range m.Segments {
		n += s.Rows
	}
	return n
}

// Clone returns a deep copy.
func (m *Manifest) Clone() *Manifest {
	c := *m
	c.Segments = slices.Clone(m.Segments)
	return &c
}

// FileName returns the blob name of manifest version id.
func FileName(id uint64) string {
	return fmt.Sprintf("%sMANIFEST-%06d.json", Dir, id)
}

// Store manages manifest blobs and atomic CURRENT updates.
type Store struct {
	store blobstore.BlobStore
	codec codec.Codec
	mu    sync.Mutex
}

// NewStore creates a new manifest store. A nil codec selects codec.Default.
func NewStore(store blobstore.BlobStore, c codec.Codec) *Store {
	return &Store{store: store, codec: codec.OrDefault(c)}
}

// Load loads the current manifest.
func (s *Store) Load(ctx context.Context) (*Manifest, error) {
	return s.LoadVersion(ctx, 0)
}

// LoadVersion loads a specific version. 0 means the one CURRENT points to.
func (s *Store) LoadVersion(ctx context.Context, id uint64) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := FileName(id)
	if id == 0 {
		content, err := s.store.Get(ctx, CurrentFileName)
		if err != nil {
			if errors.Is(err, blobstore.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		name = strings.TrimSpace(string(content))
	}

	return s.read(ctx, name)
}

func (s *Store) read(ctx context.Context, name string) (*Manifest, error) {
	data, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest %s: %w", name, err)
	}

	m := &Manifest{}
	if err := s.codec.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", name, err)
	}
	if m.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrIncompatibleVersion, m.Version)
	}
	return m, nil
}

// ListVersions returns all readable manifests in version order.
// Unreadable or corrupt manifests are skipped.
func (s *Store) ListVersions(ctx context.Context) ([]*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.store.List(ctx, Dir)
	if err != nil {
		return nil, err
	}

	var manifests []*Manifest
	for _, name := range names {
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		m, err := s.read(ctx, name)
		if err != nil {
			continue
		}
		manifests = append(manifests, m)
	}

	slices.SortFunc(manifests, func(a, b *Manifest) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return manifests, nil
}

// Save writes m as a new version and points CURRENT at it.
// On success m.ID holds the new version.
func (s *Store) Save(ctx context.Context, m *Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := *m
	next.Version = CurrentVersion
	next.ID++
	next.CreatedAt = time.Now()

	data, err := s.codec.Marshal(&next)
	if err != nil {
		return err
	}

	name := FileName(next.ID)
	if err := s.store.Put(ctx, name, data); err != nil {
		return err
	}

	if err := s.store.Put(ctx, CurrentFileName, []byte(name)); err != nil {
		return err
	}

	*m = next
	return nil
}
