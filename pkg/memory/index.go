package memory

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
)

// Hit is one similarity-search result from an Index.
type Hit struct {
	Key        string
	Similarity float32
}

// FilterFunc restricts a search to entries whose metadata it accepts.
// A nil filter accepts everything.
type FilterFunc func(meta map[string]string) bool

// TierFilter returns a filter matching entries indexed under the given tier.
func TierFilter(tier string) FilterFunc {
	return func(meta map[string]string) bool {
		return meta["tier"] == tier
	}
}

// Index is the shared similarity index behind a System. Implementations
// must allow duplicate keys; each Add appends a new indexed record.
type Index interface {
	Add(ctx context.Context, key string, vector []float32, meta map[string]string) error
	Search(ctx context.Context, query []float32, k int, filter FilterFunc) ([]Hit, error)
	Size() int
	Clear(ctx context.Context) error
}

// Backend names an Index implementation.
type Backend string

const (
	BackendLinear  Backend = "linear"
	BackendChromem Backend = "chromem"
)

// NewIndex builds the index backend for the given name. An empty backend
// selects linear.
func NewIndex(backend Backend, dimension int) (Index, error) {
	switch backend {
	case "", BackendLinear:
		return NewLinearIndex(dimension), nil
	case BackendChromem:
		return NewChromemIndex(dimension)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

type indexEntry struct {
	key    string
	vector []float32
	meta   map[string]string
}

// LinearIndex is an exact brute-force index: cosine similarity over a full
// scan, results in descending similarity with insertion order breaking ties.
// It is the fallback backend and the reference for the others.
type LinearIndex struct {
	mu        sync.RWMutex
	dimension int
	entries   []indexEntry
}

// NewLinearIndex creates an empty index for vectors of the given dimension.
func NewLinearIndex(dimension int) *LinearIndex {
	return &LinearIndex{dimension: dimension}
}

func (idx *LinearIndex) Add(ctx context.Context, key string, vector []float32, meta map[string]string) error {
	if len(vector) != idx.dimension {
		return fmt.Errorf("%w: index expects %d, got %d", ErrDimensionMismatch, idx.dimension, len(vector))
	}

	cloned := make(map[string]string, len(meta))
	for k, v := range meta {
		cloned[k] = v
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = append(idx.entries, indexEntry{
		key:    key,
		vector: cloneVector(vector),
		meta:   cloned,
	})
	return nil
}

func (idx *LinearIndex) Search(ctx context.Context, query []float32, k int, filter FilterFunc) ([]Hit, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: index expects %d, got %d", ErrDimensionMismatch, idx.dimension, len(query))
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	hits := make([]Hit, 0, len(idx.entries))
	for _, e := range idx.entries {
		if filter != nil && !filter(e.meta) {
			continue
		}
		hits = append(hits, Hit{Key: e.key, Similarity: cosineSimilarity(query, e.vector)})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (idx *LinearIndex) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

func (idx *LinearIndex) Clear(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = nil
	return nil
}

// Binary snapshot format. Not part of the search contract; used by callers
// that want to persist the index across restarts.
const (
	snapshotMagic   uint32 = 0x434d4958 // "CMIX"
	snapshotVersion uint16 = 1
)

// Save writes a binary snapshot of the index to path.
func (idx *LinearIndex) Save(path string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("memory: create snapshot: %w", err)
	}
	defer f.Close()

	if err := binary.Write(f, binary.LittleEndian, snapshotMagic); err != nil {
		return fmt.Errorf("memory: write snapshot header: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, snapshotVersion); err != nil {
		return fmt.Errorf("memory: write snapshot header: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(idx.dimension)); err != nil {
		return fmt.Errorf("memory: write snapshot header: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(idx.entries))); err != nil {
		return fmt.Errorf("memory: write snapshot header: %w", err)
	}

	for _, e := range idx.entries {
		if err := writeString(f, e.key); err != nil {
			return err
		}
		if err := binary.Write(f, binary.LittleEndian, uint32(len(e.meta))); err != nil {
			return fmt.Errorf("memory: write snapshot entry: %w", err)
		}
		keys := make([]string, 0, len(e.meta))
		for k := range e.meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := writeString(f, k); err != nil {
				return err
			}
			if err := writeString(f, e.meta[k]); err != nil {
				return err
			}
		}
		if err := binary.Write(f, binary.LittleEndian, e.vector); err != nil {
			return fmt.Errorf("memory: write snapshot entry: %w", err)
		}
	}
	return nil
}

// Load replaces the index contents with a snapshot previously written by
// Save. The snapshot dimension must match the index dimension.
func (idx *LinearIndex) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("memory: open snapshot: %w", err)
	}
	defer f.Close()

	var (
		magic   uint32
		version uint16
		dim     uint32
		count   uint32
	)
	if err := binary.Read(f, binary.LittleEndian, &magic); err != nil {
		return fmt.Errorf("memory: read snapshot header: %w", err)
	}
	if magic != snapshotMagic {
		return fmt.Errorf("memory: not an index snapshot: magic %#x", magic)
	}
	if err := binary.Read(f, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("memory: read snapshot header: %w", err)
	}
	if version != snapshotVersion {
		return fmt.Errorf("memory: unsupported snapshot version %d", version)
	}
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("memory: read snapshot header: %w", err)
	}
	if int(dim) != idx.dimension {
		return fmt.Errorf("%w: snapshot dimension %d, index %d", ErrDimensionMismatch, dim, idx.dimension)
	}
	if err := binary.Read(f, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("memory: read snapshot header: %w", err)
	}

	entries := make([]indexEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		key, err := readString(f)
		if err != nil {
			return err
		}
		var metaCount uint32
		if err := binary.Read(f, binary.LittleEndian, &metaCount); err != nil {
			return fmt.Errorf("memory: read snapshot entry: %w", err)
		}
		meta := make(map[string]string, metaCount)
		for j := uint32(0); j < metaCount; j++ {
			mk, err := readString(f)
			if err != nil {
				return err
			}
			mv, err := readString(f)
			if err != nil {
				return err
			}
			meta[mk] = mv
		}
		vec := make([]float32, dim)
		if err := binary.Read(f, binary.LittleEndian, vec); err != nil {
			return fmt.Errorf("memory: read snapshot entry: %w", err)
		}
		entries = append(entries, indexEntry{key: key, vector: vec, meta: meta})
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = entries
	return nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return fmt.Errorf("memory: write snapshot string: %w", err)
	}
	if _, err := w.Write([]byte(s)); err != nil {
		return fmt.Errorf("memory: write snapshot string: %w", err)
	}
	return nil
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", fmt.Errorf("memory: read snapshot string: %w", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("memory: read snapshot string: %w", err)
	}
	return string(buf), nil
}
