package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

const chromemCollection = "continuum"

// ChromemIndex backs the shared index with chromem-go, a pure Go embedded
// vector database. Documents need unique IDs while the engine permits
// duplicate keys, so each Add mints an ID from the key plus a sequence
// number and keeps the original key in metadata.
type ChromemIndex struct {
	mu        sync.RWMutex
	db        *chromem.DB
	col       *chromem.Collection
	dimension int
	seq       uint64
	size      int
}

// NewChromemIndex creates an empty chromem-backed index for vectors of the
// given dimension.
func NewChromemIndex(dimension int) (*ChromemIndex, error) {
	db := chromem.NewDB()
	col, err := db.CreateCollection(chromemCollection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("memory: create chromem collection: %w", err)
	}
	return &ChromemIndex{db: db, col: col, dimension: dimension}, nil
}

func (idx *ChromemIndex) Add(ctx context.Context, key string, vector []float32, meta map[string]string) error {
	if len(vector) != idx.dimension {
		return fmt.Errorf("%w: index expects %d, got %d", ErrDimensionMismatch, idx.dimension, len(vector))
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	docMeta := make(map[string]string, len(meta)+1)
	for k, v := range meta {
		docMeta[k] = v
	}
	docMeta["_key"] = key

	doc := chromem.Document{
		ID:        key + "#" + strconv.FormatUint(idx.seq, 10),
		Embedding: cloneVector(vector),
		Metadata:  docMeta,
	}
	if err := idx.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("memory: chromem add: %w", err)
	}
	idx.seq++
	idx.size++
	return nil
}

func (idx *ChromemIndex) Search(ctx context.Context, query []float32, k int, filter FilterFunc) ([]Hit, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: index expects %d, got %d", ErrDimensionMismatch, idx.dimension, len(query))
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.size == 0 {
		return nil, nil
	}

	// chromem requires nResults <= collection size, and an arbitrary filter
	// cannot be pushed down as a where clause, so fetch everything and
	// post-filter. Collections here are tier-scale, not corpus-scale.
	results, err := idx.col.QueryEmbedding(ctx, query, idx.size, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("memory: chromem query: %w", err)
	}

	hits := make([]Hit, 0, k)
	for _, r := range results {
		if filter != nil && !filter(r.Metadata) {
			continue
		}
		hits = append(hits, Hit{Key: r.Metadata["_key"], Similarity: r.Similarity})
		if len(hits) == k {
			break
		}
	}
	return hits, nil
}

func (idx *ChromemIndex) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.size
}

func (idx *ChromemIndex) Clear(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := idx.db.DeleteCollection(chromemCollection); err != nil {
		return fmt.Errorf("memory: chromem delete collection: %w", err)
	}
	col, err := idx.db.CreateCollection(chromemCollection, nil, nil)
	if err != nil {
		return fmt.Errorf("memory: chromem recreate collection: %w", err)
	}
	idx.col = col
	idx.size = 0
	return nil
}
