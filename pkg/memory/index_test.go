package memory

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestLinearIndex_SearchOrdering(t *testing.T) {
	ctx := context.Background()
	idx := NewLinearIndex(3)

	idx.Add(ctx, "far", []float32{0, 1, 0}, map[string]string{"tier": "fast"})
	idx.Add(ctx, "near", []float32{1, 0, 0}, map[string]string{"tier": "fast"})
	idx.Add(ctx, "mid", []float32{0.7, 0.7, 0}, map[string]string{"tier": "fast"})

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	want := []string{"near", "mid", "far"}
	for i, key := range want {
		if hits[i].Key != key {
			t.Errorf("position %d: expected %s, got %s", i, key, hits[i].Key)
		}
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Similarity > hits[i-1].Similarity {
			t.Errorf("hits not in descending order at %d", i)
		}
	}
}

func TestLinearIndex_StableTies(t *testing.T) {
	ctx := context.Background()
	idx := NewLinearIndex(2)

	// Same vector, so identical similarity; insertion order must hold.
	idx.Add(ctx, "first", []float32{1, 0}, nil)
	idx.Add(ctx, "second", []float32{1, 0}, nil)
	idx.Add(ctx, "third", []float32{1, 0}, nil)

	hits, err := idx.Search(ctx, []float32{1, 0}, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"first", "second", "third"}
	for i, key := range want {
		if hits[i].Key != key {
			t.Errorf("position %d: expected %s, got %s", i, key, hits[i].Key)
		}
	}
}

func TestLinearIndex_Filter(t *testing.T) {
	ctx := context.Background()
	idx := NewLinearIndex(2)

	idx.Add(ctx, "a", []float32{1, 0}, map[string]string{"tier": "fast"})
	idx.Add(ctx, "b", []float32{1, 0}, map[string]string{"tier": "slow"})

	hits, err := idx.Search(ctx, []float32{1, 0}, 10, TierFilter("slow"))
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Key != "b" {
		t.Fatalf("expected only b, got %v", hits)
	}
}

func TestLinearIndex_DuplicateKeys(t *testing.T) {
	ctx := context.Background()
	idx := NewLinearIndex(2)

	idx.Add(ctx, "k", []float32{1, 0}, nil)
	idx.Add(ctx, "k", []float32{0, 1}, nil)

	if idx.Size() != 2 {
		t.Errorf("expected duplicate keys to count separately, size=%d", idx.Size())
	}
}

func TestLinearIndex_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := NewLinearIndex(3)

	if err := idx.Add(ctx, "k", []float32{1, 0}, nil); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Add: expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := idx.Search(ctx, []float32{1, 0}, 1, nil); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Search: expected ErrDimensionMismatch, got %v", err)
	}
}

func TestLinearIndex_KLargerThanSize(t *testing.T) {
	ctx := context.Background()
	idx := NewLinearIndex(2)
	idx.Add(ctx, "only", []float32{1, 0}, nil)

	hits, err := idx.Search(ctx, []float32{1, 0}, 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Errorf("expected 1 hit, got %d", len(hits))
	}
}

func TestLinearIndex_SaveLoad(t *testing.T) {
	ctx := context.Background()
	idx := NewLinearIndex(2)
	idx.Add(ctx, "a", []float32{1, 0}, map[string]string{"tier": "fast"})
	idx.Add(ctx, "b", []float32{0, 1}, map[string]string{"tier": "slow"})

	path := filepath.Join(t.TempDir(), "index.bin")
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	restored := NewLinearIndex(2)
	if err := restored.Load(path); err != nil {
		t.Fatal(err)
	}
	if restored.Size() != 2 {
		t.Fatalf("expected 2 entries after load, got %d", restored.Size())
	}

	hits, err := restored.Search(ctx, []float32{0, 1}, 1, TierFilter("slow"))
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Key != "b" {
		t.Errorf("expected b after reload, got %v", hits)
	}
}

func TestLinearIndex_LoadDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := NewLinearIndex(2)
	idx.Add(ctx, "a", []float32{1, 0}, nil)

	path := filepath.Join(t.TempDir(), "index.bin")
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	other := NewLinearIndex(3)
	if err := other.Load(path); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestChromemIndex_SearchWithFilter(t *testing.T) {
	ctx := context.Background()
	idx, err := NewChromemIndex(3)
	if err != nil {
		t.Fatal(err)
	}

	idx.Add(ctx, "a", []float32{1, 0, 0}, map[string]string{"tier": "fast"})
	idx.Add(ctx, "b", []float32{0, 1, 0}, map[string]string{"tier": "fast"})
	idx.Add(ctx, "c", []float32{1, 0, 0}, map[string]string{"tier": "slow"})

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 2, TierFilter("fast"))
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Key != "a" {
		t.Errorf("expected a first, got %s", hits[0].Key)
	}
	for _, h := range hits {
		if h.Key == "c" {
			t.Errorf("filter leaked slow-tier entry")
		}
	}
}

func TestChromemIndex_EmptySearch(t *testing.T) {
	ctx := context.Background()
	idx, err := NewChromemIndex(2)
	if err != nil {
		t.Fatal(err)
	}

	hits, err := idx.Search(ctx, []float32{1, 0}, 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits on empty index, got %d", len(hits))
	}
}

func TestChromemIndex_DuplicateKeysAndClear(t *testing.T) {
	ctx := context.Background()
	idx, err := NewChromemIndex(2)
	if err != nil {
		t.Fatal(err)
	}

	idx.Add(ctx, "k", []float32{1, 0}, nil)
	idx.Add(ctx, "k", []float32{0, 1}, nil)
	if idx.Size() != 2 {
		t.Fatalf("expected size 2, got %d", idx.Size())
	}

	if err := idx.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 0 {
		t.Errorf("expected empty after clear, got %d", idx.Size())
	}

	// Index stays usable after clear.
	if err := idx.Add(ctx, "k2", []float32{1, 0}, nil); err != nil {
		t.Fatal(err)
	}
	hits, err := idx.Search(ctx, []float32{1, 0}, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Key != "k2" {
		t.Errorf("expected k2 after clear, got %v", hits)
	}
}

func TestNewIndex_UnknownBackend(t *testing.T) {
	if _, err := NewIndex("faiss", 4); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}
