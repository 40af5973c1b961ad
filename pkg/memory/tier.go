package memory

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// TierConfig configures one memory tier.
type TierConfig struct {
	// Name identifies the tier within its System.
	Name string `json:"name" validate:"required"`
	// UpdateFreq is the admission cadence: gated writes are only considered
	// when the tier's local step is a multiple of it.
	UpdateFreq uint64 `json:"update_freq" validate:"min=1"`
	// LearningRate is carried for encoders that adapt per tier. The engine
	// itself does not consume it.
	LearningRate float64 `json:"learning_rate" validate:"gte=0,lte=1"`
	// SurpriseThreshold is the admission bar: gated writes must score
	// strictly above it.
	SurpriseThreshold float64 `json:"surprise_threshold" validate:"gte=0,lte=1"`
	// Capacity bounds the number of entries the tier holds.
	Capacity int `json:"capacity" validate:"min=1"`
	// Frozen rejects all gated writes while set. Ungated stores still land.
	Frozen bool `json:"frozen"`
}

// DefaultTierConfig returns a tier config with the stock parameters: every
// step considered, threshold 0.5, capacity 10000.
func DefaultTierConfig(name string) TierConfig {
	return TierConfig{
		Name:              name,
		UpdateFreq:        1,
		LearningRate:      0.01,
		SurpriseThreshold: 0.5,
		Capacity:          10000,
	}
}

var tierValidate = validator.New()

// Validate checks the config against its constraints. The returned error
// wraps ErrInvalidTierConfig.
func (c TierConfig) Validate() error {
	if err := tierValidate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %q: %s", ErrInvalidTierConfig, c.Name, verrs)
		}
		return fmt.Errorf("%w: %q: %v", ErrInvalidTierConfig, c.Name, err)
	}
	return nil
}

// Tier is one capacity-bounded level of the memory hierarchy. It keys both
// an embedding and a full entry per admitted key; a rewrite of an existing
// key replaces both. Admission control lives in ShouldUpdate, so callers
// that bypass it (ungated stores) write unconditionally.
type Tier[P any] struct {
	cfg TierConfig

	mu         sync.RWMutex
	embeddings map[string][]float32
	entries    map[string]MemoryEntry[P]

	localStep       uint64
	totalEncodes    uint64
	totalUpdates    uint64
	totalRetrievals uint64
	totalEvictions  uint64
	surpriseSum     float64
	lastUpdateStep  uint64

	// onEvict receives entries pushed out by capacity, before the write
	// that displaced them returns.
	onEvict func(entry MemoryEntry[P], vector []float32)
}

// NewTier validates cfg and creates an empty tier.
func NewTier[P any](cfg TierConfig) (*Tier[P], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Tier[P]{
		cfg:        cfg,
		embeddings: make(map[string][]float32),
		entries:    make(map[string]MemoryEntry[P]),
	}, nil
}

// Name returns the tier's name.
func (t *Tier[P]) Name() string { return t.cfg.Name }

// Config returns a copy of the tier's config.
func (t *Tier[P]) Config() TierConfig { return t.cfg }

// ShouldUpdate reports whether a gated write with the given surprise would
// be admitted right now: the tier is not frozen, the local step is on the
// update cadence, and surprise clears the threshold strictly.
func (t *Tier[P]) ShouldUpdate(surprise float64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.cfg.Frozen {
		return false
	}
	if t.localStep%t.cfg.UpdateFreq != 0 {
		return false
	}
	return surprise > t.cfg.SurpriseThreshold
}

// Update admits an entry unconditionally, replacing any previous entry for
// the key, and evicts the oldest entry if the write pushed the tier past
// capacity. Admission gating is ShouldUpdate's job.
func (t *Tier[P]) Update(key string, vector []float32, payload P, surprise float64, globalStep uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.write(key, vector, payload, surprise, globalStep)
	t.totalUpdates++
	t.surpriseSum += surprise
	t.lastUpdateStep = globalStep
}

func (t *Tier[P]) write(key string, vector []float32, payload P, surprise float64, globalStep uint64) {
	t.embeddings[key] = cloneVector(vector)
	t.entries[key] = MemoryEntry[P]{
		Key:       key,
		Payload:   payload,
		Surprise:  surprise,
		Step:      globalStep,
		Timestamp: time.Now(),
	}
	for len(t.entries) > t.cfg.Capacity {
		t.evictOldest()
	}
}

// evictOldest removes the entry with the smallest timestamp, breaking ties
// by key order so eviction is deterministic. Caller holds the write lock.
func (t *Tier[P]) evictOldest() {
	var (
		victim string
		oldest time.Time
		found  bool
	)
	for key, e := range t.entries {
		if !found || e.Timestamp.Before(oldest) || (e.Timestamp.Equal(oldest) && key < victim) {
			victim = key
			oldest = e.Timestamp
			found = true
		}
	}
	if !found {
		return
	}

	entry := t.entries[victim]
	vector := t.embeddings[victim]
	delete(t.entries, victim)
	delete(t.embeddings, victim)
	t.totalEvictions++

	if t.onEvict != nil {
		t.onEvict(entry, vector)
	}
}

// Get returns the stored embedding for key and counts the retrieval.
func (t *Tier[P]) Get(key string) ([]float32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.embeddings[key]
	if !ok {
		return nil, false
	}
	t.totalRetrievals++
	return cloneVector(v), true
}

// GetEntry returns the full stored entry for key without counting a
// retrieval.
func (t *Tier[P]) GetEntry(key string) (MemoryEntry[P], bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[key]
	return e, ok
}

// lookup is GetEntry for internal joins; kept separate so retrieval
// accounting stays in one place.
func (t *Tier[P]) lookup(key string) (MemoryEntry[P], bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[key]
	return e, ok
}

func (t *Tier[P]) noteEncode() {
	t.mu.Lock()
	t.totalEncodes++
	t.mu.Unlock()
}

func (t *Tier[P]) noteRetrieval() {
	t.mu.Lock()
	t.totalRetrievals++
	t.mu.Unlock()
}

// Step advances the tier's local step.
func (t *Tier[P]) Step() {
	t.mu.Lock()
	t.localStep++
	t.mu.Unlock()
}

// Len returns the number of entries currently held.
func (t *Tier[P]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Clear drops all entries. Counters and the local step are preserved; use
// reset via the owning System to zero everything.
func (t *Tier[P]) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.embeddings = make(map[string][]float32)
	t.entries = make(map[string]MemoryEntry[P])
}

// reset drops entries and zeroes counters and the local step.
func (t *Tier[P]) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.embeddings = make(map[string][]float32)
	t.entries = make(map[string]MemoryEntry[P])
	t.localStep = 0
	t.totalEncodes = 0
	t.totalUpdates = 0
	t.totalRetrievals = 0
	t.totalEvictions = 0
	t.surpriseSum = 0
	t.lastUpdateStep = 0
}

// Stats returns a snapshot of the tier's counters.
func (t *Tier[P]) Stats() TierStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	avg := 0.0
	if t.totalUpdates > 0 {
		avg = t.surpriseSum / float64(t.totalUpdates)
	}
	return TierStats{
		Size:            len(t.entries),
		Capacity:        t.cfg.Capacity,
		Frozen:          t.cfg.Frozen,
		TotalEncodes:    t.totalEncodes,
		TotalUpdates:    t.totalUpdates,
		TotalRetrievals: t.totalRetrievals,
		TotalEvictions:  t.totalEvictions,
		AvgSurprise:     avg,
		LastUpdateStep:  t.lastUpdateStep,
		LocalStep:       t.localStep,
	}
}
