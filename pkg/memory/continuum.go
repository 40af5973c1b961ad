package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/viterin/vek/vek32"
)

// TierSpec is the constructor-time description of one tier. Parameters not
// listed here take the defaults from DefaultTierConfig.
type TierSpec struct {
	Name         string
	UpdateFreq   uint64
	LearningRate float64
}

// Metrics receives engine events. Implemented by pkg/metrics.Manager; the
// default is a no-op.
type Metrics interface {
	RecordStore(tier string)
	RecordUpdate(tier string, admitted bool)
	RecordRetrieval(tier string, hits int)
	RecordEviction(tier string)
	ObserveSearchDuration(tier string, seconds float64)
	SetTierSize(tier string, size int)
	SetIndexSize(size int)
}

type nopMetrics struct{}

func (nopMetrics) RecordStore(string)                  {}
func (nopMetrics) RecordUpdate(string, bool)           {}
func (nopMetrics) RecordRetrieval(string, int)         {}
func (nopMetrics) RecordEviction(string)               {}
func (nopMetrics) ObserveSearchDuration(string, float64) {}
func (nopMetrics) SetTierSize(string, int)             {}
func (nopMetrics) SetIndexSize(int)                    {}

// System is the continuum memory engine: a fixed set of named tiers, one
// shared similarity index, one global step counter. Construct with New or
// NewFromTierConfigs; the zero value is not usable.
type System[P any] struct {
	id        string
	encoder   Encoder[P]
	dimension int
	scorer    *Scorer
	index     Index
	logger    Logger
	metrics   Metrics
	tracer    trace.Tracer
	archive   Archive[P]

	mu         sync.RWMutex
	tiers      map[string]*Tier[P]
	order      []string
	globalStep uint64
}

// Option configures a System at construction.
type Option[P any] func(*System[P])

// WithLogger sets the engine's logger.
func WithLogger[P any](l Logger) Option[P] {
	return func(s *System[P]) { s.logger = l }
}

// WithMetrics sets the engine's metrics sink.
func WithMetrics[P any](m Metrics) Option[P] {
	return func(s *System[P]) { s.metrics = m }
}

// WithIndex replaces the default linear index backend.
func WithIndex[P any](idx Index) Option[P] {
	return func(s *System[P]) { s.index = idx }
}

// WithScorer replaces the default mse surprise scorer.
func WithScorer[P any](sc *Scorer) Option[P] {
	return func(s *System[P]) { s.scorer = sc }
}

// WithArchive attaches a cold store that receives entries evicted from any
// tier.
func WithArchive[P any](a Archive[P]) Option[P] {
	return func(s *System[P]) { s.archive = a }
}

// New constructs a System from tier specs, applying default tier parameters
// for everything a spec does not carry.
func New[P any](encoder Encoder[P], specs []TierSpec, opts ...Option[P]) (*System[P], error) {
	cfgs := make([]TierConfig, 0, len(specs))
	for _, spec := range specs {
		cfg := DefaultTierConfig(spec.Name)
		if spec.UpdateFreq > 0 {
			cfg.UpdateFreq = spec.UpdateFreq
		}
		if spec.LearningRate > 0 {
			cfg.LearningRate = spec.LearningRate
		}
		cfgs = append(cfgs, cfg)
	}
	return NewFromTierConfigs(encoder, cfgs, opts...)
}

// NewFromTierConfigs constructs a System from fully specified tier configs.
// Tiers are created eagerly; an invalid config fails construction.
func NewFromTierConfigs[P any](encoder Encoder[P], cfgs []TierConfig, opts ...Option[P]) (*System[P], error) {
	if encoder == nil {
		return nil, fmt.Errorf("%w: nil encoder", ErrInvalidTierConfig)
	}
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("%w: no tiers", ErrInvalidTierConfig)
	}

	scorer, _ := NewScorer(StrategyMSE)
	s := &System[P]{
		id:        uuid.NewString(),
		encoder:   encoder,
		dimension: encoder.Dimensions(),
		scorer:    scorer,
		logger:    nopLogger{},
		metrics:   nopMetrics{},
		tracer:    otel.Tracer("continuum/memory"),
		tiers:     make(map[string]*Tier[P], len(cfgs)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.index == nil {
		s.index = NewLinearIndex(s.dimension)
	}

	for _, cfg := range cfgs {
		if _, dup := s.tiers[cfg.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate tier %q", ErrInvalidTierConfig, cfg.Name)
		}
		tier, err := NewTier[P](cfg)
		if err != nil {
			return nil, err
		}
		s.installEvictionHook(tier)
		s.tiers[cfg.Name] = tier
		s.order = append(s.order, cfg.Name)
	}

	s.logger.Info("memory system created",
		"system_id", s.id,
		"tiers", len(s.order),
		"dimension", s.dimension,
		"scorer", string(s.scorer.Strategy()),
	)
	return s, nil
}

func (s *System[P]) installEvictionHook(tier *Tier[P]) {
	name := tier.Name()
	tier.onEvict = func(entry MemoryEntry[P], vector []float32) {
		s.metrics.RecordEviction(name)
		if s.archive == nil {
			return
		}
		if err := s.archive.Put(context.Background(), name, entry, vector); err != nil {
			s.logger.Warn("archive write failed", "tier", name, "key", entry.Key, "error", err)
		}
	}
}

// ID returns the instance identifier used in logs and traces.
func (s *System[P]) ID() string { return s.id }

// Dimension returns the embedding dimensionality shared by all tiers and
// the index.
func (s *System[P]) Dimension() int { return s.dimension }

// TierNames returns the tier names in creation order.
func (s *System[P]) TierNames() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *System[P]) tier(name string) (*Tier[P], error) {
	t, ok := s.tiers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTier, name)
	}
	return t, nil
}

// encode runs the external encoder for one tier and validates the result's
// dimensionality.
func (s *System[P]) encode(ctx context.Context, tier *Tier[P], payload P, hint string) ([]float32, error) {
	vec, err := s.encoder.Encode(ctx, tier.Name(), payload, hint)
	if err != nil {
		return nil, fmt.Errorf("memory: encode for tier %q: %w", tier.Name(), err)
	}
	if len(vec) != s.dimension {
		return nil, fmt.Errorf("%w: encoder returned %d, system expects %d", ErrDimensionMismatch, len(vec), s.dimension)
	}
	tier.noteEncode()
	return vec, nil
}

// Score computes surprise between an observed and a predicted vector using
// the system's scorer. Provided so callers gating UpdateLevel do not need
// to hold a Scorer of their own.
func (s *System[P]) Score(actual, predicted []float32) float64 {
	return s.scorer.Score(actual, predicted)
}

// Store writes an entry into the named tier unconditionally and adds it to
// the shared index. A nil embedding is computed via the tier's encoder; a
// supplied one must match the system dimension. This is the explicit
// "remember this now" path and bypasses the surprise gate.
func (s *System[P]) Store(ctx context.Context, tierName, key string, payload P, embedding []float32) error {
	ctx, span := s.tracer.Start(ctx, "memory.Store",
		trace.WithAttributes(attribute.String("tier", tierName), attribute.String("key", key)))
	defer span.End()

	t, err := s.tier(tierName)
	if err != nil {
		return err
	}

	if embedding == nil {
		embedding, err = s.encode(ctx, t, payload, "")
		if err != nil {
			return err
		}
	} else if len(embedding) != s.dimension {
		return fmt.Errorf("%w: got %d, system expects %d", ErrDimensionMismatch, len(embedding), s.dimension)
	}

	s.mu.RLock()
	step := s.globalStep
	s.mu.RUnlock()

	t.mu.Lock()
	t.write(key, embedding, payload, 0, step)
	t.mu.Unlock()

	if err := s.index.Add(ctx, key, embedding, map[string]string{"tier": tierName}); err != nil {
		return err
	}

	s.metrics.RecordStore(tierName)
	s.metrics.SetTierSize(tierName, t.Len())
	s.metrics.SetIndexSize(s.index.Size())
	s.logger.Debug("stored entry", "tier", tierName, "key", key, "step", step)
	return nil
}

// UpdateLevel offers an observation to the named tier through the surprise
// gate. It returns whether the write was admitted. Admitted writes replace
// any existing entry for the key; they do not touch the shared index, which
// is only fed by Store.
func (s *System[P]) UpdateLevel(ctx context.Context, tierName, key string, payload P, surprise float64) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "memory.UpdateLevel",
		trace.WithAttributes(attribute.String("tier", tierName), attribute.Float64("surprise", surprise)))
	defer span.End()

	t, err := s.tier(tierName)
	if err != nil {
		return false, err
	}

	if !t.ShouldUpdate(surprise) {
		s.metrics.RecordUpdate(tierName, false)
		return false, nil
	}

	vec, err := s.encode(ctx, t, payload, "")
	if err != nil {
		return false, err
	}

	s.mu.RLock()
	step := s.globalStep
	s.mu.RUnlock()

	t.Update(key, vec, payload, surprise, step)

	s.metrics.RecordUpdate(tierName, true)
	s.metrics.SetTierSize(tierName, t.Len())
	s.logger.Debug("admitted update", "tier", tierName, "key", key, "surprise", surprise, "step", step)
	return true, nil
}

// Retrieve encodes the query with the target tier's encoder, searches the
// shared index restricted to that tier, and joins the hits back against the
// tier's live entries. Hits whose key has since left the tier are dropped,
// so fewer than k results may come back. Results are ordered by descending
// similarity, ties broken by index insertion order.
func (s *System[P]) Retrieve(ctx context.Context, query P, tierName string, k int) ([]RetrievalResult[P], error) {
	ctx, span := s.tracer.Start(ctx, "memory.Retrieve",
		trace.WithAttributes(attribute.String("tier", tierName), attribute.Int("k", k)))
	defer span.End()

	t, err := s.tier(tierName)
	if err != nil {
		return nil, err
	}

	vec, err := s.encode(ctx, t, query, "")
	if err != nil {
		return nil, err
	}

	start := time.Now()
	hits, err := s.index.Search(ctx, vec, k, TierFilter(tierName))
	s.metrics.ObserveSearchDuration(tierName, time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	results := make([]RetrievalResult[P], 0, len(hits))
	for _, hit := range hits {
		entry, ok := t.lookup(hit.Key)
		if !ok {
			continue
		}
		results = append(results, RetrievalResult[P]{
			Key:        hit.Key,
			Similarity: hit.Similarity,
			Payload:    entry.Payload,
		})
	}

	t.noteRetrieval()
	s.metrics.RecordRetrieval(tierName, len(results))
	return results, nil
}

// RetrieveSimilar fans Retrieve out over the requested tiers. Names not
// registered are skipped without error; the fan-out is a convenience, not
// atomic across tiers.
func (s *System[P]) RetrieveSimilar(ctx context.Context, query P, tierNames []string, k int) (map[string][]RetrievalResult[P], error) {
	out := make(map[string][]RetrievalResult[P], len(tierNames))
	for _, name := range tierNames {
		if _, ok := s.tiers[name]; !ok {
			s.logger.Debug("skipping unknown tier in fan-out", "tier", name)
			continue
		}
		results, err := s.Retrieve(ctx, query, name, k)
		if err != nil {
			return nil, err
		}
		out[name] = results
	}
	return out, nil
}

// EncodeMultiLevel encodes the payload once per tier and returns the
// weighted sum of the per-tier vectors, normalized by the weight total.
// A nil weights map, or one summing to zero, weights every tier equally.
func (s *System[P]) EncodeMultiLevel(ctx context.Context, payload P, hint string, weights map[string]float64) ([]float32, error) {
	ctx, span := s.tracer.Start(ctx, "memory.EncodeMultiLevel")
	defer span.End()

	var total float64
	for _, name := range s.order {
		total += weights[name]
	}
	equal := weights == nil || total == 0

	out := make([]float32, s.dimension)
	for _, name := range s.order {
		t := s.tiers[name]
		vec, err := s.encode(ctx, t, payload, hint)
		if err != nil {
			return nil, err
		}
		var w float64
		if equal {
			w = 1 / float64(len(s.order))
		} else {
			w = weights[name] / total
		}
		vek32.Add_Inplace(out, vek32.MulNumber(vec, float32(w)))
	}
	return out, nil
}

// Step advances the global step and every tier's local step. Tiers advance
// in lock-step here but keep independent counters.
func (s *System[P]) Step() {
	s.mu.Lock()
	s.globalStep++
	s.mu.Unlock()
	for _, name := range s.order {
		s.tiers[name].Step()
	}
}

// GlobalStep returns the current global step.
func (s *System[P]) GlobalStep() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.globalStep
}

// Stats snapshots the whole system.
func (s *System[P]) Stats() SystemStats {
	s.mu.RLock()
	step := s.globalStep
	s.mu.RUnlock()

	tiers := make(map[string]TierStats, len(s.order))
	for _, name := range s.order {
		tiers[name] = s.tiers[name].Stats()
	}
	return SystemStats{
		GlobalStep: step,
		IndexSize:  s.index.Size(),
		Tiers:      tiers,
	}
}

// Clear resets every tier, the shared index, and the global step to their
// initial empty state. The System itself stays usable.
func (s *System[P]) Clear(ctx context.Context) error {
	for _, name := range s.order {
		s.tiers[name].reset()
		s.metrics.SetTierSize(name, 0)
	}
	if err := s.index.Clear(ctx); err != nil {
		return err
	}
	s.metrics.SetIndexSize(0)

	s.mu.Lock()
	s.globalStep = 0
	s.mu.Unlock()

	s.logger.Info("memory system cleared", "system_id", s.id)
	return nil
}
