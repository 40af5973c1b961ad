package memory

import (
	"errors"
	"math"
	"testing"
)

func TestNewScorer_UnknownStrategy(t *testing.T) {
	_, err := NewScorer("euclid")
	if !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestNewScorer_DefaultsToMSE(t *testing.T) {
	s, err := NewScorer("")
	if err != nil {
		t.Fatal(err)
	}
	if s.Strategy() != StrategyMSE {
		t.Errorf("expected mse, got %s", s.Strategy())
	}
}

func TestScorer_IdenticalVectors(t *testing.T) {
	v := []float32{0.5, -0.2, 0.8}

	for _, strategy := range []Strategy{StrategyMSE, StrategyCosine, StrategyKL} {
		s, err := NewScorer(strategy)
		if err != nil {
			t.Fatal(err)
		}
		got := s.Score(v, v)
		if got > 1e-6 {
			t.Errorf("%s: expected ~0 for identical vectors, got %f", strategy, got)
		}
	}
}

func TestScorer_RangeAndDeterminism(t *testing.T) {
	a := []float32{1, 0, 0, 2}
	b := []float32{-1, 3, 0.5, 0}

	for _, strategy := range []Strategy{StrategyMSE, StrategyCosine, StrategyKL} {
		s, err := NewScorer(strategy)
		if err != nil {
			t.Fatal(err)
		}
		first := s.Score(a, b)
		second := s.Score(a, b)
		if first != second {
			t.Errorf("%s: not deterministic: %f vs %f", strategy, first, second)
		}
		if first < 0 || first > 1 || math.IsNaN(first) {
			t.Errorf("%s: score %f outside [0,1]", strategy, first)
		}
	}
}

func TestScorer_LengthMismatchIsMaximalSurprise(t *testing.T) {
	s, err := NewScorer(StrategyMSE)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Score([]float32{1, 2}, []float32{1, 2, 3}); got != 1.0 {
		t.Errorf("expected 1.0 on length mismatch, got %f", got)
	}
	if got := s.Score(nil, nil); got != 1.0 {
		t.Errorf("expected 1.0 on empty vectors, got %f", got)
	}
}

func TestScorer_MSEOrdering(t *testing.T) {
	s, err := NewScorer(StrategyMSE)
	if err != nil {
		t.Fatal(err)
	}
	actual := []float32{1, 1, 1}
	near := s.Score(actual, []float32{1, 1, 0.9})
	far := s.Score(actual, []float32{0, 0, 0})
	if near >= far {
		t.Errorf("expected near prediction to score lower: near=%f far=%f", near, far)
	}
}

func TestScorer_CosineOpposedVectors(t *testing.T) {
	s, err := NewScorer(StrategyCosine)
	if err != nil {
		t.Fatal(err)
	}
	got := s.Score([]float32{1, 0}, []float32{-1, 0})
	if math.Abs(got-1.0) > 1e-6 {
		t.Errorf("expected ~1.0 for opposed vectors, got %f", got)
	}
}
