package memory

import (
	"fmt"
	"math"

	"github.com/viterin/vek/vek32"
)

// Strategy selects how a Scorer turns (actual, predicted) into surprise.
type Strategy string

const (
	// StrategyMSE scores by mean squared error, squashed to [0,1].
	StrategyMSE Strategy = "mse"
	// StrategyCosine scores by cosine distance rescaled to [0,1].
	StrategyCosine Strategy = "cosine"
	// StrategyKL scores by KL divergence over softmax-normalized inputs,
	// squashed to [0,1].
	StrategyKL Strategy = "kl"
)

// Scorer computes a surprise value in [0,1] from an observed vector and a
// prediction of it. Scorers are stateless and safe for concurrent use. A
// length mismatch between the two vectors scores maximal surprise rather
// than erroring; admission gates treat malformed predictions as novel.
type Scorer struct {
	strategy Strategy
}

// NewScorer returns a scorer for the given strategy. An empty strategy
// selects mse.
func NewScorer(strategy Strategy) (*Scorer, error) {
	switch strategy {
	case "":
		strategy = StrategyMSE
	case StrategyMSE, StrategyCosine, StrategyKL:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	return &Scorer{strategy: strategy}, nil
}

// Strategy reports the strategy this scorer was built with.
func (s *Scorer) Strategy() Strategy { return s.strategy }

// Score returns the surprise of actual given predicted, in [0,1].
func (s *Scorer) Score(actual, predicted []float32) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 1.0
	}
	switch s.strategy {
	case StrategyCosine:
		return scoreCosine(actual, predicted)
	case StrategyKL:
		return scoreKL(actual, predicted)
	default:
		return scoreMSE(actual, predicted)
	}
}

func scoreMSE(actual, predicted []float32) float64 {
	var sum float64
	for i := range actual {
		d := float64(actual[i]) - float64(predicted[i])
		sum += d * d
	}
	m := sum / float64(len(actual))
	return m / (1 + m)
}

func scoreCosine(actual, predicted []float32) float64 {
	cos := cosineSimilarity(actual, predicted)
	return float64(1-cos) / 2
}

func scoreKL(actual, predicted []float32) float64 {
	p := softmax(actual)
	q := softmax(predicted)
	var div float64
	for i := range p {
		div += p[i] * math.Log(p[i]/q[i])
	}
	if div < 0 {
		div = 0
	}
	return div / (1 + div)
}

// softmax normalizes a vector into a strictly positive distribution,
// shifting by the max for numerical stability.
func softmax(v []float32) []float64 {
	maxV := float64(v[0])
	for _, x := range v[1:] {
		if float64(x) > maxV {
			maxV = float64(x)
		}
	}
	out := make([]float64, len(v))
	var sum float64
	for i, x := range v {
		e := math.Exp(float64(x) - maxV)
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// cosineSimilarity returns the cosine of the angle between a and b, or 0
// when either vector has zero norm.
func cosineSimilarity(a, b []float32) float32 {
	dot := vek32.Dot(a, b)
	na := vek32.Norm(a)
	nb := vek32.Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (na * nb)
}
