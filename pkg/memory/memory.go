// Package memory implements Continuum's surprise-gated, multi-tier
// associative memory engine.
//
// A System owns a fixed set of named tiers, each a capacity-bounded store of
// (key -> embedding, key -> entry) pairs operating at its own temporal scale:
// cheap, frequent tiers admit almost everything while slow tiers admit only
// strong signals. Writes through UpdateLevel pass a three-part admission gate
// (not frozen, on cadence, surprise above threshold); writes through Store
// bypass the gate and additionally land in the shared similarity index that
// backs retrieval. Retrieval searches the shared index restricted to one
// tier and joins the hits back against that tier's live entries.
//
// The engine is synchronous: every operation completes before returning and
// holds no background goroutines. A System is a single shared mutable
// resource; its internal locking keeps invariants intact under concurrent
// use, but callers wanting a total order across operations must serialize
// access themselves.
package memory

import (
	"context"
	"errors"
)

// Sentinel errors for the memory engine.
var (
	ErrUnknownTier       = errors.New("memory: unknown tier")
	ErrInvalidTierConfig = errors.New("memory: invalid tier config")
	ErrDimensionMismatch = errors.New("memory: vector dimension mismatch")
	ErrUnknownStrategy   = errors.New("memory: unknown surprise strategy")
	ErrUnknownBackend    = errors.New("memory: unknown index backend")
	ErrNotFound          = errors.New("memory: entry not found")
)

// Encoder turns an opaque payload into a fixed-length embedding vector.
// The engine never inspects payloads; it only requires that the returned
// vector length equals Dimensions() on every call. The tier name is passed
// through so multi-level encoders can condition on the temporal scale; plain
// text encoders are free to ignore it.
type Encoder[P any] interface {
	Encode(ctx context.Context, tier string, payload P, hint string) ([]float32, error)
	Dimensions() int
}

// Logger is the minimal structured logger used by the engine. It is
// satisfied by pkg/logger.Logger; the default is a no-op.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}
