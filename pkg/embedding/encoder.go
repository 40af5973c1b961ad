package embedding

import (
	"context"
	"encoding/json"
)

// TextEncoder adapts an Embedder to the memory engine's encoder boundary
// for string payloads. The tier name is ignored; every tier shares the one
// embedding space. A non-empty hint is embedded alongside the payload.
type TextEncoder struct {
	embedder Embedder
}

// NewTextEncoder wraps an embedder.
func NewTextEncoder(e Embedder) *TextEncoder {
	return &TextEncoder{embedder: e}
}

func (t *TextEncoder) Encode(ctx context.Context, tier, payload, hint string) ([]float32, error) {
	text := payload
	if hint != "" {
		text = hint + "\n" + payload
	}
	return t.embedder.Embed(ctx, text)
}

func (t *TextEncoder) Dimensions() int { return t.embedder.Dims() }

// JSONEncoder adapts an Embedder to the encoder boundary for raw JSON
// payloads, as used by the HTTP API. Strings are unwrapped before
// embedding so `"hello"` and a plain hello embed identically; any other
// JSON value is embedded as its serialized text.
type JSONEncoder struct {
	embedder Embedder
}

// NewJSONEncoder wraps an embedder.
func NewJSONEncoder(e Embedder) *JSONEncoder {
	return &JSONEncoder{embedder: e}
}

func (j *JSONEncoder) Encode(ctx context.Context, tier string, payload json.RawMessage, hint string) ([]float32, error) {
	text := string(payload)
	var s string
	if err := json.Unmarshal(payload, &s); err == nil {
		text = s
	}
	if hint != "" {
		text = hint + "\n" + text
	}
	return j.embedder.Embed(ctx, text)
}

func (j *JSONEncoder) Dimensions() int { return j.embedder.Dims() }
