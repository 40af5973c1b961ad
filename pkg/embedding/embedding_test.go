package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	ctx := context.Background()
	m := NewMock(64)

	a, err := m.Embed(ctx, "hello world")
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Embed(ctx, "hello world")
	if err != nil {
		t.Fatal(err)
	}

	if len(a) != 64 {
		t.Fatalf("expected 64 dims, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("not deterministic at %d: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestMockEmbedder_UnitNorm(t *testing.T) {
	ctx := context.Background()
	m := NewMock(32)

	v, err := m.Embed(ctx, "some text")
	if err != nil {
		t.Fatal(err)
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 1e-4 {
		t.Errorf("expected unit norm, got %f", math.Sqrt(norm))
	}
}

func TestMockEmbedder_DistinctTexts(t *testing.T) {
	ctx := context.Background()
	m := NewMock(32)

	a, _ := m.Embed(ctx, "first")
	b, _ := m.Embed(ctx, "second")

	if CosineSimilarity(a, b) > 0.99 {
		t.Error("distinct texts produced near-identical vectors")
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 0}, []float32{1, 0}); math.Abs(float64(got)-1) > 1e-6 {
		t.Errorf("identical vectors: expected 1, got %f", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{0, 1}); math.Abs(float64(got)) > 1e-6 {
		t.Errorf("orthogonal vectors: expected 0, got %f", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}); got != 0 {
		t.Errorf("length mismatch: expected 0, got %f", got)
	}
	if got := CosineSimilarity([]float32{0, 0}, []float32{1, 0}); got != 0 {
		t.Errorf("zero norm: expected 0, got %f", got)
	}
}

func TestOllamaEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Prompt != "embed me" {
			t.Errorf("unexpected prompt %q", req.Prompt)
		}
		json.NewEncoder(w).Encode(ollamaResponse{Embedding: []float32{0.1, 0.2}})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "nomic-embed-text")
	v, err := e.Embed(context.Background(), "embed me")
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != 2 || v[0] != 0.1 {
		t.Errorf("unexpected vector %v", v)
	}
}

func TestOpenAIEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Write([]byte(`{"data":[{"embedding":[0.5,0.6,0.7]}]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(srv.URL, "sk-test", "text-embedding-3-small", 3)
	v, err := e.Embed(context.Background(), "embed me")
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != 3 || v[2] != 0.7 {
		t.Errorf("unexpected vector %v", v)
	}
}

func TestOpenAIEmbedder_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(srv.URL, "sk-test", "", 0)
	if _, err := e.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	if _, err := New("sbert", "", "", "", 0); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestTextEncoder(t *testing.T) {
	ctx := context.Background()
	enc := NewTextEncoder(NewMock(16))

	if enc.Dimensions() != 16 {
		t.Fatalf("expected 16 dims, got %d", enc.Dimensions())
	}

	plain, err := enc.Encode(ctx, "fast", "payload", "")
	if err != nil {
		t.Fatal(err)
	}
	hinted, err := enc.Encode(ctx, "fast", "payload", "conversation with alice")
	if err != nil {
		t.Fatal(err)
	}
	if CosineSimilarity(plain, hinted) > 0.999 {
		t.Error("hint did not influence the embedding")
	}
}

func TestJSONEncoder_UnwrapsStrings(t *testing.T) {
	ctx := context.Background()
	mock := NewMock(16)
	enc := NewJSONEncoder(mock)

	fromJSON, err := enc.Encode(ctx, "fast", json.RawMessage(`"hello"`), "")
	if err != nil {
		t.Fatal(err)
	}
	direct, err := mock.Embed(ctx, "hello")
	if err != nil {
		t.Fatal(err)
	}
	for i := range direct {
		if fromJSON[i] != direct[i] {
			t.Fatalf("JSON string must embed like its contents, mismatch at %d", i)
		}
	}
}
