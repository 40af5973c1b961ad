package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/continuum/continuum/pkg/embedding"
	"github.com/continuum/continuum/pkg/memory"
)

type nopLogger struct{}

func (n *nopLogger) Debug(msg string, args ...any) {}
func (n *nopLogger) Info(msg string, args ...any)  {}
func (n *nopLogger) Warn(msg string, args ...any)  {}
func (n *nopLogger) Error(msg string, args ...any) {}

func setupMemoryHandler(t *testing.T) *MemoryHandler {
	t.Helper()

	encoder := embedding.NewJSONEncoder(embedding.NewMock(16))
	sys, err := memory.New[json.RawMessage](encoder, []memory.TierSpec{
		{Name: "fast", UpdateFreq: 1, LearningRate: 0.01},
		{Name: "slow", UpdateFreq: 1, LearningRate: 0.001},
	})
	require.NoError(t, err)

	return NewMemoryHandler(sys, &nopLogger{})
}

func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func postJSON(t *testing.T, h http.HandlerFunc, target, tier, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if tier != "" {
		req = withChiURLParam(req, "tier", tier)
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestMemoryHandler_Store(t *testing.T) {
	h := setupMemoryHandler(t)

	w := postJSON(t, h.Store, "/api/v1/memory/fast/entries", "fast",
		`{"key":"greeting","payload":"hello there"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp storeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "greeting", resp.Key)
	assert.Equal(t, "fast", resp.Tier)
}

func TestMemoryHandler_Store_UnknownTier(t *testing.T) {
	h := setupMemoryHandler(t)

	w := postJSON(t, h.Store, "/api/v1/memory/ghost/entries", "ghost",
		`{"key":"k","payload":"v"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "UNKNOWN_TIER")
}

func TestMemoryHandler_Store_InvalidBody(t *testing.T) {
	h := setupMemoryHandler(t)

	w := postJSON(t, h.Store, "/api/v1/memory/fast/entries", "fast", `{not json`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMemoryHandler_Store_MissingKey(t *testing.T) {
	h := setupMemoryHandler(t)

	w := postJSON(t, h.Store, "/api/v1/memory/fast/entries", "fast", `{"payload":"v"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_FAILED")
}

func TestMemoryHandler_Store_DimensionMismatch(t *testing.T) {
	h := setupMemoryHandler(t)

	w := postJSON(t, h.Store, "/api/v1/memory/fast/entries", "fast",
		`{"key":"k","payload":"v","embedding":[0.1,0.2]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMemoryHandler_UpdateLevel(t *testing.T) {
	h := setupMemoryHandler(t)

	w := postJSON(t, h.UpdateLevel, "/api/v1/memory/fast/updates", "fast",
		`{"key":"k","payload":"observation","surprise":0.9}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp updateResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Admitted)

	w = postJSON(t, h.UpdateLevel, "/api/v1/memory/fast/updates", "fast",
		`{"key":"k","payload":"observation","surprise":0.1}`)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Admitted)
}

func TestMemoryHandler_Retrieve(t *testing.T) {
	h := setupMemoryHandler(t)

	w := postJSON(t, h.Store, "/api/v1/memory/fast/entries", "fast",
		`{"key":"greeting","payload":"hello there"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, h.Retrieve, "/api/v1/memory/fast/retrieve", "fast",
		`{"query":"hello there","top_k":5}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Tier    string                                    `json:"tier"`
		Results []memory.RetrievalResult[json.RawMessage] `json:"results"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "greeting", resp.Results[0].Key)
	assert.InDelta(t, 1.0, float64(resp.Results[0].Similarity), 1e-4)
}

func TestMemoryHandler_Retrieve_MissingQuery(t *testing.T) {
	h := setupMemoryHandler(t)

	w := postJSON(t, h.Retrieve, "/api/v1/memory/fast/retrieve", "fast", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMemoryHandler_RetrieveSimilar(t *testing.T) {
	h := setupMemoryHandler(t)

	w := postJSON(t, h.Store, "/api/v1/memory/fast/entries", "fast",
		`{"key":"a","payload":"alpha"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = postJSON(t, h.Store, "/api/v1/memory/slow/entries", "slow",
		`{"key":"b","payload":"alpha"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	// No tiers in the request means all tiers.
	w = postJSON(t, h.RetrieveSimilar, "/api/v1/memory/retrieve", "",
		`{"query":"alpha","top_k":3}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Results map[string][]memory.RetrievalResult[json.RawMessage] `json:"results"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Results["fast"], 1)
	assert.Len(t, resp.Results["slow"], 1)
}

func TestMemoryHandler_EncodeMultiLevel(t *testing.T) {
	h := setupMemoryHandler(t)

	w := postJSON(t, h.EncodeMultiLevel, "/api/v1/memory/encode", "",
		`{"payload":"combine me","weights":{"fast":0.7,"slow":0.3}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp encodeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Embedding, 16)
}

func TestMemoryHandler_StepAndStats(t *testing.T) {
	h := setupMemoryHandler(t)

	w := postJSON(t, h.Step, "/api/v1/memory/step", "", ``)
	require.Equal(t, http.StatusOK, w.Code)

	var step stepResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&step))
	assert.Equal(t, uint64(1), step.GlobalStep)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/memory/stats", nil)
	w = httptest.NewRecorder()
	h.GetStats(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var stats memory.SystemStats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, uint64(1), stats.GlobalStep)
	assert.Contains(t, stats.Tiers, "fast")
	assert.Contains(t, stats.Tiers, "slow")
}

func TestMemoryHandler_Clear(t *testing.T) {
	h := setupMemoryHandler(t)

	w := postJSON(t, h.Store, "/api/v1/memory/fast/entries", "fast",
		`{"key":"k","payload":"v"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/memory", nil)
	rec := httptest.NewRecorder()
	h.Clear(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	reqStats := httptest.NewRequest(http.MethodGet, "/api/v1/memory/stats", nil)
	recStats := httptest.NewRecorder()
	h.GetStats(recStats, reqStats)

	var stats memory.SystemStats
	require.NoError(t, json.NewDecoder(recStats.Body).Decode(&stats))
	assert.Equal(t, 0, stats.IndexSize)
	assert.Equal(t, 0, stats.Tiers["fast"].Size)
}
