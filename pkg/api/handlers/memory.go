package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/continuum/continuum/pkg/api/middleware"
	"github.com/continuum/continuum/pkg/api/response"
	"github.com/continuum/continuum/pkg/memory"
)

// MemoryHandler handles memory-related API endpoints.
type MemoryHandler struct {
	system *memory.System[json.RawMessage]
	logger memoryLogger
}

type memoryLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NewMemoryHandler creates a new memory handler.
func NewMemoryHandler(sys *memory.System[json.RawMessage], log memoryLogger) *MemoryHandler {
	return &MemoryHandler{
		system: sys,
		logger: log,
	}
}

func getRequestID(r *http.Request) string {
	return middleware.GetRequestID(r.Context())
}

// --- Request/Response types ---

type storeRequest struct {
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	Embedding []float32       `json:"embedding,omitempty"`
}

type storeResponse struct {
	Key  string `json:"key"`
	Tier string `json:"tier"`
}

type updateRequest struct {
	Key      string          `json:"key"`
	Payload  json.RawMessage `json:"payload"`
	Surprise float64         `json:"surprise"`
}

type updateResponse struct {
	Admitted bool `json:"admitted"`
}

type retrieveRequest struct {
	Query json.RawMessage `json:"query"`
	TopK  int             `json:"top_k,omitempty"`
}

type retrieveSimilarRequest struct {
	Query json.RawMessage `json:"query"`
	Tiers []string        `json:"tiers"`
	TopK  int             `json:"top_k,omitempty"`
}

type encodeRequest struct {
	Payload json.RawMessage    `json:"payload"`
	Hint    string             `json:"hint,omitempty"`
	Weights map[string]float64 `json:"weights,omitempty"`
}

type encodeResponse struct {
	Embedding []float32 `json:"embedding"`
}

type stepResponse struct {
	GlobalStep uint64 `json:"global_step"`
}

// Store handles POST /api/v1/memory/{tier}/entries
func (h *MemoryHandler) Store(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tier := chi.URLParam(r, "tier")

	var req storeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(r))
		return
	}

	if req.Key == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Key is required", getRequestID(r))
		return
	}
	if len(req.Payload) == 0 {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Payload is required", getRequestID(r))
		return
	}

	if err := h.system.Store(ctx, tier, req.Key, req.Payload, req.Embedding); err != nil {
		h.logger.Error("Failed to store entry", "tier", tier, "key", req.Key, "error", err)
		response.HandleError(w, err, getRequestID(r))
		return
	}

	response.JSON(w, http.StatusCreated, storeResponse{Key: req.Key, Tier: tier})
}

// UpdateLevel handles POST /api/v1/memory/{tier}/updates
func (h *MemoryHandler) UpdateLevel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tier := chi.URLParam(r, "tier")

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(r))
		return
	}

	if req.Key == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Key is required", getRequestID(r))
		return
	}
	if len(req.Payload) == 0 {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Payload is required", getRequestID(r))
		return
	}

	admitted, err := h.system.UpdateLevel(ctx, tier, req.Key, req.Payload, req.Surprise)
	if err != nil {
		h.logger.Error("Failed to update tier", "tier", tier, "key", req.Key, "error", err)
		response.HandleError(w, err, getRequestID(r))
		return
	}

	response.JSON(w, http.StatusOK, updateResponse{Admitted: admitted})
}

// Retrieve handles POST /api/v1/memory/{tier}/retrieve
func (h *MemoryHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tier := chi.URLParam(r, "tier")

	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(r))
		return
	}

	if len(req.Query) == 0 {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Query is required", getRequestID(r))
		return
	}
	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}

	results, err := h.system.Retrieve(ctx, req.Query, tier, topK)
	if err != nil {
		h.logger.Error("Failed to retrieve", "tier", tier, "error", err)
		response.HandleError(w, err, getRequestID(r))
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"tier":    tier,
		"results": results,
	})
}

// RetrieveSimilar handles POST /api/v1/memory/retrieve
func (h *MemoryHandler) RetrieveSimilar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req retrieveSimilarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(r))
		return
	}

	if len(req.Query) == 0 {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Query is required", getRequestID(r))
		return
	}
	tiers := req.Tiers
	if len(tiers) == 0 {
		tiers = h.system.TierNames()
	}
	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}

	results, err := h.system.RetrieveSimilar(ctx, req.Query, tiers, topK)
	if err != nil {
		h.logger.Error("Failed to retrieve across tiers", "error", err)
		response.HandleError(w, err, getRequestID(r))
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

// EncodeMultiLevel handles POST /api/v1/memory/encode
func (h *MemoryHandler) EncodeMultiLevel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req encodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "Invalid request body", getRequestID(r))
		return
	}

	if len(req.Payload) == 0 {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "Payload is required", getRequestID(r))
		return
	}

	vec, err := h.system.EncodeMultiLevel(ctx, req.Payload, req.Hint, req.Weights)
	if err != nil {
		h.logger.Error("Failed to encode payload", "error", err)
		response.HandleError(w, err, getRequestID(r))
		return
	}

	response.JSON(w, http.StatusOK, encodeResponse{Embedding: vec})
}

// Step handles POST /api/v1/memory/step
func (h *MemoryHandler) Step(w http.ResponseWriter, r *http.Request) {
	h.system.Step()
	response.JSON(w, http.StatusOK, stepResponse{GlobalStep: h.system.GlobalStep()})
}

// GetStats handles GET /api/v1/memory/stats
func (h *MemoryHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.system.Stats())
}

// Clear handles DELETE /api/v1/memory
func (h *MemoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.system.Clear(r.Context()); err != nil {
		h.logger.Error("Failed to clear memory", "error", err)
		response.HandleError(w, err, getRequestID(r))
		return
	}
	response.JSON(w, http.StatusOK, map[string]bool{"cleared": true})
}
