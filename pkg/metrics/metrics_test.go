package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewManager(t *testing.T) {
	m := NewManager(DefaultConfig())
	if m == nil {
		t.Fatal("NewManager returned nil")
	}
	if !m.Enabled() {
		t.Error("expected metrics to be enabled")
	}
}

func TestNewManager_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false

	m := NewManager(cfg)
	if m.Enabled() {
		t.Error("expected metrics to be disabled")
	}
}

func TestEngineMetricsExposed(t *testing.T) {
	m := NewManager(DefaultConfig())

	m.RecordStore("fast")
	m.RecordUpdate("fast", true)
	m.RecordUpdate("fast", false)
	m.RecordRetrieval("fast", 3)
	m.RecordEviction("fast")
	m.ObserveSearchDuration("fast", 0.002)
	m.SetTierSize("fast", 7)
	m.SetIndexSize(12)
	m.RecordHTTPRequest("POST", "/v1/memory/{tier}/store", "200", 3*time.Millisecond)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	expected := []string{
		"memory_stores_total",
		"memory_updates_total",
		"memory_retrievals_total",
		"memory_retrieval_hits",
		"memory_evictions_total",
		"memory_search_duration_seconds",
		"memory_tier_size",
		"memory_index_size",
		"http_requests_total",
		"http_request_duration_seconds",
	}
	for _, metric := range expected {
		if !strings.Contains(body, metric) {
			t.Errorf("expected metric %s not found in output", metric)
		}
	}
	if !strings.Contains(body, `outcome="admitted"`) || !strings.Contains(body, `outcome="rejected"`) {
		t.Error("expected both update outcomes in output")
	}
}

func TestHandler_Disabled(t *testing.T) {
	m := NoOpManager()

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 when disabled, got %d", w.Code)
	}
}

func TestNoOpManagerDoesNotPanic(t *testing.T) {
	m := NoOpManager()

	m.RecordStore("fast")
	m.RecordUpdate("fast", true)
	m.RecordRetrieval("fast", 0)
	m.RecordEviction("fast")
	m.ObserveSearchDuration("fast", 0.1)
	m.SetTierSize("fast", 1)
	m.SetIndexSize(1)
	m.RecordHTTPRequest("GET", "/healthz", "200", time.Millisecond)
}

func TestStatusLabel(t *testing.T) {
	if got := StatusLabel(http.StatusTeapot); got != "418" {
		t.Errorf("expected 418, got %s", got)
	}
}
