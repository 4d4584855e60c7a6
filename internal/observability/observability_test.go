package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "info", Format: "json", Output: &buf})

	logger.With("component", "test").Info("store opened", "backend", "mongodb", "attempts", 2, "err", errors.New("boom"))

	var got map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if got["message"] != "store opened" {
		t.Fatalf("unexpected message: %v", got["message"])
	}
	if got["level"] != "info" {
		t.Fatalf("unexpected level: %v", got["level"])
	}
	if got["component"] != "test" || got["backend"] != "mongodb" {
		t.Fatalf("missing attributes: %v", got)
	}
	if got["attempts"] != float64(2) {
		t.Fatalf("expected numeric attempts, got %v", got["attempts"])
	}
	if got["err"] != "boom" {
		t.Fatalf("expected error text, got %v", got["err"])
	}
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Output: &buf})

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected warn line, got %q", buf.String())
	}
}

func TestNewLoggerGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Output: &buf})

	logger.WithGroup("http").Info("request", "status", 201)

	var got map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if got["http.status"] != float64(201) {
		t.Fatalf("expected grouped key http.status, got %v", got)
	}
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.ObserveRequest(http.MethodGet, "/media/{id}/analytics", http.StatusOK, 5*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/media/{id}/analytics", http.StatusOK, 7*time.Millisecond)
	m.TokenIssued("stream")
	m.ViewRecorded()

	if got := testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/media/{id}/analytics", "200")); got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.tokensIssued.WithLabelValues("stream")); got != 1 {
		t.Fatalf("expected 1 stream token, got %v", got)
	}
	if got := testutil.ToFloat64(m.viewsRecorded); got != 1 {
		t.Fatalf("expected 1 view, got %v", got)
	}
}

func TestMetricsHandlerExposesSeries(t *testing.T) {
	m := NewMetrics()
	m.TokenIssued("session")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `tokens_issued_total{kind="session"} 1`) {
		t.Fatalf("expected tokens_issued_total series in body")
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	m.TokenIssued("session")
	m.ViewRecorded()
}
