package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// recordedRequest はRecordHTTPRequestの呼び出し内容。
type recordedRequest struct {
	method string
	route  string
	status int
}

// mockMetrics はHTTPリクエストの記録だけを保持するMetricsCollector。
type mockMetrics struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (m *mockMetrics) RecordHTTPRequest(method, route string, status int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, recordedRequest{method, route, status})
}
func (m *mockMetrics) RecordAuthEvent(string, string) {}
func (m *mockMetrics) RecordTaskOperation(string)     {}
func (m *mockMetrics) RecordMailDelivery(bool)        {}

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	mc := &mockMetrics{}
	r := chi.NewRouter()
	r.Use(NewMetricsMiddleware(mc))
	r.Delete("/delete_task/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodDelete, "/delete_task/3f2c6d1e-0000-4000-8000-000000000000", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	if len(mc.requests) != 1 {
		t.Fatalf("recorded %d requests, want 1", len(mc.requests))
	}
	got := mc.requests[0]
	want := recordedRequest{http.MethodDelete, "/delete_task/{id}", http.StatusNotFound}
	if got != want {
		t.Errorf("recorded = %+v, want %+v", got, want)
	}
}

func TestMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	mc := &mockMetrics{}
	handler := NewMetricsMiddleware(mc)(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	if len(mc.requests) != 1 || mc.requests[0].route != unmatchedRoute {
		t.Errorf("recorded = %+v, want route %q", mc.requests, unmatchedRoute)
	}
}
