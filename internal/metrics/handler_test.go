package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestHandler_ServesMetrics はスクレイプでメトリクスが返ることを検証する。
func TestHandler_ServesMetrics(t *testing.T) {
	reg := NewRegistry()
	c := NewCollector(reg)
	c.RecordTaskOperation("create")

	handler := Handler(reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	if !strings.Contains(bodyStr, "taskman_task_operations_total") {
		t.Error("response should contain taskman_task_operations_total metric")
	}
	// ランタイムのメトリクスも含まれる
	if !strings.Contains(bodyStr, "go_goroutines") {
		t.Error("response should contain go_goroutines metric")
	}
}
