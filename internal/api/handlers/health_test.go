package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/blazen1013/setting/internal/config"
)

// stubChecker — фиксированный результат проверки готовности.
type stubChecker struct {
	status, message string
}

func (s stubChecker) CheckReady(context.Context) (string, string) {
	return s.status, s.message
}

func newHealthRouter(checker ReadinessChecker) http.Handler {
	r := chi.NewRouter()
	NewHealthHandler(checker, config.VariantBrowser).Routes(r)
	return r
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	newHealthRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp healthLiveResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Service != serviceName || resp.Variant != "browser" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		checker    ReadinessChecker
		wantCode   int
		wantStatus string
	}{
		{"ok", stubChecker{status: "ok"}, http.StatusOK, "ok"},
		{"degraded", stubChecker{status: "degraded", message: "первая проверка не завершена"}, http.StatusOK, "degraded"},
		{"fail", stubChecker{status: "fail", message: "connection refused"}, http.StatusServiceUnavailable, "fail"},
		{"nil checker", nil, http.StatusServiceUnavailable, "fail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newHealthRouter(tt.checker).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			var resp healthReadyResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantStatus)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newHealthRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("ответ /metrics не содержит стандартных метрик")
	}
}

func TestOverallStatus(t *testing.T) {
	if got := overallStatus("ok", "degraded"); got != "degraded" {
		t.Errorf("got %q", got)
	}
	if got := overallStatus("degraded", "fail"); got != "fail" {
		t.Errorf("got %q", got)
	}
	if got := overallStatus(); got != "ok" {
		t.Errorf("got %q", got)
	}
}
