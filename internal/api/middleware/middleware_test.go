package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path, want string
	}{
		{"/", "/"},
		{"/select", "/select"},
		{"/me", "/me"},
		{"/health/ready", "/health/ready"},
		{"/employees/42", "/employees/{id}"},
		{"/employees/abc", "/employees/{id}"},
		{"/employees/", unmatchedPath},
		{"/employees/1/extra", unmatchedPath},
		{"/wp-login.php", unmatchedPath},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestMetricsMiddlewareCountsRequests(t *testing.T) {
	h := MetricsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusSeeOther)
	}))

	counter := httpRequestsTotal.WithLabelValues(http.MethodPost, "/employees/{id}", "303")
	before := testutil.ToFloat64(counter)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/employees/7", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/employees/8", nil))

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("прирост счётчика = %v, want 2", got)
	}
}

func TestRequestLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    int
		wantLevel string
	}{
		{"ok", "/", http.StatusOK, "level=INFO"},
		{"client error", "/select", http.StatusBadRequest, "level=WARN"},
		{"server error", "/", http.StatusInternalServerError, "level=ERROR"},
		{"probe", "/health/live", http.StatusOK, "level=DEBUG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			out := buf.String()
			if !strings.Contains(out, tt.wantLevel) {
				t.Errorf("лог %q не содержит %q", out, tt.wantLevel)
			}
			if !strings.Contains(out, "bytes=4") {
				t.Errorf("лог %q не содержит размер ответа", out)
			}
		})
	}
}

func TestRequestLoggerOmitsFormBody(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.WriteHeader(http.StatusSeeOther)
	}))
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("login_id=kim&password=secret123"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if strings.Contains(buf.String(), "secret123") {
		t.Error("пароль попал в лог запроса")
	}
}
