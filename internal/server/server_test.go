package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestNewRouterAppliesMiddlewareAndGroups(t *testing.T) {
	var order []string
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "mw")
			next.ServeHTTP(w, r)
		})
	}

	router := NewRouter(
		[]func(http.Handler) http.Handler{mw},
		func(r chi.Router) {
			r.Get("/a", func(w http.ResponseWriter, _ *http.Request) {
				order = append(order, "a")
				w.WriteHeader(http.StatusNoContent)
			})
		},
		func(r chi.Router) {
			// Middleware группы не влияет на другие группы.
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, "group")
					next.ServeHTTP(w, r)
				})
			})
			r.Get("/b", func(w http.ResponseWriter, _ *http.Request) {
				order = append(order, "b")
			})
		},
	)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/a", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("GET /a = %d", rec.Code)
	}
	if len(order) != 2 || order[0] != "mw" || order[1] != "a" {
		t.Errorf("порядок вызовов /a = %v", order)
	}

	order = nil
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/b", nil))
	if len(order) != 3 || order[1] != "group" {
		t.Errorf("порядок вызовов /b = %v", order)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /missing = %d, want 404", rec.Code)
	}
}
