package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubProber struct{ err error }

func (s stubProber) Health(context.Context) error { return s.err }

type stubDeps map[string]bool

func (s stubDeps) Health() map[string]bool { return s }

func TestDirectoryReadiness(t *testing.T) {
	tests := []struct {
		name   string
		prober HealthProber
		deps   DependencyHealth
		want   string
	}{
		{"probe ok", stubProber{}, nil, "ok"},
		{"probe fail", stubProber{err: errors.New("connection refused")}, nil, "fail"},
		{"monitoring ok", nil, stubDeps{"directory-api:api:8000": true}, "ok"},
		{"monitoring fail", nil, stubDeps{"directory-api:api:8000": false}, "fail"},
		{"monitoring pending", nil, stubDeps{}, "degraded"},
		{"other dependency ignored", nil, stubDeps{"other:x:1": false, "directory-api:api:8000": true}, "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewDirectoryReadiness(tt.prober, tt.deps, time.Second)
			got, msg := r.CheckReady(context.Background())
			if got != tt.want {
				t.Errorf("CheckReady = %q (%s), want %q", got, msg, tt.want)
			}
		})
	}
}

func TestHealthPath(t *testing.T) {
	tests := []struct{ base, want string }{
		{"http://api:8000", "/health"},
		{"http://api:8000/", "/health"},
		{"http://api:8000/v1", "/v1/health"},
	}
	for _, tt := range tests {
		if got := healthPath(tt.base); got != tt.want {
			t.Errorf("healthPath(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}
