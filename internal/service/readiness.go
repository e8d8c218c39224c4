package service

import (
	"context"
	"strings"
	"time"
)

// HealthProber — прямая проверка доступности Directory API.
type HealthProber interface {
	Health(ctx context.Context) error
}

// DependencyHealth — состояние зависимостей по данным мониторинга.
type DependencyHealth interface {
	Health() map[string]bool
}

// DirectoryReadiness — проверка готовности по доступности Directory API.
// При включённом мониторинге используется его последнее состояние,
// иначе выполняется прямой запрос GET /health.
type DirectoryReadiness struct {
	prober  HealthProber
	deps    DependencyHealth
	timeout time.Duration
}

// NewDirectoryReadiness создаёт проверку готовности.
// deps может быть nil (мониторинг отключён).
func NewDirectoryReadiness(prober HealthProber, deps DependencyHealth, timeout time.Duration) *DirectoryReadiness {
	return &DirectoryReadiness{prober: prober, deps: deps, timeout: timeout}
}

// CheckReady возвращает "ok", "degraded" (мониторинг ещё не выполнил проверку)
// или "fail" с сообщением.
func (r *DirectoryReadiness) CheckReady(ctx context.Context) (string, string) {
	if r.deps != nil {
		return r.fromMonitoring()
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.prober.Health(ctx); err != nil {
		return "fail", err.Error()
	}
	return "ok", ""
}

// fromMonitoring интерпретирует Health() мониторинга.
func (r *DirectoryReadiness) fromMonitoring() (string, string) {
	found := false
	for key, healthy := range r.deps.Health() {
		if !strings.HasPrefix(key, DirectoryDependency+":") {
			continue
		}
		found = true
		if !healthy {
			return "fail", "Directory API недоступен: " + key
		}
	}
	if !found {
		return "degraded", "первая проверка Directory API ещё не выполнена"
	}
	return "ok", ""
}
