package session

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики рабочих пространств.
var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sd_sessions_active",
		Help: "Количество рабочих пространств посетителей в памяти.",
	})
	sessionEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sd_session_evictions_total",
		Help: "Общее количество удалённых рабочих пространств (TTL, LRU, выход).",
	})
)

// Workspace — состояние одного посетителя.
// Close вызывается при удалении из хранилища и уничтожает учётные данные и черновик.
type Workspace interface {
	Close()
}

// entry — пространство в хранилище; closed выставляется один раз при удалении.
type entry[W Workspace] struct {
	workspace W
	closed    atomic.Bool
}

// Store — in-memory хранилище рабочих пространств с LRU-вытеснением и TTL простоя.
// Каждое обращение продлевает TTL.
type Store[W Workspace] struct {
	cache   *expirable.LRU[string, *entry[W]]
	factory func() W
	logger  *slog.Logger
}

// NewStore создаёт хранилище.
// maxSize — максимум одновременно хранимых пространств, ttl — время жизни без обращений.
// factory создаёт пространство для нового посетителя.
func NewStore[W Workspace](maxSize int, ttl time.Duration, factory func() W, logger *slog.Logger) *Store[W] {
	s := &Store[W]{
		factory: factory,
		logger:  logger.With(slog.String("component", "session_store")),
	}
	s.cache = expirable.NewLRU[string, *entry[W]](maxSize, s.onEvict, ttl)
	return s
}

// onEvict закрывает удалённое пространство (повторное удаление того же entry игнорируется).
// Вызывается под блокировкой LRU: обращаться к cache нельзя.
func (s *Store[W]) onEvict(id string, e *entry[W]) {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	e.workspace.Close()
	sessionEvictionsTotal.Inc()
	sessionsActive.Dec()
	s.logger.Debug("Рабочее пространство удалено", slog.String("session_id", id))
}

// Get возвращает пространство по идентификатору и продлевает его TTL.
// Пространство, закрытое между чтением и продлением, не возвращается
// и не остаётся в хранилище.
func (s *Store[W]) Get(id string) (W, bool) {
	var zero W
	e, ok := s.cache.Get(id)
	if !ok {
		return zero, false
	}
	s.cache.Add(id, e)
	if e.closed.Load() {
		s.cache.Remove(id)
		return zero, false
	}
	return e.workspace, true
}

// Create создаёт пространство с новым идентификатором.
func (s *Store[W]) Create() (string, W) {
	id := uuid.NewString()
	w := s.factory()
	s.cache.Add(id, &entry[W]{workspace: w})
	sessionsActive.Inc()
	s.logger.Debug("Рабочее пространство создано", slog.String("session_id", id))
	return id, w
}

// Remove удаляет пространство (с вызовом Close).
func (s *Store[W]) Remove(id string) {
	s.cache.Remove(id)
}

// Len возвращает количество пространств (включая ещё не вычищенные по TTL).
func (s *Store[W]) Len() int {
	return s.cache.Len()
}

// Close удаляет все пространства.
func (s *Store[W]) Close() {
	s.cache.Purge()
}
