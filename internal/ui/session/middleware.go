package session

import (
	"context"
	"log/slog"
	"net/http"
)

// contextKey — тип ключа контекста (избегаем коллизий).
type contextKey string

const contextKeyWorkspace contextKey = "ui_workspace"

// Manager связывает cookie посетителя с его рабочим пространством.
type Manager[W Workspace] struct {
	codec  *CookieCodec
	store  *Store[W]
	logger *slog.Logger
}

// NewManager создаёт менеджер сессий.
func NewManager[W Workspace](codec *CookieCodec, store *Store[W], logger *slog.Logger) *Manager[W] {
	return &Manager[W]{
		codec:  codec,
		store:  store,
		logger: logger.With(slog.String("component", "ui_session_middleware")),
	}
}

// Middleware помещает рабочее пространство посетителя в контекст.
// Отсутствующий, повреждённый или истёкший cookie — новое пространство и новый cookie.
func (m *Manager[W]) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ws, ok := m.lookup(r)
			if !ok {
				var id string
				id, ws = m.store.Create()
				if err := m.codec.SetCookie(w, id); err != nil {
					m.logger.Error("Ошибка установки cookie сессии", slog.String("error", err.Error()))
					m.store.Remove(id)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
			}

			ctx := context.WithValue(r.Context(), contextKeyWorkspace, ws)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// lookup ищет пространство по cookie запроса.
func (m *Manager[W]) lookup(r *http.Request) (W, bool) {
	var zero W

	data, err := m.codec.FromRequest(r)
	if err != nil {
		m.logger.Debug("Ошибка чтения cookie сессии",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr),
		)
		return zero, false
	}
	if data == nil {
		return zero, false
	}

	return m.store.Get(data.ID)
}

// WorkspaceFromContext извлекает рабочее пространство из контекста запроса.
// Возвращает false, если запрос не прошёл через Middleware.
func WorkspaceFromContext[W Workspace](ctx context.Context) (W, bool) {
	ws, ok := ctx.Value(contextKeyWorkspace).(W)
	return ws, ok
}
