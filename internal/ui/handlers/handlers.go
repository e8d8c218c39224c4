// Пакет handlers — HTTP-обработчики UI обоих вариантов.
// POST-обработчики завершаются redirect 303 на страницу (Post/Redirect/Get).
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/blazen1013/setting/internal/ui/i18n"
	"github.com/blazen1013/setting/internal/ui/session"
	"github.com/blazen1013/setting/internal/ui/templates"
)

// homePath — страница варианта.
const homePath = "/"

// page — общая часть обработчиков: рендеринг и язык запроса.
type page struct {
	renderer    *templates.Renderer
	defaultLang string
	logger      *slog.Logger
}

// render отображает страницу name с данными data.
func (p *page) render(w http.ResponseWriter, r *http.Request, name, title string, alerts []string, data any) {
	pg := templates.Page{
		Lang:      i18n.LangFromContext(r.Context(), p.defaultLang),
		Languages: i18n.Languages,
		Title:     title,
		Alerts:    alerts,
		Data:      data,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	if err := p.renderer.Render(w, name, pg); err != nil {
		p.logger.Error("Ошибка рендеринга страницы",
			slog.String("page", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// redirectHome завершает POST переходом на страницу варианта.
func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, homePath, http.StatusSeeOther)
}

// workspace извлекает рабочее пространство посетителя.
// Без пространства отвечает 500: маршрут подключён без session middleware.
func workspace[W session.Workspace](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (W, bool) {
	ws, ok := session.WorkspaceFromContext[W](r.Context())
	if !ok {
		logger.Error("Рабочее пространство отсутствует в контексте", slog.String("path", r.URL.Path))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
	return ws, ok
}
