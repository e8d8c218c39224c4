package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/blazen1013/setting/internal/domain/editor"
	"github.com/blazen1013/setting/internal/service/browser"
	"github.com/blazen1013/setting/internal/ui/templates"
)

// BrowserHandler — обработчики варианта «справочник».
type BrowserHandler struct {
	page
}

// NewBrowserHandler создаёт обработчики справочника.
func NewBrowserHandler(renderer *templates.Renderer, defaultLang string, logger *slog.Logger) *BrowserHandler {
	return &BrowserHandler{page: page{
		renderer:    renderer,
		defaultLang: defaultLang,
		logger:      logger.With(slog.String("component", "ui.browser")),
	}}
}

// Routes регистрирует маршруты справочника.
func (h *BrowserHandler) Routes(r chi.Router) {
	r.Get("/", h.HandlePage)
	r.Post("/select", h.HandleSelect)
	r.Post("/refresh", h.HandleRefresh)
	r.Post("/employees/{id}", h.HandleSubmit)
}

// HandlePage обрабатывает GET / — загружает список и словарь статусов и отображает страницу.
func (h *BrowserHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	ctl, ok := workspace[*browser.Controller](w, r, h.logger)
	if !ok {
		return
	}

	// Ошибки загрузки отображаются через View.Alerts.
	_ = ctl.Load(r.Context())

	view := ctl.View()
	h.render(w, r, templates.PageBrowser, "app.title", view.Alerts, view)
}

// HandleSelect обрабатывает POST /select — выбор сотрудника из списка.
func (h *BrowserHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	ctl, ok := workspace[*browser.Controller](w, r, h.logger)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(r.PostFormValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "некорректный идентификатор сотрудника", http.StatusBadRequest)
		return
	}

	if err := ctl.Select(id); err != nil {
		h.logger.Debug("Выбор сотрудника отклонён",
			slog.Int64("emp_id", id),
			slog.String("error", err.Error()),
		)
	}
	redirectHome(w, r)
}

// HandleRefresh обрабатывает POST /refresh — перезапрос списка сотрудников.
func (h *BrowserHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctl, ok := workspace[*browser.Controller](w, r, h.logger)
	if !ok {
		return
	}

	_ = ctl.Refresh(r.Context())
	redirectHome(w, r)
}

// HandleSubmit обрабатывает POST /employees/{id} — сохранение выбранной записи.
// Форма, отправленная для записи, которая уже не выбрана, игнорируется.
func (h *BrowserHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctl, ok := workspace[*browser.Controller](w, r, h.logger)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "некорректный идентификатор сотрудника", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "некорректные данные формы", http.StatusBadRequest)
		return
	}

	view := ctl.View()
	if view.Form.Record != nil && view.Form.Record.ID != id {
		h.logger.Warn("Форма отправлена для невыбранной записи",
			slog.Int64("emp_id", id),
			slog.Int64("selected_id", view.Form.Record.ID),
		)
		redirectHome(w, r)
		return
	}

	if err := ctl.UpdateDraft(draftFromForm(r)); err != nil {
		h.logger.Debug("Черновик не обновлён", slog.String("error", err.Error()))
	}

	if _, err := ctl.Submit(r.Context()); err != nil {
		logSubmitError(h.logger, err)
	}
	redirectHome(w, r)
}

// draftFromForm собирает черновик из полей HTML-формы.
func draftFromForm(r *http.Request) editor.Draft {
	return editor.Draft{
		Name:     r.PostFormValue(string(editor.FieldName)),
		Email:    r.PostFormValue(string(editor.FieldEmail)),
		Mobile:   r.PostFormValue(string(editor.FieldMobile)),
		Status:   r.PostFormValue(string(editor.FieldStatus)),
		Password: r.PostFormValue(string(editor.FieldPassword)),
	}
}

// logSubmitError логирует неудачную отправку. Посетитель видит уведомление формы.
func logSubmitError(logger *slog.Logger, err error) {
	var pe *editor.PreconditionError
	var te *editor.TransitionError
	switch {
	case errors.As(err, &pe), errors.As(err, &te), errors.Is(err, editor.ErrStale):
		logger.Debug("Отправка не выполнена", slog.String("error", err.Error()))
	default:
		logger.Warn("Ошибка сохранения записи", slog.String("error", err.Error()))
	}
}
