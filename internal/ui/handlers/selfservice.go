package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/blazen1013/setting/internal/domain/model"
	"github.com/blazen1013/setting/internal/service/selfservice"
	"github.com/blazen1013/setting/internal/ui/templates"
)

// SelfServiceHandler — обработчики варианта «самообслуживание».
type SelfServiceHandler struct {
	page
}

// NewSelfServiceHandler создаёт обработчики самообслуживания.
func NewSelfServiceHandler(renderer *templates.Renderer, defaultLang string, logger *slog.Logger) *SelfServiceHandler {
	return &SelfServiceHandler{page: page{
		renderer:    renderer,
		defaultLang: defaultLang,
		logger:      logger.With(slog.String("component", "ui.selfservice")),
	}}
}

// Routes регистрирует маршруты самообслуживания.
func (h *SelfServiceHandler) Routes(r chi.Router) {
	r.Get("/", h.HandlePage)
	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)
	r.Post("/reload", h.HandleReload)
	r.Post("/me", h.HandleSubmit)
}

// HandlePage обрабатывает GET / — форма входа или форма собственной записи.
func (h *SelfServiceHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	ctl, ok := workspace[*selfservice.Controller](w, r, h.logger)
	if !ok {
		return
	}

	_ = ctl.LoadVocabulary(r.Context())

	view := ctl.View()
	h.render(w, r, templates.PageSelfService, "app.title_self", view.Alerts, view)
}

// HandleLogin обрабатывает POST /login.
// Пароль не логируется и не попадает в cookie.
func (h *SelfServiceHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctl, ok := workspace[*selfservice.Controller](w, r, h.logger)
	if !ok {
		return
	}

	creds := model.Credentials{
		LoginID:  r.PostFormValue("login_id"),
		Password: r.PostFormValue("password"),
	}
	if err := ctl.Login(r.Context(), creds); err != nil {
		h.logger.Debug("Вход не выполнен", slog.Any("credentials", creds), slog.String("error", err.Error()))
	}
	redirectHome(w, r)
}

// HandleLogout обрабатывает POST /logout.
func (h *SelfServiceHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctl, ok := workspace[*selfservice.Controller](w, r, h.logger)
	if !ok {
		return
	}

	ctl.Logout()
	redirectHome(w, r)
}

// HandleReload обрабатывает POST /reload — перезапрос собственной записи.
func (h *SelfServiceHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	ctl, ok := workspace[*selfservice.Controller](w, r, h.logger)
	if !ok {
		return
	}

	if err := ctl.Reload(r.Context()); err != nil {
		h.logger.Debug("Перезагрузка записи не выполнена", slog.String("error", err.Error()))
	}
	redirectHome(w, r)
}

// HandleSubmit обрабатывает POST /me — сохранение собственной записи.
func (h *SelfServiceHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctl, ok := workspace[*selfservice.Controller](w, r, h.logger)
	if !ok {
		return
	}
	if !ctl.Authenticated() {
		redirectHome(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "некорректные данные формы", http.StatusBadRequest)
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
