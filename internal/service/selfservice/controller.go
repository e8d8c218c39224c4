// Пакет selfservice — контроллер варианта «самообслуживание»:
// вход по логину и паролю, просмотр и правка собственной записи.
//
// Учётные данные хранятся только в памяти и передаются бэкенду
// в каждом запросе (Basic auth). Любой ответ Unauthorized завершает
// сессию и отбрасывает черновик.
package selfservice

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/blazen1013/setting/internal/domain/editor"
	"github.com/blazen1013/setting/internal/domain/model"
	"github.com/blazen1013/setting/internal/domain/status"
	"github.com/blazen1013/setting/internal/service"
)

// Ключи сообщений уровня сессии.
const (
	KeyLoginRequired      = "error.login_required"
	KeyInvalidCredentials = "error.invalid_credentials"
	KeySessionExpired     = "error.session_expired"
	KeyLoadSelf           = "error.load_self"
	KeyLoggedOut          = "notice.logged_out"
)

// ErrCredentialsRequired — логин или пароль не заполнены (запрос не выполняется).
var ErrCredentialsRequired = errors.New("логин и пароль обязательны")

// Directory — операции Directory API, нужные самообслуживанию.
type Directory interface {
	service.StatusSource
	FetchEmployee(ctx context.Context, scope model.Scope, creds *model.Credentials) (*model.Employee, error)
	UpdateEmployee(ctx context.Context, scope model.Scope, payload model.UpdatePayload, creds *model.Credentials) (*model.Employee, error)
}

// View — срез состояния для отображения страницы.
type View struct {
	Authenticated bool
	LoginID       string
	StatusOptions []status.Code
	// Notice — уведомление уровня сессии (вход, истечение сессии)
	Notice *editor.Notice
	Alerts []string
	Form   editor.Snapshot
}

// Controller — сессия самообслуживания одного посетителя.
type Controller struct {
	dir        Directory
	vocabulary *service.StatusVocabulary
	form       *editor.Editor
	logger     *slog.Logger

	mu     sync.RWMutex
	creds  *model.Credentials
	notice *editor.Notice
	seq    uint64
}

// New создаёт контроллер самообслуживания без сессии.
func New(dir Directory, logger *slog.Logger) *Controller {
	return &Controller{
		dir:        dir,
		vocabulary: service.NewStatusVocabulary(dir, logger),
		form:       editor.New(),
		logger:     logger.With(slog.String("component", "selfservice")),
	}
}

// LoadVocabulary загружает словарь статусов.
func (c *Controller) LoadVocabulary(ctx context.Context) error {
	return c.vocabulary.Refresh(ctx)
}

// Login проверяет учётные данные запросом собственной записи.
//
// Результаты:
//   - успех — сессия открыта, форма засеяна записью
//   - Unauthorized — сессии нет, сообщение о неверных данных
//   - Forbidden — сессия сохраняется, записи нет, показывается detail бэкенда
//   - прочие ошибки — сессии нет, сообщение о сбое загрузки
func (c *Controller) Login(ctx context.Context, creds model.Credentials) error {
	if strings.TrimSpace(creds.LoginID) == "" || creds.Password == "" {
		c.mu.Lock()
		c.notice = &editor.Notice{Kind: editor.NoticeError, Key: KeyLoginRequired}
		c.form.ClearNotice()
		c.mu.Unlock()
		return ErrCredentialsRequired
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.notice = nil
	c.form.ClearNotice()
	c.mu.Unlock()

	record, err := c.dir.FetchEmployee(ctx, model.ScopeSelf(), &creds)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		c.logger.Debug("Устаревший ответ входа проигнорирован")
		return nil
	}

	switch {
	case err == nil:
		if lerr := c.form.Load(record); lerr != nil {
			return lerr
		}
		stored := creds
		c.creds = &stored
		c.logger.Info("Вход выполнен", slog.Any("credentials", creds), slog.Int64("emp_id", record.ID))
		return nil
	case errors.Is(err, model.ErrForbidden):
		stored := creds
		c.creds = &stored
		c.form.Unload()
		c.notice = &editor.Notice{Kind: editor.NoticeError, Key: editor.KeyForbidden, Detail: model.ErrorDetail(err)}
		c.logger.Warn("Учётной записи не сопоставлен сотрудник", slog.Any("credentials", creds))
		return err
	case errors.Is(err, model.ErrUnauthorized):
		c.endSessionLocked(KeyInvalidCredentials)
		c.logger.Info("Неверные учётные данные", slog.Any("credentials", creds))
		return err
	default:
		c.endSessionLocked(KeyLoadSelf)
		c.logger.Warn("Ошибка загрузки собственной записи", slog.String("error", err.Error()))
		return err
	}
}

// Reload перезапрашивает собственную запись и пересевает форму.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	creds := c.creds
	c.seq++
	seq := c.seq
	c.notice = nil
	c.form.ClearNotice()
	if creds == nil {
		c.notice = &editor.Notice{Kind: editor.NoticeError, Key: KeySessionExpired}
		c.mu.Unlock()
		return model.ErrUnauthorized
	}
	c.mu.Unlock()

	record, err := c.dir.FetchEmployee(ctx, model.ScopeSelf(), creds)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		return nil
	}
	switch {
	case err == nil:
		return c.form.Load(record)
	case errors.Is(err, model.ErrUnauthorized):
		c.endSessionLocked(KeySessionExpired)
		return err
	case errors.Is(err, model.ErrForbidden):
		c.notice = &editor.Notice{Kind: editor.NoticeError, Key: editor.KeyForbidden, Detail: model.ErrorDetail(err)}
		return err
	default:
		c.notice = &editor.Notice{Kind: editor.NoticeError, Key: KeyLoadSelf}
		return err
	}
}

// UpdateDraft заменяет черновик собственной записи.
func (c *Controller) UpdateDraft(d editor.Draft) error {
	return c.form.Update(d)
}

// Submit отправляет черновик (PUT /employees/me) с учётными данными сессии.
// Unauthorized завершает сессию и отбрасывает черновик.
func (c *Controller) Submit(ctx context.Context) (*model.Employee, error) {
	c.mu.Lock()
	creds := c.creds
	c.notice = nil
	c.form.ClearNotice()
	if creds == nil {
		c.notice = &editor.Notice{Kind: editor.NoticeError, Key: KeySessionExpired}
		c.mu.Unlock()
		return nil, model.ErrUnauthorized
	}
	c.mu.Unlock()

	updated, err := c.form.Submit(ctx, func(ctx context.Context, _ int64, payload model.UpdatePayload) (*model.Employee, error) {
		return c.dir.UpdateEmployee(ctx, model.ScopeSelf(), payload, creds)
	})
	if err != nil {
		if errors.Is(err, model.ErrUnauthorized) {
			c.mu.Lock()
			if c.creds == creds {
				c.endSessionLocked(KeySessionExpired)
			}
			c.mu.Unlock()
			c.logger.Info("Сессия завершена: бэкенд отклонил учётные данные")
		}
		return nil, err
	}

	c.logger.Info("Собственная запись сохранена", slog.Int64("emp_id", updated.ID))
	return updated, nil
}

// Logout завершает сессию: учётные данные уничтожаются, черновик отбрасывается.
func (c *Controller) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endSessionLocked("")
	c.notice = &editor.Notice{Kind: editor.NoticeSuccess, Key: KeyLoggedOut}
}

// Close освобождает состояние посетителя (сессия уничтожается без уведомления).
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endSessionLocked("")
}

// Authenticated возвращает true, если сессия открыта.
func (c *Controller) Authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds != nil
}

// View возвращает срез состояния для отображения.
func (c *Controller) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v := View{
		Authenticated: c.creds != nil,
		StatusOptions: c.vocabulary.Codes(),
		Form:          c.form.Snapshot(),
	}
	if c.creds != nil {
		v.LoginID = c.creds.LoginID
	}
	if c.notice != nil {
		n := *c.notice
		v.Notice = &n
	}
	if c.vocabulary.Failed() {
		v.Alerts = append(v.Alerts, service.KeyLoadStatus)
	}
	return v
}

// endSessionLocked уничтожает учётные данные и сбрасывает форму.
// noticeKey — сообщение для посетителя (пусто — без сообщения).
func (c *Controller) endSessionLocked(noticeKey string) {
	c.creds = nil
	c.seq++
	c.form.Unload()
	c.notice = nil
	if noticeKey != "" {
		c.notice = &editor.Notice{Kind: editor.NoticeError, Key: noticeKey}
	}
}
