// Пакет browser — контроллер варианта «справочник»: список сотрудников,
// выбранная запись и её редактирование.
//
// Выбор по умолчанию — первый сотрудник списка. Смена выбора сбрасывает
// уведомления и пересевает форму без повторного запроса к бэкенду.
// Ответ на перезапрос списка, после которого начат новый, игнорируется.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/blazen1013/setting/internal/domain/editor"
	"github.com/blazen1013/setting/internal/domain/model"
	"github.com/blazen1013/setting/internal/domain/status"
	"github.com/blazen1013/setting/internal/service"
)

// KeyLoadEmployees — ключ сообщения о неудачной загрузке списка.
const KeyLoadEmployees = "error.load_employees"

// ErrUnknownEmployee — выбран сотрудник, которого нет в загруженном списке.
var ErrUnknownEmployee = errors.New("сотрудник не найден в списке")

// Directory — операции Directory API, нужные справочнику.
type Directory interface {
	service.StatusSource
	ListEmployees(ctx context.Context) ([]model.Employee, error)
	UpdateEmployee(ctx context.Context, scope model.Scope, payload model.UpdatePayload, creds *model.Credentials) (*model.Employee, error)
}

// View — срез состояния для отображения страницы.
type View struct {
	Employees     []model.Employee
	SelectedID    int64
	HasSelection  bool
	StatusOptions []status.Code
	// Alerts — ключи сообщений о неудачных загрузках
	Alerts []string
	Form   editor.Snapshot
}

// Controller — состояние выбора записи одного посетителя.
type Controller struct {
	dir        Directory
	vocabulary *service.StatusVocabulary
	form       *editor.Editor
	logger     *slog.Logger

	mu           sync.RWMutex
	employees    []model.Employee
	selectedID   int64
	hasSelection bool
	listSeq      uint64
	listFailed   bool
}

// New создаёт контроллер справочника.
func New(dir Directory, logger *slog.Logger) *Controller {
	return &Controller{
		dir:        dir,
		vocabulary: service.NewStatusVocabulary(dir, logger),
		form:       editor.New(),
		logger:     logger.With(slog.String("component", "browser")),
	}
}

// Load загружает словарь статусов и список сотрудников параллельно.
// Неудача одной загрузки не мешает другой; возвращается первая ошибка.
func (c *Controller) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		return c.vocabulary.Refresh(ctx)
	})
	g.Go(func() error {
		return c.Refresh(ctx)
	})
	return g.Wait()
}

// Refresh перезапрашивает список сотрудников и согласует выбор:
// текущий выбор сохраняется, если сотрудник остался в списке,
// иначе выбирается первый, при пустом списке форма сбрасывается.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.listSeq++
	seq := c.listSeq
	c.mu.Unlock()

	employees, err := c.dir.ListEmployees(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.listSeq {
		c.logger.Debug("Устаревший ответ списка сотрудников проигнорирован")
		return nil
	}
	if err != nil {
		c.listFailed = true
		c.logger.Warn("Ошибка загрузки списка сотрудников", slog.String("error", err.Error()))
		return err
	}

	c.employees = employees
	c.listFailed = false
	c.reconcileLocked()
	return nil
}

// reconcileLocked согласует выбор и форму с новым списком.
func (c *Controller) reconcileLocked() {
	if c.hasSelection {
		if rec := c.findLocked(c.selectedID); rec != nil {
			if id, ok := c.form.RecordID(); !ok || id != c.selectedID {
				c.loadLocked(rec)
			}
			return
		}
	}

	if len(c.employees) == 0 {
		c.hasSelection = false
		c.selectedID = 0
		c.form.Unload()
		return
	}

	c.loadLocked(&c.employees[0])
}

// loadLocked выбирает запись и пересевает форму.
// Во время отправки выбор не меняется.
func (c *Controller) loadLocked(rec *model.Employee) {
	if err := c.form.Load(rec); err != nil {
		c.logger.Debug("Смена выбора отложена", slog.String("error", err.Error()))
		return
	}
	c.selectedID = rec.ID
	c.hasSelection = true
}

// Select выбирает сотрудника из загруженного списка.
// Уведомления сбрасываются; при смене записи черновик пересевается.
func (c *Controller) Select(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := c.findLocked(id)
	if rec == nil {
		return fmt.Errorf("%w: %d", ErrUnknownEmployee, id)
	}

	if c.hasSelection && c.selectedID == id {
		if formID, ok := c.form.RecordID(); ok && formID == id {
			c.form.ClearNotice()
			return nil
		}
	}

	if err := c.form.Load(rec); err != nil {
		return err
	}
	c.selectedID = id
	c.hasSelection = true
	return nil
}

// UpdateDraft заменяет черновик выбранной записи.
func (c *Controller) UpdateDraft(d editor.Draft) error {
	return c.form.Update(d)
}

// Submit отправляет черновик выбранной записи (PUT /employees/{id}).
// При успехе запись в списке заменяется ответом бэкенда.
func (c *Controller) Submit(ctx context.Context) (*model.Employee, error) {
	updated, err := c.form.Submit(ctx, func(ctx context.Context, id int64, payload model.UpdatePayload) (*model.Employee, error) {
		return c.dir.UpdateEmployee(ctx, model.ScopeID(id), payload, nil)
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.employees {
		if c.employees[i].ID == updated.ID {
			c.employees[i] = *updated.Clone()
			break
		}
	}

	c.logger.Info("Запись сотрудника сохранена", slog.Int64("emp_id", updated.ID))
	return updated, nil
}

// View возвращает срез состояния для отображения.
func (c *Controller) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v := View{
		Employees:     make([]model.Employee, 0, len(c.employees)),
		SelectedID:    c.selectedID,
		HasSelection:  c.hasSelection,
		StatusOptions: c.vocabulary.Codes(),
		Form:          c.form.Snapshot(),
	}
	for i := range c.employees {
		v.Employees = append(v.Employees, *c.employees[i].Clone())
	}
	if c.listFailed {
		v.Alerts = append(v.Alerts, KeyLoadEmployees)
	}
	if c.vocabulary.Failed() {
		v.Alerts = append(v.Alerts, service.KeyLoadStatus)
	}
	return v
}

// Close освобождает состояние посетителя: черновик отбрасывается.
func (c *Controller) Close() {
	c.form.Unload()
}

// findLocked ищет сотрудника в списке по id.
func (c *Controller) findLocked(id int64) *model.Employee {
	for i := range c.employees {
		if c.employees[i].ID == id {
			return &c.employees[i]
		}
	}
	return nil
}
