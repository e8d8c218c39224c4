// Пакет editor — конечный автомат формы редактирования записи сотрудника.
//
// Состояния:
//   - empty — авторитетная запись не загружена, черновика нет
//   - editing — черновик свободно расходится с записью
//   - submitting — обновление в полёте, черновик заморожен
//   - error — последнее сохранение не удалось, черновик сохранён как есть
//   - saved — транзитное: сразу пересевается в editing новой записью
//
// Повторная отправка во время submitting отклоняется, а не ставится в очередь.
// Ответ на запрос, начатый до смены записи, игнорируется (поколения).
//
// Потокобезопасен через sync.RWMutex: сетевой вызов выполняется вне блокировки.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/blazen1013/setting/internal/domain/model"
)

// State — состояние формы.
type State string

const (
	StateEmpty      State = "empty"
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateError      State = "error"
	StateSaved      State = "saved"
)

// Коды ошибок переходов.
const (
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeSubmitInFlight    = "SUBMIT_IN_FLIGHT"
	CodeNoRecord          = "NO_RECORD"
)

// validTransitions — матрица допустимых переходов.
// Переход в empty допустим из любого состояния.
var validTransitions = map[State]map[State]bool{
	StateEmpty:      {StateEmpty: true, StateEditing: true},
	StateEditing:    {StateEmpty: true, StateEditing: true, StateSubmitting: true, StateError: true},
	StateSubmitting: {StateEmpty: true, StateSaved: true, StateError: true},
	StateError:      {StateEmpty: true, StateEditing: true, StateSubmitting: true, StateError: true},
	StateSaved:      {StateEmpty: true, StateEditing: true},
}

// UpdateFunc отправляет payload для записи recordID и возвращает обновлённую запись.
type UpdateFunc func(ctx context.Context, recordID int64, payload model.UpdatePayload) (*model.Employee, error)

// Ticket — право на завершение одной отправки.
// Выдаётся BeginSubmit; завершение с устаревшим ticket игнорируется.
type Ticket struct {
	generation uint64
	// RecordID — идентификатор записи, для которой начата отправка
	RecordID int64
	// Payload — проекция черновика на момент отправки
	Payload model.UpdatePayload
}

// Snapshot — неизменяемый срез состояния формы для отображения.
type Snapshot struct {
	State  State
	Record *model.Employee
	Draft  Draft
	Notice *Notice
}

// Editor — конечный автомат формы редактирования.
type Editor struct {
	mu         sync.RWMutex
	state      State
	record     *model.Employee
	draft      Draft
	notice     *Notice
	generation uint64
}

// New создаёт форму в состоянии empty.
func New() *Editor {
	return &Editor{state: StateEmpty}
}

// State возвращает текущее состояние.
func (e *Editor) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// RecordID возвращает идентификатор загруженной записи (false — записи нет).
func (e *Editor) RecordID() (int64, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.record == nil {
		return 0, false
	}
	return e.record.ID, true
}

// Snapshot возвращает копию текущего состояния.
func (e *Editor) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := Snapshot{
		State:  e.state,
		Record: e.record.Clone(),
		Draft:  e.draft,
	}
	if e.notice != nil {
		n := *e.notice
		n.Fields = append([]Field(nil), e.notice.Fields...)
		s.Notice = &n
	}
	return s
}

// Load делает запись авторитетной и пересевает черновик (пароль всегда пуст).
// Уведомления сбрасываются. Во время отправки загрузка запрещена
// (в том числе той же записи): форма получает уведомление об отправке в полёте.
func (e *Editor) Load(record *model.Employee) error {
	if record == nil {
		return &TransitionError{Code: CodeNoRecord, Message: "запись не передана"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateSubmitting {
		e.notice = &Notice{Kind: NoticeError, Key: KeySubmitInFlight}
		return &TransitionError{
			Code:    CodeSubmitInFlight,
			Message: fmt.Sprintf("загрузка записи %d во время отправки запрещена", record.ID),
		}
	}
	if err := e.transitionLocked(StateEditing); err != nil {
		return err
	}

	e.generation++
	e.record = record.Clone()
	e.draft = seedDraft(record)
	e.notice = nil
	return nil
}

// Unload сбрасывает форму в empty: черновик отбрасывается,
// ответ на отправку в полёте будет проигнорирован.
func (e *Editor) Unload() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.generation++
	e.state = StateEmpty
	e.record = nil
	e.draft = Draft{}
	e.notice = nil
}

// ClearNotice снимает текущее уведомление.
func (e *Editor) ClearNotice() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notice = nil
}

// SetField меняет одно поле черновика.
func (e *Editor) SetField(field Field, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.editableLocked(); err != nil {
		return err
	}
	if err := e.draft.set(field, value); err != nil {
		return err
	}
	return e.editedLocked()
}

// Update заменяет черновик целиком (отправка HTML-формы).
func (e *Editor) Update(d Draft) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.editableLocked(); err != nil {
		return err
	}
	e.draft = d
	return e.editedLocked()
}

// BeginSubmit проверяет предусловия и переводит форму в submitting.
// Без загруженной записи выставляет уведомление «сначала выберите сотрудника».
//
// Ошибки:
//   - *TransitionError NO_RECORD — запись не загружена
//   - *TransitionError SUBMIT_IN_FLIGHT — отправка уже выполняется
//   - *PreconditionError — не заполнены обязательные поля (сетевой вызов не нужен)
func (e *Editor) BeginSubmit() (Ticket, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateEmpty:
		e.notice = &Notice{Kind: NoticeError, Key: KeyNoRecord}
		return Ticket{}, &TransitionError{Code: CodeNoRecord, Message: "нет загруженной записи"}
	case StateSubmitting:
		return Ticket{}, &TransitionError{Code: CodeSubmitInFlight, Message: "отправка уже выполняется"}
	}

	if err := e.draft.Validate(); err != nil {
		var pe *PreconditionError
		if errors.As(err, &pe) {
			e.notice = preconditionNotice(pe)
			if terr := e.transitionLocked(StateError); terr != nil {
				return Ticket{}, terr
			}
		}
		return Ticket{}, err
	}

	if err := e.transitionLocked(StateSubmitting); err != nil {
		return Ticket{}, err
	}
	e.notice = nil

	return Ticket{
		generation: e.generation,
		RecordID:   e.record.ID,
		Payload:    e.draft.Payload(),
	}, nil
}

// CompleteSubmit принимает ответ бэкенда: submitting → saved → editing.
// Запись заменяется, черновик пересевается, пароль очищается.
// Возвращает false, если ticket устарел (ответ проигнорирован).
func (e *Editor) CompleteSubmit(t Ticket, record *model.Employee) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.currentLocked(t) {
		return false
	}
	if record == nil {
		e.notice = &Notice{Kind: NoticeError, Key: KeySaveFailed}
		_ = e.transitionLocked(StateError)
		return true
	}

	_ = e.transitionLocked(StateSaved)
	e.record = record.Clone()
	e.draft = seedDraft(record)
	e.notice = &Notice{Kind: NoticeSuccess, Key: KeySaved}
	_ = e.transitionLocked(StateEditing)
	return true
}

// FailSubmit фиксирует неудачу: submitting → error, черновик не меняется.
// Возвращает false, если ticket устарел.
func (e *Editor) FailSubmit(t Ticket, err error) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.currentLocked(t) {
		return false
	}
	e.notice = classify(err)
	_ = e.transitionLocked(StateError)
	return true
}

// Submit выполняет полный цикл отправки через update.
// Возвращает обновлённую запись или ошибку (PreconditionError,
// TransitionError, ошибку update). ErrStale — ответ устарел.
func (e *Editor) Submit(ctx context.Context, update UpdateFunc) (*model.Employee, error) {
	ticket, err := e.BeginSubmit()
	if err != nil {
		return nil, err
	}

	record, err := update(ctx, ticket.RecordID, ticket.Payload)
	if err != nil {
		if !e.FailSubmit(ticket, err) {
			return nil, ErrStale
		}
		return nil, err
	}

	if !e.CompleteSubmit(ticket, record) {
		return nil, ErrStale
	}
	return record.Clone(), nil
}

// ErrStale — ответ на отправку пришёл после смены или выгрузки записи.
var ErrStale = errors.New("ответ на отправку устарел")

// editableLocked проверяет, можно ли править черновик.
func (e *Editor) editableLocked() error {
	switch e.state {
	case StateEmpty:
		return &TransitionError{Code: CodeNoRecord, Message: "нет загруженной записи"}
	case StateSubmitting:
		return &TransitionError{Code: CodeSubmitInFlight, Message: "черновик заморожен на время отправки"}
	}
	return nil
}

// editedLocked — правка черновика: error → editing, уведомление об успехе снимается.
// Сообщение об ошибке остаётся видимым до следующего действия с записью.
func (e *Editor) editedLocked() error {
	if e.notice != nil && e.notice.Kind == NoticeSuccess {
		e.notice = nil
	}
	return e.transitionLocked(StateEditing)
}

// currentLocked проверяет, что ticket относится к текущей отправке.
func (e *Editor) currentLocked(t Ticket) bool {
	return e.state == StateSubmitting && t.generation == e.generation
}

// transitionLocked выполняет переход по матрице.
func (e *Editor) transitionLocked(target State) error {
	targets, ok := validTransitions[e.state]
	if !ok || !targets[target] {
		return &TransitionError{
			Code:    CodeInvalidTransition,
			Message: fmt.Sprintf("переход %s → %s недопустим", e.state, target),
		}
	}
	e.state = target
	return nil
}

// TransitionError — ошибка перехода формы.
type TransitionError struct {
	Code    string // Машиночитаемый код (INVALID_TRANSITION, SUBMIT_IN_FLIGHT, NO_RECORD)
	Message string // Человекочитаемое описание
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
