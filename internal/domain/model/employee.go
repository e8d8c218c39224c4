// Пакет model — доменные модели Staff Directory.
// Employee — запись сотрудника в представлении Directory API (только чтение).
package model

import (
	"log/slog"
	"strconv"
	"time"
)

// Employee — запись сотрудника, полученная от бэкенда.
// Пароль никогда не входит в представление для чтения.
type Employee struct {
	// ID — стабильный идентификатор (emp_id), неизменяем
	ID int64 `json:"emp_id"`
	// Number — отображаемый табельный номер (emp_no), может отсутствовать
	Number string `json:"emp_no,omitempty"`
	// DeptID — идентификатор подразделения (только отображение)
	DeptID *int64 `json:"dept_id,omitempty"`
	// RoleID — идентификатор должности (только отображение)
	RoleID *int64 `json:"role_id,omitempty"`
	// Name — имя (непустое)
	Name string `json:"name"`
	// Email — адрес почты (формат проверяет бэкенд)
	Email string `json:"email"`
	// Mobile — мобильный телефон (непустой)
	Mobile string `json:"mobile"`
	// Status — последний статус; nil означает «статус не задан»
	Status *StatusRecord `json:"status"`
}

// StatusRecord — последний установленный рабочий статус сотрудника.
type StatusRecord struct {
	// Code — код статуса (WORKING, AWAY, ...)
	Code string `json:"status"`
	// UpdatedAt — время установки статуса
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// StatusCode возвращает код статуса или пустую строку, если статус не задан.
func (e *Employee) StatusCode() string {
	if e == nil || e.Status == nil {
		return ""
	}
	return e.Status.Code
}

// Clone возвращает глубокую копию записи.
func (e *Employee) Clone() *Employee {
	if e == nil {
		return nil
	}
	c := *e
	if e.DeptID != nil {
		v := *e.DeptID
		c.DeptID = &v
	}
	if e.RoleID != nil {
		v := *e.RoleID
		c.RoleID = &v
	}
	if e.Status != nil {
		s := *e.Status
		if e.Status.UpdatedAt != nil {
			t := *e.Status.UpdatedAt
			s.UpdatedAt = &t
		}
		c.Status = &s
	}
	return &c
}

// UpdatePayload — частичная проекция записи для PUT-запроса.
// Ключи status и password всегда присутствуют: null, если значение не задано.
type UpdatePayload struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Mobile   string  `json:"mobile"`
	Status   *string `json:"status"`
	Password *string `json:"password"`
}

// Scope — цель запроса: явный идентификатор сотрудника или «self».
type Scope struct {
	self bool
	id   int64
}

// ScopeSelf — текущий аутентифицированный сотрудник (/employees/me).
func ScopeSelf() Scope {
	return Scope{self: true}
}

// ScopeID — сотрудник с явным идентификатором (/employees/{id}).
func ScopeID(id int64) Scope {
	return Scope{id: id}
}

// IsSelf возвращает true для scope «self».
func (s Scope) IsSelf() bool {
	return s.self
}

// ID возвращает идентификатор сотрудника (0 для scope «self»).
func (s Scope) ID() int64 {
	return s.id
}

// PathSegment возвращает сегмент пути для /employees/{segment}.
func (s Scope) PathSegment() string {
	if s.self {
		return "me"
	}
	return strconv.FormatInt(s.id, 10)
}

func (s Scope) String() string {
	return s.PathSegment()
}

// Credentials — учётные данные сессии самообслуживания.
// Хранятся только в памяти процесса.
type Credentials struct {
	LoginID  string
	Password string //nolint:gosec // G117: поле структуры, значение в логи не попадает
}

// IsZero возвращает true, если учётные данные не заданы.
func (c Credentials) IsZero() bool {
	return c.LoginID == "" && c.Password == ""
}

// LogValue скрывает пароль при логировании через slog.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(slog.String("login_id", c.LoginID))
}
