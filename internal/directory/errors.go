package directory

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/blazen1013/setting/internal/domain/model"
)

// Error — ошибка вызова Directory API.
// Kind — один из model.ErrTransport, ErrUnauthorized, ErrForbidden, ErrValidation;
// errors.Is работает и с Kind, и с исходной ошибкой Err.
type Error struct {
	// Op — операция клиента (list_employees, update_employee, ...)
	Op string
	// Kind — категория ошибки
	Kind error
	// StatusCode — HTTP-статус ответа (0, если ответа не было)
	StatusCode int
	// Err — исходная ошибка транспорта или декодирования
	Err error

	detail string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if e.detail != "" {
		b.WriteString(": ")
		b.WriteString(e.detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap возвращает категорию и исходную ошибку.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Detail возвращает описание от бэкенда (поле detail ответа).
func (e *Error) Detail() string {
	return e.detail
}

// transportError — ошибка без ответа бэкенда или с нечитаемым ответом.
func transportError(op string, status int, err error) *Error {
	return &Error{Op: op, Kind: model.ErrTransport, StatusCode: status, Err: err}
}

// classifyStatus сопоставляет HTTP-статус категории ошибки.
func classifyStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return model.ErrUnauthorized
	case http.StatusForbidden:
		return model.ErrForbidden
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
		return model.ErrValidation
	default:
		return model.ErrTransport
	}
}

// errorFromResponse строит ошибку из ответа с не-2xx статусом.
func errorFromResponse(op string, status int, body []byte) *Error {
	kind := classifyStatus(status)
	e := &Error{Op: op, Kind: kind, StatusCode: status}
	if !errors.Is(kind, model.ErrTransport) {
		e.detail = parseDetail(body)
	}
	return e
}

// parseDetail извлекает detail из тела ошибки.
// Форматы: {"detail": "text"} и {"detail": [{"loc": [...], "msg": "..."}]}.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err != nil {
		return ""
	}

	msgs := make([]string, 0, len(items))
	for _, it := range items {
		if it.Msg == "" {
			continue
		}
		if field := lastLoc(it.Loc); field != "" {
			msgs = append(msgs, field+": "+it.Msg)
		} else {
			msgs = append(msgs, it.Msg)
		}
	}
	return strings.Join(msgs, "; ")
}

// lastLoc возвращает имя поля из loc (последний строковый элемент, кроме "body").
func lastLoc(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	s, ok := loc[len(loc)-1].(string)
	if !ok || s == "body" {
		return ""
	}
	return s
}

// outcome — лейбл метрики для результата вызова.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, model.ErrForbidden):
		return "forbidden"
	case errors.Is(err, model.ErrValidation):
		return "validation"
	default:
		return "transport"
	}
}
