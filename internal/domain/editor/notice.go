package editor

import (
	"errors"

	"github.com/blazen1013/setting/internal/domain/model"
)

// NoticeKind — вид уведомления.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Ключи каталога переводов для уведомлений формы.
const (
	KeySaved            = "notice.saved"
	KeySaveFailed       = "error.save_failed"
	KeyTransport        = "error.transport"
	KeyForbidden        = "error.forbidden"
	KeyUnauthorized     = "error.unauthorized"
	KeyRequiredFields   = "error.required_fields"
	KeyPasswordTooShort = "error.password_too_short"
	KeyNoRecord         = "error.select_first"
	KeySubmitInFlight   = "error.submit_in_flight"
)

// Notice — уведомление формы. Успех и ошибка взаимоисключающие.
// Detail — текст от бэкенда, показывается как есть вместо Key.
type Notice struct {
	Kind   NoticeKind
	Key    string
	Detail string
	// Fields — поля, не прошедшие локальную проверку
	Fields []Field
}

// IsError возвращает true для уведомления об ошибке.
func (n *Notice) IsError() bool {
	return n != nil && n.Kind == NoticeError
}

// classify превращает ошибку отправки в одно уведомление.
func classify(err error) *Notice {
	n := &Notice{Kind: NoticeError, Key: KeySaveFailed}
	detail := model.ErrorDetail(err)

	switch {
	case errors.Is(err, model.ErrUnauthorized):
		n.Key = KeyUnauthorized
	case errors.Is(err, model.ErrForbidden):
		n.Key = KeyForbidden
		n.Detail = detail
	case errors.Is(err, model.ErrValidation):
		n.Detail = detail
	case errors.Is(err, model.ErrTransport):
		n.Key = KeyTransport
	}
	return n
}

// preconditionNotice — уведомление о локальной проверке черновика.
func preconditionNotice(pe *PreconditionError) *Notice {
	n := &Notice{Kind: NoticeError, Key: KeyPasswordTooShort}
	for _, v := range pe.Violations {
		if v.Field != FieldPassword {
			n.Key = KeyRequiredFields
			n.Fields = append(n.Fields, v.Field)
		}
	}
	if n.Key == KeyPasswordTooShort {
		n.Fields = []Field{FieldPassword}
	}
	return n
}
