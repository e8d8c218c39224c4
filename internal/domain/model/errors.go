package model

import "errors"

// Ошибки взаимодействия с Directory API.
// Конкретные ошибки клиента сопоставляются с ними через errors.Is.
var (
	// ErrTransport — сеть недоступна, таймаут, ответ 5xx или нечитаемый ответ.
	ErrTransport = errors.New("сбой транспорта directory API")
	// ErrUnauthorized — учётные данные отсутствуют или неверны.
	ErrUnauthorized = errors.New("не авторизован")
	// ErrForbidden — учётные данные верны, но прав недостаточно.
	ErrForbidden = errors.New("доступ запрещён")
	// ErrValidation — бэкенд отклонил запрос (detail передаётся как есть).
	ErrValidation = errors.New("запрос отклонён бэкендом")
)

// detailer — ошибка, несущая человекочитаемое описание от бэкенда.
type detailer interface {
	Detail() string
}

// ErrorDetail извлекает описание от бэкенда из цепочки ошибок.
// Возвращает пустую строку, если описания нет.
func ErrorDetail(err error) string {
	var d detailer
	if errors.As(err, &d) {
		return d.Detail()
	}
	return ""
}
