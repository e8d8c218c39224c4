// Пакет status — словарь рабочих статусов сотрудников.
//
// Набор кодов закрыт и задаётся бэкендом (/employee-status-options),
// подписи — локальная забота представления. Код, которого нет
// в локальном словаре, отображается как есть.
package status

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Code — код рабочего статуса.
type Code string

const (
	Working       Code = "WORKING"
	Away          Code = "AWAY"
	OutOnBusiness Code = "OUT_ON_BUSINESS"
	OffWork       Code = "OFF_WORK"
)

// Placeholder — отображение отсутствующего статуса.
const Placeholder = "-"

// DefaultLabels — подписи статусов по умолчанию (корейский).
var DefaultLabels = map[Code]string{
	Working:       "근무중",
	Away:          "자리비움",
	OutOnBusiness: "외근",
	OffWork:       "퇴근",
}

// LabelKey возвращает ключ каталога переводов для подписи кода.
func LabelKey(c Code) string {
	return "status." + string(c)
}

// NormalizeOptions приводит элементы ответа /employee-status-options
// к последовательности кодов. Допустимы строки ("WORKING") и объекты
// {"value": "WORKING", "label": "..."}; порядок сохраняется,
// пустые значения и повторы пропускаются.
func NormalizeOptions(raw []json.RawMessage) ([]Code, error) {
	codes := make([]Code, 0, len(raw))
	seen := make(map[Code]bool, len(raw))

	for i, item := range raw {
		code, err := decodeOption(item)
		if err != nil {
			return nil, fmt.Errorf("элемент %d: %w", i, err)
		}
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes, nil
}

// decodeOption декодирует один элемент списка опций.
func decodeOption(item json.RawMessage) (Code, error) {
	trimmed := bytes.TrimSpace(item)
	if len(trimmed) == 0 {
		return "", fmt.Errorf("пустой элемент")
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", fmt.Errorf("некорректная строка: %w", err)
		}
		return Code(s), nil
	case '{':
		var opt struct {
			Value *string `json:"value"`
		}
		if err := json.Unmarshal(trimmed, &opt); err != nil {
			return "", fmt.Errorf("некорректный объект: %w", err)
		}
		if opt.Value == nil {
			return "", fmt.Errorf("в объекте нет поля value")
		}
		return Code(*opt.Value), nil
	default:
		return "", fmt.Errorf("неподдерживаемая форма элемента: %s", string(trimmed))
	}
}

// LookupFunc ищет перевод по ключу каталога.
type LookupFunc func(key string) (string, bool)

// Labeler — поиск подписей для кодов статуса.
type Labeler struct {
	lookup LookupFunc
}

// NewLabeler создаёт Labeler поверх каталога переводов.
// lookup == nil — используются DefaultLabels.
func NewLabeler(lookup LookupFunc) *Labeler {
	return &Labeler{lookup: lookup}
}

// Label возвращает подпись кода. Пустой код — Placeholder,
// неизвестный код — сам код.
func (l *Labeler) Label(code string) string {
	if code == "" {
		return Placeholder
	}
	c := Code(code)

	if l != nil && l.lookup != nil {
		if label, ok := l.lookup(LabelKey(c)); ok {
			return label
		}
		return code
	}

	if label, ok := DefaultLabels[c]; ok {
		return label
	}
	return code
}
