// Пакет service — прикладные сервисы Staff Directory.
// StatusVocabulary — загруженный с бэкенда словарь статусов с защитой от устаревших ответов.
package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/blazen1013/setting/internal/domain/status"
)

// KeyLoadStatus — ключ сообщения о неудачной загрузке словаря.
const KeyLoadStatus = "error.load_status"

// StatusSource — источник кодов статуса (Directory API).
type StatusSource interface {
	ListStatusOptions(ctx context.Context) ([]status.Code, error)
}

// StatusVocabulary хранит последний успешно загруженный набор кодов.
// Ответ на запрос, после которого уже начат новый, игнорируется.
type StatusVocabulary struct {
	source StatusSource
	logger *slog.Logger

	mu     sync.RWMutex
	codes  []status.Code
	seq    uint64
	failed bool
}

// NewStatusVocabulary создаёт пустой словарь.
func NewStatusVocabulary(source StatusSource, logger *slog.Logger) *StatusVocabulary {
	return &StatusVocabulary{
		source: source,
		logger: logger.With(slog.String("component", "status_vocabulary")),
	}
}

// Refresh загружает словарь с бэкенда.
// При ошибке прежний набор кодов сохраняется, а Failed() возвращает true.
func (v *StatusVocabulary) Refresh(ctx context.Context) error {
	v.mu.Lock()
	v.seq++
	seq := v.seq
	v.mu.Unlock()

	codes, err := v.source.ListStatusOptions(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()

	if seq != v.seq {
		v.logger.Debug("Устаревший ответ словаря статусов проигнорирован")
		return nil
	}
	if err != nil {
		v.failed = true
		v.logger.Warn("Ошибка загрузки словаря статусов", slog.String("error", err.Error()))
		return err
	}

	v.codes = codes
	v.failed = false
	return nil
}

// Codes возвращает копию текущего набора кодов в порядке бэкенда.
func (v *StatusVocabulary) Codes() []status.Code {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]status.Code(nil), v.codes...)
}

// Failed возвращает true, если последняя загрузка не удалась.
func (v *StatusVocabulary) Failed() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.failed
}
