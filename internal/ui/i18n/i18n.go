// Пакет i18n — интернационализация UI Staff Directory.
// Поддерживаемые языки: 한국어 (ko), English (en), Русский (ru).
// Язык определяется middleware: cookie "lang" → Accept-Language → язык по умолчанию.
package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/text/language"
)

// Поддерживаемые языки.
var (
	// SupportedLanguages — теги поддерживаемых языков (первый — запасной для matcher).
	SupportedLanguages = []language.Tag{
		language.Korean,
		language.English,
		language.Russian,
	}

	matcher = language.NewMatcher(SupportedLanguages)
)

// Languages — коды поддерживаемых языков в порядке отображения.
var Languages = []string{"ko", "en", "ru"}

// contextKey — тип ключа для контекста (избегаем коллизий).
type contextKey string

const contextKeyLang contextKey = "i18n_lang"

// Bundle — хранилище переводов для всех языков.
// Загружается один раз при старте приложения.
type Bundle struct {
	mu       sync.RWMutex
	catalogs map[string]map[string]string // lang → key → translation
	fallback string
	logger   *slog.Logger
}

// NewBundle создаёт пустой Bundle.
// fallback — язык, в котором ищется ключ, отсутствующий в запрошенном каталоге.
func NewBundle(fallback string, logger *slog.Logger) *Bundle {
	return &Bundle{
		catalogs: make(map[string]map[string]string),
		fallback: fallback,
		logger:   logger,
	}
}

// Fallback возвращает язык по умолчанию.
func (b *Bundle) Fallback() string {
	return b.fallback
}

// LoadMessages загружает JSON-каталог переводов для указанного языка.
// JSON формат: {"key": "translation", ...} (плоский).
func (b *Bundle) LoadMessages(lang string, data []byte) error {
	var messages map[string]string
	if err := json.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("i18n: ошибка парсинга каталога %s: %w", lang, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.catalogs[lang] = messages

	if b.logger != nil {
		b.logger.Debug("i18n каталог загружен",
			slog.String("lang", lang),
			slog.Int("keys", len(messages)),
		)
	}
	return nil
}

// Lookup ищет перевод: запрошенный язык, затем язык по умолчанию.
func (b *Bundle) Lookup(lang, key string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if catalog, ok := b.catalogs[lang]; ok {
		if msg, ok := catalog[key]; ok {
			return msg, true
		}
	}
	if lang != b.fallback {
		if catalog, ok := b.catalogs[b.fallback]; ok {
			if msg, ok := catalog[key]; ok {
				return msg, true
			}
		}
	}
	return "", false
}

// Translate возвращает перевод по ключу.
// Если ключ не найден — возвращает ключ как есть (для отладки).
func (b *Bundle) Translate(lang, key string) string {
	if msg, ok := b.Lookup(lang, key); ok {
		return msg
	}
	return key
}

// Translatef возвращает перевод по ключу с подстановкой аргументов.
func (b *Bundle) Translatef(lang, key string, args ...any) string {
	template := b.Translate(lang, key)
	if len(args) == 0 {
		return template
	}
	return formatFunc(template, args...)
}

// T возвращает перевод по ключу на языке из контекста.
func (b *Bundle) T(ctx context.Context, key string) string {
	return b.Translate(LangFromContext(ctx, b.fallback), key)
}

// formatFunc — fmt.Sprintf через переменную: формат-строки приходят из каталогов,
// статическая проверка go vet к ним неприменима.
//
//nolint:govet // обход go vet printf-анализатора
var formatFunc = fmt.Sprintf

// WithLang помещает язык в контекст.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, contextKeyLang, lang)
}

// LangFromContext извлекает язык из контекста или возвращает def.
func LangFromContext(ctx context.Context, def string) string {
	if lang, ok := ctx.Value(contextKeyLang).(string); ok && lang != "" {
		return lang
	}
	return def
}

// IsSupported проверяет код языка.
func IsSupported(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// MatchLanguage определяет лучший язык из заголовка Accept-Language.
// Возвращает def, если ни один язык не подошёл.
func MatchLanguage(acceptLanguage, def string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return def
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return def
	}
	base, _ := SupportedLanguages[idx].Base()
	return base.String()
}
