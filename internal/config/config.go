// Пакет config — загрузка и валидация конфигурации Staff Directory
// из переменных окружения (и необязательного файла .env).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Variant — вариант развёртывания фронтенда.
type Variant string

const (
	// VariantBrowser — справочник: список всех сотрудников и редактирование выбранного.
	VariantBrowser Variant = "browser"
	// VariantSelfService — самообслуживание: вход по логину/паролю и редактирование своей записи.
	VariantSelfService Variant = "self-service"
)

// Поддерживаемые языки интерфейса.
var supportedLangs = []string{"ko", "en", "ru"}

// Config содержит все параметры конфигурации Staff Directory.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (по умолчанию 8040)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Вариант развёртывания (browser, self-service)
	Variant Variant

	// --- Directory API ---

	// Базовый URL бэкенда справочника
	APIBaseURL string
	// Таймаут одного запроса к бэкенду
	APITimeout time.Duration
	// Путь к CA-сертификату для https-бэкенда (пусто — системный пул)
	APICACertPath string

	// --- HTTP Server Timeouts ---

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// --- Graceful shutdown ---

	ShutdownTimeout time.Duration

	// --- Сессии UI ---

	// Ключ шифрования session cookie (пусто — случайный при каждом старте)
	SessionSecret string
	// Время жизни неактивной сессии
	SessionTTL time.Duration
	// Максимальное количество одновременных сессий
	SessionMax int
	// Secure flag для cookie
	SecureCookie bool
	// Язык интерфейса по умолчанию
	DefaultLang string

	// --- Мониторинг зависимостей ---

	DephealthEnabled       bool
	DephealthGroup         string
	DephealthCheckInterval time.Duration
}

// Load загружает конфигурацию из переменных окружения.
// Если в рабочем каталоге есть .env — он загружается первым,
// уже заданные переменные окружения не перезаписываются.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".env: %w", err)
	}

	cfg := &Config{}
	var err error

	// --- Сервер ---

	// SD_PORT — порт HTTP-сервера (по умолчанию 8040)
	cfg.Port, err = getEnvInt("SD_PORT", 8040)
	if err != nil {
		return nil, fmt.Errorf("SD_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("SD_PORT: порт %d вне диапазона 1-65535", cfg.Port)
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("SD_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("SD_LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = getEnvDefault("SD_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("SD_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	cfg.Variant, err = parseVariant(getEnvDefault("SD_VARIANT", string(VariantBrowser)))
	if err != nil {
		return nil, fmt.Errorf("SD_VARIANT: %w", err)
	}

	// --- Directory API ---

	// SD_API_BASE_URL — адрес бэкенда (по умолчанию локальный)
	cfg.APIBaseURL = getEnvDefault("SD_API_BASE_URL", "http://localhost:8000")
	if err := validateURL(cfg.APIBaseURL); err != nil {
		return nil, fmt.Errorf("SD_API_BASE_URL: %w", err)
	}

	cfg.APITimeout, err = getEnvDurationPositive("SD_API_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SD_API_TIMEOUT: %w", err)
	}

	cfg.APICACertPath = os.Getenv("SD_API_CA_CERT_PATH")

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("SD_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SD_HTTP_READ_TIMEOUT: %w", err)
	}

	cfg.HTTPWriteTimeout, err = getEnvDuration("SD_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SD_HTTP_WRITE_TIMEOUT: %w", err)
	}

	cfg.HTTPIdleTimeout, err = getEnvDuration("SD_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SD_HTTP_IDLE_TIMEOUT: %w", err)
	}

	cfg.ShutdownTimeout, err = getEnvDuration("SD_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SD_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- Сессии UI ---

	cfg.SessionSecret = os.Getenv("SD_SESSION_SECRET")

	cfg.SessionTTL, err = getEnvDurationPositive("SD_SESSION_TTL", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("SD_SESSION_TTL: %w", err)
	}

	cfg.SessionMax, err = getEnvInt("SD_SESSION_MAX", 1000)
	if err != nil {
		return nil, fmt.Errorf("SD_SESSION_MAX: %w", err)
	}
	if cfg.SessionMax <= 0 {
		return nil, fmt.Errorf("SD_SESSION_MAX: значение должно быть > 0")
	}

	cfg.SecureCookie, err = getEnvBool("SD_SECURE_COOKIE", false)
	if err != nil {
		return nil, fmt.Errorf("SD_SECURE_COOKIE: %w", err)
	}

	cfg.DefaultLang = strings.ToLower(getEnvDefault("SD_DEFAULT_LANG", "ko"))
	if !isSupportedLang(cfg.DefaultLang) {
		return nil, fmt.Errorf("SD_DEFAULT_LANG: недопустимый язык %q, допустимые: %s",
			cfg.DefaultLang, strings.Join(supportedLangs, ", "))
	}

	// --- Мониторинг зависимостей ---

	cfg.DephealthEnabled, err = getEnvBool("SD_DEPHEALTH_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("SD_DEPHEALTH_ENABLED: %w", err)
	}

	cfg.DephealthGroup = getEnvDefault("SD_DEPHEALTH_GROUP", "staff-directory")

	cfg.DephealthCheckInterval, err = getEnvDurationPositive("SD_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SD_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvDurationPositive — как getEnvDuration, но значение должно быть > 0.
func getEnvDurationPositive(key string, defaultVal time.Duration) (time.Duration, error) {
	d, err := getEnvDuration(key, defaultVal)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("значение должно быть > 0")
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseVariant преобразует строку в Variant.
func parseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(s)); v {
	case VariantBrowser, VariantSelfService:
		return v, nil
	default:
		return "", fmt.Errorf("недопустимый вариант %q, допустимые: browser, self-service", s)
	}
}

// validateURL проверяет, что значение — абсолютный http(s) URL.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("некорректный URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("недопустимая схема %q, допустимые: http, https", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("в URL %q не указан хост", raw)
	}
	return nil
}

func isSupportedLang(lang string) bool {
	for _, l := range supportedLangs {
		if l == lang {
			return true
		}
	}
	return false
}
