// Точка входа Staff Directory — веб-фронтенд справочника сотрудников.
// Загружает конфигурацию, создаёт клиент Directory API, каталоги переводов
// и шаблоны, собирает UI выбранного варианта (browser или self-service)
// с рабочими пространствами посетителей, запускает мониторинг зависимости
// (topologymetrics) и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/blazen1013/setting/internal/api/handlers"
	"github.com/blazen1013/setting/internal/api/middleware"
	"github.com/blazen1013/setting/internal/config"
	"github.com/blazen1013/setting/internal/directory"
	"github.com/blazen1013/setting/internal/server"
	"github.com/blazen1013/setting/internal/service"
	"github.com/blazen1013/setting/internal/service/browser"
	"github.com/blazen1013/setting/internal/service/selfservice"
	uihandlers "github.com/blazen1013/setting/internal/ui/handlers"
	"github.com/blazen1013/setting/internal/ui/i18n"
	"github.com/blazen1013/setting/internal/ui/session"
	"github.com/blazen1013/setting/internal/ui/templates"
)

// serviceName — имя вершины графа зависимостей.
const serviceName = "staff-directory"

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Staff Directory запускается",
		slog.String("version", config.Version),
		slog.String("variant", string(cfg.Variant)),
		slog.Int("port", cfg.Port),
	)

	if cfg.SessionSecret == "" {
		logger.Warn("SD_SESSION_SECRET не задан, сессии посетителей не переживут рестарт")
	}
	if os.Getenv("SD_DEPHEALTH_GROUP") == "" {
		logger.Warn("SD_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Клиент Directory API
	dirClient, err := directory.New(cfg.APIBaseURL, cfg.APICACertPath, cfg.APITimeout, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента Directory API", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Клиент Directory API создан", slog.String("url", dirClient.BaseURL()))

	// 4. Каталоги переводов
	bundle := i18n.NewBundle(cfg.DefaultLang, logger)
	if err := i18n.LoadFromEmbedFS(bundle, logger); err != nil {
		logger.Error("Ошибка загрузки каталогов переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. HTML-шаблоны
	renderer, err := templates.New(bundle)
	if err != nil {
		logger.Error("Ошибка разбора шаблонов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. Шифрование cookie сессии
	codec, err := session.NewCookieCodec(cfg.SessionSecret, cfg.SecureCookie)
	if err != nil {
		logger.Error("Ошибка создания менеджера сессий", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 7. UI выбранного варианта
	var (
		uiRoutes     server.RouteRegistrar
		closeStorage func()
	)
	switch cfg.Variant {
	case config.VariantSelfService:
		h := uihandlers.NewSelfServiceHandler(renderer, cfg.DefaultLang, logger)
		uiRoutes, closeStorage = workspaceRoutes(cfg, codec,
			func() *selfservice.Controller { return selfservice.New(dirClient, logger) },
			h.Routes, logger)
	default:
		h := uihandlers.NewBrowserHandler(renderer, cfg.DefaultLang, logger)
		uiRoutes, closeStorage = workspaceRoutes(cfg, codec,
			func() *browser.Controller { return browser.New(dirClient, logger) },
			h.Routes, logger)
	}
	defer closeStorage()

	// 8. Мониторинг Directory API (topologymetrics)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var deps service.DependencyHealth
	if cfg.DephealthEnabled {
		dephealthSvc, dhErr := service.NewDephealthService(
			serviceName+"-"+string(cfg.Variant),
			cfg.DephealthGroup,
			cfg.APIBaseURL,
			cfg.DephealthCheckInterval,
			logger,
		)
		if dhErr != nil {
			logger.Error("Ошибка создания dephealth", slog.String("error", dhErr.Error()))
			os.Exit(1)
		}
		if err := dephealthSvc.Start(ctx); err != nil {
			logger.Error("Ошибка запуска dephealth", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer dephealthSvc.Stop()
		deps = dephealthSvc
	} else {
		logger.Info("Мониторинг зависимостей отключён, readiness проверяет Directory API напрямую")
	}

	// 9. Health endpoints
	readiness := service.NewDirectoryReadiness(dirClient, deps, cfg.APITimeout)
	healthHandler := handlers.NewHealthHandler(readiness, cfg.Variant)

	// 10. HTTP-сервер
	srv := server.New(cfg, logger,
		[]func(http.Handler) http.Handler{
			middleware.MetricsMiddleware(),
			middleware.RequestLogger(logger),
			i18n.Middleware(cfg.DefaultLang),
		},
		healthHandler.Routes,
		func(r chi.Router) {
			r.Post("/set-language", uihandlers.HandleSetLanguage(cfg.DefaultLang))
		},
		uiRoutes,
	)

	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Staff Directory остановлен")
}

// workspaceRoutes собирает маршруты UI поверх хранилища рабочих пространств.
// Возвращает функцию закрытия хранилища: все сессии уничтожаются.
func workspaceRoutes[W session.Workspace](
	cfg *config.Config,
	codec *session.CookieCodec,
	factory func() W,
	register func(chi.Router),
	logger *slog.Logger,
) (server.RouteRegistrar, func()) {
	store := session.NewStore(cfg.SessionMax, cfg.SessionTTL, factory, logger)
	manager := session.NewManager(codec, store, logger)

	return func(r chi.Router) {
		r.Use(manager.Middleware())
		register(r)
	}, store.Close
}
