// Точка входа Manual Console — консоль администрирования PDF-руководств.
// Загружает конфигурацию, создаёт клиент REST API руководств, хранилище
// рабочих пространств и обработчики консоли, запускает мониторинг
// зависимостей (topologymetrics) и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bigkaa/manual-console/internal/api/handlers"
	"github.com/bigkaa/manual-console/internal/api/middleware"
	"github.com/bigkaa/manual-console/internal/apiclient"
	"github.com/bigkaa/manual-console/internal/config"
	"github.com/bigkaa/manual-console/internal/console"
	"github.com/bigkaa/manual-console/internal/server"
	"github.com/bigkaa/manual-console/internal/service"
	"github.com/bigkaa/manual-console/internal/ui/auth"
	uihandlers "github.com/bigkaa/manual-console/internal/ui/handlers"
	"github.com/bigkaa/manual-console/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/manual-console/internal/ui/middleware"
	"github.com/bigkaa/manual-console/internal/ui/views"
	"github.com/bigkaa/manual-console/internal/workspace"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Manual Console запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("api_url", cfg.APIURL()),
	)

	// Предупреждения о дефолтных значениях topologymetrics
	if os.Getenv("MC_DEPHEALTH_GROUP") == "" {
		logger.Warn("MC_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Каталоги переводов UI
	if err := i18n.LoadFromEmbedFS(i18n.Init(logger), logger); err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Клиент REST API: токен берётся из контекста запроса (сессия пользователя)
	apiClient, err := apiclient.New(cfg.APIURL(), cfg.APICACertPath, cfg.APITimeout, apiclient.ContextToken, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента API", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Хранилище рабочих пространств (состояние консоли по сессиям)
	registerer := prometheus.DefaultRegisterer
	store := workspace.NewStore(apiClient, workspace.Config{
		Size:           cfg.WorkspaceCacheSize,
		TTL:            cfg.WorkspaceTTL,
		UploadMaxFiles: cfg.UploadMaxFiles,
		UploadMaxBytes: cfg.UploadMaxSize,
		Metrics:        console.NewMetrics(registerer),
	}, registerer, logger)

	// 6. Session Manager — шифрование/дешифрование сессий (AES-256-GCM)
	sessionMgr, err := auth.NewSessionManager(cfg.SessionSecret, cfg.SecureCookie())
	if err != nil {
		logger.Error("Ошибка создания Session Manager", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.SessionSecret == "" {
		logger.Warn("MC_SESSION_SECRET не задан, сессии не сохраняются между рестартами")
	}

	// 7. topologymetrics — мониторинг REST API руководств
	ctx := context.Background()
	var depHealth handlers.DependencyHealth
	dephealthSvc, dephealthErr := service.NewDephealthService(service.DephealthConfig{
		ServiceID:     handlers.ServiceName,
		Group:         cfg.DephealthGroup,
		APIURL:        cfg.APIBaseURL,
		HealthPath:    cfg.APIHealthPath,
		CheckInterval: cfg.DephealthCheckInterval,
		TLSSkipVerify: cfg.APICACertPath != "",
	}, logger)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics",
			slog.String("error", startErr.Error()),
		)
		dephealthSvc = nil
	} else {
		depHealth = dephealthSvc
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 8. Обработчики
	views.HTMXSource = cfg.HTMXURL
	healthHandler := handlers.NewHealthHandler(depHealth, service.APIDependencyName, prometheus.DefaultGatherer)
	uiComponents := &server.UIComponents{
		AuthHandler:      uihandlers.NewAuthHandler(sessionMgr, store, logger),
		AuthMiddleware:   uimiddleware.NewUIAuth(sessionMgr, logger),
		DashboardHandler: uihandlers.NewDashboardHandler(store, logger),
		RecordsHandler:   uihandlers.NewRecordsHandler(store, logger),
		UploadHandler:    uihandlers.NewUploadHandler(store, apiClient, cfg.UploadMaxMemory, cfg.UploadMaxSize, logger),
	}
	logger.Info("Консоль инициализирована",
		slog.Bool("secure_cookie", cfg.SecureCookie()),
		slog.Int("workspace_cache_size", cfg.WorkspaceCacheSize),
		slog.String("workspace_ttl", cfg.WorkspaceTTL.String()),
		slog.String("htmx", cfg.HTMXURL),
		slog.Int64("upload_max_size", cfg.UploadMaxSize),
	)

	// 9. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, healthHandler, middleware.NewHTTPMetrics(registerer), uiComponents)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 10. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Manual Console остановлен")
}
