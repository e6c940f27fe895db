// Пакет server — HTTP-сервер Manual Console с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на ingress.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/manual-console/internal/api/errors"
	"github.com/bigkaa/manual-console/internal/api/handlers"
	"github.com/bigkaa/manual-console/internal/api/middleware"
	"github.com/bigkaa/manual-console/internal/config"
	uihandlers "github.com/bigkaa/manual-console/internal/ui/handlers"
	"github.com/bigkaa/manual-console/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/manual-console/internal/ui/middleware"
	"github.com/bigkaa/manual-console/internal/ui/static"
	"github.com/bigkaa/manual-console/internal/ui/views"
)

// UIComponents — обработчики и middleware консоли.
type UIComponents struct {
	AuthHandler      *uihandlers.AuthHandler
	AuthMiddleware   *uimiddleware.UIAuth
	DashboardHandler *uihandlers.DashboardHandler
	RecordsHandler   *uihandlers.RecordsHandler
	UploadHandler    *uihandlers.UploadHandler
}

// Server — HTTP-сервер Manual Console.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, health *handlers.HealthHandler,
	metrics *middleware.HTTPMetrics, ui *UIComponents) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(logger, health, metrics, ui),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter создаёт chi-маршрутизатор со всеми маршрутами сервера.
func NewRouter(logger *slog.Logger, health *handlers.HealthHandler,
	metrics *middleware.HTTPMetrics, ui *UIComponents) http.Handler {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(metrics.Middleware())
	router.Use(middleware.RequestLogger(logger))

	// Health и metrics проверяются Kubernetes напрямую, без сессии.
	router.Get("/health/live", health.HealthLive)
	router.Get("/health/ready", health.HealthReady)
	router.Get("/metrics", health.GetMetrics)

	// Статические файлы (CSS)
	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))

	router.Get("/", redirectTo(views.DashboardPath))

	router.Route(views.BasePath, func(r chi.Router) {
		r.Use(i18n.Middleware())

		// Публичные страницы: ввод токена и смена языка
		r.Get("/login", ui.AuthHandler.HandleLoginPage)
		r.Post("/login", ui.AuthHandler.HandleLogin)
		r.Post("/set-language", uihandlers.HandleSetLanguage)

		r.Group(func(r chi.Router) {
			r.Use(ui.AuthMiddleware.Middleware())

			r.Get("/", ui.DashboardHandler.HandleDashboard)
			r.Post("/logout", ui.AuthHandler.HandleLogout)

			r.Get("/upload", ui.UploadHandler.HandlePage)
			r.Post("/upload/files", ui.UploadHandler.HandleAddFiles)
			r.Post("/upload/files/{index}/remove", ui.UploadHandler.HandleRemoveFile)
			r.Post("/upload/submit", ui.UploadHandler.HandleSubmit)

			r.Get("/partials/{kind}/table", ui.RecordsHandler.HandlePartial)

			r.Get("/{kind}", ui.RecordsHandler.HandlePage)
			r.Post("/{kind}/refresh", ui.RecordsHandler.HandleRefresh)
			r.Post("/{kind}/clear", ui.RecordsHandler.HandleClear)
			r.Post("/{kind}/toggle/{id}", ui.RecordsHandler.HandleToggle)
			r.Post("/{kind}/actions/{action}", ui.RecordsHandler.HandleAction)
			r.Get("/{kind}/edit", ui.RecordsHandler.HandleEditForm)
			r.Post("/{kind}/edit", ui.RecordsHandler.HandleEdit)
		})
	})

	router.NotFound(notFound)
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apierrors.MethodNotAllowed(w, "Метод не поддерживается")
	})

	return router
}

// notFound — неизвестный маршрут: страницы открывают dashboard,
// прочие запросы получают ошибку в формате JSON.
func notFound(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		http.Redirect(w, r, views.DashboardPath, http.StatusFound)
		return
	}
	apierrors.NotFound(w, "Маршрут не найден")
}

func redirectTo(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, path, http.StatusFound)
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
