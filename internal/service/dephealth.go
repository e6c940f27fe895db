// Пакет service — фоновые сервисы Manual Console.
// dephealth.go — интеграция с topologymetrics SDK для мониторинга зависимостей.
//
// Manual Console мониторит одну зависимость:
//   - REST API руководств — HTTP GET health endpoint (critical)
//
// Метрики доступны на /metrics вместе с остальными Prometheus-метриками:
//   - app_dependency_health — состояние зависимости (1 = ok, 0 = fail)
//   - app_dependency_latency_seconds — задержка проверки
//   - app_dependency_status — категория статуса
//   - app_dependency_status_detail — детальный статус
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // HTTP checker для REST API
	"github.com/prometheus/client_golang/prometheus"
)

// APIDependencyName — имя зависимости REST API в метриках и Health().
const APIDependencyName = "manuals-api"

// DephealthConfig — параметры мониторинга REST API.
type DephealthConfig struct {
	// ServiceID — имя вершины графа текущего приложения
	ServiceID string
	// Group — имя группы в метриках (MC_DEPHEALTH_GROUP)
	Group string
	// APIURL — базовый URL REST API (MC_API_BASE_URL)
	APIURL string
	// HealthPath — путь health endpoint (MC_API_HEALTH_PATH)
	HealthPath string
	// CheckInterval — интервал проверки (MC_DEPHEALTH_CHECK_INTERVAL)
	CheckInterval time.Duration
	// TLSSkipVerify — не проверять сертификат API. Checker SDK не знает
	// о пользовательском CA, поэтому включается при MC_API_CA_CERT_PATH.
	TLSSkipVerify bool
}

// DephealthService — сервис мониторинга зависимостей через topologymetrics.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService создаёт сервис мониторинга зависимостей.
// Метрики регистрируются в глобальном Prometheus registry.
func NewDephealthService(cfg DephealthConfig, logger *slog.Logger) (*DephealthService, error) {
	return newDephealthService(cfg, logger)
}

// NewDephealthServiceWithRegisterer создаёт сервис с указанным Prometheus registerer.
// Используется в тестах для изоляции метрик.
func NewDephealthServiceWithRegisterer(cfg DephealthConfig, logger *slog.Logger, registerer prometheus.Registerer) (*DephealthService, error) {
	return newDephealthService(cfg, logger, dephealth.WithRegisterer(registerer))
}

// newDephealthService — внутренний конструктор.
func newDephealthService(cfg DephealthConfig, logger *slog.Logger, extraOpts ...dephealth.Option) (*DephealthService, error) {
	healthPath := cfg.HealthPath
	if healthPath == "" {
		healthPath = "/"
	}

	depOpts := []dephealth.DependencyOption{
		dephealth.FromURL(cfg.APIURL),
		dephealth.WithHTTPHealthPath(healthPath),
		dephealth.CheckInterval(cfg.CheckInterval),
		dephealth.Critical(true),
	}
	if cfg.TLSSkipVerify {
		depOpts = append(depOpts, dephealth.WithHTTPTLSSkipVerify(true))
	}

	opts := []dephealth.Option{
		dephealth.WithLogger(logger),
		dephealth.HTTP(APIDependencyName, depOpts...),
	}
	opts = append(opts, extraOpts...)

	dh, err := dephealth.New(cfg.ServiceID, cfg.Group, opts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает периодическую проверку зависимостей.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг зависимостей запущен (REST API руководств)")
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг зависимостей.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health возвращает текущее состояние зависимостей.
// Ключ — "dependency:host:port", значение — true если ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}
