// Пакет handlers — служебные endpoints Manual Console.
// /health/live — проверка liveness (процесс жив)
// /health/ready — проверка readiness (REST API руководств доступен)
// /metrics — Prometheus метрики
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/manual-console/internal/config"
)

// ServiceName — имя сервиса в ответах health endpoints.
const ServiceName = "manual-console"

// DependencyHealth — источник состояния зависимостей (topologymetrics).
// Ключи формата "dependency:host:port", значение true — зависимость доступна.
type DependencyHealth interface {
	Health() map[string]bool
}

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	deps        DependencyHealth
	depName     string
	promHandler http.Handler
}

// NewHealthHandler создаёт обработчик health endpoints.
// deps может быть nil (мониторинг зависимостей не запущен): readiness вернёт "degraded".
// depName — имя зависимости REST API в deps.
// gatherer — источник метрик для /metrics (nil — prometheus.DefaultGatherer).
func NewHealthHandler(deps DependencyHealth, depName string, gatherer prometheus.Gatherer) *HealthHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &HealthHandler{
		deps:        deps,
		depName:     depName,
		promHandler: promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
	}
}

// healthCheckResult — результат проверки одной зависимости.
type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthLiveResponse — ответ проверка liveness.
type healthLiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

// healthReadyResponse — ответ проверка readiness.
type healthReadyResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
	Checks    struct {
		ManualsAPI healthCheckResult `json:"manuals_api"`
	} `json:"checks"`
}

// HealthLive — проверка liveness. Возвращает 200 если процесс жив.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	resp := healthLiveResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   ServiceName,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// HealthReady — проверка readiness. Проверяет REST API руководств.
// Возвращает 200 (ok/degraded) или 503 (fail).
func (h *HealthHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	resp := healthReadyResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   ServiceName,
	}
	resp.Checks.ManualsAPI = h.checkAPI()
	resp.Status = resp.Checks.ManualsAPI.Status

	w.Header().Set("Content-Type", "application/json")
	if resp.Status == "fail" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

// checkAPI определяет статус REST API по последней проверке topologymetrics.
func (h *HealthHandler) checkAPI() healthCheckResult {
	if h.deps == nil {
		return healthCheckResult{Status: "degraded", Message: "мониторинг зависимостей не запущен"}
	}
	healthy, found := findHealthByPrefix(h.deps.Health(), h.depName)
	switch {
	case !found:
		return healthCheckResult{Status: "degraded", Message: "проверка ещё не выполнена"}
	case !healthy:
		return healthCheckResult{Status: "fail", Message: "REST API недоступен"}
	default:
		return healthCheckResult{Status: "ok"}
	}
}

// findHealthByPrefix ищет статус зависимости по имени.
// Health() возвращает ключи формата "dependency:host:port",
// поэтому ищем ключ, начинающийся с имени зависимости + ":".
// Если найдено несколько — healthy только если все доступны.
func findHealthByPrefix(health map[string]bool, prefix string) (healthy bool, found bool) {
	healthy = true
	for key, ok := range health {
		if strings.HasPrefix(key, prefix+":") || key == prefix {
			found = true
			if !ok {
				healthy = false
			}
		}
	}
	return healthy && found, found
}
