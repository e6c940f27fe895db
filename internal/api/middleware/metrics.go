// Пакет middleware — общие HTTP middleware сервера Manual Console.
// metrics.go — Prometheus HTTP метрики: mc_http_requests_total, mc_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/manual-console/internal/console"
	"github.com/bigkaa/manual-console/internal/domain/model"
)

// HTTPMetrics — счётчики и гистограммы HTTP-запросов.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewHTTPMetrics регистрирует HTTP метрики в reg (nil — prometheus.DefaultRegisterer).
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &HTTPMetrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mc_http_requests_total",
				Help: "Общее количество HTTP-запросов к Manual Console",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mc_http_request_duration_seconds",
				Help:    "Длительность HTTP-запросов к Manual Console в секундах",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// Middleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func (m *HTTPMetrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			normalizedPath := NormalizePath(r.URL.Path)

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			m.requestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			m.requestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// NormalizePath заменяет идентификаторы в пути на шаблоны, чтобы
// количество значений лейбла path оставалось ограниченным.
// /console/files/toggle/42 → /console/{kind}/toggle/{id}
// Неизвестные пути сводятся к "other".
func NormalizePath(path string) string {
	// Статические пути — возвращаем как есть
	switch path {
	case "/health/live", "/health/ready", "/metrics",
		"/console", "/console/",
		"/console/login", "/console/logout", "/console/set-language",
		"/console/upload", "/console/upload/files", "/console/upload/submit":
		return path
	}

	if strings.HasPrefix(path, "/static/") {
		return "/static/*"
	}
	if strings.HasPrefix(path, "/console/upload/files/") && strings.HasSuffix(path, "/remove") {
		return "/console/upload/files/{index}/remove"
	}

	parts := strings.Split(strings.TrimPrefix(path, "/console/"), "/")
	if !strings.HasPrefix(path, "/console/") || len(parts) == 0 {
		return "other"
	}

	// /console/partials/{kind}/table
	if parts[0] == "partials" {
		if len(parts) == 3 && isKind(parts[1]) && parts[2] == "table" {
			return "/console/partials/{kind}/table"
		}
		return "other"
	}

	if !isKind(parts[0]) {
		return "other"
	}
	switch {
	case len(parts) == 1:
		return "/console/{kind}"
	case len(parts) == 2 && (parts[1] == "refresh" || parts[1] == "edit" || parts[1] == "clear"):
		return "/console/{kind}/" + parts[1]
	case len(parts) == 3 && parts[1] == "toggle":
		return "/console/{kind}/toggle/{id}"
	case len(parts) == 3 && parts[1] == "actions":
		if _, ok := console.ParseAction(parts[2]); ok {
			return "/console/{kind}/actions/" + parts[2]
		}
		return "/console/{kind}/actions/{action}"
	}
	return "other"
}

func isKind(s string) bool {
	_, ok := model.ParseKind(s)
	return ok
}
