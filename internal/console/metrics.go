// metrics.go — Prometheus метрики ядра консоли.
// Регистрирует: mc_console_fetch_total, mc_console_fetch_duration_seconds,
// mc_console_stale_responses_total, mc_console_dispatch_total.
package console

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics — метрики загрузки страниц и пакетных действий.
// Nil-значение допустимо: метрики не записываются.
type Metrics struct {
	fetchTotal    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	staleTotal    *prometheus.CounterVec
	dispatchTotal *prometheus.CounterVec
}

// NewMetrics регистрирует метрики в указанном registerer.
// В тестах передаётся prometheus.NewRegistry() для изоляции.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		fetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mc_console_fetch_total",
				Help: "Количество загрузок страниц таблиц по видам записей и результату",
			},
			[]string{"kind", "outcome"},
		),
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mc_console_fetch_duration_seconds",
				Help:    "Длительность загрузки страницы таблицы в секундах",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		staleTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mc_console_stale_responses_total",
				Help: "Количество отброшенных устаревших ответов загрузки страниц",
			},
			[]string{"kind"},
		),
		dispatchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mc_console_dispatch_total",
				Help: "Количество пакетных действий по виду действия и результату",
			},
			[]string{"action", "outcome"},
		),
	}
}

func (m *Metrics) observeFetch(kind string, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.fetchTotal.WithLabelValues(kind, outcome).Inc()
	m.fetchDuration.WithLabelValues(kind).Observe(seconds)
}

func (m *Metrics) observeStale(kind string) {
	if m == nil {
		return
	}
	m.staleTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) observeDispatch(action ActionKind, outcome string) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(string(action), outcome).Inc()
}
