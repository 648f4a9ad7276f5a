package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты операций бронирования для метки outcome
const (
	OutcomeSuccess  = "success"
	OutcomeReplay   = "replay"
	OutcomeConflict = "conflict"
	OutcomeBusy     = "busy"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Metrics набор метрик сервиса
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration   *prometheus.HistogramVec
	DBOpenConnections prometheus.Gauge
	DBInUse           prometheus.Gauge
	DBIdle            prometheus.Gauge
	DBWaitCount       prometheus.Gauge

	BookingOperations *prometheus.CounterVec
	LockWaitSeconds   *prometheus.HistogramVec
	SlotsReturned     prometheus.Histogram
	CacheLookups      *prometheus.CounterVec
	OutboxPublished   *prometheus.CounterVec
}

// New регистрирует метрики в глобальном реестре prometheus
func New(serviceName string) *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, serviceName)
}

// NewWithRegistry регистрирует метрики в указанном реестре
func NewWithRegistry(reg prometheus.Registerer, serviceName string) *Metrics {
	f := promauto.With(reg)
	labels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: labels,
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query latency",
			ConstLabels: labels,
			Buckets:     []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		DBOpenConnections: f.NewGauge(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Number of established connections",
			ConstLabels: labels,
		}),
		DBInUse: f.NewGauge(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Number of connections currently in use",
			ConstLabels: labels,
		}),
		DBIdle: f.NewGauge(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Number of idle connections",
			ConstLabels: labels,
		}),
		DBWaitCount: f.NewGauge(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: labels,
		}),
		BookingOperations: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_operations_total",
			Help:        "Booking ledger operations by outcome",
			ConstLabels: labels,
		}, []string{"operation", "outcome"}),
		LockWaitSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "lock_wait_seconds",
			Help:        "Time spent waiting for the per-resource booking lock",
			ConstLabels: labels,
			Buckets:     []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 3, 5},
		}, []string{"acquired"}),
		SlotsReturned: f.NewHistogram(prometheus.HistogramOpts{
			Name:        "available_slots_returned",
			Help:        "Number of slots returned per availability query",
			ConstLabels: labels,
			Buckets:     []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "availability_cache_lookups_total",
			Help:        "Availability window cache lookups",
			ConstLabels: labels,
		}, []string{"result"}),
		OutboxPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "outbox_events_published_total",
			Help:        "Outbox events handed to the broker",
			ConstLabels: labels,
		}, []string{"event_type"}),
	}
}

// ObserveHTTP фиксирует HTTP запрос
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// BookingOperation фиксирует результат операции реестра бронирований
func (m *Metrics) BookingOperation(operation, outcome string) {
	m.BookingOperations.WithLabelValues(operation, outcome).Inc()
}

// LockWait фиксирует время ожидания блокировки ресурса
func (m *Metrics) LockWait(wait time.Duration, acquired bool) {
	m.LockWaitSeconds.WithLabelValues(strconv.FormatBool(acquired)).Observe(wait.Seconds())
}

// SlotsGenerated фиксирует размер ответа генератора слотов
func (m *Metrics) SlotsGenerated(n int) {
	m.SlotsReturned.Observe(float64(n))
}

// CacheLookup фиксирует попадание или промах кеша окон доступности
func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// EventPublished фиксирует отправку события из outbox
func (m *Metrics) EventPublished(eventType string) {
	m.OutboxPublished.WithLabelValues(eventType).Inc()
}
