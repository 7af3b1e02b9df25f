// Package metrics объявляет счётчики Prometheus сервиса и middleware для HTTP-запросов.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicketsOpened зарегистрированные въезды.
	TicketsOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_tickets_opened_total",
		Help: "Number of registered vehicle entries.",
	}, []string{"vehicle_type"})

	// ExitsRegistered закрытые тикеты.
	ExitsRegistered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_exits_registered_total",
		Help: "Number of registered vehicle exits.",
	}, []string{"vehicle_type"})

	// AmountCharged сумма начислений за стоянки в минимальных единицах валюты.
	AmountCharged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parking_amount_charged_total",
		Help: "Total amount charged for parking stays.",
	})

	// AlertsPublished отправленные в брокер уведомления по контрактам.
	AlertsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_contract_alerts_published_total",
		Help: "Number of contract alerts published to the broker.",
	}, []string{"alert_type"})

	// SweepErrors неудачные фоновые сверки контрактов.
	SweepErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parking_contract_sweep_errors_total",
		Help: "Number of failed contract reconciliation sweeps.",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "parking_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Middleware измеряет длительность запросов, группируя их по шаблону маршрута chi.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		requestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
