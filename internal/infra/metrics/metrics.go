package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ContentIngested = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "content_ingested_total",
		Help: "Обработанные посты канала с контентом",
	}, []string{"result"})

	ContentViews = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "content_views_total",
		Help: "Успешные выдачи контента по коду",
	})

	ViewFlushErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "content_view_flush_errors_total",
		Help: "Ошибки сохранения счётчиков просмотров",
	})

	MembershipChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "membership_checks_total",
		Help: "Проверки подписки пользователя на обязательные каналы",
	}, []string{"result"})

	MembershipCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "membership_cache_hits_total",
		Help: "Попадания в кэш статусов участника",
	})

	MembershipCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "membership_cache_misses_total",
		Help: "Промахи кэша статусов участника",
	})

	BroadcastJobs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "broadcast_jobs_total",
		Help: "Запущенные рассылки",
	})

	BroadcastDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "broadcast_deliveries_total",
		Help: "Попытки доставки рассылки получателям",
	}, []string{"status"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		ContentIngested,
		ContentViews,
		ViewFlushErrors,
		MembershipChecks,
		MembershipCacheHits,
		MembershipCacheMisses,
		BroadcastJobs,
		BroadcastDeliveries,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveIngestion учитывает результат обработки поста канала.
func ObserveIngestion(result string) {
	ContentIngested.WithLabelValues(result).Inc()
}

// ObserveMembership учитывает итог проверки подписки.
func ObserveMembership(subscribed bool) {
	result := "denied"
	if subscribed {
		result = "subscribed"
	}
	MembershipChecks.WithLabelValues(result).Inc()
}

// ObserveDelivery учитывает доставку одному получателю рассылки.
func ObserveDelivery(err error) {
	status := "delivered"
	if err != nil {
		status = "failed"
	}
	BroadcastDeliveries.WithLabelValues(status).Inc()
}
