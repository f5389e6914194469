// Package metrics holds the Prometheus collectors exposed on /metrics.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	logins          *prometheus.CounterVec
	sessionsSwept   prometheus.Counter
	activitiesAdded prometheus.Counter
	notifications   *prometheus.CounterVec
	backups         *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wg_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		sessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wg_sessions_swept_total",
			Help: "Expired authentication sessions removed.",
		}),
		activitiesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wg_chore_activities_logged_total",
			Help: "Chore activities recorded.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wg_low_score_notifications_total",
			Help: "Low-score notifications by channel and result.",
		}, []string{"channel", "result"}),
		backups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wg_backups_total",
			Help: "Database backups by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wg_http_requests_total",
			Help: "HTTP requests by route pattern and status code.",
		}, []string{"pattern", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wg_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"pattern"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.logins,
		m.sessionsSwept,
		m.activitiesAdded,
		m.notifications,
		m.backups,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) SessionsSwept(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.sessionsSwept.Add(float64(n))
}

func (m *Metrics) ActivityLogged() {
	if m == nil {
		return
	}
	m.activitiesAdded.Inc()
}

func (m *Metrics) Notification(channel string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.notifications.WithLabelValues(channel, result).Inc()
}

func (m *Metrics) Backup(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.backups.WithLabelValues(result).Inc()
}

func (m *Metrics) Request(pattern string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if pattern == "" {
		pattern = "unmatched"
	}
	m.httpRequests.WithLabelValues(pattern, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(pattern).Observe(elapsed.Seconds())
}
