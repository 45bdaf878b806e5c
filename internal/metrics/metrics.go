package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/alecgard/pitchside/internal/auth"
	"github.com/alecgard/pitchside/internal/event"
)

// Metrics holds all Prometheus metric collectors for the Pitchside server.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Rate limiting.
	RateLimitRejectionsTotal *prometheus.CounterVec

	// Auth metrics.
	TokensIssuedTotal    *prometheus.CounterVec
	SessionFailuresTotal *prometheus.CounterVec

	// Event lifecycle metrics.
	RosterChangesTotal *prometheus.CounterVec
	StatusChangesTotal *prometheus.CounterVec
	SweepRunsTotal     *prometheus.CounterVec
	SweepExpiredTotal  prometheus.Counter
	SweepFailedTotal   prometheus.Counter
	SweepDuration      prometheus.Histogram

	// Notification outbox metrics.
	NotificationsFlushedTotal *prometheus.CounterVec

	// Server lifecycle.
	ServerStartTime prometheus.Gauge
}

// New creates and registers all Prometheus metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchside_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pitchside_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),

		HTTPResponseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pitchside_http_response_size_bytes",
			Help:    "HTTP response size in bytes.",
			Buckets: prometheus.ExponentialBuckets(100, 10, 6),
		}, []string{"method", "path_pattern"}),

		RateLimitRejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchside_ratelimit_rejections_total",
			Help: "Total number of rate limit rejections.",
		}, []string{"scope"}),

		TokensIssuedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchside_auth_tokens_issued_total",
			Help: "Total number of tokens issued by role and kind.",
		}, []string{"role", "kind"}),

		SessionFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchside_auth_session_failures_total",
			Help: "Total number of failed session operations by error code.",
		}, []string{"code"}),

		RosterChangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchside_event_roster_changes_total",
			Help: "Total number of participant joins and leaves.",
		}, []string{"action"}),

		StatusChangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchside_event_status_changes_total",
			Help: "Total number of event status transitions.",
		}, []string{"from", "to"}),

		SweepRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchside_sweep_runs_total",
			Help: "Total number of lifecycle sweeps.",
		}, []string{"status"}),

		SweepExpiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pitchside_sweep_expired_total",
			Help: "Total number of events expired by the sweeper.",
		}),

		SweepFailedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pitchside_sweep_failed_total",
			Help: "Total number of events the sweeper failed to expire.",
		}),

		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pitchside_sweep_duration_seconds",
			Help:    "Duration of lifecycle sweeps in seconds.",
			Buckets: prometheus.DefBuckets,
		}),

		NotificationsFlushedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchside_notifications_flushed_total",
			Help: "Total number of notifications written by the outbox.",
		}, []string{"status"}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pitchside_server_start_time_seconds",
			Help: "Unix timestamp when the server started.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.RateLimitRejectionsTotal,
		m.TokensIssuedTotal,
		m.SessionFailuresTotal,
		m.RosterChangesTotal,
		m.StatusChangesTotal,
		m.SweepRunsTotal,
		m.SweepExpiredTotal,
		m.SweepFailedTotal,
		m.SweepDuration,
		m.NotificationsFlushedTotal,
		m.ServerStartTime,
	)

	m.ServerStartTime.Set(float64(time.Now().Unix()))

	// Register Go runtime and process collectors.
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDBPoolCollector registers a custom DB pool stats collector.
func (m *Metrics) RegisterDBPoolCollector(statFunc DBPoolStatFunc) {
	m.registry.MustRegister(NewDBPoolCollector(statFunc))
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, pattern string, status, size int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, pattern, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pattern).Observe(elapsed.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, pattern).Observe(float64(size))
}

// IncRateLimitRejection increments the rate limit rejection counter.
func (m *Metrics) IncRateLimitRejection(scope string) {
	m.RateLimitRejectionsTotal.WithLabelValues(scope).Inc()
}

// TokenIssued implements auth.Observer.
func (m *Metrics) TokenIssued(role auth.Role, kind string) {
	m.TokensIssuedTotal.WithLabelValues(string(role), kind).Inc()
}

// SessionFailed implements auth.Observer.
func (m *Metrics) SessionFailed(code string) {
	m.SessionFailuresTotal.WithLabelValues(code).Inc()
}

// RosterChanged implements event.Observer.
func (m *Metrics) RosterChanged(action string) {
	m.RosterChangesTotal.WithLabelValues(action).Inc()
}

// StatusChanged implements event.Observer.
func (m *Metrics) StatusChanged(from, to event.Status) {
	m.StatusChangesTotal.WithLabelValues(string(from), string(to)).Inc()
}

// SweepCompleted implements event.Observer.
func (m *Metrics) SweepCompleted(r event.SweepResult) {
	status := "success"
	if r.Err != nil {
		status = "error"
	}
	m.SweepRunsTotal.WithLabelValues(status).Inc()
	m.SweepExpiredTotal.Add(float64(r.Expired))
	m.SweepFailedTotal.Add(float64(r.Failed))
	m.SweepDuration.Observe(r.Duration.Seconds())
}

// NotificationsFlushed implements notify.Observer.
func (m *Metrics) NotificationsFlushed(count int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.NotificationsFlushedTotal.WithLabelValues(status).Add(float64(count))
}

var (
	_ auth.Observer  = (*Metrics)(nil)
	_ event.Observer = (*Metrics)(nil)
)
