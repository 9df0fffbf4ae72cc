// Package metrics holds the Prometheus collectors exported on /metrics.
// All recording methods are safe to call on a nil *Metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	checkIns *prometheus.CounterVec
	payments prometheus.Counter
	revenue  prometheus.Counter
	expired  prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gym",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gym",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		checkIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gym",
			Name:      "checkins_total",
			Help:      "Check-in attempts by outcome.",
		}, []string{"outcome"}),
		payments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gym",
			Name:      "payments_total",
			Help:      "Recorded payments.",
		}),
		revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gym",
			Name:      "revenue_cents_total",
			Help:      "Sum of recorded payment amounts in cents.",
		}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gym",
			Name:      "memberships_expired_total",
			Help:      "Memberships marked expired by the expiry job.",
		}),
	}
	reg.MustRegister(m.requests, m.latency, m.checkIns, m.payments, m.revenue, m.expired)
	return m
}

// Check-in outcomes.
const (
	CheckInOK           = "ok"
	CheckInNoMembership = "no_membership"
	CheckInDuplicate    = "duplicate"
	CheckInFull         = "full"
	CheckInNotFound     = "not_found"
	CheckInError        = "error"
)

func (m *Metrics) CheckIn(outcome string) {
	if m == nil {
		return
	}
	m.checkIns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Payment(amountCents int64) {
	if m == nil {
		return
	}
	m.payments.Inc()
	m.revenue.Add(float64(amountCents))
}

func (m *Metrics) Expired(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.expired.Add(float64(n))
}

// Middleware records the request counter and latency histogram keyed by
// the matched route pattern, not the raw path.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.latency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
