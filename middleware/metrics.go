package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	savingsUpdates *prometheus.CounterVec
	shareLinks     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triptrack",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "triptrack",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		savingsUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triptrack",
			Name:      "savings_updates_total",
			Help:      "Savings updates by outcome.",
		}, []string{"outcome"}),
		shareLinks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triptrack",
			Name:      "share_links_total",
			Help:      "Share link requests, split by whether a link was minted.",
		}, []string{"created"}),
	}
	reg.MustRegister(m.requests, m.duration, m.savingsUpdates, m.shareLinks)
	return m
}

// Middleware records every request under its route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

// SavingsUpdate counts one savings update. outcome is "ok", "conflict" or "error".
func (m *Metrics) SavingsUpdate(outcome string) {
	if m == nil {
		return
	}
	m.savingsUpdates.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ShareLink(created bool) {
	if m == nil {
		return
	}
	m.shareLinks.WithLabelValues(strconv.FormatBool(created)).Inc()
}
