package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smrzr",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "smrzr",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	upstreamExchanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smrzr",
			Subsystem: "upstream",
			Name:      "exchanges_total",
			Help:      "Summarizer daemon exchanges by outcome.",
		},
		[]string{"upstream", "server", "outcome"},
	)
	upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "smrzr",
			Subsystem: "upstream",
			Name:      "header_duration_seconds",
			Help:      "Time from dial to accepted response header.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"upstream", "server", "outcome"},
	)
	summaryBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smrzr",
			Subsystem: "gateway",
			Name:      "summary_bytes_total",
			Help:      "Summary body bytes forwarded to clients.",
		},
		[]string{"location"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, upstreamExchanges, upstreamDuration, summaryBytes)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordUpstreamExchange(upstream, server, outcome string, duration time.Duration) {
	RegisterMetrics()
	upstreamExchanges.WithLabelValues(upstream, server, outcome).Inc()
	upstreamDuration.WithLabelValues(upstream, server, outcome).Observe(duration.Seconds())
}

func RecordSummaryBytes(location string, n int64) {
	RegisterMetrics()
	summaryBytes.WithLabelValues(location).Add(float64(n))
}
