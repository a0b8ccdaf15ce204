package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

const (
	StatusCompleted      = "completed"
	StatusNotifyFailed   = "committed_notify_failed"
	StatusRejected       = "rejected"
	StatusPersistFailed  = "persistence_failed"
	StatusRenderFailed   = "render_failed"
	StatusDuplicate      = "duplicate"
	StatusRetryDelivered = "retry_delivered"
	StatusRetryFailed    = "retry_failed"
)

type SubmissionMetrics struct {
	Submissions *prometheus.CounterVec
	LatencyMS   prometheus.Histogram
	CartItems   *prometheus.CounterVec
}

func NewSubmissionMetrics(reg prometheus.Registerer) *SubmissionMetrics {
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orders",
		Name:      "submissions_total",
		Help:      "Order submissions by outcome.",
	}, []string{"status"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "orders",
		Name:      "submission_duration_ms",
		Help:      "Order submission latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})
	cartItems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orders",
		Name:      "cart_operations_total",
		Help:      "Cart operations by kind.",
	}, []string{"op"})

	reg.MustRegister(submissions, latency, cartItems)
	return &SubmissionMetrics{Submissions: submissions, LatencyMS: latency, CartItems: cartItems}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
