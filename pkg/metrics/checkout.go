package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for submissions.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// CheckoutMetrics records checkout submissions and cart rejections.
type CheckoutMetrics struct {
	duration    *prometheus.HistogramVec
	submissions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pos_checkout_submit_duration_seconds",
		Help:    "Duration of sales service submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_checkout_submissions_total",
		Help: "Checkout submissions by outcome and error code.",
	}, []string{"outcome", "code"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_cart_rejections_total",
		Help: "Cart mutations rejected locally, by error code.",
	}, []string{"code"})
	reg.MustRegister(duration, submissions, rejections)
	return &CheckoutMetrics{
		duration:    duration,
		submissions: submissions,
		rejections:  rejections,
	}
}

// ObserveSubmission records one finished submission. code is empty on success.
func (c *CheckoutMetrics) ObserveSubmission(outcome, code string, elapsed time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	c.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if code == "" {
		code = "none"
	}
	c.submissions.WithLabelValues(outcome, code).Inc()
}

// IncRejection counts a locally rejected cart mutation.
func (c *CheckoutMetrics) IncRejection(code string) {
	if c == nil || c.rejections == nil {
		return
	}
	c.rejections.WithLabelValues(normalizeLabel(code)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
