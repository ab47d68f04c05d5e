package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcomes recorded on storefront_checkout_attempts_total.
const (
	OutcomeSuccess         = "success"
	OutcomeValidation      = "validation_failed"
	OutcomeIntentFailed    = "intent_failed"
	OutcomeConfirmFailed   = "confirm_failed"
	OutcomeAlreadyInFlight = "already_in_flight"
)

// CheckoutMetrics records place-order attempts and per-stage latency.
type CheckoutMetrics struct {
	attempts      *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	inFlight      prometheus.Gauge
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_attempts_total",
		Help: "Place-order attempts by outcome.",
	}, []string{"outcome"})
	stageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_checkout_stage_duration_seconds",
		Help:    "Duration of each checkout stage in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_checkout_in_flight",
		Help: "Payments currently between create-intent and confirm.",
	})
	reg.MustRegister(attempts, stageDuration, inFlight)
	return &CheckoutMetrics{
		attempts:      attempts,
		stageDuration: stageDuration,
		inFlight:      inFlight,
	}
}

// IncAttempt counts one finished place-order attempt.
func (c *CheckoutMetrics) IncAttempt(outcome string) {
	if c == nil || c.attempts == nil {
		return
	}
	c.attempts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveStage records how long one checkout stage took.
func (c *CheckoutMetrics) ObserveStage(stage string, duration time.Duration) {
	if c == nil || c.stageDuration == nil {
		return
	}
	c.stageDuration.WithLabelValues(normalizeLabel(stage)).Observe(duration.Seconds())
}

// PaymentStarted marks a payment as in flight.
func (c *CheckoutMetrics) PaymentStarted() {
	if c == nil || c.inFlight == nil {
		return
	}
	c.inFlight.Inc()
}

// PaymentFinished clears an in-flight payment.
func (c *CheckoutMetrics) PaymentFinished() {
	if c == nil || c.inFlight == nil {
		return
	}
	c.inFlight.Dec()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
