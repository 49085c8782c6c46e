package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/Conceptual-Machines/hybridation-api/internal/generation"
	"github.com/Conceptual-Machines/hybridation-api/internal/llm"
)

// Recorder fans metrics out to Prometheus, CloudWatch and Sentry.
type Recorder struct {
	cloudwatch *Client
	sentry     *SentryMetrics
}

// NewRecorder accepts a nil CloudWatch client.
func NewRecorder(cloudwatch *Client, sentry *SentryMetrics) *Recorder {
	if sentry == nil {
		sentry = NewSentryMetrics()
	}
	return &Recorder{cloudwatch: cloudwatch, sentry: sentry}
}

func (r *Recorder) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
	HTTPRequestLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
	r.cloudwatch.RecordAPIRequest(endpoint, statusCode, duration)
	r.sentry.RecordAPIRequest(ctx, endpoint, statusCode, duration)
}

// RecordGeneration records a finished run. provider is empty on failure.
func (r *Recorder) RecordGeneration(ctx context.Context, variant, provider string, duration time.Duration, success bool) {
	GenerationsTotal.WithLabelValues(variant, provider, strconv.FormatBool(success)).Inc()
	r.cloudwatch.RecordGeneration(variant, provider, duration, success)
	r.sentry.RecordGeneration(ctx, variant, provider, duration, success)
}

func (r *Recorder) RecordShopResults(count int) {
	ShopProductsReturned.Observe(float64(count))
}

// ProviderAttempted implements generation.Observer.
func (r *Recorder) ProviderAttempted(_ context.Context, attempt generation.ProviderAttempt) {
	ProviderCallsTotal.WithLabelValues(
		attempt.Provider,
		string(attempt.Role),
		string(attempt.Stage),
		string(attempt.Outcome),
		attempt.Class,
	).Inc()
	ProviderCallLatency.WithLabelValues(attempt.Provider, string(attempt.Stage)).Observe(attempt.Duration.Seconds())
}

// ProviderSwitched implements generation.Observer.
func (r *Recorder) ProviderSwitched(_ context.Context, stage llm.Stage, from, to string) {
	ProviderFallbacksTotal.WithLabelValues(string(stage), from, to).Inc()
	r.cloudwatch.RecordProviderSwitch(string(stage))
}

var _ generation.Observer = (*Recorder)(nil)
