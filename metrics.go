package pay2house

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	metricRequests = "pay2house.client.requests"
	metricDuration = "pay2house.client.duration"
)

// clientMetrics counts dispatched calls and their latency, labelled by
// endpoint and outcome.
type clientMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newClientMetrics(mp metric.MeterProvider) *clientMetrics {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(tracerName, metric.WithInstrumentationVersion(Version))
	fallback := noop.NewMeterProvider().Meter(tracerName)

	requests, err := meter.Int64Counter(metricRequests,
		metric.WithDescription("Number of Pay2.House API calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		requests, _ = fallback.Int64Counter(metricRequests)
	}
	duration, err := meter.Float64Histogram(metricDuration,
		metric.WithDescription("Round trip time of Pay2.House API calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		duration, _ = fallback.Float64Histogram(metricDuration)
	}
	return &clientMetrics{requests: requests, duration: duration}
}

// record adds one call. outcome is "success" or the failing ErrorKind.
func (m *clientMetrics) record(ctx context.Context, endpoint, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("pay2house.endpoint", endpoint),
		attribute.String("pay2house.outcome", outcome),
	)
	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}
