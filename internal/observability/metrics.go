package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricTrialsTotal    = "minimize.trials.total"
	metricTrialDuration  = "minimize.trial.duration.seconds"
	metricVerifierErrors = "minimize.verifier.errors.total"
	metricBytesReduced   = "minimize.bytes.reduced.total"

	attrPass   = "pass"
	attrResult = "result"
)

var trialDurationBuckets = []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60}

// PassMetrics holds the OTel instruments the driver updates once per
// trial (spec.md §6's Metrics collaborator), adapted from the teacher's
// pkg/observability RED-metrics shape.
type PassMetrics struct {
	trialsTotal    metric.Int64Counter
	trialDuration  metric.Float64Histogram
	verifierErrors metric.Int64Counter
	bytesReduced   metric.Int64Counter
}

// NewPassMetrics creates the reduction-run metric instruments from mt.
func NewPassMetrics(mt metric.Meter) (*PassMetrics, error) {
	trials, err := mt.Int64Counter(metricTrialsTotal,
		metric.WithDescription("Total number of per-file trials attempted"),
		metric.WithUnit("{trial}"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTrialsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricTrialDuration,
		metric.WithDescription("Trial duration including verifier round-trip"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(trialDurationBuckets...))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTrialDuration, err)
	}

	verifierErrors, err := mt.Int64Counter(metricVerifierErrors,
		metric.WithDescription("Total number of verifier invocation failures"),
		metric.WithUnit("{error}"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricVerifierErrors, err)
	}

	bytesReduced, err := mt.Int64Counter(metricBytesReduced,
		metric.WithDescription("Cumulative bytes removed across committed trials"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricBytesReduced, err)
	}

	return &PassMetrics{
		trialsTotal:    trials,
		trialDuration:  duration,
		verifierErrors: verifierErrors,
		bytesReduced:   bytesReduced,
	}, nil
}

// RecordTrial records one completed trial for pass, keyed by its result
// ("reproduces", "does_not_reproduce", "no_change", "file_invalidated").
func (m *PassMetrics) RecordTrial(ctx context.Context, pass, result string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String(attrPass, pass), attribute.String(attrResult, result))
	m.trialsTotal.Add(ctx, 1, attrs)
	m.trialDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordVerifierError records a verifier invocation that failed to run.
func (m *PassMetrics) RecordVerifierError(ctx context.Context, pass string) {
	m.verifierErrors.Add(ctx, 1, metric.WithAttributes(attribute.String(attrPass, pass)))
}

// RecordBytesReduced records bytes removed by a committed trial.
func (m *PassMetrics) RecordBytesReduced(ctx context.Context, pass string, delta int64) {
	if delta <= 0 {
		return
	}

	m.bytesReduced.Add(ctx, delta, metric.WithAttributes(attribute.String(attrPass, pass)))
}
