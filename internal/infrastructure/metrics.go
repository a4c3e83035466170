package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RunMetrics are the counters of one recalibration run. It satisfies the
// correction package's Observer and LoadObserver.
type RunMetrics struct {
	ctx context.Context

	eventsProcessed metric.Int64Counter
	jetsCorrected   metric.Int64Counter
	calibrationLoad metric.Float64Histogram
	runDuration     metric.Float64Histogram
}

// NewRunMetrics creates the run instruments on meter
func NewRunMetrics(ctx context.Context, meter metric.Meter) (*RunMetrics, error) {
	eventsProcessed, err := meter.Int64Counter(
		"bpk_events_processed_total",
		metric.WithDescription("Events read and forwarded to the output"),
	)
	if err != nil {
		return nil, err
	}

	jetsCorrected, err := meter.Int64Counter(
		"bpk_jets_corrected_total",
		metric.WithDescription("Jets passed through the correction engine"),
	)
	if err != nil {
		return nil, err
	}

	calibrationLoad, err := meter.Float64Histogram(
		"bpk_calibration_load_duration_seconds",
		metric.WithDescription("Time to read and compile the calibration files of one label"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"bpk_run_duration_seconds",
		metric.WithDescription("Wall time of the event loop"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		ctx:             ctx,
		eventsProcessed: eventsProcessed,
		jetsCorrected:   jetsCorrected,
		calibrationLoad: calibrationLoad,
		runDuration:     runDuration,
	}, nil
}

// EventProcessed counts one forwarded event
func (m *RunMetrics) EventProcessed() {
	m.eventsProcessed.Add(m.ctx, 1)
}

// JetsCorrected counts the corrected jets of one collection
func (m *RunMetrics) JetsCorrected(collection string, n int) {
	m.jetsCorrected.Add(m.ctx, int64(n), metric.WithAttributes(attribute.String("collection", collection)))
}

// ObserveLoad records the load time of one calibration label
func (m *RunMetrics) ObserveLoad(label string, d time.Duration) {
	m.calibrationLoad.Record(m.ctx, d.Seconds(), metric.WithAttributes(attribute.String("label", label)))
}

// ObserveRun records the event loop duration
func (m *RunMetrics) ObserveRun(d time.Duration, copyOnly bool) {
	m.runDuration.Record(m.ctx, d.Seconds(), metric.WithAttributes(attribute.Bool("copy_only", copyOnly)))
}
