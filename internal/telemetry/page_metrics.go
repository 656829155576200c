package internaltelemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PageMetrics holds the metric instruments for page I/O. A nil *PageMetrics
// records nothing, so callers never need to check.
type PageMetrics struct {
	AppendsCounter          metric.Int64Counter
	AppendedBytesCounter    metric.Int64Counter
	OutOfSpaceCounter       metric.Int64Counter
	IoErrorsCounter         metric.Int64Counter
	LoadLatencyHistogram    metric.Float64Histogram
	PersistLatencyHistogram metric.Float64Histogram
}

// NewPageMetrics creates and registers the page metrics on meter.
func NewPageMetrics(meter metric.Meter) (*PageMetrics, error) {
	appendsCounter, err := meter.Int64Counter(
		"slabdb.page.appends_total",
		metric.WithDescription("Total number of successful page appends."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	appendedBytesCounter, err := meter.Int64Counter(
		"slabdb.page.appended_bytes_total",
		metric.WithDescription("Total number of bytes appended to pages."),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	outOfSpaceCounter, err := meter.Int64Counter(
		"slabdb.page.out_of_space_total",
		metric.WithDescription("Appends rejected because the page was full."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	ioErrorsCounter, err := meter.Int64Counter(
		"slabdb.page.io_errors_total",
		metric.WithDescription("Backing store failures, by operation."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	loadLatencyHistogram, err := meter.Float64Histogram(
		"slabdb.page.load.duration",
		metric.WithDescription("Latency of loading a page from its backing store."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	persistLatencyHistogram, err := meter.Float64Histogram(
		"slabdb.page.persist.duration",
		metric.WithDescription("Latency of persisting a page to its backing store."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &PageMetrics{
		AppendsCounter:          appendsCounter,
		AppendedBytesCounter:    appendedBytesCounter,
		OutOfSpaceCounter:       outOfSpaceCounter,
		IoErrorsCounter:         ioErrorsCounter,
		LoadLatencyHistogram:    loadLatencyHistogram,
		PersistLatencyHistogram: persistLatencyHistogram,
	}, nil
}

func (m *PageMetrics) RecordAppend(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.AppendsCounter.Add(ctx, 1)
	m.AppendedBytesCounter.Add(ctx, int64(n))
}

func (m *PageMetrics) RecordOutOfSpace(ctx context.Context) {
	if m == nil {
		return
	}
	m.OutOfSpaceCounter.Add(ctx, 1)
}

func (m *PageMetrics) RecordLoad(ctx context.Context, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.LoadLatencyHistogram.Record(ctx, millis(elapsed))
	if err != nil {
		m.IoErrorsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "load")))
	}
}

func (m *PageMetrics) RecordPersist(ctx context.Context, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.PersistLatencyHistogram.Record(ctx, millis(elapsed))
	if err != nil {
		m.IoErrorsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "persist")))
	}
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
