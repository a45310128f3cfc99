package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"

	"admissions-workers/internal/common/logger"
)

// Observability bundles the otel meter and tracer used by workers and the orchestrator.
type Observability struct {
	meterProvider  *metric.MeterProvider
	meter          otelmetric.Meter
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	analysisResult otelmetric.Int64Counter

	tracing *Tracing
}

type Options struct {
	ServiceName    string
	JaegerEndpoint string
}

func New(opts Options, log logger.Logger) *Observability {
	o := &Observability{tracing: NewTracing(opts.ServiceName, opts.JaegerEndpoint, log)}

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("failed to create prometheus exporter", map[string]interface{}{"error": err.Error()})
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(opts.ServiceName)

	jobCounter, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)

	jobDuration, _ := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	analysisResult, _ := meter.Int64Counter(
		"analysis.results",
		otelmetric.WithDescription("Analysis results by producing provider"),
	)

	o.meterProvider = provider
	o.meter = meter
	o.jobCounter = jobCounter
	o.jobDuration = jobDuration
	o.analysisResult = analysisResult
	return o
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordAnalysis(ctx context.Context, provider string, matchScore int) {
	if o.analysisResult != nil {
		o.analysisResult.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("provider", provider),
			attribute.Int("match_score", matchScore),
		))
	}
}

// Tracer returns the tracer for spans; never nil.
func (o *Observability) Tracer() trace.Tracer {
	return o.tracing.Tracer()
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	o.tracing.Shutdown(ctx)
}
