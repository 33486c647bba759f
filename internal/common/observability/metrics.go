package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Observability bundles the otel meter and tracer used by the chat pipeline.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	chatCounter    otelmetric.Int64Counter
	chatDuration   otelmetric.Float64Histogram
}

// New wires the Prometheus metric exporter and, when jaegerEndpoint is set,
// a Jaeger span exporter. Failures degrade to no-op instruments.
func New(serviceName, jaegerEndpoint string) *Observability {
	o := &Observability{tracer: otel.Tracer(serviceName)}

	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	o.meterProvider = provider
	o.meter = provider.Meter(serviceName)

	o.chatCounter, _ = o.meter.Int64Counter(
		"chat.requests.processed",
		otelmetric.WithDescription("Number of chat requests processed"),
	)

	o.chatDuration, _ = o.meter.Float64Histogram(
		"chat.requests.duration",
		otelmetric.WithDescription("Chat request processing duration"),
		otelmetric.WithUnit("ms"),
	)

	if jaegerEndpoint != "" {
		tp, err := newTracerProvider(jaegerEndpoint)
		if err != nil {
			log.Printf("Failed to create Jaeger exporter: %v", err)
		} else {
			otel.SetTracerProvider(tp)
			o.tracerProvider = tp
			o.tracer = tp.Tracer(serviceName)
		}
	}

	return o
}

// NewNoop returns an Observability whose instruments record nothing.
func NewNoop() *Observability {
	return &Observability{tracer: otel.Tracer("noop")}
}

func (o *Observability) RecordChatProcessed(ctx context.Context, processedBy, status string) {
	if o.chatCounter != nil {
		o.chatCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("processed_by", processedBy),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordChatDuration(ctx context.Context, duration time.Duration, processedBy string) {
	if o.chatDuration != nil {
		o.chatDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("processed_by", processedBy),
		))
	}
}

// StartSpan starts a child span of whatever span ctx carries.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
