package rendering

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"archviz/application/ports"
	"archviz/pkg/observability"
)

// InstrumentedRenderer decorates a renderer with spans and metrics
type InstrumentedRenderer struct {
	inner     ports.Renderer
	backend   string
	collector *observability.Collector
	tracer    trace.Tracer
}

// NewInstrumentedRenderer wraps inner. backend labels the metrics.
func NewInstrumentedRenderer(inner ports.Renderer, backend string, collector *observability.Collector, tracer trace.Tracer) *InstrumentedRenderer {
	return &InstrumentedRenderer{inner: inner, backend: backend, collector: collector, tracer: tracer}
}

func (r *InstrumentedRenderer) Render(ctx context.Context, source string) (string, error) {
	ctx, span := r.tracer.Start(ctx, "renderer.Render",
		trace.WithAttributes(
			attribute.String("renderer.backend", r.backend),
			attribute.Int("renderer.source_bytes", len(source)),
		),
	)
	defer span.End()

	start := time.Now()
	markup, err := r.inner.Render(ctx, source)
	outcome := "success"
	if err != nil {
		outcome = string(KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	r.collector.RecordRender(r.backend, outcome, time.Since(start))
	span.SetAttributes(attribute.String("renderer.outcome", outcome))

	return markup, err
}
