package rendering

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"archviz/pkg/observability"
)

type rendererFunc func(ctx context.Context, source string) (string, error)

func (f rendererFunc) Render(ctx context.Context, source string) (string, error) {
	return f(ctx, source)
}

func TestInstrumentedRenderer_RecordsOutcomes(t *testing.T) {
	collector := observability.NewCollector("archviz_test")
	tracer := noop.NewTracerProvider().Tracer("test")

	ok := NewInstrumentedRenderer(rendererFunc(func(context.Context, string) (string, error) {
		return "<svg/>", nil
	}), "process", collector, tracer)
	failing := NewInstrumentedRenderer(rendererFunc(func(context.Context, string) (string, error) {
		return "", renderFailure("bad")
	}), "process", collector, tracer)

	out, err := ok.Render(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", out)

	_, err = failing.Render(context.Background(), "x")
	assert.True(t, IsKind(err, KindRenderFailure))

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Renders.WithLabelValues("process", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Renders.WithLabelValues("process", "render_failure")))
}
