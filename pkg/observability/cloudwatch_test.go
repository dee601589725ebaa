package observability

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type fakeCloudWatch struct {
	mu    sync.Mutex
	calls []*cloudwatch.PutMetricDataInput
	err   error
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func (f *fakeCloudWatch) data() []types.MetricDatum {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.MetricDatum
	for _, c := range f.calls {
		out = append(out, c.MetricData...)
	}
	return out
}

func findDatum(t *testing.T, data []types.MetricDatum, name string, dims map[string]string) types.MetricDatum {
	t.Helper()
	for _, d := range data {
		if aws.ToString(d.MetricName) != name || len(d.Dimensions) != len(dims) {
			continue
		}
		match := true
		for _, dim := range d.Dimensions {
			if dims[aws.ToString(dim.Name)] != aws.ToString(dim.Value) {
				match = false
			}
		}
		if match {
			return d
		}
	}
	require.Failf(t, "datum not found", "%s %v", name, dims)
	return types.MetricDatum{}
}

func TestCloudWatchSink_FlushSendsDeltas(t *testing.T) {
	c := NewCollector("archviz_test")
	client := &fakeCloudWatch{}
	sink := NewCloudWatchSink(client, "ArchViz/test", c.Registry(), zap.NewNop())
	ctx := context.Background()

	c.RecordRender("process", "success", 2*time.Second)
	c.RecordRender("process", "success", 2*time.Second)
	c.RecordRender("process", "timeout", 10*time.Second)

	require.NoError(t, sink.Flush(ctx))
	require.Len(t, client.calls, 1)
	assert.Equal(t, "ArchViz/test", aws.ToString(client.calls[0].Namespace))

	data := client.data()
	success := findDatum(t, data, "archviz_test_renders_total", map[string]string{"backend": "process", "outcome": "success"})
	assert.Equal(t, 2.0, aws.ToFloat64(success.Value))
	assert.Equal(t, types.StandardUnitCount, success.Unit)

	duration := findDatum(t, data, "archviz_test_render_duration_seconds", map[string]string{"backend": "process"})
	assert.Equal(t, []float64{3}, duration.Counts)
	require.Len(t, duration.Values, 1)
	assert.InDelta(t, 14.0/3, duration.Values[0], 1e-9)
	assert.Equal(t, types.StandardUnitSeconds, duration.Unit)

	// nothing changed, nothing sent
	require.NoError(t, sink.Flush(ctx))
	assert.Len(t, client.calls, 1)

	c.RecordRender("process", "success", time.Second)
	require.NoError(t, sink.Flush(ctx))
	require.Len(t, client.calls, 2)
	success = findDatum(t, client.calls[1].MetricData, "archviz_test_renders_total", map[string]string{"backend": "process", "outcome": "success"})
	assert.Equal(t, 1.0, aws.ToFloat64(success.Value))
}

func TestCloudWatchSink_Batches(t *testing.T) {
	c := NewCollector("archviz_test")
	client := &fakeCloudWatch{}
	sink := NewCloudWatchSink(client, "ArchViz/test", c.Registry(), zap.NewNop())

	for i := 0; i < 25; i++ {
		c.SlotsSaved.WithLabelValues("type" + strconv.Itoa(i)).Inc()
	}

	require.NoError(t, sink.Flush(context.Background()))
	require.Len(t, client.calls, 2)
	assert.Len(t, client.calls[0].MetricData, maxDatumsPerPut)
	assert.Len(t, client.calls[1].MetricData, 5)
}

func TestCloudWatchSink_PropagatesPutErrors(t *testing.T) {
	c := NewCollector("archviz_test")
	client := &fakeCloudWatch{err: errors.New("AccessDenied")}
	sink := NewCloudWatchSink(client, "ArchViz/test", c.Registry(), zap.NewNop())
	c.SystemsCreated.Inc()

	err := sink.Flush(context.Background())

	assert.ErrorContains(t, err, "AccessDenied")
}

func TestCloudWatchSink_StopFlushesRemainder(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	c := NewCollector("archviz_test")
	client := &fakeCloudWatch{}
	sink := NewCloudWatchSink(client, "ArchViz/test", c.Registry(), zap.NewNop())
	sink.Start(time.Hour)

	c.SystemsCreated.Inc()
	require.NoError(t, sink.Stop(context.Background()))

	created := findDatum(t, client.data(), "archviz_test_systems_created_total", map[string]string{})
	assert.Equal(t, 1.0, aws.ToFloat64(created.Value))
	assert.NoError(t, sink.Stop(context.Background()))
}
