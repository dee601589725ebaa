package observability

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"
)

// maxDatumsPerPut bounds the metric data sent in one PutMetricData call
const maxDatumsPerPut = 20

// CloudWatchClient is the part of the CloudWatch API the sink uses
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchSink pushes the collector's counters and histograms to
// CloudWatch. Each flush sends what changed since the previous one.
type CloudWatchSink struct {
	client    CloudWatchClient
	namespace string
	gatherer  prometheus.Gatherer
	logger    *zap.Logger
	now       func() time.Time

	mu   sync.Mutex
	last map[string]series

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

type series struct {
	value float64
	count uint64
	sum   float64
}

// NewCloudWatchSink creates a sink reading from gatherer
func NewCloudWatchSink(client CloudWatchClient, namespace string, gatherer prometheus.Gatherer, logger *zap.Logger) *CloudWatchSink {
	return &CloudWatchSink{
		client:    client,
		namespace: namespace,
		gatherer:  gatherer,
		logger:    logger,
		now:       time.Now,
		last:      make(map[string]series),
		stop:      make(chan struct{}),
	}
}

// Flush sends the change in every series since the previous flush. Data of a
// failed put is not retried.
func (s *CloudWatchSink) Flush(ctx context.Context) error {
	families, err := s.gatherer.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	s.mu.Lock()
	data := s.deltas(families)
	s.mu.Unlock()

	for start := 0; start < len(data); start += maxDatumsPerPut {
		end := min(start+maxDatumsPerPut, len(data))
		_, err := s.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(s.namespace),
			MetricData: data[start:end],
		})
		if err != nil {
			return fmt.Errorf("failed to put metric data: %w", err)
		}
	}
	return nil
}

// deltas must be called with s.mu held
func (s *CloudWatchSink) deltas(families []*dto.MetricFamily) []types.MetricDatum {
	timestamp := aws.Time(s.now())
	var data []types.MetricDatum

	for _, family := range families {
		name := family.GetName()
		for _, m := range family.GetMetric() {
			key := seriesKey(name, m.GetLabel())
			prev := s.last[key]

			switch family.GetType() {
			case dto.MetricType_COUNTER:
				value := m.GetCounter().GetValue()
				s.last[key] = series{value: value}
				if delta := value - prev.value; delta > 0 {
					data = append(data, types.MetricDatum{
						MetricName: aws.String(name),
						Dimensions: dimensions(m.GetLabel()),
						Value:      aws.Float64(delta),
						Unit:       types.StandardUnitCount,
						Timestamp:  timestamp,
					})
				}

			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				s.last[key] = series{count: h.GetSampleCount(), sum: h.GetSampleSum()}
				count := h.GetSampleCount() - prev.count
				if count == 0 {
					continue
				}
				// one value weighted by the sample count keeps CloudWatch's sum and count exact
				avg := (h.GetSampleSum() - prev.sum) / float64(count)
				data = append(data, types.MetricDatum{
					MetricName: aws.String(name),
					Dimensions: dimensions(m.GetLabel()),
					Values:     []float64{avg},
					Counts:     []float64{float64(count)},
					Unit:       histogramUnit(name),
					Timestamp:  timestamp,
				})
			}
		}
	}
	return data
}

// Start flushes every interval until Stop
func (s *CloudWatchSink) Start(interval time.Duration) {
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), interval)
				if err := s.Flush(ctx); err != nil {
					s.logger.Warn("Failed to publish metrics", zap.Error(err))
				}
				cancel()
			}
		}
	}()
}

// Stop ends periodic flushing and sends what is left
func (s *CloudWatchSink) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })
	if s.done != nil {
		select {
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.Flush(ctx)
}

func seriesKey(name string, labels []*dto.LabelPair) string {
	var b strings.Builder
	b.WriteString(name)
	for _, l := range sortedLabels(labels) {
		b.WriteString("|")
		b.WriteString(l.GetName())
		b.WriteString("=")
		b.WriteString(l.GetValue())
	}
	return b.String()
}

func dimensions(labels []*dto.LabelPair) []types.Dimension {
	var out []types.Dimension
	for _, l := range sortedLabels(labels) {
		// CloudWatch rejects empty dimension values
		if l.GetValue() == "" {
			continue
		}
		out = append(out, types.Dimension{
			Name:  aws.String(l.GetName()),
			Value: aws.String(l.GetValue()),
		})
	}
	return out
}

func sortedLabels(labels []*dto.LabelPair) []*dto.LabelPair {
	out := make([]*dto.LabelPair, len(labels))
	copy(out, labels)
	sort.Slice(out, func(i, j int) bool { return out[i].GetName() < out[j].GetName() })
	return out
}

func histogramUnit(name string) types.StandardUnit {
	if strings.HasSuffix(name, "_seconds") {
		return types.StandardUnitSeconds
	}
	return types.StandardUnitNone
}
