package eventbridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"archviz/domain/core/valueobjects"
	"archviz/domain/events"
)

type fakeClient struct {
	calls   []*eventbridge.PutEventsInput
	failAll bool
	err     error
}

func (f *fakeClient) PutEvents(_ context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	out := &eventbridge.PutEventsOutput{}
	for range in.Entries {
		if f.failAll {
			out.FailedEntryCount++
			out.Entries = append(out.Entries, types.PutEventsResultEntry{
				ErrorCode:    aws.String("InternalFailure"),
				ErrorMessage: aws.String("boom"),
			})
		} else {
			out.Entries = append(out.Entries, types.PutEventsResultEntry{EventId: aws.String("id")})
		}
	}
	return out, nil
}

func sampleEvents(n int) []events.DomainEvent {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	out := make([]events.DomainEvent, n)
	for i := range out {
		out[i] = events.NewSystemCreated(valueobjects.MustSystemName("billing"), ts)
	}
	return out
}

func TestPublisher_Publish(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, "archviz-bus", "", zap.NewNop())

	require.NoError(t, p.Publish(context.Background(), sampleEvents(1)[0]))
	require.Len(t, client.calls, 1)

	entry := client.calls[0].Entries[0]
	assert.Equal(t, "archviz-bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, DefaultSource, aws.ToString(entry.Source))
	assert.Equal(t, events.TypeSystemCreated, aws.ToString(entry.DetailType))
	assert.Contains(t, aws.ToString(entry.Detail), `"system_name":"billing"`)
	assert.Equal(t, []string{"archviz:system/billing"}, entry.Resources)
}

func TestPublisher_PublishBatchChunks(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, "bus", "custom", zap.NewNop())

	require.NoError(t, p.PublishBatch(context.Background(), sampleEvents(23)))
	require.Len(t, client.calls, 3)
	assert.Len(t, client.calls[0].Entries, 10)
	assert.Len(t, client.calls[1].Entries, 10)
	assert.Len(t, client.calls[2].Entries, 3)
	assert.Equal(t, "custom", aws.ToString(client.calls[0].Entries[0].Source))
}

func TestPublisher_Empty(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, "bus", "", zap.NewNop())

	require.NoError(t, p.PublishBatch(context.Background(), nil))
	assert.Empty(t, client.calls)
}

func TestPublisher_Failures(t *testing.T) {
	p := NewPublisher(&fakeClient{failAll: true}, "bus", "", zap.NewNop())
	err := p.PublishBatch(context.Background(), sampleEvents(2))
	assert.EqualError(t, err, "2 events failed to publish")

	p = NewPublisher(&fakeClient{err: errors.New("throttled")}, "bus", "", zap.NewNop())
	err = p.Publish(context.Background(), sampleEvents(1)[0])
	assert.ErrorContains(t, err, "throttled")
}
