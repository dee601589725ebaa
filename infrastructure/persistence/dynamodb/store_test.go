package dynamodb

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"archviz/application/ports"
	"archviz/domain/core/entities"
	"archviz/domain/core/valueobjects"
	"archviz/infrastructure/persistence/storetest"
)

// fakeTable is a single-partition-per-PK in-memory table that understands the
// attribute_exists / attribute_not_exists conditions the store issues.
type fakeTable struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue

	scanErr   error
	scanCalls []*dynamodb.ScanInput
	txCalls   int
	lastTx    *dynamodb.TransactWriteItemsInput
	pageSize  int
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: make(map[string]map[string]types.AttributeValue), pageSize: 3}
}

func itemKey(av map[string]types.AttributeValue) string {
	return av["PK"].(*types.AttributeValueMemberS).Value + "|" + av["SK"].(*types.AttributeValueMemberS).Value
}

func conditionHolds(cond *string, exists bool) bool {
	switch {
	case cond == nil:
		return true
	case strings.Contains(*cond, "attribute_not_exists"):
		return !exists
	case strings.Contains(*cond, "attribute_exists"):
		return exists
	}
	return true
}

func (f *fakeTable) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := itemKey(in.Key)
	_, exists := f.items[k]
	if !conditionHolds(in.ConditionExpression, exists) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	delete(f.items, k)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeTable) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var pk string
	for _, v := range in.ExpressionAttributeValues {
		pk = v.(*types.AttributeValueMemberS).Value
	}
	var out []map[string]types.AttributeValue
	for k, av := range f.items {
		if strings.HasPrefix(k, pk+"|") {
			out = append(out, av)
		}
	}
	return &dynamodb.QueryOutput{Items: out}, nil
}

// Scan pages through items to exercise the paginator
func (f *fakeTable) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scanCalls = append(f.scanCalls, in)
	if f.scanErr != nil {
		return nil, f.scanErr
	}

	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	start := 0
	if in.ExclusiveStartKey != nil {
		last := itemKey(in.ExclusiveStartKey)
		for i, k := range keys {
			if k == last {
				start = i + 1
			}
		}
	}
	end := start + f.pageSize
	if end > len(keys) {
		end = len(keys)
	}

	out := &dynamodb.ScanOutput{}
	for _, k := range keys[start:end] {
		out.Items = append(out.Items, f.items[k])
	}
	if end < len(keys) {
		last := f.items[keys[end-1]]
		out.LastEvaluatedKey = map[string]types.AttributeValue{"PK": last["PK"], "SK": last["SK"]}
	}
	return out, nil
}

func (f *fakeTable) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txCalls++
	f.lastTx = in

	reasons := make([]types.CancellationReason, len(in.TransactItems))
	failed := false
	for i, ti := range in.TransactItems {
		reasons[i] = types.CancellationReason{Code: aws.String("None")}
		switch {
		case ti.Put != nil:
			_, exists := f.items[itemKey(ti.Put.Item)]
			if !conditionHolds(ti.Put.ConditionExpression, exists) {
				reasons[i].Code = aws.String("ConditionalCheckFailed")
				failed = true
			}
		case ti.ConditionCheck != nil:
			_, exists := f.items[itemKey(ti.ConditionCheck.Key)]
			if !conditionHolds(ti.ConditionCheck.ConditionExpression, exists) {
				reasons[i].Code = aws.String("ConditionalCheckFailed")
				failed = true
			}
		}
	}
	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}

	for _, ti := range in.TransactItems {
		if ti.Put != nil {
			f.items[itemKey(ti.Put.Item)] = ti.Put.Item
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (f *fakeTable) BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, reqs := range in.RequestItems {
		for _, r := range reqs {
			if r.DeleteRequest != nil {
				delete(f.items, itemKey(r.DeleteRequest.Key))
			}
		}
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func TestDiagramStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.DiagramStore {
		return NewDiagramStore(newFakeTable(), "archviz-test", zap.NewNop())
	})
}

func TestDiagramStore_CreateIsOneTransaction(t *testing.T) {
	table := newFakeTable()
	store := NewDiagramStore(table, "archviz-test", zap.NewNop())

	require.NoError(t, store.CreateSystem(context.Background(), valueobjects.MustSystemName("billing")))

	require.Equal(t, 1, table.txCalls)
	require.Len(t, table.lastTx.TransactItems, 1+len(valueobjects.AllSlotTypes()))
	first := table.lastTx.TransactItems[0].Put
	require.NotNil(t, first)
	assert.Contains(t, aws.ToString(first.ConditionExpression), "attribute_not_exists")
	assert.Len(t, table.items, 8)
	assert.Contains(t, table.items, "SYSTEM#billing|META")
	assert.Contains(t, table.items, "SYSTEM#billing|SLOT#deployment")
}

func TestDiagramStore_UpsertChecksMarker(t *testing.T) {
	table := newFakeTable()
	store := NewDiagramStore(table, "archviz-test", zap.NewNop())
	ctx := context.Background()
	name := valueobjects.MustSystemName("billing")
	require.NoError(t, store.CreateSystem(ctx, name))

	require.NoError(t, store.UpsertSlot(ctx, name, valueobjects.SlotCode, entities.SlotContent{Source: "S", Explanation: "E"}))

	check := table.lastTx.TransactItems[0].ConditionCheck
	require.NotNil(t, check)
	assert.Equal(t, "SYSTEM#billing", check.Key["PK"].(*types.AttributeValueMemberS).Value)
	assert.Equal(t, "META", check.Key["SK"].(*types.AttributeValueMemberS).Value)
}

func TestDiagramStore_ListPropagatesScanErrors(t *testing.T) {
	table := newFakeTable()
	table.scanErr = errors.New("ProvisionedThroughputExceededException")
	store := NewDiagramStore(table, "archviz-test", zap.NewNop())

	_, err := store.ListSystems(context.Background())

	assert.Error(t, err)
}

func TestDiagramStore_ListReadsConsistently(t *testing.T) {
	table := newFakeTable()
	store := NewDiagramStore(table, "archviz-test", zap.NewNop())
	ctx := context.Background()
	require.NoError(t, store.CreateSystem(ctx, valueobjects.MustSystemName("billing")))

	snap, err := store.ListSystems(ctx)
	require.NoError(t, err)
	assert.Contains(t, snap, "billing")

	// a fresh system carries eight items, so the scan spans several pages
	require.Greater(t, len(table.scanCalls), 1)
	for _, in := range table.scanCalls {
		assert.True(t, aws.ToBool(in.ConsistentRead))
	}
}

func TestDiagramStore_IgnoresOrphanSlots(t *testing.T) {
	table := newFakeTable()
	store := NewDiagramStore(table, "archviz-test", zap.NewNop())
	ctx := context.Background()
	name := valueobjects.MustSystemName("billing")
	require.NoError(t, store.CreateSystem(ctx, name))

	delete(table.items, "SYSTEM#billing|META")

	snap, err := store.ListSystems(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap)

	_, err = store.GetSlot(ctx, name, valueobjects.SlotContext)
	assert.ErrorIs(t, err, ports.ErrSystemNotFound)
}

func TestConditionFailedAt(t *testing.T) {
	cancelled := &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("None")},
			{Code: aws.String("ConditionalCheckFailed")},
		},
	}

	assert.False(t, conditionFailedAt(cancelled, 0))
	assert.True(t, conditionFailedAt(cancelled, 1))
	assert.True(t, conditionFailedAt(&types.ConditionalCheckFailedException{}, 0))
	assert.False(t, conditionFailedAt(errors.New("network"), 0))
}
