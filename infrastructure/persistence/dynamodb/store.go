package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"archviz/application/ports"
	"archviz/domain/core/aggregates"
	"archviz/domain/core/entities"
	"archviz/domain/core/valueobjects"
)

const (
	systemPrefix = "SYSTEM#"
	slotPrefix   = "SLOT#"
	metaSK       = "META"

	entitySystem = "System"
	entitySlot   = "Slot"

	batchWriteLimit   = 25
	batchWriteRetries = 5
)

// Client is the subset of the DynamoDB API used by the store
type Client interface {
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// item is the single-table record for both system markers and slots.
// PK = SYSTEM#<name>; SK = META for the marker, SLOT#<type> for slots.
type item struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"`
	SystemName  string `dynamodbav:"SystemName"`
	SlotType    string `dynamodbav:"SlotType,omitempty"`
	Source      string `dynamodbav:"Source"`
	Explanation string `dynamodbav:"Explanation"`
	UpdatedAt   string `dynamodbav:"UpdatedAt"`
}

// DiagramStore persists systems in a single DynamoDB table
type DiagramStore struct {
	client    Client
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

// NewDiagramStore creates a DynamoDB-backed store
func NewDiagramStore(client Client, tableName string, logger *zap.Logger) *DiagramStore {
	return &DiagramStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
		now:       time.Now,
	}
}

// ListSystems scans the table and assembles every system with a marker item.
// Slot items that fail to decode read as empty.
func (s *DiagramStore) ListSystems(ctx context.Context) (aggregates.Snapshot, error) {
	filter := expression.Name("PK").BeginsWith(systemPrefix)
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build scan expression: %w", err)
	}

	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                 aws.String(s.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(true),
	})

	var items []item
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan systems: %w", err)
		}
		items = append(items, s.decodeItems(page.Items)...)
	}

	return s.assemble(items), nil
}

// CreateSystem writes the marker and every empty slot in one transaction
func (s *DiagramStore) CreateSystem(ctx context.Context, name valueobjects.SystemName) error {
	cond, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	updatedAt := s.now().UTC().Format(time.RFC3339)
	meta, err := attributevalue.MarshalMap(item{
		PK:         systemPK(name),
		SK:         metaSK,
		EntityType: entitySystem,
		SystemName: name.String(),
		UpdatedAt:  updatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal system marker: %w", err)
	}

	transactItems := []types.TransactWriteItem{{
		Put: &types.Put{
			TableName:                aws.String(s.tableName),
			Item:                     meta,
			ConditionExpression:      cond.Condition(),
			ExpressionAttributeNames: cond.Names(),
		},
	}}

	for _, slot := range aggregates.NewSystem(name).Slots() {
		av, err := attributevalue.MarshalMap(s.slotItem(name, slot, updatedAt))
		if err != nil {
			return fmt.Errorf("failed to marshal slot item: %w", err)
		}
		transactItems = append(transactItems, types.TransactWriteItem{
			Put: &types.Put{TableName: aws.String(s.tableName), Item: av},
		})
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: transactItems})
	if err != nil {
		if conditionFailedAt(err, 0) {
			return fmt.Errorf("create %q: %w", name, ports.ErrSystemExists)
		}
		s.logger.Error("Failed to create system", zap.String("system", name.String()), zap.Error(err))
		return fmt.Errorf("create %q: %w", name, err)
	}
	return nil
}

// GetSlot queries the system partition and returns one slot
func (s *DiagramStore) GetSlot(ctx context.Context, name valueobjects.SystemName, slotType valueobjects.SlotType) (entities.Slot, error) {
	if !slotType.IsValid() {
		return entities.Slot{}, fmt.Errorf("get %q/%q: %w", name, slotType, ports.ErrInvalidSlotType)
	}

	items, err := s.queryPartition(ctx, name, false)
	if err != nil {
		return entities.Slot{}, fmt.Errorf("get %q: %w", name, err)
	}

	snap := s.assemble(items)
	sys, ok := snap[name.String()]
	if !ok {
		return entities.Slot{}, fmt.Errorf("get %q: %w", name, ports.ErrSystemNotFound)
	}
	slot, _ := sys.Slot(slotType)
	return slot, nil
}

// UpsertSlot replaces a slot's item, conditioned on the system marker existing.
// Both fields travel in one item, so the write is atomic.
func (s *DiagramStore) UpsertSlot(ctx context.Context, name valueobjects.SystemName, slotType valueobjects.SlotType, content entities.SlotContent) error {
	if !slotType.IsValid() {
		return fmt.Errorf("upsert %q/%q: %w", name, slotType, ports.ErrInvalidSlotType)
	}

	cond, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	av, err := attributevalue.MarshalMap(s.slotItem(name, entities.NewSlot(slotType, content), s.now().UTC().Format(time.RFC3339)))
	if err != nil {
		return fmt.Errorf("failed to marshal slot item: %w", err)
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				ConditionCheck: &types.ConditionCheck{
					TableName:                aws.String(s.tableName),
					Key:                      key(systemPK(name), metaSK),
					ConditionExpression:      cond.Condition(),
					ExpressionAttributeNames: cond.Names(),
				},
			},
			{
				Put: &types.Put{TableName: aws.String(s.tableName), Item: av},
			},
		},
	})
	if err != nil {
		if conditionFailedAt(err, 0) {
			return fmt.Errorf("upsert %q: %w", name, ports.ErrSystemNotFound)
		}
		s.logger.Error("Failed to upsert slot",
			zap.String("system", name.String()),
			zap.String("type", slotType.String()),
			zap.Error(err),
		)
		return fmt.Errorf("upsert %q/%q: %w", name, slotType, err)
	}
	return nil
}

// DeleteSystem removes the marker first so the system leaves listings
// immediately, then deletes its slot items in batches.
func (s *DiagramStore) DeleteSystem(ctx context.Context, name valueobjects.SystemName) error {
	cond, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.tableName),
		Key:                      key(systemPK(name), metaSK),
		ConditionExpression:      cond.Condition(),
		ExpressionAttributeNames: cond.Names(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("delete %q: %w", name, ports.ErrSystemNotFound)
		}
		return fmt.Errorf("delete %q: %w", name, err)
	}

	items, err := s.queryPartition(ctx, name, true)
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}

	requests := make([]types.WriteRequest, 0, len(items))
	for _, it := range items {
		requests = append(requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{Key: key(it.PK, it.SK)},
		})
	}
	for start := 0; start < len(requests); start += batchWriteLimit {
		end := start + batchWriteLimit
		if end > len(requests) {
			end = len(requests)
		}
		if err := s.batchWrite(ctx, requests[start:end]); err != nil {
			return fmt.Errorf("delete %q: %w", name, err)
		}
	}
	return nil
}

func (s *DiagramStore) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{s.tableName: requests}
	for attempt := 0; attempt < batchWriteRetries && len(pending[s.tableName]) > 0; attempt++ {
		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return err
		}
		pending = out.UnprocessedItems
	}
	if n := len(pending[s.tableName]); n > 0 {
		return fmt.Errorf("%d items left unprocessed", n)
	}
	return nil
}

func (s *DiagramStore) queryPartition(ctx context.Context, name valueobjects.SystemName, keysOnly bool) ([]item, error) {
	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key("PK").Equal(expression.Value(systemPK(name))))
	if keysOnly {
		builder = builder.WithProjection(expression.NamesList(expression.Name("PK"), expression.Name("SK")))
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(true),
	})

	var items []item
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query system: %w", err)
		}
		items = append(items, s.decodeItems(page.Items)...)
	}
	return items, nil
}

func (s *DiagramStore) decodeItems(raw []map[string]types.AttributeValue) []item {
	items := make([]item, 0, len(raw))
	for _, av := range raw {
		var it item
		if err := attributevalue.UnmarshalMap(av, &it); err != nil {
			s.logger.Warn("Failed to decode item, treating fields as empty", zap.Error(err))
			if pk, ok := av["PK"].(*types.AttributeValueMemberS); ok {
				it.PK = pk.Value
			}
			if sk, ok := av["SK"].(*types.AttributeValueMemberS); ok {
				it.SK = sk.Value
			}
			it.Source, it.Explanation = "", ""
		}
		items = append(items, it)
	}
	return items
}

// assemble groups items into systems; partitions without a marker are ignored
func (s *DiagramStore) assemble(items []item) aggregates.Snapshot {
	systems := make(map[string]*aggregates.System)
	var slots []item

	for _, it := range items {
		if !strings.HasPrefix(it.PK, systemPrefix) {
			continue
		}
		if it.SK == metaSK {
			name, err := valueobjects.NewSystemName(strings.TrimPrefix(it.PK, systemPrefix))
			if err != nil {
				s.logger.Warn("Skipping system with invalid name", zap.String("pk", it.PK))
				continue
			}
			systems[it.PK] = aggregates.NewSystem(name)
			continue
		}
		slots = append(slots, it)
	}

	for _, it := range slots {
		sys, ok := systems[it.PK]
		if !ok {
			continue
		}
		slotType, err := valueobjects.ParseSlotType(strings.TrimPrefix(it.SK, slotPrefix))
		if err != nil {
			continue
		}
		_ = sys.SetSlot(slotType, entities.SlotContent{Source: it.Source, Explanation: it.Explanation})
	}

	snap := make(aggregates.Snapshot, len(systems))
	for _, sys := range systems {
		snap.Add(sys)
	}
	return snap
}

func (s *DiagramStore) slotItem(name valueobjects.SystemName, slot entities.Slot, updatedAt string) item {
	return item{
		PK:          systemPK(name),
		SK:          slotPrefix + slot.Type.String(),
		EntityType:  entitySlot,
		SystemName:  name.String(),
		SlotType:    slot.Type.String(),
		Source:      slot.Source,
		Explanation: slot.Explanation,
		UpdatedAt:   updatedAt,
	}
}

func systemPK(name valueobjects.SystemName) string {
	return systemPrefix + name.String()
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// conditionFailedAt reports whether a transaction was cancelled because the
// condition of the item at index failed
func conditionFailedAt(err error, index int) bool {
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		if index < len(tce.CancellationReasons) {
			return aws.ToString(tce.CancellationReasons[index].Code) == "ConditionalCheckFailed"
		}
		return false
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		return ae.ErrorCode() == "ConditionalCheckFailedException"
	}
	return false
}
