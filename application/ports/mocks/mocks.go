// Package mocks provides testify mocks of the application ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"archviz/domain/core/aggregates"
	"archviz/domain/core/entities"
	"archviz/domain/core/valueobjects"
	"archviz/domain/events"
)

// MockDiagramStore mocks ports.DiagramStore
type MockDiagramStore struct {
	mock.Mock
}

func (m *MockDiagramStore) ListSystems(ctx context.Context) (aggregates.Snapshot, error) {
	args := m.Called(ctx)
	if snap, ok := args.Get(0).(aggregates.Snapshot); ok {
		return snap, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDiagramStore) CreateSystem(ctx context.Context, name valueobjects.SystemName) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockDiagramStore) GetSlot(ctx context.Context, name valueobjects.SystemName, slotType valueobjects.SlotType) (entities.Slot, error) {
	args := m.Called(ctx, name, slotType)
	return args.Get(0).(entities.Slot), args.Error(1)
}

func (m *MockDiagramStore) UpsertSlot(ctx context.Context, name valueobjects.SystemName, slotType valueobjects.SlotType, content entities.SlotContent) error {
	args := m.Called(ctx, name, slotType, content)
	return args.Error(0)
}

func (m *MockDiagramStore) DeleteSystem(ctx context.Context, name valueobjects.SystemName) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// MockRenderer mocks ports.Renderer
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(ctx context.Context, source string) (string, error) {
	args := m.Called(ctx, source)
	return args.String(0), args.Error(1)
}

// MockEventPublisher mocks ports.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}
