package memory

import (
	"context"
	"fmt"
	"sync"

	"archviz/application/ports"
	"archviz/domain/core/aggregates"
	"archviz/domain/core/entities"
	"archviz/domain/core/valueobjects"
)

// DiagramStore keeps systems in process memory. Each instance is isolated.
type DiagramStore struct {
	mu      sync.RWMutex
	systems map[string]*aggregates.System
}

// NewDiagramStore creates an empty in-memory store
func NewDiagramStore() *DiagramStore {
	return &DiagramStore{systems: make(map[string]*aggregates.System)}
}

// ListSystems returns copies of every stored system
func (s *DiagramStore) ListSystems(ctx context.Context) (aggregates.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(aggregates.Snapshot, len(s.systems))
	for name, sys := range s.systems {
		snap[name] = sys.Clone()
	}
	return snap, nil
}

// CreateSystem stores a fully materialized empty system
func (s *DiagramStore) CreateSystem(ctx context.Context, name valueobjects.SystemName) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.systems[name.String()]; exists {
		return fmt.Errorf("create %q: %w", name, ports.ErrSystemExists)
	}
	s.systems[name.String()] = aggregates.NewSystem(name)
	return nil
}

// GetSlot returns one slot of an existing system
func (s *DiagramStore) GetSlot(ctx context.Context, name valueobjects.SystemName, slotType valueobjects.SlotType) (entities.Slot, error) {
	if !slotType.IsValid() {
		return entities.Slot{}, fmt.Errorf("get %q/%q: %w", name, slotType, ports.ErrInvalidSlotType)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sys, exists := s.systems[name.String()]
	if !exists {
		return entities.Slot{}, fmt.Errorf("get %q: %w", name, ports.ErrSystemNotFound)
	}
	slot, _ := sys.Slot(slotType)
	return slot, nil
}

// UpsertSlot replaces one slot of an existing system
func (s *DiagramStore) UpsertSlot(ctx context.Context, name valueobjects.SystemName, slotType valueobjects.SlotType, content entities.SlotContent) error {
	if !slotType.IsValid() {
		return fmt.Errorf("upsert %q/%q: %w", name, slotType, ports.ErrInvalidSlotType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sys, exists := s.systems[name.String()]
	if !exists {
		return fmt.Errorf("upsert %q: %w", name, ports.ErrSystemNotFound)
	}
	return sys.SetSlot(slotType, content)
}

// DeleteSystem removes a system
func (s *DiagramStore) DeleteSystem(ctx context.Context, name valueobjects.SystemName) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.systems[name.String()]; !exists {
		return fmt.Errorf("delete %q: %w", name, ports.ErrSystemNotFound)
	}
	delete(s.systems, name.String())
	return nil
}
