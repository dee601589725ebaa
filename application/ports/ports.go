package ports

import (
	"context"
	"errors"

	"archviz/domain/core/aggregates"
	"archviz/domain/core/entities"
	"archviz/domain/core/valueobjects"
	"archviz/domain/events"
)

var (
	// ErrSystemExists is returned when creating a system whose name is taken
	ErrSystemExists = errors.New("system already exists")
	// ErrSystemNotFound is returned when addressing a system that does not exist
	ErrSystemNotFound = errors.New("system not found")
	// ErrInvalidSlotType is returned for slot types outside the closed set
	ErrInvalidSlotType = valueobjects.ErrInvalidSlotType
)

// DiagramStore defines the interface for system and slot persistence
type DiagramStore interface {
	// ListSystems reads every system with its full slot set. Unreadable
	// fields resolve to empty strings.
	ListSystems(ctx context.Context) (aggregates.Snapshot, error)

	// CreateSystem materializes a system with every slot empty
	CreateSystem(ctx context.Context, name valueobjects.SystemName) error

	// GetSlot reads a single slot of an existing system
	GetSlot(ctx context.Context, name valueobjects.SystemName, slotType valueobjects.SlotType) (entities.Slot, error)

	// UpsertSlot replaces the fields of one slot of an existing system
	UpsertSlot(ctx context.Context, name valueobjects.SystemName, slotType valueobjects.SlotType, content entities.SlotContent) error

	// DeleteSystem removes a system and all of its slots
	DeleteSystem(ctx context.Context, name valueobjects.SystemName) error
}

// Renderer converts diagram source into SVG markup
type Renderer interface {
	// Render returns SVG markup or a render error. Implementations must be
	// safe for concurrent use.
	Render(ctx context.Context, source string) (string, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}
