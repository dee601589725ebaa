package events

import (
	"time"

	"archviz/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

const (
	TypeSystemCreated = "system.created"
	TypeSystemDeleted = "system.deleted"
	TypeSlotSaved     = "slot.saved"
)

// SystemCreated is raised when a system and its empty slots are created
type SystemCreated struct {
	BaseEvent
	SystemName string `json:"system_name"`
}

// NewSystemCreated creates a SystemCreated event
func NewSystemCreated(name valueobjects.SystemName, timestamp time.Time) SystemCreated {
	return SystemCreated{
		BaseEvent: BaseEvent{
			AggregateID: name.String(),
			EventType:   TypeSystemCreated,
			Timestamp:   timestamp,
			Version:     1,
		},
		SystemName: name.String(),
	}
}

// SystemDeleted is raised when a system is removed
type SystemDeleted struct {
	BaseEvent
	SystemName string `json:"system_name"`
}

// NewSystemDeleted creates a SystemDeleted event
func NewSystemDeleted(name valueobjects.SystemName, timestamp time.Time) SystemDeleted {
	return SystemDeleted{
		BaseEvent: BaseEvent{
			AggregateID: name.String(),
			EventType:   TypeSystemDeleted,
			Timestamp:   timestamp,
			Version:     1,
		},
		SystemName: name.String(),
	}
}

// SlotSaved is raised when a slot's content is replaced
type SlotSaved struct {
	BaseEvent
	SystemName       string `json:"system_name"`
	SlotType         string `json:"slot_type"`
	SourceBytes      int    `json:"source_bytes"`
	ExplanationBytes int    `json:"explanation_bytes"`
}

// NewSlotSaved creates a SlotSaved event
func NewSlotSaved(name valueobjects.SystemName, slotType valueobjects.SlotType, sourceBytes, explanationBytes int, timestamp time.Time) SlotSaved {
	return SlotSaved{
		BaseEvent: BaseEvent{
			AggregateID: name.String(),
			EventType:   TypeSlotSaved,
			Timestamp:   timestamp,
			Version:     1,
		},
		SystemName:       name.String(),
		SlotType:         slotType.String(),
		SourceBytes:      sourceBytes,
		ExplanationBytes: explanationBytes,
	}
}
