package aggregates

import (
	"encoding/json"
	"sort"

	"archviz/domain/core/entities"
	"archviz/domain/core/valueobjects"
)

// System is a named collection of slots, one per slot type.
type System struct {
	name  valueobjects.SystemName
	slots map[valueobjects.SlotType]entities.Slot
}

// NewSystem materializes a complete system with every slot empty
func NewSystem(name valueobjects.SystemName) *System {
	slots := make(map[valueobjects.SlotType]entities.Slot, len(valueobjects.AllSlotTypes()))
	for _, t := range valueobjects.AllSlotTypes() {
		slots[t] = entities.EmptySlot(t)
	}
	return &System{name: name, slots: slots}
}

// Name returns the system name
func (s *System) Name() valueobjects.SystemName {
	return s.name
}

// Slot returns the slot of type t. Valid types always yield a slot.
func (s *System) Slot(t valueobjects.SlotType) (entities.Slot, bool) {
	slot, ok := s.slots[t]
	return slot, ok
}

// SetSlot replaces every field of the slot of type t
func (s *System) SetSlot(t valueobjects.SlotType, content entities.SlotContent) error {
	if !t.IsValid() {
		return valueobjects.ErrInvalidSlotType
	}
	s.slots[t] = entities.NewSlot(t, content)
	return nil
}

// Slots returns the slots in display order
func (s *System) Slots() []entities.Slot {
	out := make([]entities.Slot, 0, len(s.slots))
	for _, t := range valueobjects.AllSlotTypes() {
		out = append(out, s.slots[t])
	}
	return out
}

// Clone returns a deep copy
func (s *System) Clone() *System {
	slots := make(map[valueobjects.SlotType]entities.Slot, len(s.slots))
	for t, slot := range s.slots {
		slots[t] = slot
	}
	return &System{name: s.name, slots: slots}
}

// MarshalJSON encodes the system as a map keyed by slot type
func (s *System) MarshalJSON() ([]byte, error) {
	out := make(map[string]entities.Slot, len(s.slots))
	for t, slot := range s.slots {
		out[string(t)] = slot
	}
	return json.Marshal(out)
}

// Snapshot maps system names to complete systems.
type Snapshot map[string]*System

// Add inserts sys, keyed by its name
func (s Snapshot) Add(sys *System) {
	s[sys.Name().String()] = sys
}

// Names returns the system names sorted
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
