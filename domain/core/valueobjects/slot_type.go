package valueobjects

import (
	"errors"
	"fmt"
)

// SlotType identifies one of the fixed diagram slots every system carries.
type SlotType string

const (
	SlotInfo          SlotType = "info"
	SlotContext       SlotType = "context"
	SlotContainers    SlotType = "containers"
	SlotComponents    SlotType = "components"
	SlotCode          SlotType = "code"
	SlotDeployment    SlotType = "deployment"
	SlotDocumentation SlotType = "documentation"
)

var ErrInvalidSlotType = errors.New("invalid slot type")

// SlotSchema describes the field shape of a slot type.
type SlotSchema struct {
	Type           SlotType
	Title          string
	DiagramBearing bool
}

// schema is the single source of truth for the closed slot set, in display order.
var schema = []SlotSchema{
	{Type: SlotInfo, Title: "Info", DiagramBearing: false},
	{Type: SlotContext, Title: "Context", DiagramBearing: true},
	{Type: SlotContainers, Title: "Containers", DiagramBearing: true},
	{Type: SlotComponents, Title: "Components", DiagramBearing: true},
	{Type: SlotCode, Title: "Code", DiagramBearing: true},
	{Type: SlotDeployment, Title: "Deployment", DiagramBearing: true},
	{Type: SlotDocumentation, Title: "Documentation", DiagramBearing: false},
}

var schemaByType = func() map[SlotType]SlotSchema {
	m := make(map[SlotType]SlotSchema, len(schema))
	for _, s := range schema {
		m[s.Type] = s
	}
	return m
}()

// ParseSlotType validates raw against the closed slot set
func ParseSlotType(raw string) (SlotType, error) {
	t := SlotType(raw)
	if _, ok := schemaByType[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlotType, raw)
	}
	return t, nil
}

// AllSlotTypes returns every slot type in display order
func AllSlotTypes() []SlotType {
	types := make([]SlotType, len(schema))
	for i, s := range schema {
		types[i] = s.Type
	}
	return types
}

// Schemas returns the descriptor of every slot type in display order
func Schemas() []SlotSchema {
	out := make([]SlotSchema, len(schema))
	copy(out, schema)
	return out
}

// IsValid reports whether t belongs to the slot set
func (t SlotType) IsValid() bool {
	_, ok := schemaByType[t]
	return ok
}

// Schema returns the descriptor for t. The zero SlotSchema is returned for unknown types.
func (t SlotType) Schema() SlotSchema {
	return schemaByType[t]
}

// DiagramBearing reports whether the slot carries diagram source
func (t SlotType) DiagramBearing() bool {
	return schemaByType[t].DiagramBearing
}

// Title is the human-readable label of the slot
func (t SlotType) Title() string {
	return schemaByType[t].Title
}

func (t SlotType) String() string {
	return string(t)
}
