package entities

import (
	"encoding/json"
	"strings"

	"archviz/domain/core/valueobjects"
)

// SlotContent is the write payload of a slot. Both fields replace the stored
// content; absent input is represented by the empty string.
type SlotContent struct {
	Source      string `json:"source"`
	Explanation string `json:"explanation"`
}

// Normalize drops the source of text-only slot types
func (c SlotContent) Normalize(t valueobjects.SlotType) SlotContent {
	if !t.DiagramBearing() {
		c.Source = ""
	}
	return c
}

// Slot is the content stored for one (system, slot type) pair.
type Slot struct {
	Type        valueobjects.SlotType
	Source      string
	Explanation string
}

// NewSlot builds a slot from content, normalized for its type
func NewSlot(t valueobjects.SlotType, content SlotContent) Slot {
	content = content.Normalize(t)
	return Slot{Type: t, Source: content.Source, Explanation: content.Explanation}
}

// EmptySlot is the slot every system starts with
func EmptySlot(t valueobjects.SlotType) Slot {
	return Slot{Type: t}
}

// Content returns the slot fields as a write payload
func (s Slot) Content() SlotContent {
	return SlotContent{Source: s.Source, Explanation: s.Explanation}
}

// BlankSource reports whether source holds nothing to render
func BlankSource(source string) bool {
	return strings.TrimSpace(source) == ""
}

// HasSource reports whether there is diagram source worth rendering
func (s Slot) HasSource() bool {
	return s.Type.DiagramBearing() && !BlankSource(s.Source)
}

// slotJSON omits source for text-only slots
type slotJSON struct {
	Source      *string `json:"source,omitempty"`
	Explanation string  `json:"explanation"`
}

// MarshalJSON implements json.Marshaler
func (s Slot) MarshalJSON() ([]byte, error) {
	out := slotJSON{Explanation: s.Explanation}
	if s.Type.DiagramBearing() {
		src := s.Source
		out.Source = &src
	}
	return json.Marshal(out)
}
