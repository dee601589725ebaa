package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"archviz/domain/core/valueobjects"
)

func TestSlot_HasSource(t *testing.T) {
	tests := []struct {
		name string
		slot Slot
		want bool
	}{
		{"diagram source", Slot{Type: valueobjects.SlotContext, Source: "A -> B"}, true},
		{"empty", Slot{Type: valueobjects.SlotContext}, false},
		{"whitespace only", Slot{Type: valueobjects.SlotContext, Source: " \n\t"}, false},
		{"text-only type", Slot{Type: valueobjects.SlotInfo, Source: "A -> B"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.slot.HasSource())
		})
	}
}

func TestNewSlot_DropsSourceOfTextOnlyTypes(t *testing.T) {
	slot := NewSlot(valueobjects.SlotDocumentation, SlotContent{Source: "S", Explanation: "E"})

	assert.Empty(t, slot.Source)
	assert.Equal(t, "E", slot.Explanation)
}
