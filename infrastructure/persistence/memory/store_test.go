package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archviz/application/ports"
	"archviz/domain/core/entities"
	"archviz/domain/core/valueobjects"
	"archviz/infrastructure/persistence/storetest"
)

func TestDiagramStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.DiagramStore {
		return NewDiagramStore()
	})
}

func TestDiagramStore_ListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewDiagramStore()
	name := valueobjects.MustSystemName("billing")
	require.NoError(t, store.CreateSystem(ctx, name))

	snap, err := store.ListSystems(ctx)
	require.NoError(t, err)
	require.NoError(t, snap["billing"].SetSlot(valueobjects.SlotCode, entities.SlotContent{Source: "mutated"}))

	slot, err := store.GetSlot(ctx, name, valueobjects.SlotCode)
	require.NoError(t, err)
	assert.Empty(t, slot.Source)
}

func TestDiagramStore_InstancesAreIsolated(t *testing.T) {
	ctx := context.Background()
	a, b := NewDiagramStore(), NewDiagramStore()

	require.NoError(t, a.CreateSystem(ctx, valueobjects.MustSystemName("billing")))

	snap, err := b.ListSystems(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap)
}
