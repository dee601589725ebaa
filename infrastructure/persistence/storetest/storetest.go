// Package storetest provides behavioral tests shared by every DiagramStore backend.
package storetest

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archviz/application/ports"
	"archviz/domain/core/aggregates"
	"archviz/domain/core/entities"
	"archviz/domain/core/valueobjects"
)

// Factory returns a fresh, empty store
type Factory func(t *testing.T) ports.DiagramStore

// Run exercises the DiagramStore contract against stores built by newStore
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("Should list nothing when empty", func(t *testing.T) {
		store := newStore(t)

		snap, err := store.ListSystems(context.Background())

		require.NoError(t, err)
		assert.Empty(t, snap)
	})

	t.Run("Should materialize every slot on create", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		name := valueobjects.MustSystemName("billing")

		require.NoError(t, store.CreateSystem(ctx, name))

		snap, err := store.ListSystems(ctx)
		require.NoError(t, err)
		require.Contains(t, snap, "billing")
		assertSameSlots(t, aggregates.NewSystem(name), snap["billing"])
	})

	t.Run("Should reject duplicates without touching existing content", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		name := valueobjects.MustSystemName("billing")
		content := entities.SlotContent{Source: "@startuml\nA -> B\n@enduml", Explanation: "flows"}

		require.NoError(t, store.CreateSystem(ctx, name))
		require.NoError(t, store.UpsertSlot(ctx, name, valueobjects.SlotContext, content))

		err := store.CreateSystem(ctx, name)
		assert.ErrorIs(t, err, ports.ErrSystemExists)

		slot, err := store.GetSlot(ctx, name, valueobjects.SlotContext)
		require.NoError(t, err)
		assert.Equal(t, content, slot.Content())
	})

	t.Run("Should replace both fields on upsert", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		name := valueobjects.MustSystemName("billing")
		require.NoError(t, store.CreateSystem(ctx, name))

		require.NoError(t, store.UpsertSlot(ctx, name, valueobjects.SlotContainers, entities.SlotContent{Source: "S1", Explanation: "E1"}))
		require.NoError(t, store.UpsertSlot(ctx, name, valueobjects.SlotContainers, entities.SlotContent{Explanation: "E2"}))

		slot, err := store.GetSlot(ctx, name, valueobjects.SlotContainers)
		require.NoError(t, err)
		assert.Equal(t, entities.SlotContent{Source: "", Explanation: "E2"}, slot.Content())
	})

	t.Run("Should keep text-only slots free of source", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		name := valueobjects.MustSystemName("billing")
		require.NoError(t, store.CreateSystem(ctx, name))

		require.NoError(t, store.UpsertSlot(ctx, name, valueobjects.SlotInfo, entities.SlotContent{Source: "ignored", Explanation: "Owned by payments"}))

		snap, err := store.ListSystems(ctx)
		require.NoError(t, err)
		slot, ok := snap["billing"].Slot(valueobjects.SlotInfo)
		require.True(t, ok)
		assert.Equal(t, "", slot.Source)
		assert.Equal(t, "Owned by payments", slot.Explanation)
	})

	t.Run("Should reject unknown systems and slot types", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		name := valueobjects.MustSystemName("billing")
		require.NoError(t, store.CreateSystem(ctx, name))

		ghost := valueobjects.MustSystemName("nonexistent-system")
		err := store.UpsertSlot(ctx, ghost, valueobjects.SlotContext, entities.SlotContent{})
		assert.ErrorIs(t, err, ports.ErrSystemNotFound)

		_, err = store.GetSlot(ctx, ghost, valueobjects.SlotContext)
		assert.ErrorIs(t, err, ports.ErrSystemNotFound)

		err = store.UpsertSlot(ctx, name, valueobjects.SlotType("bogusType"), entities.SlotContent{})
		assert.ErrorIs(t, err, ports.ErrInvalidSlotType)

		snap, err := store.ListSystems(ctx)
		require.NoError(t, err)
		assert.NotContains(t, snap, "nonexistent-system")
	})

	t.Run("Should delete systems", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		name := valueobjects.MustSystemName("billing")
		require.NoError(t, store.CreateSystem(ctx, name))

		require.NoError(t, store.DeleteSystem(ctx, name))
		assert.ErrorIs(t, store.DeleteSystem(ctx, name), ports.ErrSystemNotFound)

		snap, err := store.ListSystems(ctx)
		require.NoError(t, err)
		assert.Empty(t, snap)

		require.NoError(t, store.CreateSystem(ctx, name), "name must be reusable after delete")
	})

	t.Run("Should allow exactly one concurrent create per name", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		name := valueobjects.MustSystemName("racy")

		const workers = 8
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- store.CreateSystem(ctx, name)
			}()
		}
		wg.Wait()
		close(errs)

		created := 0
		for err := range errs {
			if err == nil {
				created++
				continue
			}
			assert.ErrorIs(t, err, ports.ErrSystemExists)
		}
		assert.Equal(t, 1, created)
	})
}

func assertSameSlots(t *testing.T, want, got *aggregates.System) {
	t.Helper()
	if diff := cmp.Diff(want.Slots(), got.Slots()); diff != "" {
		t.Errorf("slots mismatch (-want +got):\n%s", diff)
	}
}
