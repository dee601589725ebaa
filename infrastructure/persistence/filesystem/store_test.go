package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"archviz/application/ports"
	"archviz/domain/core/entities"
	"archviz/domain/core/valueobjects"
	"archviz/infrastructure/persistence/storetest"
)

func newStore(t *testing.T) *DiagramStore {
	t.Helper()
	store, err := NewDiagramStore(filepath.Join(t.TempDir(), "diagrams"), zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestDiagramStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.DiagramStore {
		return newStore(t)
	})
}

func TestDiagramStore_Layout(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	name := valueobjects.MustSystemName("billing")

	require.NoError(t, store.CreateSystem(ctx, name))
	require.NoError(t, store.UpsertSlot(ctx, name, valueobjects.SlotContext, entities.SlotContent{Source: "@startuml\n@enduml", Explanation: "# Context"}))

	dir := filepath.Join(store.Root(), "billing")
	src, err := os.ReadFile(filepath.Join(dir, "context.puml"))
	require.NoError(t, err)
	assert.Equal(t, "@startuml\n@enduml", string(src))

	md, err := os.ReadFile(filepath.Join(dir, "context.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Context", string(md))

	_, err = os.Stat(filepath.Join(dir, "info.puml"))
	assert.True(t, os.IsNotExist(err), "text-only slots have no source file")
	_, err = os.Stat(filepath.Join(dir, "info.md"))
	assert.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 12, "5 diagram slots x 2 files + 2 text slots")
}

func TestDiagramStore_ReadsExistingDirectories(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	dir := filepath.Join(store.Root(), "legacy")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "containers.puml"), []byte("C4"), 0o644))

	snap, err := store.ListSystems(ctx)
	require.NoError(t, err)
	require.Contains(t, snap, "legacy")

	slot, ok := snap["legacy"].Slot(valueobjects.SlotContainers)
	require.True(t, ok)
	assert.Equal(t, "C4", slot.Source)
	assert.Equal(t, "", slot.Explanation, "missing files read as empty")

	slot, ok = snap["legacy"].Slot(valueobjects.SlotDeployment)
	require.True(t, ok)
	assert.Equal(t, entities.SlotContent{}, slot.Content())
}

func TestDiagramStore_UnreadableFieldDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	name := valueobjects.MustSystemName("billing")
	require.NoError(t, store.CreateSystem(ctx, name))
	require.NoError(t, store.UpsertSlot(ctx, name, valueobjects.SlotCode, entities.SlotContent{Source: "S", Explanation: "E"}))

	// a directory where a file is expected cannot be read as a field
	broken := filepath.Join(store.Root(), "billing", "code.puml")
	require.NoError(t, os.Remove(broken))
	require.NoError(t, os.Mkdir(broken, 0o755))

	snap, err := store.ListSystems(ctx)
	require.NoError(t, err)
	slot, _ := snap["billing"].Slot(valueobjects.SlotCode)
	assert.Equal(t, "", slot.Source)
	assert.Equal(t, "E", slot.Explanation)

	slot, err = store.GetSlot(ctx, name, valueobjects.SlotCode)
	require.NoError(t, err)
	assert.Equal(t, "", slot.Source)
}

func TestDiagramStore_HidesStagingEntries(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "diagrams")
	require.NoError(t, os.MkdirAll(filepath.Join(root, stagingPrefix+"abandoned"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("notes"), 0o644))

	store, err := NewDiagramStore(root, zap.NewNop())
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, stagingPrefix+"abandoned"))
	assert.True(t, os.IsNotExist(err), "staging left-overs are swept on start")

	snap, err := store.ListSystems(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap)
}

func TestDiagramStore_MissingRootListsEmpty(t *testing.T) {
	store := newStore(t)
	require.NoError(t, os.RemoveAll(store.Root()))

	snap, err := store.ListSystems(context.Background())

	require.NoError(t, err)
	assert.Empty(t, snap)
}

func TestDiagramStore_FileInPlaceOfSystem(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(store.Root(), "notes"), []byte("x"), 0o644))

	err := store.UpsertSlot(ctx, valueobjects.MustSystemName("notes"), valueobjects.SlotContext, entities.SlotContent{})
	assert.ErrorIs(t, err, ports.ErrSystemNotFound)

	err = store.CreateSystem(ctx, valueobjects.MustSystemName("notes"))
	assert.ErrorIs(t, err, ports.ErrSystemExists)
}
