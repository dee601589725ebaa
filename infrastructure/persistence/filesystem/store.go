package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"archviz/application/ports"
	"archviz/domain/core/aggregates"
	"archviz/domain/core/entities"
	"archviz/domain/core/valueobjects"
)

const (
	sourceExt      = ".puml"
	explanationExt = ".md"

	stagingPrefix = ".staging-"
	trashPrefix   = ".trash-"

	dirPerm  fs.FileMode = 0o755
	filePerm fs.FileMode = 0o644

	readConcurrency = 16
)

// DiagramStore keeps one directory per system under root. Each slot field is
// its own file: <type>.puml holds the source, <type>.md the explanation.
type DiagramStore struct {
	root   string
	logger *zap.Logger
}

// NewDiagramStore creates root if needed and removes staging left-overs of
// interrupted creates and deletes.
func NewDiagramStore(root string, logger *zap.Logger) (*DiagramStore, error) {
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create diagrams directory %s: %w", root, err)
	}

	s := &DiagramStore{root: root, logger: logger}
	s.sweep()
	return s, nil
}

// Root returns the directory holding all systems
func (s *DiagramStore) Root() string {
	return s.root
}

// ListSystems reads every system directory. Unreadable fields resolve to "".
func (s *DiagramStore) ListSystems(ctx context.Context) (aggregates.Snapshot, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Failed to read diagrams directory", zap.String("root", s.root), zap.Error(err))
		}
		return aggregates.Snapshot{}, nil
	}

	var (
		mu   sync.Mutex
		snap = make(aggregates.Snapshot, len(entries))
		g    errgroup.Group
	)
	g.SetLimit(readConcurrency)

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name, err := valueobjects.NewSystemName(entry.Name())
		if err != nil || name.String() != entry.Name() {
			s.logger.Warn("Skipping directory with invalid system name", zap.String("dir", entry.Name()))
			continue
		}

		g.Go(func() error {
			sys := s.readSystem(name)
			mu.Lock()
			snap.Add(sys)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return snap, nil
}

// CreateSystem builds the complete system in a staging directory and renames
// it into place, so no reader observes a partially materialized system.
func (s *DiagramStore) CreateSystem(ctx context.Context, name valueobjects.SystemName) error {
	target := s.systemDir(name)
	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("create %q: %w", name, ports.ErrSystemExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("create %q: %w", name, err)
	}

	staging := filepath.Join(s.root, stagingPrefix+uuid.NewString())
	if err := os.Mkdir(staging, dirPerm); err != nil {
		return fmt.Errorf("create %q: staging directory: %w", name, err)
	}

	sys := aggregates.NewSystem(name)
	for _, slot := range sys.Slots() {
		if err := writeSlotFiles(staging, slot); err != nil {
			s.discard(staging)
			return fmt.Errorf("create %q: %w", name, err)
		}
	}

	if err := os.Rename(staging, target); err != nil {
		s.discard(staging)
		// a concurrent create won the rename
		if _, statErr := os.Stat(target); statErr == nil {
			return fmt.Errorf("create %q: %w", name, ports.ErrSystemExists)
		}
		return fmt.Errorf("create %q: %w", name, err)
	}

	s.logger.Debug("System directory created", zap.String("system", name.String()), zap.String("path", target))
	return nil
}

// GetSlot reads one slot of an existing system
func (s *DiagramStore) GetSlot(ctx context.Context, name valueobjects.SystemName, slotType valueobjects.SlotType) (entities.Slot, error) {
	if !slotType.IsValid() {
		return entities.Slot{}, fmt.Errorf("get %q/%q: %w", name, slotType, ports.ErrInvalidSlotType)
	}
	if err := s.requireSystem(name); err != nil {
		return entities.Slot{}, fmt.Errorf("get %q: %w", name, err)
	}
	return s.readSlot(s.systemDir(name), slotType), nil
}

// UpsertSlot replaces the slot's files. Each file is swapped in atomically and
// the source is written immediately before the explanation.
func (s *DiagramStore) UpsertSlot(ctx context.Context, name valueobjects.SystemName, slotType valueobjects.SlotType, content entities.SlotContent) error {
	if !slotType.IsValid() {
		return fmt.Errorf("upsert %q/%q: %w", name, slotType, ports.ErrInvalidSlotType)
	}
	if err := s.requireSystem(name); err != nil {
		return fmt.Errorf("upsert %q: %w", name, err)
	}

	if err := writeSlotFiles(s.systemDir(name), entities.NewSlot(slotType, content)); err != nil {
		return fmt.Errorf("upsert %q/%q: %w", name, slotType, err)
	}
	return nil
}

// DeleteSystem moves the system out of the listing first, then removes it
func (s *DiagramStore) DeleteSystem(ctx context.Context, name valueobjects.SystemName) error {
	if err := s.requireSystem(name); err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}

	trash := filepath.Join(s.root, trashPrefix+uuid.NewString())
	if err := os.Rename(s.systemDir(name), trash); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete %q: %w", name, ports.ErrSystemNotFound)
		}
		return fmt.Errorf("delete %q: %w", name, err)
	}
	s.discard(trash)
	return nil
}

func (s *DiagramStore) systemDir(name valueobjects.SystemName) string {
	return filepath.Join(s.root, name.String())
}

func (s *DiagramStore) requireSystem(name valueobjects.SystemName) error {
	info, err := os.Stat(s.systemDir(name))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ports.ErrSystemNotFound
	case err != nil:
		return err
	case !info.IsDir():
		return ports.ErrSystemNotFound
	}
	return nil
}

func (s *DiagramStore) readSystem(name valueobjects.SystemName) *aggregates.System {
	dir := s.systemDir(name)
	sys := aggregates.NewSystem(name)
	for _, t := range valueobjects.AllSlotTypes() {
		slot := s.readSlot(dir, t)
		_ = sys.SetSlot(t, slot.Content())
	}
	return sys
}

func (s *DiagramStore) readSlot(dir string, t valueobjects.SlotType) entities.Slot {
	content := entities.SlotContent{
		Explanation: s.readField(filepath.Join(dir, t.String()+explanationExt)),
	}
	if t.DiagramBearing() {
		content.Source = s.readField(filepath.Join(dir, t.String()+sourceExt))
	}
	return entities.NewSlot(t, content)
}

// readField never fails: a missing or unreadable file is an empty field
func (s *DiagramStore) readField(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Failed to read diagram field, treating as empty", zap.String("path", path), zap.Error(err))
		}
		return ""
	}
	return string(data)
}

func (s *DiagramStore) discard(path string) {
	if err := os.RemoveAll(path); err != nil {
		s.logger.Warn("Failed to remove staging directory", zap.String("path", path), zap.Error(err))
	}
}

func (s *DiagramStore) sweep() {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), stagingPrefix) || strings.HasPrefix(entry.Name(), trashPrefix) {
			s.discard(filepath.Join(s.root, entry.Name()))
		}
	}
}

func writeSlotFiles(dir string, slot entities.Slot) error {
	if slot.Type.DiagramBearing() {
		if err := writeFileAtomic(dir, slot.Type.String()+sourceExt, slot.Source); err != nil {
			return err
		}
	}
	return writeFileAtomic(dir, slot.Type.String()+explanationExt, slot.Explanation)
}

func writeFileAtomic(dir, name, content string) error {
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
