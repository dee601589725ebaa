package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"archviz/application/ports"
	"archviz/domain/core/aggregates"
	"archviz/domain/core/entities"
	"archviz/domain/core/valueobjects"
	"archviz/domain/events"
	apperrors "archviz/pkg/errors"
)

// Rejection reasons carried in AppError.Code
const (
	ReasonEmptyName       = "EMPTY_NAME"
	ReasonInvalidName     = "INVALID_NAME"
	ReasonDuplicateName   = "DUPLICATE_NAME"
	ReasonSystemNotFound  = "SYSTEM_NOT_FOUND"
	ReasonInvalidSlotType = "INVALID_SLOT_TYPE"
	ReasonEmptySource     = "EMPTY_SOURCE"
	ReasonRenderFailed    = "RENDER_FAILED"
)

// ViewResult is everything the viewer needs for one slot
type ViewResult struct {
	System         string `json:"system"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	DiagramBearing bool   `json:"diagramBearing"`
	Source         string `json:"source"`
	Explanation    string `json:"explanation"`
	Markup         string `json:"markup"`
	RenderError    string `json:"renderError,omitempty"`
}

// RepositoryService orchestrates the diagram store and the renderer.
type RepositoryService struct {
	store     ports.DiagramStore
	renderer  ports.Renderer
	publisher ports.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewRepositoryService creates a new repository service
func NewRepositoryService(
	store ports.DiagramStore,
	renderer ports.Renderer,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *RepositoryService {
	return &RepositoryService{
		store:     store,
		renderer:  renderer,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// GetAllSystems returns every system with its slots
func (s *RepositoryService) GetAllSystems(ctx context.Context) (aggregates.Snapshot, error) {
	snap, err := s.store.ListSystems(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError("list systems", err)
	}
	return snap, nil
}

// AddSystem creates a new system with every slot empty and returns its name
func (s *RepositoryService) AddSystem(ctx context.Context, rawName string) (string, error) {
	name, err := parseName(rawName)
	if err != nil {
		return "", err
	}

	if err := s.store.CreateSystem(ctx, name); err != nil {
		if errors.Is(err, ports.ErrSystemExists) {
			return "", apperrors.NewValidationError(fmt.Sprintf("system '%s' already exists", name)).
				WithCode(ReasonDuplicateName).
				WithCause(err)
		}
		s.logger.Error("Failed to create system", zap.String("system", name.String()), zap.Error(err))
		return "", apperrors.NewStorageError("create system", err)
	}

	s.logger.Info("System created", zap.String("system", name.String()))
	s.publish(ctx, events.NewSystemCreated(name, s.now()))
	return name.String(), nil
}

// DeleteSystem removes a system and every slot it holds
func (s *RepositoryService) DeleteSystem(ctx context.Context, rawName string) error {
	name, err := parseExistingName(rawName)
	if err != nil {
		return err
	}

	if err := s.store.DeleteSystem(ctx, name); err != nil {
		if errors.Is(err, ports.ErrSystemNotFound) {
			return systemNotFound(name.String(), err)
		}
		s.logger.Error("Failed to delete system", zap.String("system", name.String()), zap.Error(err))
		return apperrors.NewStorageError("delete system", err)
	}

	s.logger.Info("System deleted", zap.String("system", name.String()))
	s.publish(ctx, events.NewSystemDeleted(name, s.now()))
	return nil
}

// SaveSlot replaces the content of one slot
func (s *RepositoryService) SaveSlot(ctx context.Context, rawSystem, rawType string, content entities.SlotContent) error {
	slotType, err := parseSlotType(rawType)
	if err != nil {
		return err
	}
	name, err := parseExistingName(rawSystem)
	if err != nil {
		return err
	}

	content = content.Normalize(slotType)
	if err := s.store.UpsertSlot(ctx, name, slotType, content); err != nil {
		switch {
		case errors.Is(err, ports.ErrSystemNotFound):
			return systemNotFound(name.String(), err)
		case errors.Is(err, ports.ErrInvalidSlotType):
			return invalidSlotType(rawType, err)
		}
		s.logger.Error("Failed to save slot",
			zap.String("system", name.String()),
			zap.String("type", slotType.String()),
			zap.Error(err),
		)
		return apperrors.NewStorageError("save slot", err)
	}

	s.logger.Debug("Slot saved",
		zap.String("system", name.String()),
		zap.String("type", slotType.String()),
	)
	s.publish(ctx, events.NewSlotSaved(name, slotType, len(content.Source), len(content.Explanation), s.now()))
	return nil
}

// GetSlot returns the stored content of one slot
func (s *RepositoryService) GetSlot(ctx context.Context, rawSystem, rawType string) (entities.Slot, error) {
	slotType, err := parseSlotType(rawType)
	if err != nil {
		return entities.Slot{}, err
	}
	name, err := parseExistingName(rawSystem)
	if err != nil {
		return entities.Slot{}, err
	}

	slot, err := s.store.GetSlot(ctx, name, slotType)
	if err != nil {
		if errors.Is(err, ports.ErrSystemNotFound) {
			return entities.Slot{}, systemNotFound(name.String(), err)
		}
		return entities.Slot{}, apperrors.NewStorageError("get slot", err)
	}
	return slot, nil
}

// PreviewRender renders source without touching the store
func (s *RepositoryService) PreviewRender(ctx context.Context, source string) (string, error) {
	if entities.BlankSource(source) {
		return "", apperrors.NewValidationError("No PlantUML code provided.").WithCode(ReasonEmptySource)
	}

	markup, err := s.renderer.Render(ctx, source)
	if err != nil {
		s.logger.Warn("Preview render failed", zap.Error(err))
		return "", renderFailed(err)
	}
	return markup, nil
}

// ViewSlot reads a slot and renders its diagram. A render failure is
// reported in ViewResult.RenderError instead of failing the call.
func (s *RepositoryService) ViewSlot(ctx context.Context, rawSystem, rawType string) (*ViewResult, error) {
	slot, err := s.GetSlot(ctx, rawSystem, rawType)
	if err != nil {
		return nil, err
	}

	result := &ViewResult{
		System:         strings.TrimSpace(rawSystem),
		Type:           slot.Type.String(),
		Title:          slot.Type.Title(),
		DiagramBearing: slot.Type.DiagramBearing(),
		Source:         slot.Source,
		Explanation:    slot.Explanation,
	}

	if !slot.HasSource() {
		return result, nil
	}

	markup, err := s.renderer.Render(ctx, slot.Source)
	if err != nil {
		s.logger.Warn("Diagram render failed",
			zap.String("system", result.System),
			zap.String("type", result.Type),
			zap.Error(err),
		)
		result.RenderError = err.Error()
		return result, nil
	}
	result.Markup = markup
	return result, nil
}

// ReasonOf returns the rejection reason carried by err, or "".
func ReasonOf(err error) string {
	return apperrors.CodeOf(err)
}

func (s *RepositoryService) publish(ctx context.Context, event events.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("event_type", event.GetEventType()),
			zap.String("aggregate_id", event.GetAggregateID()),
			zap.Error(err),
		)
	}
}

func parseName(raw string) (valueobjects.SystemName, error) {
	name, err := valueobjects.NewSystemName(raw)
	switch {
	case errors.Is(err, valueobjects.ErrEmptySystemName):
		return name, apperrors.NewValidationError("system name must not be empty").WithCode(ReasonEmptyName)
	case err != nil:
		return name, apperrors.NewValidationError(fmt.Sprintf("invalid system name '%s'", raw)).
			WithCode(ReasonInvalidName).
			WithCause(err)
	}
	return name, nil
}

// parseExistingName treats names that could never have been created as unknown systems
func parseExistingName(raw string) (valueobjects.SystemName, error) {
	name, err := valueobjects.NewSystemName(raw)
	if err != nil {
		return name, systemNotFound(raw, err)
	}
	return name, nil
}

func parseSlotType(raw string) (valueobjects.SlotType, error) {
	slotType, err := valueobjects.ParseSlotType(raw)
	if err != nil {
		return "", invalidSlotType(raw, err)
	}
	return slotType, nil
}

func systemNotFound(name string, cause error) *apperrors.AppError {
	return apperrors.NewNotFoundError(fmt.Sprintf("system '%s'", name)).
		WithCode(ReasonSystemNotFound).
		WithCause(cause)
}

func invalidSlotType(raw string, cause error) *apperrors.AppError {
	return apperrors.NewNotFoundError(fmt.Sprintf("diagram type '%s'", raw)).
		WithCode(ReasonInvalidSlotType).
		WithCause(cause)
}

func renderFailed(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		appErr = apperrors.NewTimeoutError("render").WithCause(err)
	} else {
		appErr = apperrors.NewExternalError("renderer", err).WithStatus(http.StatusInternalServerError)
	}
	appErr.Code = ReasonRenderFailed
	appErr.Message = "Failed to render diagram: " + err.Error()
	return appErr
}
