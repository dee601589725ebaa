package handlers

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"archviz/application/services"
	"archviz/domain/core/entities"
	"archviz/pkg/common"
	apperrors "archviz/pkg/errors"
)

// SystemHandler handles system and slot API requests
type SystemHandler struct {
	service      *services.RepositoryService
	logger       *zap.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(
	service *services.RepositoryService,
	logger *zap.Logger,
	errorHandler *apperrors.ErrorHandler,
) *SystemHandler {
	return &SystemHandler{
		service:      service,
		logger:       logger,
		errorHandler: errorHandler,
	}
}

// CreateSystemRequest represents the request body for creating a system
type CreateSystemRequest struct {
	Name string `json:"name" validate:"max=1024"`
}

// SaveSlotRequest represents the request body for saving a slot. puml and md
// are accepted for older clients. Each field is capped at 256 KiB.
type SaveSlotRequest struct {
	Source      *string `json:"source,omitempty" validate:"omitempty,max=262144"`
	Explanation *string `json:"explanation,omitempty" validate:"omitempty,max=262144"`
	Puml        *string `json:"puml,omitempty" validate:"omitempty,max=262144"`
	Md          *string `json:"md,omitempty" validate:"omitempty,max=262144"`
}

// SlotResponse is the editor view of one slot
type SlotResponse struct {
	System         string `json:"system"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	DiagramBearing bool   `json:"diagramBearing"`
	Source         string `json:"source"`
	Explanation    string `json:"explanation"`
}

// ListSystems handles GET /api/systems
func (h *SystemHandler) ListSystems(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.GetAllSystems(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, snap)
}

// CreateSystem handles POST /api/systems
func (h *SystemHandler) CreateSystem(w http.ResponseWriter, r *http.Request) {
	var req CreateSystemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	name, err := h.service.AddSystem(r.Context(), req.Name)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusCreated, fmt.Sprintf("System '%s' created", name), name)
}

// DeleteSystem handles DELETE /api/systems/{system}
func (h *SystemHandler) DeleteSystem(w http.ResponseWriter, r *http.Request) {
	system, err := pathParam(r, "system")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if err := h.service.DeleteSystem(r.Context(), system); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondNoContent(w)
}

// GetSlot handles GET /api/systems/{system}/{type}
func (h *SystemHandler) GetSlot(w http.ResponseWriter, r *http.Request) {
	system, slotType, err := slotParams(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	slot, err := h.service.GetSlot(r.Context(), system, slotType)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, SlotResponse{
		System:         system,
		Type:           slot.Type.String(),
		Title:          slot.Type.Title(),
		DiagramBearing: slot.Type.DiagramBearing(),
		Source:         slot.Source,
		Explanation:    slot.Explanation,
	})
}

// SaveSlot handles PUT /api/systems/{system}/{type}
func (h *SystemHandler) SaveSlot(w http.ResponseWriter, r *http.Request) {
	system, slotType, err := slotParams(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var req SaveSlotRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	content := entities.SlotContent{
		Source:      firstOf(req.Source, req.Puml),
		Explanation: firstOf(req.Explanation, req.Md),
	}
	if err := h.service.SaveSlot(r.Context(), system, slotType, content); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusOK, "Diagram saved", system)
}

// ViewSlot handles GET /api/systems/{system}/{type}/view
func (h *SystemHandler) ViewSlot(w http.ResponseWriter, r *http.Request) {
	system, slotType, err := slotParams(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	result, err := h.service.ViewSlot(r.Context(), system, slotType)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}
