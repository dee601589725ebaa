package handlers

// This file contains OpenAPI documentation for SystemHandler and PreviewHandler endpoints

// ListSystems lists every system
// @Summary List every system with its slots
// @Tags systems
// @Produce json
// @Success 200 {object} map[string]interface{} "Systems keyed by name"
// @Failure 500 {object} errors.ErrorResponse "Storage failure"
// @Router /api/systems [get]

// CreateSystem creates a system
// @Summary Create a system with every slot empty
// @Tags systems
// @Accept json
// @Produce json
// @Param request body CreateSystemRequest true "System name"
// @Success 201 {object} common.MessageResponse "Created"
// @Failure 400 {object} errors.ErrorResponse "EMPTY_NAME, INVALID_NAME or DUPLICATE_NAME"
// @Router /api/systems [post]

// DeleteSystem deletes a system
// @Summary Delete a system and all of its slots
// @Tags systems
// @Param system path string true "System name"
// @Success 204 "Deleted"
// @Failure 404 {object} errors.ErrorResponse "SYSTEM_NOT_FOUND"
// @Router /api/systems/{system} [delete]

// GetSlot reads one slot
// @Summary Read one slot
// @Tags slots
// @Produce json
// @Param system path string true "System name"
// @Param type path string true "Slot type" Enums(info, context, containers, components, code, deployment, documentation)
// @Success 200 {object} SlotResponse
// @Failure 404 {object} errors.ErrorResponse "SYSTEM_NOT_FOUND or INVALID_SLOT_TYPE"
// @Router /api/systems/{system}/{type} [get]

// SaveSlot replaces one slot
// @Summary Replace the content of one slot
// @Tags slots
// @Accept json
// @Produce json
// @Param system path string true "System name"
// @Param type path string true "Slot type"
// @Param request body SaveSlotRequest true "Slot content"
// @Success 200 {object} common.MessageResponse "Saved"
// @Failure 404 {object} errors.ErrorResponse "SYSTEM_NOT_FOUND or INVALID_SLOT_TYPE"
// @Router /api/systems/{system}/{type} [put]

// ViewSlot reads and renders one slot
// @Summary Read one slot and render its diagram
// @Tags slots
// @Produce json
// @Param system path string true "System name"
// @Param type path string true "Slot type"
// @Success 200 {object} services.ViewResult
// @Failure 404 {object} errors.ErrorResponse "SYSTEM_NOT_FOUND or INVALID_SLOT_TYPE"
// @Router /api/systems/{system}/{type}/view [get]

// Preview renders unsaved source
// @Summary Render unsaved diagram source
// @Tags render
// @Accept json
// @Produce json
// @Param request body PreviewRequest true "Diagram source"
// @Success 200 {object} PreviewResponse
// @Failure 400 {object} errors.ErrorResponse "EMPTY_SOURCE"
// @Failure 500 {object} errors.ErrorResponse "RENDER_FAILED"
// @Router /preview [post]
