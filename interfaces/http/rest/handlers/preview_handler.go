package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"archviz/application/services"
	"archviz/pkg/common"
	apperrors "archviz/pkg/errors"
)

// PreviewHandler renders unsaved diagram source
type PreviewHandler struct {
	service      *services.RepositoryService
	logger       *zap.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewPreviewHandler creates a new preview handler
func NewPreviewHandler(service *services.RepositoryService, logger *zap.Logger, errorHandler *apperrors.ErrorHandler) *PreviewHandler {
	return &PreviewHandler{service: service, logger: logger, errorHandler: errorHandler}
}

// PreviewRequest carries the source to render. pumlCode is the older field name.
type PreviewRequest struct {
	SourceText *string `json:"sourceText,omitempty" validate:"omitempty,max=262144"`
	PumlCode   *string `json:"pumlCode,omitempty" validate:"omitempty,max=262144"`
}

// PreviewResponse carries the rendered markup
type PreviewResponse struct {
	SVG string `json:"svg"`
}

// Preview handles POST /preview
func (h *PreviewHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	markup, err := h.service.PreviewRender(r.Context(), firstOf(req.SourceText, req.PumlCode))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, PreviewResponse{SVG: markup})
}
