package handlers

import (
	"bytes"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"archviz/application/services"
	"archviz/domain/core/valueobjects"
	"archviz/pkg/common"
	apperrors "archviz/pkg/errors"
)

// PageHandler serves the editor shell and the diagram viewer
type PageHandler struct {
	service   *services.RepositoryService
	templates *template.Template
	logger    *zap.Logger
}

// NewPageHandler creates a new page handler
func NewPageHandler(service *services.RepositoryService, templates *template.Template, logger *zap.Logger) *PageHandler {
	return &PageHandler{service: service, templates: templates, logger: logger}
}

type indexPage struct {
	Slots []valueobjects.SlotSchema
}

type diagramPage struct {
	*services.ViewResult
	// Markup shadows ViewResult.Markup so the SVG is emitted unescaped
	Markup  template.HTML
	Systems []string
	Slots   []valueobjects.SlotSchema
}

type errorPage struct {
	Status     int
	StatusText string
	Message    string
}

// Index handles GET /
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "index.html", indexPage{Slots: valueobjects.Schemas()})
}

// Diagram handles GET /diagram/{system}/{type}
func (h *PageHandler) Diagram(w http.ResponseWriter, r *http.Request) {
	system, slotType, err := slotParams(r)
	if err != nil {
		h.renderError(w, err)
		return
	}
	result, err := h.service.ViewSlot(r.Context(), system, slotType)
	if err != nil {
		h.renderError(w, err)
		return
	}

	// The sidebar is navigation only; a listing failure still shows the diagram.
	var systems []string
	if snap, err := h.service.GetAllSystems(r.Context()); err != nil {
		h.logger.Warn("Failed to list systems for navigation", zap.Error(err))
	} else {
		systems = snap.Names()
	}

	h.render(w, http.StatusOK, "diagram.html", diagramPage{
		ViewResult: result,
		Markup:     template.HTML(result.Markup),
		Systems:    systems,
		Slots:      valueobjects.Schemas(),
	})
}

func (h *PageHandler) renderError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "An internal error occurred"
	if appErr := apperrors.GetAppError(err); appErr != nil {
		if appErr.HTTPStatus != 0 {
			status = appErr.HTTPStatus
		}
		message = appErr.Message
	}
	if status >= 500 {
		h.logger.Error("Failed to build page", zap.Error(err))
	}

	h.render(w, status, "error.html", errorPage{
		Status:     status,
		StatusText: http.StatusText(status),
		Message:    message,
	})
}

func (h *PageHandler) render(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("Failed to execute template", zap.String("template", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	common.RespondHTML(w, status, buf.Bytes())
}
