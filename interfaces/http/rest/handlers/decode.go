package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"archviz/application/services"
	apperrors "archviz/pkg/errors"
	"archviz/pkg/utils"
)

// pathParam returns the decoded value of a route parameter. chi matches on
// RawPath when the request path carries escapes the default encoding would
// not produce, leaving the parameter escaped; otherwise it is already decoded.
func pathParam(r *http.Request, key string) (string, error) {
	raw := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return raw, nil
	}
	value, err := url.PathUnescape(raw)
	if err != nil {
		if key == "type" {
			return "", apperrors.NewNotFoundError(fmt.Sprintf("diagram type '%s'", raw)).
				WithCode(services.ReasonInvalidSlotType).
				WithCause(err)
		}
		return "", apperrors.NewNotFoundError(fmt.Sprintf("system '%s'", raw)).
			WithCode(services.ReasonSystemNotFound).
			WithCause(err)
	}
	return value, nil
}

// slotParams returns the decoded {system} and {type} route parameters
func slotParams(r *http.Request) (string, string, error) {
	system, err := pathParam(r, "system")
	if err != nil {
		return "", "", err
	}
	slotType, err := pathParam(r, "type")
	if err != nil {
		return "", "", err
	}
	return system, slotType, nil
}

// decodeJSON reads the request body into dst and validates it
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.NewValidationError("Request body too large").
				WithStatus(http.StatusRequestEntityTooLarge).
				WithCause(err)
		}
		return apperrors.NewValidationError("Invalid request body: " + err.Error()).WithCause(err)
	}

	if err := utils.ValidateStruct(dst); err != nil {
		return apperrors.NewValidationError("Validation error: " + err.Error()).WithCause(err)
	}
	return nil
}

// firstOf returns the first non-nil value, or ""
func firstOf(values ...*string) string {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return ""
}
