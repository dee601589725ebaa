package common

import (
	"encoding/json"
	"net/http"
)

// MessageResponse is the body of simple acknowledgement responses
type MessageResponse struct {
	Message string `json:"message"`
	Name    string `json:"name,omitempty"`
}

// RespondJSON sends data as a JSON body
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// RespondMessage sends a MessageResponse
func RespondMessage(w http.ResponseWriter, status int, message, name string) {
	RespondJSON(w, status, MessageResponse{Message: message, Name: name})
}

// RespondNoContent sends an empty 204 response
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// RespondHTML sends a pre-rendered HTML document
func RespondHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
