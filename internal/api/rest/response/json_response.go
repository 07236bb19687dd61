package response

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse represents an error response with a machine-checkable category
// and a human-readable message.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes the given data as a JSON response with the specified status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response with the specified status code, category and message.
func WriteError(w http.ResponseWriter, statusCode int, category, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   category,
		Message: message,
	})
}
