package response

import (
	"encoding/json"
	"net/http"
)

// MessageBody is the 400 payload browsers show verbatim.
type MessageBody struct {
	Message string `json:"message"`
}

// ErrorBody is the 500 payload.
type ErrorBody struct {
	Error string `json:"error"`
}

type StatusBody struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		_ = json.NewEncoder(w).Encode(ErrorBody{Error: "failed to encode response"})
	}
}

// Success writes payload as-is with 200.
func Success(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, data)
}

// Error responses
func BadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, MessageBody{Message: message})
}

func InternalServerError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusInternalServerError, ErrorBody{Error: message})
}

func ServiceUnavailable(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusServiceUnavailable, StatusBody{Status: "unavailable", Error: message})
}
