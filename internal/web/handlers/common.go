package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Warn("handlers: writing response failed", "error", err)
		}
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusError is the body of a failed verification request.
type statusError struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	ErrorCode  string `json:"error_code"`
	IncidentID string `json:"incident_id,omitempty"`
}

// respondStatusError sends a verification error in the status/message/error_code shape.
func respondStatusError(w http.ResponseWriter, status int, message, code, incidentID string) {
	respondJSON(w, status, statusError{
		Status:     "error",
		Message:    message,
		ErrorCode:  code,
		IncidentID: incidentID,
	})
}
