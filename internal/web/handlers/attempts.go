package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-verify/internal/constants"
	"github.com/kozaktomas/face-verify/internal/database"
)

const errAttemptLogDisabled = "attempt log disabled"

// AttemptsHandler exposes the verification audit log.
type AttemptsHandler struct {
	reader database.AttemptReader
}

// NewAttemptsHandler creates a new attempts handler. A nil reader disables the endpoints.
func NewAttemptsHandler(reader database.AttemptReader) *AttemptsHandler {
	return &AttemptsHandler{reader: reader}
}

// AttemptResponse represents a recorded attempt in API responses
type AttemptResponse struct {
	ID              string     `json:"id"`
	Status          string     `json:"status"`
	LivenessPassed  bool       `json:"liveness_passed"`
	LivenessMessage string     `json:"liveness_message"`
	MinRatio        *float64   `json:"min_ratio"`
	MaxRatio        *float64   `json:"max_ratio"`
	Ratios          []*float64 `json:"ratios"`
	Verified        bool       `json:"verified"`
	Distance        *float64   `json:"distance"`
	Threshold       *float64   `json:"threshold"`
	Model           string     `json:"model"`
	ErrorCode       string     `json:"error_code,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toAttemptResponse(a database.Attempt) AttemptResponse {
	ratios := a.Ratios
	if ratios == nil {
		ratios = []*float64{}
	}
	return AttemptResponse{
		ID:              a.ID,
		Status:          a.Status,
		LivenessPassed:  a.LivenessPassed,
		LivenessMessage: a.LivenessMessage,
		MinRatio:        a.MinRatio,
		MaxRatio:        a.MaxRatio,
		Ratios:          ratios,
		Verified:        a.Verified,
		Distance:        a.Distance,
		Threshold:       a.Threshold,
		Model:           a.Model,
		ErrorCode:       a.ErrorCode,
		CreatedAt:       a.CreatedAt,
	}
}

// parseLimit reads the limit query parameter, applying the default and cap.
func parseLimit(raw string) (int, bool) {
	if raw == "" {
		return constants.DefaultAttemptLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return min(n, constants.MaxAttemptLimit), true
}

// List returns the most recent attempts.
func (h *AttemptsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		respondError(w, http.StatusNotFound, errAttemptLogDisabled)
		return
	}

	limit, ok := parseLimit(r.URL.Query().Get("limit"))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	attempts, err := h.reader.ListAttempts(r.Context(), limit)
	if err != nil {
		slog.Error("attempts handler: list failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list attempts")
		return
	}
	total, err := h.reader.CountAttempts(r.Context())
	if err != nil {
		slog.Error("attempts handler: count failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to count attempts")
		return
	}

	result := make([]AttemptResponse, len(attempts))
	for i, a := range attempts {
		result[i] = toAttemptResponse(a)
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"attempts": result,
		"total":    total,
		"limit":    limit,
	})
}

// Get returns one attempt by ID.
func (h *AttemptsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		respondError(w, http.StatusNotFound, errAttemptLogDisabled)
		return
	}

	id := chi.URLParam(r, "id")
	attempt, err := h.reader.GetAttempt(r.Context(), id)
	if err != nil {
		slog.Error("attempts handler: get failed", "id", sanitizeForLog(id), "error", err)
		respondError(w, http.StatusInternalServerError, "failed to get attempt")
		return
	}
	if attempt == nil {
		respondError(w, http.StatusNotFound, "attempt not found")
		return
	}
	respondJSON(w, http.StatusOK, toAttemptResponse(*attempt))
}
