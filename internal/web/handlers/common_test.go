package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondJSON(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		data       any
		expectBody string
	}{
		{"object", http.StatusOK, map[string]string{"status": "ok"}, "{\"status\":\"ok\"}\n"},
		{"array", http.StatusOK, []int{1, 2}, "[1,2]\n"},
		{"nil data", http.StatusNoContent, nil, ""},
		{"error status", http.StatusBadRequest, map[string]bool{"ok": false}, "{\"ok\":false}\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondJSON(recorder, tc.statusCode, tc.data)

			assertStatusCode(t, recorder, tc.statusCode)
			assertContentType(t, recorder, "application/json")
			if recorder.Body.String() != tc.expectBody {
				t.Errorf("expected body %q, got %q", tc.expectBody, recorder.Body.String())
			}
		})
	}
}

func TestRespondError(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondError(recorder, http.StatusNotFound, "attempt not found")

	assertStatusCode(t, recorder, http.StatusNotFound)
	assertJSONError(t, recorder, "attempt not found")
}

func TestRespondStatusError(t *testing.T) {
	t.Run("client error omits incident", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		respondStatusError(recorder, http.StatusBadRequest, "Missing required files", "MISSING_FILES", "")

		var body map[string]string
		parseJSONResponse(t, recorder, &body)
		if body["status"] != "error" || body["error_code"] != "MISSING_FILES" || body["message"] != "Missing required files" {
			t.Errorf("unexpected body %v", body)
		}
		if _, ok := body["incident_id"]; ok {
			t.Error("expected no incident_id")
		}
	})

	t.Run("internal error carries incident", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		respondStatusError(recorder, http.StatusInternalServerError, "Internal server error", "VERIFICATION_ERROR", "abc")

		var body map[string]string
		parseJSONResponse(t, recorder, &body)
		if body["incident_id"] != "abc" {
			t.Errorf("expected incident_id abc, got %v", body)
		}
	})
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("clip\r\n.mp4\nINFO fake"); got != "clip.mp4INFO fake" {
		t.Errorf("sanitizeForLog() = %q", got)
	}
}
