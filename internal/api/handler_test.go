//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestErrorWithCode(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorWithCode(w, http.StatusGone, "session_expired", "gone")

	if w.Code != http.StatusGone {
		t.Fatalf("Expected status 410, got %d", w.Code)
	}
	var got map[string]string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["code"] != "session_expired" || got["error"] != "gone" {
		t.Errorf("Unexpected body: %v", got)
	}
}

func TestDecodeJSONRejectsOversizedBody(t *testing.T) {
	body := `{"prompt":"` + strings.Repeat("x", 64) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(body))
	w := httptest.NewRecorder()

	var v generateRequest
	err := decodeJSON(w, req, 16, &v)
	if !errors.Is(err, errBodyTooLarge) {
		t.Fatalf("Expected errBodyTooLarge, got %v", err)
	}
	writeDecodeError(w, err)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status 413, got %d", w.Code)
	}
}
