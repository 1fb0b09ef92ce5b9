// Package api provides HTTP handlers for the lawmate API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// errBodyTooLarge is reported by decodeJSON when the body exceeds the limit.
var errBodyTooLarge = errors.New("request body too large")

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// ErrorWithCode writes a JSON error response carrying a machine-readable code.
func ErrorWithCode(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, map[string]string{"error": message, "code": code})
}

// decodeJSON reads at most limit bytes of r's body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errBodyTooLarge
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty request body")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeDecodeError maps a decodeJSON failure to a response.
func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		Error(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	Error(w, http.StatusBadRequest, "invalid request body")
}
