package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// MaxBodyBytes bounds request bodies read by DecodeJSON.
const MaxBodyBytes = 1 << 20

// DecodeJSON decodes the request body into dest enforcing strict JSON handling.
func DecodeJSON(r *http.Request, dest any) error {
	defer r.Body.Close()
	return Decode(io.LimitReader(r.Body, MaxBodyBytes), dest)
}

// Decode reads exactly one JSON value from src into dest. Unknown fields and
// trailing data are errors.
func Decode(src io.Reader, dest any) error {
	decoder := json.NewDecoder(src)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		return err
	}

	if decoder.More() {
		return errors.New("unexpected data after JSON payload")
	}

	return nil
}

// WriteJSON serializes v as JSON with the provided status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a structured error response.
func Error(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorBody{Error: message})
}

// FieldErrors writes an error response that also lists per-field problems.
func FieldErrors(w http.ResponseWriter, status int, message string, fields any) {
	WriteJSON(w, status, ErrorBody{Error: message, Fields: fields})
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string `json:"error"`
	Fields any    `json:"fields,omitempty"`
}
