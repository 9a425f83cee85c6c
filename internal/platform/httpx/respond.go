// Package httpx provides JSON response utilities for the {success, error}
// envelope.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// MaxBodyBytes caps inbound JSON bodies.
const MaxBodyBytes = 1 << 20

// Envelope is the failure body. Extra fields are merged in by Fail.
type Envelope map[string]any

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Fail sends {"success": false, "error": message} plus extra.
func Fail(w http.ResponseWriter, status int, message string, extra Envelope) {
	body := Envelope{"success": false, "error": message}
	for k, v := range extra {
		body[k] = v
	}
	JSON(w, status, body)
}

// OK sends {"success": true} plus fields.
func OK(w http.ResponseWriter, status int, fields Envelope) {
	body := Envelope{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	JSON(w, status, body)
}

// DecodeJSON decodes the request body into target. An empty body yields
// ErrEmptyBody, malformed JSON ErrMalformedBody.
func DecodeJSON(r *http.Request, target any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	err := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes)).Decode(target)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return ErrEmptyBody
	}
	return errors.Join(ErrMalformedBody, err)
}
