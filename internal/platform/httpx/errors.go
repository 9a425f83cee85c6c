package httpx

import (
	"errors"
	"net/http"
)

// Decode errors.
var (
	ErrEmptyBody     = errors.New("empty request body")
	ErrMalformedBody = errors.New("Invalid JSON body")
)

// MethodNotAllowed answers with a JSON 405.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	Fail(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
}

// NotFound answers with a JSON 404.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	Fail(w, http.StatusNotFound, "Not found", nil)
}
