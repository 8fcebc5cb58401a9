package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes data as the response body. Session state changes with every
// guess, so no response may be served from a cache.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Created writes a 201 with data as the body
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}
