/*
Copyright © 2026 Kettlewitch <kettlewitch@posteo.net>
*/

package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"
)

// Sentinel errors for the two failure modes the API distinguishes from a
// plain storage fault. Anything else surfaces as a 500.
var (
	errNotFound   = errors.New("not found")
	errValidation = errors.New("invalid request")
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeError maps an operation error onto the API's status codes: 400 for
// validation failures, 404 for unresolved ids, 500 for everything else. The
// 500 path logs the diagnostic and hides it from the client.
func writeError(cfg *Config, w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, errValidation):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("%s | ERROR: %s: %v", time.Now().Format(logDate), message, err)
		writeJSONError(w, http.StatusInternalServerError, message)
	}
}
