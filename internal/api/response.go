// Package api contains the HTTP layer: routing, request binding, error
// mapping, and response formatting.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"paywatch/transaction-api/internal/reporting"
	"paywatch/transaction-api/internal/store"
)

// envelope is the standard wrapper for all API responses.
// Success responses set `error` to nil; error responses set `data` to nil.
type envelope struct {
	Data  any       `json:"data,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out; nothing left to send the client.
		slog.Error("response encode failed", "error", err)
	}
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Data: data})
}

func created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, envelope{Data: data})
}

func badRequest(w http.ResponseWriter, code, message string) {
	writeJSON(w, http.StatusBadRequest, envelope{Error: &apiError{Code: code, Message: message}})
}

func notFound(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusNotFound, envelope{Error: &apiError{Code: "NOT_FOUND", Message: message}})
}

func conflict(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusConflict, envelope{Error: &apiError{Code: "CONFLICT", Message: message}})
}

func internalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, envelope{
		Error: &apiError{Code: "INTERNAL_ERROR", Message: "an unexpected error occurred"},
	})
}

// respondError maps the service error taxonomy onto HTTP statuses:
// invalid input -> 400, unknown transaction -> 404, duplicate -> 409,
// anything else is a store failure -> 500. Store failures are logged and
// never retried here; retry policy belongs to the caller.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reporting.ErrInvalidInput):
		badRequest(w, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, store.ErrNotFound):
		notFound(w, err.Error())
	case errors.Is(err, store.ErrDuplicateTransaction):
		conflict(w, err.Error())
	default:
		slog.Error("request failed", "error", err)
		internalError(w)
	}
}
