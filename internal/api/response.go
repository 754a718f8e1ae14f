// Package api implements HTTP handlers for the rate matching service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"ratematch/internal/facts"
	"ratematch/internal/rates"
	"ratematch/internal/service"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error" example:"unknown symbol: XYZ"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps service and table errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var unavailable *rates.SourceUnavailableError
	switch {
	case errors.Is(err, rates.ErrUnknownSymbol),
		errors.Is(err, rates.ErrInvalidValue),
		errors.Is(err, rates.ErrUnknownClass),
		errors.Is(err, service.ErrInvalidJobID):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, rates.ErrNoData), errors.Is(err, facts.ErrFactsDisabled):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	case errors.As(err, &unavailable):
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "Rate source unavailable"})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
	}
}
