package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/assetra/tradecore/internal/domain"
)

// WriteJSON writes a JSON response with the given status code and data.
// Sets Content-Type to application/json before writing the status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data) // Write error intentionally ignored in response helper
}

// errorResponse is the standard error response format.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a standard error response with the given status
// code, error code, and human-readable message.
func WriteError(w http.ResponseWriter, status int, errorCode, message string) {
	WriteJSON(w, status, errorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// ParseJSON decodes the request body as JSON into v, rejecting unknown
// fields and non-JSON content types.
func ParseJSON(r *http.Request, v any) error {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("request body must be valid JSON with Content-Type: application/json")
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("request body must be valid JSON with Content-Type: application/json")
	}
	return nil
}

// MapDomainError translates domain errors to HTTP responses.
func MapDomainError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	var notFoundErr *domain.NotFoundError
	if errors.As(err, &notFoundErr) {
		WriteError(w, http.StatusNotFound, notFoundErr.Entity+"_not_found", err.Error())
		return
	}

	var stateErr *domain.InvalidStateError
	if errors.As(err, &stateErr) {
		WriteError(w, http.StatusConflict, "invalid_state", err.Error())
		return
	}

	var supplyErr *domain.InsufficientSupplyError
	if errors.As(err, &supplyErr) {
		WriteError(w, http.StatusConflict, "insufficient_supply", err.Error())
		return
	}

	if errors.Is(err, domain.ErrAssetNotFound) {
		WriteError(w, http.StatusNotFound, "asset_not_found", err.Error())
		return
	}

	WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
}
