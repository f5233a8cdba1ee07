package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"policymitr-client/internal/api"
	"policymitr-client/internal/auth"
	"policymitr-client/internal/models"
)

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return false
	}
	return true
}

// handleBackendError maps a failed backend call onto the bridge's envelope.
// Client errors from the backend keep their status; anything else means the
// backend could not be reached or failed.
func handleBackendError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *api.Error
	switch {
	case errors.Is(err, auth.ErrNoSession), errors.Is(err, auth.ErrTokenExpired):
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", err.Error(), r))
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound:
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", apiErr.Message, r))
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		writeJSON(w, apiErr.StatusCode, errorResp("BACKEND_REJECTED", apiErr.Message, r))
	default:
		writeJSON(w, http.StatusBadGateway, errorResp("BACKEND_UNAVAILABLE", "The policy backend is unavailable", r))
	}
}
