package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"instore-payment-client/internal/core/domain"
)

// ErrorResponse is a standard structure for returning errors in JSON format.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeJSONError is a helper for sending errors in JSON format.
func writeJSONError(w http.ResponseWriter, message string, status int, logger *slog.Logger) {
	writeJSON(w, status, ErrorResponse{Error: message}, logger)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to write json response", "error", err)
	}
}

// statusFor maps an error to the HTTP status shown to API callers.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSubmissionInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStorageUnavailable),
		errors.Is(err, domain.ErrBrokerUnavailable):
		return http.StatusServiceUnavailable
	}

	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindCallbackMalformed:
		return http.StatusBadRequest
	case domain.KindPartnerRejection:
		return http.StatusUnprocessableEntity
	case domain.KindTransport:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError writes err with its mapped status. Internal errors are logged
// and replaced by a generic message.
func respondError(w http.ResponseWriter, err error, logger *slog.Logger) {
	status := statusFor(err)
	kind := domain.KindOf(err)

	message := domain.PublicMessage(err)
	switch status {
	case http.StatusServiceUnavailable:
		logger.Warn("temporary failure in external dependency", "error", err)
		message = "service temporarily unavailable"
	case http.StatusConflict:
		message = err.Error()
	case http.StatusInternalServerError:
		logger.Error("unexpected error", "error", err)
		message = "internal server error"
	}

	writeJSON(w, status, ErrorResponse{Error: message, Kind: string(kind)}, logger)
}
