package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"petkart/internal/model"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeDomainError maps the error taxonomy onto HTTP responses.
// Validation failures carry every offending field; finalization
// conflicts are terminal and map to 409.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var fieldErrs model.ValidationErrors
	if errors.As(err, &fieldErrs) {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error:   model.ErrCodeValidation,
			Message: "one or more fields are invalid",
			Fields:  fieldErrs,
		})
		return
	}

	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		status := http.StatusBadRequest
		switch domainErr.Code {
		case model.ErrCodeAlreadyPaid, model.ErrCodeOrderNotFound:
			status = http.StatusConflict
		case model.ErrCodeChallengeExpired:
			status = http.StatusGone
		case model.ErrCodeLineNotFound:
			status = http.StatusNotFound
		}
		logger.Warn().Str("code", domainErr.Code).Str("error", domainErr.Message).Msg("domain error")
		writeJSON(w, status, model.ErrorResponse{Error: domainErr.Code, Message: domainErr.Message})
		return
	}

	writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "internal error", logger)
}
