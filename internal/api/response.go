package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"studiodesk/internal/domain"
	"studiodesk/internal/finance"

	"github.com/rs/zerolog"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case finance.IsValidation(err), errors.Is(err, finance.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, finance.ErrTerminalStatus), errors.Is(err, finance.ErrInvalidTransition), errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func validationFields(err error) map[string]string {
	var many finance.ValidationErrors
	if errors.As(err, &many) {
		return many.Fields()
	}
	var one finance.ValidationError
	if errors.As(err, &one) {
		return map[string]string{one.Field: one.Message}
	}
	return nil
}

func writeServiceError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	statusCode := statusFor(err)
	resp := errorResponse{Error: err.Error(), Fields: validationFields(err)}
	switch statusCode {
	case http.StatusBadRequest:
		resp.Error = "validation failed"
		if resp.Fields == nil {
			resp.Error = err.Error()
		}
	case http.StatusServiceUnavailable:
		resp.Error = domain.ErrStoreUnavailable.Error()
	case http.StatusInternalServerError:
		logger.Error().Err(err).Msg("unhandled service error")
		resp.Error = "internal error"
	}
	writeJSON(w, statusCode, resp)
}

// writeListError answers a failed listing. An unreachable store still yields
// an empty collection under key next to the error.
func writeListError(w http.ResponseWriter, logger zerolog.Logger, key string, err error) {
	if statusFor(err) != http.StatusServiceUnavailable {
		writeServiceError(w, logger, err)
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]any{
		key:     []any{},
		"error": domain.ErrStoreUnavailable.Error(),
	})
}
