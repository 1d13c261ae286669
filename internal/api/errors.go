package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/storytime/progress/internal/progress"
)

// Error codes
const (
	CodeNotFound           = "NOT_FOUND"
	CodeBadRequest         = "BAD_REQUEST"
	CodeUnknownGameType    = "UNKNOWN_GAME_TYPE"
	CodeInvalidScore       = "INVALID_SCORE"
	CodeInvalidPreferences = "INVALID_PREFERENCES"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInternal           = "INTERNAL_ERROR"
)

// Error is an API failure with the HTTP status it maps to.
type Error struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newNotFound(resource, id string) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s not found: %s", resource, id), Status: http.StatusNotFound}
}

func newBadRequest(message string, err error) *Error {
	return &Error{Code: CodeBadRequest, Message: message, Status: http.StatusBadRequest, Err: err}
}

// toAPIError maps engine errors onto API errors. Anything unrecognized is an
// internal error.
func toAPIError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, progress.ErrUnknownGameType):
		return &Error{Code: CodeUnknownGameType, Message: err.Error(), Status: http.StatusBadRequest, Err: err}
	case errors.Is(err, progress.ErrInvalidScore):
		return &Error{Code: CodeInvalidScore, Message: err.Error(), Status: http.StatusBadRequest, Err: err}
	case errors.Is(err, progress.ErrInvalidPreferences):
		return &Error{Code: CodeInvalidPreferences, Message: err.Error(), Status: http.StatusBadRequest, Err: err}
	case errors.Is(err, progress.ErrEmptyActivityID):
		return newBadRequest(err.Error(), err)
	}
	return &Error{Code: CodeInternal, Message: "internal server error", Status: http.StatusInternalServerError, Err: err}
}

// handleError writes err as a JSON error body and logs it at a level
// matching its status.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := zerolog.Ctx(r.Context())
	apiErr := toAPIError(err)

	switch {
	case apiErr.Status >= 500:
		log.Error().Err(apiErr).Msg("server error")
	case apiErr.Status >= 400:
		log.Warn().Err(apiErr).Msg("client error")
	}

	writeJSON(w, apiErr.Status, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
