// Package response centralizes HTTP response shapes and helpers.
// Handlers rely on it to keep controllers thin and uniform.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/matchday-session-service/internal/lineup"
	"github.com/maxviazov/matchday-session-service/internal/repository"
	"github.com/maxviazov/matchday-session-service/internal/service"
	"github.com/maxviazov/matchday-session-service/internal/session"
)

// ErrorPayload is the canonical error envelope returned by the API.
type ErrorPayload struct {
	Error       string               `json:"error"`
	Message     string               `json:"message,omitempty"`
	FieldErrors []service.FieldError `json:"field_errors,omitempty"`
}

// MapError converts a domain / infrastructure error into an HTTP status and payload.
// Extend here as new domain error categories emerge.
func MapError(err error) (int, ErrorPayload) {
	if err == nil {
		return http.StatusOK, ErrorPayload{Error: "ok"}
	}

	if errors.Is(err, service.ErrInvalidInput) {
		return http.StatusBadRequest, ErrorPayload{
			Error:       "invalid_input",
			Message:     "one or more fields are invalid",
			FieldErrors: service.FieldErrors(err),
		}
	}

	// a failed durable write has already been rolled back; the client may retry
	if errors.Is(err, service.ErrPersistence) {
		return http.StatusServiceUnavailable, ErrorPayload{Error: "persistence_failed", Message: err.Error()}
	}

	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return http.StatusNotFound, ErrorPayload{Error: "game_not_found"}
	case errors.Is(err, service.ErrTemplateNotFound):
		return http.StatusNotFound, ErrorPayload{Error: "lineup_not_found"}
	case errors.Is(err, service.ErrPlayerNotFound), errors.Is(err, lineup.ErrUnknownPlayer):
		return http.StatusNotFound, ErrorPayload{Error: "player_not_found"}
	case errors.Is(err, session.ErrPlayerNotInLineup):
		return http.StatusNotFound, ErrorPayload{Error: "player_not_in_lineup"}
	case errors.Is(err, session.ErrFinished):
		return http.StatusConflict, ErrorPayload{Error: "game_finished", Message: "finished games can't be changed"}
	case errors.Is(err, session.ErrInvalidTransition):
		return http.StatusConflict, ErrorPayload{Error: "invalid_transition"}
	case errors.Is(err, session.ErrInvalidMove), errors.Is(err, lineup.ErrInvalidLocation):
		return http.StatusBadRequest, ErrorPayload{Error: "invalid_move"}
	case errors.Is(err, session.ErrInvalidPosition), errors.Is(err, lineup.ErrInvalidPosition):
		return http.StatusBadRequest, ErrorPayload{Error: "invalid_position"}
	case errors.Is(err, session.ErrInvalidTeam):
		return http.StatusBadRequest, ErrorPayload{Error: "invalid_team"}
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, ErrorPayload{Error: "not_found"}
	case errors.Is(err, repository.ErrAlreadyExists):
		return http.StatusConflict, ErrorPayload{Error: "already_exists"}
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, ErrorPayload{Error: "conflict"}
	case errors.Is(err, repository.ErrInvalidRecord):
		return http.StatusUnprocessableEntity, ErrorPayload{Error: "invalid_record"}
	default:
		return http.StatusInternalServerError, ErrorPayload{Error: "internal_error"}
	}
}

// WriteError writes an error response and aborts the context.
func WriteError(c *gin.Context, err error) {
	status, payload := MapError(err)
	c.AbortWithStatusJSON(status, payload)
}

// WriteData writes a successful JSON response.
func WriteData(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}
