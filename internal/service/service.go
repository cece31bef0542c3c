// Package service holds business logic orchestration across repositories and handlers.
// Kept intentionally lean: only use-case coordination, validation and domain error shaping.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/maxviazov/matchday-session-service/internal/model"
	"github.com/maxviazov/matchday-session-service/internal/repository"
	"github.com/maxviazov/matchday-session-service/internal/session"
)

// ErrInvalidInput is the marker error for aggregated validation failures (maps to HTTP 400).
// Field-level details are retrieved via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

var (
	// ErrGameNotFound means the game id is in neither the volatile nor the durable collection.
	ErrGameNotFound = errors.New("game not found")
	// ErrTemplateNotFound means no saved lineup with that name exists for the team.
	ErrTemplateNotFound = errors.New("saved lineup not found")
	// ErrPlayerNotFound means the roster has no such player.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrPersistence is matched by every *PersistenceError.
	ErrPersistence = errors.New("persistence failed")
)

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidInputError aggregates multiple FieldError instances and unwraps to ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

// newInvalidInput builds an aggregated validation error if any field errors are present.
func newInvalidInput(fe []FieldError) error {
	if len(fe) == 0 { // protective case
		return nil
	}
	return &invalidInputError{fields: fe}
}

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	type feIface interface{ Fields() []FieldError }
	if v, ok := err.(feIface); ok && errors.Is(err, ErrInvalidInput) {
		return v.Fields()
	}
	return nil
}

// PersistenceError is a failed durable write or delete. The in-memory state
// it was meant to confirm has already been rolled back when it is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func persistenceErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// SessionService owns every team's live game registry.
type SessionService interface {
	// Load re-reads both stores for the team and reconciles them.
	Load(ctx context.Context, teamID string) ([]session.Warning, error)
	ListGames(ctx context.Context, teamID string, page repository.Page) (repository.PageResult[model.Game], error)
	GetGame(ctx context.Context, teamID, gameID string) (model.Game, error)

	CreateGame(ctx context.Context, teamID string, d session.Details) (model.Game, error)
	UpdateGame(ctx context.Context, teamID, gameID string, d session.Details) (model.Game, error)
	DeleteGame(ctx context.Context, teamID, gameID string) error

	StartClock(ctx context.Context, teamID, gameID string) (model.Game, error)
	StopClock(ctx context.Context, teamID, gameID string) (model.Game, error)
	MovePlayer(ctx context.Context, teamID, gameID, playerID string, to model.Location, pos *model.Position) (model.Game, error)
	SwapPlayers(ctx context.Context, teamID, gameID, aID, bID string) (model.Game, error)
	AddGoal(ctx context.Context, teamID, gameID string, team model.Side, scorerID, assistID *string) (model.Game, error)
	RemoveLastGoal(ctx context.Context, teamID, gameID string, team model.Side) (model.Game, error)

	StagePlan(ctx context.Context, teamID, gameID, benchID, fieldID string, pos model.Position) ([]session.PlanEntry, error)
	UnstagePlan(ctx context.Context, teamID, gameID, benchID string) ([]session.PlanEntry, error)
	PendingPlan(ctx context.Context, teamID, gameID string) ([]session.PlanEntry, error)
	CancelPlan(ctx context.Context, teamID, gameID string) error
	CommitPlan(ctx context.Context, teamID, gameID string) (model.Game, error)

	FinishGame(ctx context.Context, teamID, gameID string) (model.Game, error)
	ResetGame(ctx context.Context, teamID, gameID string) (model.Game, error)

	ClockSnapshot(ctx context.Context, teamID, gameID string) (model.ClockSnapshot, error)
	PlayerPlaytime(ctx context.Context, teamID, gameID, playerID string) (int, error)
	History(ctx context.Context, teamID string) (model.GameHistory, error)

	// PlayerRemoved strips a deleted player from every loaded game of the team.
	PlayerRemoved(ctx context.Context, teamID, playerID string) error
	// OnChange registers a listener called after every successful mutation.
	OnChange(fn ChangeListener)
}

// ChangeListener observes a game after a mutation. It runs with the service lock released.
type ChangeListener func(teamID string, g model.Game)

// TemplateService manages saved lineups and the per-team lineup draft they apply to.
type TemplateService interface {
	ListTemplates(ctx context.Context, teamID string) ([]model.SavedLineup, error)
	SaveTemplate(ctx context.Context, teamID, name string) (model.SavedLineup, error)
	LoadTemplate(ctx context.Context, teamID, name string) ([]model.TemplateEntry, error)
	DeleteTemplate(ctx context.Context, teamID, name string) error

	Draft(ctx context.Context, teamID string) ([]model.TemplateEntry, error)
	MoveDraft(ctx context.Context, teamID, playerID string, to model.Location, pos *model.Position) ([]model.TemplateEntry, error)
	SwapDraft(ctx context.Context, teamID, aID, bID string) ([]model.TemplateEntry, error)
	ResetDraft(ctx context.Context, teamID string) ([]model.TemplateEntry, error)

	PlayerRemoved(ctx context.Context, teamID, playerID string) error
}

// RosterService is the read side of the roster plus the removal notification.
type RosterService interface {
	ListPlayers(ctx context.Context, teamID string, page repository.Page) (repository.PageResult[model.Player], error)
	SearchPlayers(ctx context.Context, teamID, query string) ([]model.Player, error)
	RemovePlayer(ctx context.Context, teamID, playerID string) error
	Subscribe(s RemovalSubscriber)
}

// RemovalSubscriber is notified synchronously after a player is deleted.
type RemovalSubscriber interface {
	PlayerRemoved(ctx context.Context, teamID, playerID string) error
}
