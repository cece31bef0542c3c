package repository

import (
	"context"

	"github.com/maxviazov/matchday-session-service/internal/model"
)

// Pinger represents a minimal readiness probe capability.
// I use it to decouple health checks from storage implementation details.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxFunc is the unit of work executed within a transaction boundary.
// I pass context through so nested calls can honor cancellations and deadlines.
type TxFunc func(ctx context.Context) error

// TxManager abstracts transactional execution for repositories that support it.
// I prefer a single entry point to keep transaction boundaries explicit and testable.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// VolatileStore keeps a team's in-progress games. It is written as a whole
// collection after every mutation, keyed by game id inside the collection.
type VolatileStore interface {
	LoadAll(ctx context.Context, teamID string) ([]model.Game, error)
	SaveAll(ctx context.Context, teamID string, games []model.Game) error
}

// FinishedGameRepository persists finished games with their lineup and events.
type FinishedGameRepository interface {
	FetchFinished(ctx context.Context, teamID string) ([]model.Game, error)
	// UpsertFinished replaces the stored game, lineup and events in one unit.
	UpsertFinished(ctx context.Context, g model.Game) error
	DeleteFinished(ctx context.Context, id string) error
}

// TemplateRepository persists saved lineups. Names are unique per team and
// UpsertTemplate matches on (team, name).
type TemplateRepository interface {
	FetchTemplates(ctx context.Context, teamID string) ([]model.SavedLineup, error)
	UpsertTemplate(ctx context.Context, t model.SavedLineup) (model.SavedLineup, error)
	DeleteTemplate(ctx context.Context, id string) error
}

// DurableStore is the authoritative store: finished games and templates.
type DurableStore interface {
	FinishedGameRepository
	TemplateRepository
}

// PlayerRepository reads and removes roster players.
// I return domain models and surface domain errors from errors.go rather than PG codes.
type PlayerRepository interface {
	GetByID(ctx context.Context, id string) (model.Player, error)
	ListByTeam(ctx context.Context, teamID string, p Page) (PageResult[model.Player], error)
	Delete(ctx context.Context, id string) error
}
