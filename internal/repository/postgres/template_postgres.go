package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maxviazov/matchday-session-service/internal/model"
	"github.com/maxviazov/matchday-session-service/internal/repository"
)

type templateRepository struct{ pool *pgxpool.Pool }

func NewTemplateRepository(pool *pgxpool.Pool) repository.TemplateRepository {
	return &templateRepository{pool: pool}
}

func (r *templateRepository) FetchTemplates(ctx context.Context, teamID string) ([]model.SavedLineup, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	exec := getQ(ctx, r.pool)
	rows, err := exec.Query(ctx,
		`SELECT id, team_id, name, players, created_at, updated_at
		 FROM saved_lineups WHERE team_id = $1
		 ORDER BY name`, teamID,
	)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()
	out := make([]model.SavedLineup, 0)
	for rows.Next() {
		var t model.SavedLineup
		if err := rows.Scan(&t.ID, &t.TeamID, &t.Name, &t.Players, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, repository.MapPgError(err)
		}
		out = append(out, t)
	}
	return out, repository.MapPgError(rows.Err())
}

// UpsertTemplate matches on (team_id, name); an existing row keeps its id.
func (r *templateRepository) UpsertTemplate(ctx context.Context, t model.SavedLineup) (model.SavedLineup, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.SavedLineup{}, err
	}
	players := t.Players
	if players == nil {
		players = []model.TemplateEntry{}
	}
	exec := getQ(ctx, r.pool)
	row := exec.QueryRow(ctx,
		`INSERT INTO saved_lineups (id, team_id, name, players)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (team_id, name) DO UPDATE SET players = EXCLUDED.players, updated_at = now()
		 RETURNING id, team_id, name, players, created_at, updated_at`,
		t.ID, t.TeamID, t.Name, players,
	)
	var out model.SavedLineup
	if err := row.Scan(&out.ID, &out.TeamID, &out.Name, &out.Players, &out.CreatedAt, &out.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.SavedLineup{}, repository.ErrNotFound
		}
		return model.SavedLineup{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *templateRepository) DeleteTemplate(ctx context.Context, id string) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	exec := getQ(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM saved_lineups WHERE id = $1`, id)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.TemplateRepository = (*templateRepository)(nil)

// durableStore joins finished games and templates into the durable store contract.
type durableStore struct {
	repository.FinishedGameRepository
	repository.TemplateRepository
}

// NewDurableStore wires the Postgres-backed durable store.
func NewDurableStore(pool *pgxpool.Pool) repository.DurableStore {
	return &durableStore{
		FinishedGameRepository: NewGameRepository(pool),
		TemplateRepository:     NewTemplateRepository(pool),
	}
}
