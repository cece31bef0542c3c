package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maxviazov/matchday-session-service/internal/model"
	"github.com/maxviazov/matchday-session-service/internal/repository"
)

type gameRepository struct {
	pool *pgxpool.Pool
	tx   repository.TxManager
}

func NewGameRepository(pool *pgxpool.Pool) repository.FinishedGameRepository {
	return &gameRepository{pool: pool, tx: NewTxManager(pool)}
}

var lineupColumns = []string{
	"game_id", "player_id", "ordinal", "location", "position_x", "position_y",
	"initial_x", "initial_y", "playtime_seconds", "is_starter", "subbed_on_count", "subbed_off_count",
}

var eventColumns = []string{
	"id", "game_id", "event_type", "team", "scorer_player_id", "assist_player_id",
	"player_in_id", "player_out_id", "occurred_at", "game_seconds",
}

func (r *gameRepository) FetchFinished(ctx context.Context, teamID string) ([]model.Game, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	exec := getQ(ctx, r.pool)

	rows, err := exec.Query(ctx,
		`SELECT id, team_id, opponent, game_date, game_time, location, season, competition,
		        home_score, away_score, timer_elapsed_seconds, is_finished, created_at
		 FROM games WHERE team_id = $1
		 ORDER BY game_date DESC, game_time DESC, id`, teamID,
	)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	games := make([]model.Game, 0)
	index := make(map[string]int)
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.TeamID, &g.Opponent, &g.Date, &g.Time, &g.Location, &g.Season, &g.Competition,
			&g.HomeScore, &g.AwayScore, &g.TimerElapsedSeconds, &g.IsFinished, &g.CreatedAt); err != nil {
			rows.Close()
			return nil, repository.MapPgError(err)
		}
		g.TimerStatus = model.TimerStopped
		g.StorageClass = model.StorageDurable
		g.Lineup = []model.PlayerLineupState{}
		g.Events = []model.GameEvent{}
		index[g.ID] = len(games)
		games = append(games, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, repository.MapPgError(err)
	}
	if len(games) == 0 {
		return games, nil
	}

	if err := r.scanLineups(ctx, exec, teamID, games, index); err != nil {
		return nil, err
	}
	if err := r.scanEvents(ctx, exec, teamID, games, index); err != nil {
		return nil, err
	}
	return games, nil
}

func (r *gameRepository) scanLineups(ctx context.Context, exec q, teamID string, games []model.Game, index map[string]int) error {
	rows, err := exec.Query(ctx,
		`SELECT l.game_id, l.player_id, l.location, l.position_x, l.position_y, l.initial_x, l.initial_y,
		        l.playtime_seconds, l.is_starter, l.subbed_on_count, l.subbed_off_count
		 FROM game_lineups l JOIN games g ON g.id = l.game_id
		 WHERE g.team_id = $1
		 ORDER BY l.game_id, l.ordinal`, teamID,
	)
	if err != nil {
		return repository.MapPgError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			gameID             string
			p                  model.PlayerLineupState
			posX, posY, iX, iY *float64
		)
		if err := rows.Scan(&gameID, &p.PlayerID, &p.Location, &posX, &posY, &iX, &iY,
			&p.PlaytimeSeconds, &p.IsStarter, &p.SubbedOnCount, &p.SubbedOffCount); err != nil {
			return repository.MapPgError(err)
		}
		p.Position = toPosition(posX, posY)
		p.InitialPosition = toPosition(iX, iY)
		if i, ok := index[gameID]; ok {
			games[i].Lineup = append(games[i].Lineup, p)
		}
	}
	return repository.MapPgError(rows.Err())
}

func (r *gameRepository) scanEvents(ctx context.Context, exec q, teamID string, games []model.Game, index map[string]int) error {
	rows, err := exec.Query(ctx,
		`SELECT e.game_id, e.id, e.event_type, e.team, e.scorer_player_id, e.assist_player_id,
		        e.player_in_id, e.player_out_id, e.occurred_at, e.game_seconds
		 FROM game_events e JOIN games g ON g.id = e.game_id
		 WHERE g.team_id = $1
		 ORDER BY e.game_id, e.game_seconds, e.occurred_at`, teamID,
	)
	if err != nil {
		return repository.MapPgError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			gameID string
			ev     model.GameEvent
		)
		if err := rows.Scan(&gameID, &ev.ID, &ev.Type, &ev.Team, &ev.ScorerPlayerID, &ev.AssistPlayerID,
			&ev.PlayerInID, &ev.PlayerOutID, &ev.Timestamp, &ev.GameSeconds); err != nil {
			return repository.MapPgError(err)
		}
		if i, ok := index[gameID]; ok {
			games[i].Events = append(games[i].Events, ev)
		}
	}
	return repository.MapPgError(rows.Err())
}

// UpsertFinished writes the game row, then replaces its lineup and events.
func (r *gameRepository) UpsertFinished(ctx context.Context, g model.Game) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	createdAt := g.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		exec := getQ(ctx, r.pool)
		if _, err := exec.Exec(ctx,
			`INSERT INTO games (id, team_id, opponent, game_date, game_time, location, season, competition,
			                    home_score, away_score, timer_elapsed_seconds, is_finished, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			 ON CONFLICT (id) DO UPDATE SET
			     opponent = EXCLUDED.opponent,
			     game_date = EXCLUDED.game_date,
			     game_time = EXCLUDED.game_time,
			     location = EXCLUDED.location,
			     season = EXCLUDED.season,
			     competition = EXCLUDED.competition,
			     home_score = EXCLUDED.home_score,
			     away_score = EXCLUDED.away_score,
			     timer_elapsed_seconds = EXCLUDED.timer_elapsed_seconds,
			     is_finished = EXCLUDED.is_finished,
			     updated_at = now()`,
			g.ID, g.TeamID, g.Opponent, g.Date, g.Time, string(g.Location), g.Season, g.Competition,
			g.HomeScore, g.AwayScore, g.TimerElapsedSeconds, g.IsFinished, createdAt,
		); err != nil {
			return err
		}
		if _, err := exec.Exec(ctx, `DELETE FROM game_lineups WHERE game_id = $1`, g.ID); err != nil {
			return err
		}
		if _, err := exec.Exec(ctx, `DELETE FROM game_events WHERE game_id = $1`, g.ID); err != nil {
			return err
		}

		if len(g.Lineup) > 0 {
			rows := make([][]any, 0, len(g.Lineup))
			for i, p := range g.Lineup {
				posX, posY := fromPosition(p.Position)
				iX, iY := fromPosition(p.InitialPosition)
				rows = append(rows, []any{
					g.ID, p.PlayerID, i, string(p.Location), posX, posY, iX, iY,
					p.PlaytimeSeconds, p.IsStarter, p.SubbedOnCount, p.SubbedOffCount,
				})
			}
			if _, err := exec.CopyFrom(ctx, pgx.Identifier{"game_lineups"}, lineupColumns, pgx.CopyFromRows(rows)); err != nil {
				return err
			}
		}
		if len(g.Events) > 0 {
			rows := make([][]any, 0, len(g.Events))
			for _, ev := range g.Events {
				rows = append(rows, []any{
					ev.ID, g.ID, string(ev.Type), string(ev.Team), ev.ScorerPlayerID, ev.AssistPlayerID,
					ev.PlayerInID, ev.PlayerOutID, ev.Timestamp, ev.GameSeconds,
				})
			}
			if _, err := exec.CopyFrom(ctx, pgx.Identifier{"game_events"}, eventColumns, pgx.CopyFromRows(rows)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *gameRepository) DeleteFinished(ctx context.Context, id string) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	exec := getQ(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func toPosition(x, y *float64) *model.Position {
	if x == nil || y == nil {
		return nil
	}
	return &model.Position{X: *x, Y: *y}
}

func fromPosition(p *model.Position) (*float64, *float64) {
	if p == nil {
		return nil, nil
	}
	x, y := p.X, p.Y
	return &x, &y
}

var _ repository.FinishedGameRepository = (*gameRepository)(nil)
