package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/maxviazov/matchday-session-service/internal/model"
	"github.com/maxviazov/matchday-session-service/internal/repository"
	"github.com/maxviazov/matchday-session-service/internal/session"
)

// teamState is one team's reconciled registry. A game id lives in exactly one
// of volatile or durable.
type teamState struct {
	volatile map[string]*session.Volatile
	durable  map[string]session.Durable
	plans    map[string]*session.Plan
}

func newTeamState() *teamState {
	return &teamState{
		volatile: make(map[string]*session.Volatile),
		durable:  make(map[string]session.Durable),
		plans:    make(map[string]*session.Plan),
	}
}

// lookup returns the session for id in either collection.
func (st *teamState) lookup(id string) (session.Session, error) {
	if v, ok := st.volatile[id]; ok {
		return v, nil
	}
	if d, ok := st.durable[id]; ok {
		return d, nil
	}
	return nil, ErrGameNotFound
}

// editable returns the in-progress session for id. Finished games yield ErrFinished.
func (st *teamState) editable(id string) (*session.Volatile, error) {
	if v, ok := st.volatile[id]; ok {
		return v, nil
	}
	if _, ok := st.durable[id]; ok {
		return nil, session.ErrFinished
	}
	return nil, ErrGameNotFound
}

func (st *teamState) plan(id string) *session.Plan {
	p, ok := st.plans[id]
	if !ok {
		p = session.NewPlan()
		st.plans[id] = p
	}
	return p
}

func (st *teamState) games() []model.Game {
	out := make([]model.Game, 0, len(st.volatile)+len(st.durable))
	for _, v := range st.volatile {
		out = append(out, v.Game())
	}
	for _, d := range st.durable {
		out = append(out, d.Game())
	}
	session.SortGames(out)
	return out
}

func (st *teamState) volatileGames() []model.Game {
	out := make([]model.Game, 0, len(st.volatile))
	for _, v := range st.volatile {
		out = append(out, v.Game())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type sessionService struct {
	mu        sync.Mutex
	teams     map[string]*teamState
	listeners []ChangeListener

	volatile repository.VolatileStore
	durable  repository.DurableStore
	players  repository.PlayerRepository
	clock    clockwork.Clock
	log      zerolog.Logger
}

func NewSessionService(volatile repository.VolatileStore, durable repository.DurableStore, players repository.PlayerRepository, clock clockwork.Clock, logger zerolog.Logger) SessionService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	l := logger.With().Str("module", "service").Str("component", "session").Logger()
	return &sessionService{
		teams:    make(map[string]*teamState),
		volatile: volatile,
		durable:  durable,
		players:  players,
		clock:    clock,
		log:      l,
	}
}

func (s *sessionService) now() time.Time { return s.clock.Now().UTC() }

func (s *sessionService) OnChange(fn ChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *sessionService) notify(teamID string, games ...model.Game) {
	s.mu.Lock()
	listeners := append([]ChangeListener(nil), s.listeners...)
	s.mu.Unlock()
	for _, g := range games {
		for _, fn := range listeners {
			fn(teamID, g)
		}
	}
}

// state returns the team's registry, loading it on first use. Caller holds s.mu.
func (s *sessionService) state(ctx context.Context, teamID string) (*teamState, error) {
	if err := requireID("team_id", teamID); err != nil {
		return nil, err
	}
	if st, ok := s.teams[teamID]; ok {
		return st, nil
	}
	st, _, err := s.load(ctx, teamID)
	return st, err
}

// load reconciles both stores into a fresh registry. A volatile read failure
// is treated as an empty collection; a durable read failure aborts.
func (s *sessionService) load(ctx context.Context, teamID string) (*teamState, []session.Warning, error) {
	durable, err := s.durable.FetchFinished(ctx, teamID)
	if err != nil {
		s.log.Error().Err(err).Str("team_id", teamID).Msg("fetch finished games failed")
		return nil, nil, persistenceErr("fetch finished games", err)
	}
	volatile, err := s.volatile.LoadAll(ctx, teamID)
	if err != nil {
		s.log.Warn().Err(err).Str("team_id", teamID).Msg("volatile load failed, treating as empty")
		volatile = nil
	}

	players, err := s.rosterPlayers(ctx, teamID)
	var roster session.Roster
	if err != nil {
		s.log.Warn().Err(err).Str("team_id", teamID).Msg("roster unavailable, skipping reference checks")
	} else {
		roster = session.NewRoster(players)
	}

	merged := session.Merge(volatile, durable, roster)
	for _, w := range merged.Warnings {
		s.log.Warn().Str("team_id", teamID).Str("game_id", w.GameID).Msg(w.Reason)
	}

	st := newTeamState()
	dirty := len(merged.Warnings) > 0
	for _, v := range merged.Volatile {
		if session.PhaseOf(v.Game()) == session.PhaseNotStarted {
			for _, p := range players {
				if v.AddPlayer(p.ID) {
					dirty = true
				}
			}
		}
		st.volatile[v.ID()] = v
	}
	for _, d := range merged.Durable {
		st.durable[d.ID()] = d
	}
	s.teams[teamID] = st

	if dirty {
		_ = s.persist(ctx, teamID, st)
	}
	s.log.Debug().Str("team_id", teamID).
		Int("volatile", len(st.volatile)).
		Int("durable", len(st.durable)).
		Int("warnings", len(merged.Warnings)).
		Msg("team sessions loaded")
	return st, merged.Warnings, nil
}

func (s *sessionService) rosterPlayers(ctx context.Context, teamID string) ([]model.Player, error) {
	return fetchRoster(ctx, s.players, teamID)
}

// persist writes the team's in-progress games to the volatile store.
// Failures are logged; the in-memory registry stays authoritative.
func (s *sessionService) persist(ctx context.Context, teamID string, st *teamState) error {
	if err := s.volatile.SaveAll(ctx, teamID, st.volatileGames()); err != nil {
		s.log.Error().Err(err).Str("team_id", teamID).Msg("volatile save failed")
		return err
	}
	return nil
}

// mutate runs fn against an editable session, persists and notifies.
func (s *sessionService) mutate(ctx context.Context, teamID, gameID, op string, fn func(v *session.Volatile, now time.Time) error) (model.Game, error) {
	s.mu.Lock()
	st, err := s.state(ctx, teamID)
	if err != nil {
		s.mu.Unlock()
		return model.Game{}, err
	}
	v, err := st.editable(gameID)
	if err != nil {
		s.mu.Unlock()
		s.logRejected(op, teamID, gameID, err)
		return model.Game{}, err
	}
	if err := fn(v, s.now()); err != nil {
		s.mu.Unlock()
		s.logRejected(op, teamID, gameID, err)
		return model.Game{}, err
	}
	_ = s.persist(ctx, teamID, st)
	g := v.Game()
	s.mu.Unlock()

	s.log.Debug().Str("team_id", teamID).Str("game_id", gameID).Str("op", op).Msg("session updated")
	s.notify(teamID, g)
	return g, nil
}

func (s *sessionService) logRejected(op, teamID, gameID string, err error) {
	ev := s.log.Debug()
	if errors.Is(err, ErrGameNotFound) {
		ev = s.log.Warn()
	}
	ev.Err(err).Str("team_id", teamID).Str("game_id", gameID).Str("op", op).Msg("operation rejected")
}

func (s *sessionService) Load(ctx context.Context, teamID string) ([]session.Warning, error) {
	if err := requireID("team_id", teamID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, warnings, err := s.load(ctx, teamID)
	return warnings, err
}

func (s *sessionService) ListGames(ctx context.Context, teamID string, page repository.Page) (repository.PageResult[model.Game], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.state(ctx, teamID)
	if err != nil {
		return repository.PageResult[model.Game]{}, err
	}
	return repository.Paginate(st.games(), normalizePage(page)), nil
}

func (s *sessionService) GetGame(ctx context.Context, teamID, gameID string) (model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.state(ctx, teamID)
	if err != nil {
		return model.Game{}, err
	}
	sess, err := st.lookup(gameID)
	if err != nil {
		return model.Game{}, err
	}
	return sess.Game(), nil
}

func (s *sessionService) CreateGame(ctx context.Context, teamID string, d session.Details) (model.Game, error) {
	d = normalizeDetails(d)
	if err := validateDetails(d); err != nil {
		s.log.Debug().Interface("field_errors", FieldErrors(err)).Msg("game validation failed")
		return model.Game{}, err
	}

	s.mu.Lock()
	st, err := s.state(ctx, teamID)
	if err != nil {
		s.mu.Unlock()
		return model.Game{}, err
	}
	players, err := s.rosterPlayers(ctx, teamID)
	if err != nil {
		s.mu.Unlock()
		s.log.Error().Err(err).Str("team_id", teamID).Msg("roster read failed")
		return model.Game{}, err
	}
	v := session.NewVolatile(session.NewGame(uuid.NewString(), teamID, d, players, s.now()))
	st.volatile[v.ID()] = v
	_ = s.persist(ctx, teamID, st)
	g := v.Game()
	s.mu.Unlock()

	s.log.Info().Str("team_id", teamID).Str("game_id", g.ID).Str("opponent", g.Opponent).Msg("game created")
	s.notify(teamID, g)
	return g, nil
}

func (s *sessionService) UpdateGame(ctx context.Context, teamID, gameID string, d session.Details) (model.Game, error) {
	d = normalizeDetails(d)
	if err := validateDetails(d); err != nil {
		return model.Game{}, err
	}
	return s.mutate(ctx, teamID, gameID, "update", func(v *session.Volatile, _ time.Time) error {
		return v.UpdateDetails(d)
	})
}

// DeleteGame removes an in-progress game from the volatile store, or a
// finished one from the durable store. A failed durable delete keeps the game.
func (s *sessionService) DeleteGame(ctx context.Context, teamID, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.state(ctx, teamID)
	if err != nil {
		return err
	}
	if _, ok := st.volatile[gameID]; ok {
		delete(st.volatile, gameID)
		delete(st.plans, gameID)
		_ = s.persist(ctx, teamID, st)
		s.log.Info().Str("team_id", teamID).Str("game_id", gameID).Msg("volatile game deleted")
		return nil
	}
	if _, ok := st.durable[gameID]; !ok {
		s.logRejected("delete", teamID, gameID, ErrGameNotFound)
		return ErrGameNotFound
	}
	if err := s.durable.DeleteFinished(ctx, gameID); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Error().Err(err).Str("team_id", teamID).Str("game_id", gameID).Msg("delete finished game failed")
			return persistenceErr("delete finished game", err)
		}
		s.log.Warn().Str("team_id", teamID).Str("game_id", gameID).Msg("finished game already absent from durable store")
	}
	delete(st.durable, gameID)
	s.log.Info().Str("team_id", teamID).Str("game_id", gameID).Msg("finished game deleted")
	return nil
}

func (s *sessionService) StartClock(ctx context.Context, teamID, gameID string) (model.Game, error) {
	return s.mutate(ctx, teamID, gameID, "start_clock", func(v *session.Volatile, now time.Time) error {
		kickoff, err := v.StartClock(now)
		if err != nil {
			return err
		}
		if kickoff {
			s.log.Info().Str("team_id", teamID).Str("game_id", gameID).Time("kickoff", now).Msg("game kicked off")
		}
		return nil
	})
}

func (s *sessionService) StopClock(ctx context.Context, teamID, gameID string) (model.Game, error) {
	return s.mutate(ctx, teamID, gameID, "stop_clock", func(v *session.Volatile, now time.Time) error {
		return v.StopClock(now)
	})
}

func (s *sessionService) MovePlayer(ctx context.Context, teamID, gameID, playerID string, to model.Location, pos *model.Position) (model.Game, error) {
	if err := requireID("player_id", playerID); err != nil {
		return model.Game{}, err
	}
	return s.mutate(ctx, teamID, gameID, "move", func(v *session.Volatile, now time.Time) error {
		_, err := v.MovePlayer(playerID, to, pos, now)
		return err
	})
}

func (s *sessionService) SwapPlayers(ctx context.Context, teamID, gameID, aID, bID string) (model.Game, error) {
	var ferrs []FieldError
	if aID == "" {
		ferrs = append(ferrs, FieldError{Field: "player_a_id", Message: "must be set"})
	}
	if bID == "" {
		ferrs = append(ferrs, FieldError{Field: "player_b_id", Message: "must be set"})
	}
	if aID != "" && aID == bID {
		ferrs = append(ferrs, FieldError{Field: "players", Message: "must differ"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		return model.Game{}, err
	}
	return s.mutate(ctx, teamID, gameID, "swap", func(v *session.Volatile, now time.Time) error {
		_, err := v.SwapPlayers(aID, bID, now)
		return err
	})
}

func (s *sessionService) AddGoal(ctx context.Context, teamID, gameID string, team model.Side, scorerID, assistID *string) (model.Game, error) {
	return s.mutate(ctx, teamID, gameID, "add_goal", func(v *session.Volatile, now time.Time) error {
		_, err := v.AddGoal(team, scorerID, assistID, now)
		return err
	})
}

func (s *sessionService) RemoveLastGoal(ctx context.Context, teamID, gameID string, team model.Side) (model.Game, error) {
	return s.mutate(ctx, teamID, gameID, "remove_goal", func(v *session.Volatile, _ time.Time) error {
		removed, err := v.RemoveLastGoal(team)
		if err == nil && !removed {
			s.log.Debug().Str("team_id", teamID).Str("game_id", gameID).Str("team", string(team)).Msg("no goal to remove")
		}
		return err
	})
}

// withPlan runs fn on the staging plan of an in-progress game. Plans are never persisted.
func (s *sessionService) withPlan(ctx context.Context, teamID, gameID string, fn func(p *session.Plan, v *session.Volatile) error) ([]session.PlanEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.state(ctx, teamID)
	if err != nil {
		return nil, err
	}
	v, err := st.editable(gameID)
	if err != nil {
		return nil, err
	}
	p := st.plan(gameID)
	if err := fn(p, v); err != nil {
		return nil, err
	}
	return p.Entries(), nil
}

func (s *sessionService) StagePlan(ctx context.Context, teamID, gameID, benchID, fieldID string, pos model.Position) ([]session.PlanEntry, error) {
	return s.withPlan(ctx, teamID, gameID, func(p *session.Plan, v *session.Volatile) error {
		return p.Stage(v.Game(), benchID, fieldID, pos)
	})
}

func (s *sessionService) UnstagePlan(ctx context.Context, teamID, gameID, benchID string) ([]session.PlanEntry, error) {
	return s.withPlan(ctx, teamID, gameID, func(p *session.Plan, _ *session.Volatile) error {
		p.Unstage(benchID)
		return nil
	})
}

func (s *sessionService) PendingPlan(ctx context.Context, teamID, gameID string) ([]session.PlanEntry, error) {
	return s.withPlan(ctx, teamID, gameID, func(*session.Plan, *session.Volatile) error { return nil })
}

func (s *sessionService) CancelPlan(ctx context.Context, teamID, gameID string) error {
	_, err := s.withPlan(ctx, teamID, gameID, func(p *session.Plan, _ *session.Volatile) error {
		p.Cancel()
		return nil
	})
	return err
}

func (s *sessionService) CommitPlan(ctx context.Context, teamID, gameID string) (model.Game, error) {
	return s.mutate(ctx, teamID, gameID, "commit_plan", func(v *session.Volatile, now time.Time) error {
		// mutate holds s.mu here
		events, err := v.CommitPlan(s.teams[teamID].plan(gameID), now)
		if err != nil {
			return err
		}
		s.log.Debug().Str("team_id", teamID).Str("game_id", gameID).Int("substitutions", len(events)).Msg("plan committed")
		return nil
	})
}

// FinishGame moves a game to the durable store. The durable write happens
// before the registry changes, so a failure leaves the game in progress.
func (s *sessionService) FinishGame(ctx context.Context, teamID, gameID string) (model.Game, error) {
	s.mu.Lock()
	st, err := s.state(ctx, teamID)
	if err != nil {
		s.mu.Unlock()
		return model.Game{}, err
	}
	v, err := st.editable(gameID)
	if err != nil {
		s.mu.Unlock()
		s.logRejected("finish", teamID, gameID, err)
		return model.Game{}, err
	}
	d, err := v.Finish(s.now())
	if err != nil {
		s.mu.Unlock()
		return model.Game{}, err
	}
	if err := s.durable.UpsertFinished(ctx, d.Game()); err != nil {
		s.mu.Unlock()
		s.log.Error().Err(err).Str("team_id", teamID).Str("game_id", gameID).Msg("finish rolled back: durable write failed")
		return model.Game{}, persistenceErr("upsert finished game", err)
	}
	delete(st.volatile, gameID)
	delete(st.plans, gameID)
	st.durable[gameID] = d
	_ = s.persist(ctx, teamID, st)
	g := d.Game()
	s.mu.Unlock()

	s.log.Info().Str("team_id", teamID).Str("game_id", gameID).
		Int("home_score", g.HomeScore).Int("away_score", g.AwayScore).
		Int("elapsed_seconds", g.TimerElapsedSeconds).
		Msg("game finished")
	s.notify(teamID, g)
	return g, nil
}

func (s *sessionService) ResetGame(ctx context.Context, teamID, gameID string) (model.Game, error) {
	return s.mutate(ctx, teamID, gameID, "reset", func(v *session.Volatile, _ time.Time) error {
		if err := v.Reset(); err != nil {
			return err
		}
		delete(s.teams[teamID].plans, gameID)
		return nil
	})
}

func (s *sessionService) ClockSnapshot(ctx context.Context, teamID, gameID string) (model.ClockSnapshot, error) {
	g, err := s.GetGame(ctx, teamID, gameID)
	if err != nil {
		return model.ClockSnapshot{}, err
	}
	return session.Snapshot(g, s.now()), nil
}

func (s *sessionService) PlayerPlaytime(ctx context.Context, teamID, gameID, playerID string) (int, error) {
	g, err := s.GetGame(ctx, teamID, gameID)
	if err != nil {
		return 0, err
	}
	p := g.LineupEntry(playerID)
	if p == nil {
		return 0, session.ErrPlayerNotInLineup
	}
	return session.PlayerPlaytime(*p, s.now()), nil
}

func (s *sessionService) History(ctx context.Context, teamID string) (model.GameHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.state(ctx, teamID)
	if err != nil {
		return model.GameHistory{}, err
	}
	return session.History(st.games()), nil
}

// PlayerRemoved strips playerID from every game of the team. Durable games are
// only updated in memory. A failed volatile write is returned after the
// in-memory cleanup, since the player is already gone from the roster.
func (s *sessionService) PlayerRemoved(ctx context.Context, teamID, playerID string) error {
	s.mu.Lock()
	st, err := s.state(ctx, teamID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	var changed []model.Game
	volatileChanged := false
	for id, v := range st.volatile {
		if p, ok := st.plans[id]; ok {
			for _, e := range p.Entries() {
				if e.BenchPlayerID == playerID || e.FieldPlayerID == playerID {
					p.Unstage(e.BenchPlayerID)
				}
			}
		}
		if v.RemovePlayer(playerID) {
			volatileChanged = true
			changed = append(changed, v.Game())
		}
	}
	for id, d := range st.durable {
		if d.RemovePlayer(playerID) {
			st.durable[id] = d
			changed = append(changed, d.Game())
		}
	}
	var saveErr error
	if volatileChanged {
		saveErr = s.persist(ctx, teamID, st)
	}
	s.mu.Unlock()

	s.log.Info().Str("team_id", teamID).Str("player_id", playerID).Int("games", len(changed)).Msg("removed player from sessions")
	s.notify(teamID, changed...)
	return persistenceErr("save volatile games", saveErr)
}

var _ SessionService = (*sessionService)(nil)
