package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog"

	"github.com/maxviazov/matchday-session-service/internal/model"
	"github.com/maxviazov/matchday-session-service/internal/repository"
)

// rosterPageSize bounds each roster read while collecting the full team list.
const rosterPageSize = 200

// fetchRoster pages through the whole team roster.
func fetchRoster(ctx context.Context, players repository.PlayerRepository, teamID string) ([]model.Player, error) {
	var out []model.Player
	for offset := 0; ; offset += rosterPageSize {
		res, err := players.ListByTeam(ctx, teamID, repository.Page{Limit: rosterPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		out = append(out, res.Items...)
		if len(res.Items) < rosterPageSize || len(out) >= res.Total {
			return out, nil
		}
	}
}

type rosterService struct {
	players repository.PlayerRepository
	log     zerolog.Logger

	mu   sync.RWMutex
	subs []RemovalSubscriber
}

func NewRosterService(players repository.PlayerRepository, logger zerolog.Logger) RosterService {
	l := logger.With().Str("module", "service").Str("component", "roster").Logger()
	return &rosterService{players: players, log: l}
}

func (s *rosterService) Subscribe(sub RemovalSubscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, sub)
}

func (s *rosterService) ListPlayers(ctx context.Context, teamID string, page repository.Page) (repository.PageResult[model.Player], error) {
	if err := requireID("team_id", teamID); err != nil {
		return repository.PageResult[model.Player]{}, err
	}
	p := normalizePage(page)
	res, err := s.players.ListByTeam(ctx, teamID, p)
	if err != nil {
		s.log.Error().Err(err).Str("team_id", teamID).Int("limit", p.Limit).Int("offset", p.Offset).Msg("list players failed")
		return repository.PageResult[model.Player]{}, err
	}
	return res, nil
}

// SearchPlayers ranks roster players by fuzzy name match. A query that is a
// shirt number also matches that number exactly, ahead of name matches.
func (s *rosterService) SearchPlayers(ctx context.Context, teamID, query string) ([]model.Player, error) {
	if err := requireID("team_id", teamID); err != nil {
		return nil, err
	}
	all, err := fetchRoster(ctx, s.players, teamID)
	if err != nil {
		s.log.Error().Err(err).Str("team_id", teamID).Msg("roster read failed")
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return all, nil
	}

	out := make([]model.Player, 0)
	seen := make(map[int]struct{})
	if n, err := strconv.Atoi(query); err == nil {
		for i, p := range all {
			if p.Number != nil && *p.Number == n {
				out = append(out, p)
				seen[i] = struct{}{}
			}
		}
	}

	names := make([]string, len(all))
	for i, p := range all {
		names[i] = p.Name
	}
	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)
	for _, r := range ranks {
		if _, ok := seen[r.OriginalIndex]; ok {
			continue
		}
		seen[r.OriginalIndex] = struct{}{}
		out = append(out, all[r.OriginalIndex])
	}
	return out, nil
}

// RemovePlayer deletes the player, then notifies every subscriber in order.
// Subscriber failures are joined and returned; the deletion itself stands.
func (s *rosterService) RemovePlayer(ctx context.Context, teamID, playerID string) error {
	if err := requireID("player_id", playerID); err != nil {
		return err
	}
	p, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlayerNotFound
		}
		return err
	}
	if p.TeamID != teamID {
		return ErrPlayerNotFound
	}
	if err := s.players.Delete(ctx, playerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlayerNotFound
		}
		s.log.Error().Err(err).Str("team_id", teamID).Str("player_id", playerID).Msg("delete player failed")
		return persistenceErr("delete player", err)
	}
	s.log.Info().Str("team_id", teamID).Str("player_id", playerID).Msg("player removed from roster")

	s.mu.RLock()
	subs := append([]RemovalSubscriber(nil), s.subs...)
	s.mu.RUnlock()

	var errs []error
	for _, sub := range subs {
		if err := sub.PlayerRemoved(ctx, teamID, playerID); err != nil {
			s.log.Error().Err(err).Str("team_id", teamID).Str("player_id", playerID).Msg("player removal cleanup failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ RosterService = (*rosterService)(nil)
