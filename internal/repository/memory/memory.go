// Package memory provides in-process implementations of the store contracts.
// They back unit tests and serve as the reference for the contract suites.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maxviazov/matchday-session-service/internal/model"
	"github.com/maxviazov/matchday-session-service/internal/repository"
)

// VolatileStore keeps per-team game collections in a map.
type VolatileStore struct {
	mu    sync.RWMutex
	teams map[string]map[string]model.Game
}

func NewVolatileStore() *VolatileStore {
	return &VolatileStore{teams: make(map[string]map[string]model.Game)}
}

func (s *VolatileStore) LoadAll(_ context.Context, teamID string) ([]model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Game, 0, len(s.teams[teamID]))
	for _, g := range s.teams[teamID] {
		out = append(out, g.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *VolatileStore) SaveAll(_ context.Context, teamID string, games []model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[string]model.Game, len(games))
	for _, g := range games {
		next[g.ID] = g.Clone()
	}
	s.teams[teamID] = next
	return nil
}

// DurableStore keeps finished games and templates in maps.
type DurableStore struct {
	mu        sync.RWMutex
	games     map[string]model.Game
	templates map[string]model.SavedLineup
	now       func() time.Time
}

func NewDurableStore() *DurableStore {
	return &DurableStore{
		games:     make(map[string]model.Game),
		templates: make(map[string]model.SavedLineup),
		now:       time.Now,
	}
}

func (s *DurableStore) FetchFinished(_ context.Context, teamID string) ([]model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Game, 0)
	for _, g := range s.games {
		if g.TeamID == teamID {
			out = append(out, g.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *DurableStore) UpsertFinished(_ context.Context, g model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = g.Clone()
	return nil
}

func (s *DurableStore) DeleteFinished(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.games, id)
	return nil
}

func (s *DurableStore) FetchTemplates(_ context.Context, teamID string) ([]model.SavedLineup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.SavedLineup, 0)
	for _, t := range s.templates {
		if t.TeamID == teamID {
			out = append(out, copyTemplate(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *DurableStore) UpsertTemplate(_ context.Context, t model.SavedLineup) (model.SavedLineup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	for id, existing := range s.templates {
		if existing.TeamID == t.TeamID && existing.Name == t.Name {
			existing.Players = copyTemplate(t).Players
			existing.UpdatedAt = now
			s.templates[id] = existing
			return copyTemplate(existing), nil
		}
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t = copyTemplate(t)
	t.CreatedAt, t.UpdatedAt = now, now
	s.templates[t.ID] = t
	return copyTemplate(t), nil
}

func (s *DurableStore) DeleteTemplate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.templates, id)
	return nil
}

// PlayerStore is a roster held in memory.
type PlayerStore struct {
	mu      sync.RWMutex
	players map[string]model.Player
}

func NewPlayerStore(players ...model.Player) *PlayerStore {
	s := &PlayerStore{players: make(map[string]model.Player)}
	for _, p := range players {
		s.players[p.ID] = p
	}
	return s
}

// Add inserts or replaces a player.
func (s *PlayerStore) Add(p model.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[p.ID] = p
}

func (s *PlayerStore) GetByID(_ context.Context, id string) (model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return model.Player{}, repository.ErrNotFound
	}
	return p, nil
}

func (s *PlayerStore) ListByTeam(_ context.Context, teamID string, p repository.Page) (repository.PageResult[model.Player], error) {
	s.mu.RLock()
	all := make([]model.Player, 0)
	for _, pl := range s.players {
		if pl.TeamID == teamID {
			all = append(all, pl)
		}
	}
	s.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if p.Limit <= 0 {
		p.Limit = 50
	}
	return repository.Paginate(all, p), nil
}

func (s *PlayerStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.players, id)
	return nil
}

// TxManager runs fn directly; the memory stores are individually atomic.
type TxManager struct{}

func (TxManager) WithinTx(ctx context.Context, fn repository.TxFunc) error { return fn(ctx) }

// Pinger is always ready.
type Pinger struct{}

func (Pinger) Ping(context.Context) error { return nil }

func copyTemplate(t model.SavedLineup) model.SavedLineup {
	players := make([]model.TemplateEntry, len(t.Players))
	for i, e := range t.Players {
		if e.Position != nil {
			pos := *e.Position
			e.Position = &pos
		}
		players[i] = e
	}
	t.Players = players
	return t
}

var (
	_ repository.VolatileStore    = (*VolatileStore)(nil)
	_ repository.DurableStore     = (*DurableStore)(nil)
	_ repository.PlayerRepository = (*PlayerStore)(nil)
	_ repository.TxManager        = TxManager{}
	_ repository.Pinger           = Pinger{}
)
