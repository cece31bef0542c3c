package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/maxviazov/matchday-session-service/internal/lineup"
	"github.com/maxviazov/matchday-session-service/internal/model"
	"github.com/maxviazov/matchday-session-service/internal/repository"
)

const maxTemplateName = 60

type templateService struct {
	store   repository.TemplateRepository
	players repository.PlayerRepository
	log     zerolog.Logger

	mu        sync.Mutex
	drafts    map[string]*lineup.Draft
	templates map[string][]model.SavedLineup
}

func NewTemplateService(store repository.TemplateRepository, players repository.PlayerRepository, logger zerolog.Logger) TemplateService {
	l := logger.With().Str("module", "service").Str("component", "template").Logger()
	return &templateService{
		store:     store,
		players:   players,
		log:       l,
		drafts:    make(map[string]*lineup.Draft),
		templates: make(map[string][]model.SavedLineup),
	}
}

// draft returns the team's draft synced with the current roster. Caller holds s.mu.
func (s *templateService) draft(ctx context.Context, teamID string) (*lineup.Draft, error) {
	if err := requireID("team_id", teamID); err != nil {
		return nil, err
	}
	roster, err := fetchRoster(ctx, s.players, teamID)
	if err != nil {
		s.log.Error().Err(err).Str("team_id", teamID).Msg("roster read failed")
		return nil, err
	}
	d, ok := s.drafts[teamID]
	if !ok {
		d = lineup.NewDraft(roster)
		s.drafts[teamID] = d
		return d, nil
	}
	d.Sync(roster)
	return d, nil
}

// list returns the confirmed template list, fetching it once. Caller holds s.mu.
func (s *templateService) list(ctx context.Context, teamID string) ([]model.SavedLineup, error) {
	if err := requireID("team_id", teamID); err != nil {
		return nil, err
	}
	if ts, ok := s.templates[teamID]; ok {
		return ts, nil
	}
	ts, err := s.store.FetchTemplates(ctx, teamID)
	if err != nil {
		s.log.Error().Err(err).Str("team_id", teamID).Msg("fetch saved lineups failed")
		return nil, persistenceErr("fetch saved lineups", err)
	}
	s.templates[teamID] = ts
	return ts, nil
}

func findTemplate(ts []model.SavedLineup, name string) (int, bool) {
	for i, t := range ts {
		if strings.EqualFold(t.Name, name) {
			return i, true
		}
	}
	return -1, false
}

func (s *templateService) ListTemplates(ctx context.Context, teamID string) ([]model.SavedLineup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, err := s.list(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return append([]model.SavedLineup(nil), ts...), nil
}

// SaveTemplate snapshots the draft under name, replacing a template with the
// same name. The cached list only changes once the store confirms the write.
func (s *templateService) SaveTemplate(ctx context.Context, teamID, name string) (model.SavedLineup, error) {
	name = strings.TrimSpace(name)
	var ferrs []FieldError
	if name == "" {
		ferrs = append(ferrs, FieldError{Field: "name", Message: "must be set"})
	} else if len(name) > maxTemplateName {
		ferrs = append(ferrs, FieldError{Field: "name", Message: "must be at most 60 characters"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		return model.SavedLineup{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ts, err := s.list(ctx, teamID)
	if err != nil {
		return model.SavedLineup{}, err
	}
	d, err := s.draft(ctx, teamID)
	if err != nil {
		return model.SavedLineup{}, err
	}

	t := model.SavedLineup{ID: uuid.NewString(), TeamID: teamID, Name: name, Players: d.Snapshot()}
	if i, ok := findTemplate(ts, name); ok {
		t.ID, t.Name = ts[i].ID, ts[i].Name
	}
	saved, err := s.store.UpsertTemplate(ctx, t)
	if err != nil {
		s.log.Error().Err(err).Str("team_id", teamID).Str("name", name).Msg("save lineup failed")
		return model.SavedLineup{}, persistenceErr("save lineup", err)
	}

	next := make([]model.SavedLineup, 0, len(ts)+1)
	for _, existing := range ts {
		if existing.ID != saved.ID && !strings.EqualFold(existing.Name, saved.Name) {
			next = append(next, existing)
		}
	}
	next = append(next, saved)
	sort.Slice(next, func(i, j int) bool { return next[i].Name < next[j].Name })
	s.templates[teamID] = next

	s.log.Info().Str("team_id", teamID).Str("name", saved.Name).Int("players", len(saved.Players)).Msg("lineup saved")
	return saved, nil
}

// LoadTemplate applies a saved lineup to the draft and returns the result.
func (s *templateService) LoadTemplate(ctx context.Context, teamID, name string) ([]model.TemplateEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, err := s.list(ctx, teamID)
	if err != nil {
		return nil, err
	}
	i, ok := findTemplate(ts, strings.TrimSpace(name))
	if !ok {
		return nil, ErrTemplateNotFound
	}
	d, err := s.draft(ctx, teamID)
	if err != nil {
		return nil, err
	}
	d.Apply(ts[i])
	s.log.Debug().Str("team_id", teamID).Str("name", ts[i].Name).Msg("lineup applied to draft")
	return d.Snapshot(), nil
}

func (s *templateService) DeleteTemplate(ctx context.Context, teamID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, err := s.list(ctx, teamID)
	if err != nil {
		return err
	}
	i, ok := findTemplate(ts, strings.TrimSpace(name))
	if !ok {
		return ErrTemplateNotFound
	}
	if err := s.store.DeleteTemplate(ctx, ts[i].ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.log.Error().Err(err).Str("team_id", teamID).Str("name", name).Msg("delete lineup failed")
		return persistenceErr("delete lineup", err)
	}
	next := make([]model.SavedLineup, 0, len(ts)-1)
	next = append(next, ts[:i]...)
	next = append(next, ts[i+1:]...)
	s.templates[teamID] = next
	s.log.Info().Str("team_id", teamID).Str("name", name).Msg("lineup deleted")
	return nil
}

func (s *templateService) Draft(ctx context.Context, teamID string) ([]model.TemplateEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.draft(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return d.Snapshot(), nil
}

func (s *templateService) MoveDraft(ctx context.Context, teamID, playerID string, to model.Location, pos *model.Position) ([]model.TemplateEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.draft(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := d.Move(playerID, to, pos); err != nil {
		return nil, err
	}
	return d.Snapshot(), nil
}

func (s *templateService) SwapDraft(ctx context.Context, teamID, aID, bID string) ([]model.TemplateEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.draft(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := d.Swap(aID, bID); err != nil {
		return nil, err
	}
	return d.Snapshot(), nil
}

func (s *templateService) ResetDraft(ctx context.Context, teamID string) ([]model.TemplateEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.draft(ctx, teamID)
	if err != nil {
		return nil, err
	}
	d.Reset()
	return d.Snapshot(), nil
}

// PlayerRemoved drops the player from the team's draft. Saved lineups keep
// their entry; applying them skips players no longer on the roster.
func (s *templateService) PlayerRemoved(_ context.Context, teamID, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.drafts[teamID]; ok {
		d.Remove(playerID)
	}
	return nil
}

var _ TemplateService = (*templateService)(nil)
