package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/maxviazov/matchday-session-service/internal/model"
	"github.com/maxviazov/matchday-session-service/internal/repository/memory"
	"github.com/maxviazov/matchday-session-service/internal/service"
)

var (
	t0      = time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)
	errDown = errors.New("durable store unavailable")
	logger  = zerolog.New(io.Discard)
)

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

// flakyDurable fails writes while fail is set.
type flakyDurable struct {
	*memory.DurableStore
	fail error
}

func (f *flakyDurable) UpsertFinished(ctx context.Context, g model.Game) error {
	if f.fail != nil {
		return f.fail
	}
	return f.DurableStore.UpsertFinished(ctx, g)
}

func (f *flakyDurable) DeleteFinished(ctx context.Context, id string) error {
	if f.fail != nil {
		return f.fail
	}
	return f.DurableStore.DeleteFinished(ctx, id)
}

func (f *flakyDurable) UpsertTemplate(ctx context.Context, t model.SavedLineup) (model.SavedLineup, error) {
	if f.fail != nil {
		return model.SavedLineup{}, f.fail
	}
	return f.DurableStore.UpsertTemplate(ctx, t)
}

func (f *flakyDurable) DeleteTemplate(ctx context.Context, id string) error {
	if f.fail != nil {
		return f.fail
	}
	return f.DurableStore.DeleteTemplate(ctx, id)
}

type harness struct {
	clock    fakeClock
	volatile *memory.VolatileStore
	durable  *flakyDurable
	players  *memory.PlayerStore
	sessions service.SessionService
}

const team = "team-a"

// newHarness seeds a roster of n players named P1..Pn.
func newHarness(t *testing.T, n int) *harness {
	t.Helper()
	h := &harness{
		clock:    clockwork.NewFakeClockAt(t0),
		volatile: memory.NewVolatileStore(),
		durable:  &flakyDurable{DurableStore: memory.NewDurableStore()},
		players:  memory.NewPlayerStore(),
	}
	for i := 1; i <= n; i++ {
		num := i
		h.players.Add(model.Player{ID: fmt.Sprintf("P%d", i), TeamID: team, Name: fmt.Sprintf("Player %d", i), Number: &num})
	}
	h.sessions = service.NewSessionService(h.volatile, h.durable, h.players, h.clock, logger)
	return h
}

func (h *harness) advance(sec int) { h.clock.Advance(time.Duration(sec) * time.Second) }

func strp(s string) *string { return &s }

func pos(x, y float64) *model.Position { return &model.Position{X: x, Y: y} }

func entry(g model.Game, id string) model.PlayerLineupState {
	if p := g.LineupEntry(id); p != nil {
		return *p
	}
	return model.PlayerLineupState{}
}

func eventsOfType(g model.Game, typ model.EventType) []model.GameEvent {
	var out []model.GameEvent
	for _, e := range g.Events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
