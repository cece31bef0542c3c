package session_test

import (
	"time"

	"github.com/maxviazov/matchday-session-service/internal/model"
	"github.com/maxviazov/matchday-session-service/internal/session"
)

var t0 = time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)

// at returns the wall clock instant sec seconds after t0.
func at(sec int) time.Time { return t0.Add(time.Duration(sec) * time.Second) }

func strp(s string) *string { return &s }

func roster(ids ...string) []model.Player {
	out := make([]model.Player, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Player{ID: id, TeamID: "t1", Name: "Player " + id})
	}
	return out
}

// lineupGame builds a not-started home game with the given players on the
// field (spread across the pitch) and on the bench.
func lineupGame(field, bench []string) model.Game {
	ids := append(append([]string{}, field...), bench...)
	g := session.NewGame("g1", "t1", session.Details{
		Opponent: "Rovers",
		Location: model.VenueHome,
		Season:   "2025",
	}, roster(ids...), t0)
	for i := range field {
		g.Lineup[i].Location = model.LocationField
		g.Lineup[i].Position = &model.Position{X: float64(5 + i*8), Y: 50}
	}
	return g
}

func entry(g model.Game, id string) model.PlayerLineupState {
	p := g.LineupEntry(id)
	if p == nil {
		panic("no lineup entry for " + id)
	}
	return *p
}

func eventsOfType(g model.Game, typ model.EventType) []model.GameEvent {
	var out []model.GameEvent
	for _, ev := range g.Events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}
