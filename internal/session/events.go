package session

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/maxviazov/matchday-session-service/internal/model"
)

func addGoal(g *model.Game, team model.Side, scorerID, assistID *string, now time.Time) (model.GameEvent, error) {
	if g.IsFinished {
		return model.GameEvent{}, ErrFinished
	}
	if !team.Valid() {
		return model.GameEvent{}, ErrInvalidTeam
	}
	ev := model.GameEvent{
		ID:             uuid.NewString(),
		Type:           model.EventGoal,
		Team:           team,
		ScorerPlayerID: nonEmpty(scorerID),
		AssistPlayerID: nonEmpty(assistID),
		Timestamp:      now,
		GameSeconds:    ElapsedSeconds(*g, now),
	}
	g.Events = append(g.Events, ev)
	SortEvents(g.Events)
	if team == model.VenueHome {
		g.HomeScore++
	} else {
		g.AwayScore++
	}
	return ev, nil
}

// removeLastGoal drops the most recent goal for team. It reports whether one was found.
func removeLastGoal(g *model.Game, team model.Side) (bool, error) {
	if g.IsFinished {
		return false, ErrFinished
	}
	if !team.Valid() {
		return false, ErrInvalidTeam
	}
	for i := len(g.Events) - 1; i >= 0; i-- {
		ev := g.Events[i]
		if ev.Type != model.EventGoal || ev.Team != team {
			continue
		}
		g.Events = append(g.Events[:i], g.Events[i+1:]...)
		if team == model.VenueHome {
			g.HomeScore = max(g.HomeScore-1, 0)
		} else {
			g.AwayScore = max(g.AwayScore-1, 0)
		}
		return true, nil
	}
	return false, nil
}

func appendSubstitution(g *model.Game, in, out *string, now time.Time, gameSeconds int) model.GameEvent {
	team := g.Location
	if !team.Valid() {
		team = model.VenueHome
	}
	ev := model.GameEvent{
		ID:          uuid.NewString(),
		Type:        model.EventSubstitution,
		Team:        team,
		PlayerInID:  in,
		PlayerOutID: out,
		Timestamp:   now,
		GameSeconds: gameSeconds,
	}
	g.Events = append(g.Events, ev)
	SortEvents(g.Events)
	return ev
}

// SortEvents orders events by game seconds, breaking ties by wall-clock timestamp.
func SortEvents(events []model.GameEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].GameSeconds != events[j].GameSeconds {
			return events[i].GameSeconds < events[j].GameSeconds
		}
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}

// RecomputeScore sets both scores to the number of goal events per side.
func RecomputeScore(g *model.Game) {
	home, away := 0, 0
	for _, ev := range g.Events {
		if ev.Type != model.EventGoal {
			continue
		}
		switch ev.Team {
		case model.VenueHome:
			home++
		case model.VenueAway:
			away++
		}
	}
	g.HomeScore, g.AwayScore = home, away
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
