package session

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/maxviazov/matchday-session-service/internal/model"
)

// Warning records a repair or drop made while loading stored games.
type Warning struct {
	GameID string
	Reason string
}

func (w Warning) String() string { return fmt.Sprintf("game %q: %s", w.GameID, w.Reason) }

// Roster is the set of player ids known to the roster. A nil Roster skips
// reference checks, which is what callers want when the roster is unavailable.
type Roster map[string]struct{}

// NewRoster indexes players by id.
func NewRoster(players []model.Player) Roster {
	r := make(Roster, len(players))
	for _, p := range players {
		r[p.ID] = struct{}{}
	}
	return r
}

func (r Roster) has(id string) bool {
	if r == nil {
		return true
	}
	_, ok := r[id]
	return ok
}

// Merged is the reconciled collection: in-progress sessions and finished ones.
type Merged struct {
	Volatile []*Volatile
	Durable  []Durable
	Warnings []Warning
}

// Games lists every game in display order.
func (m Merged) Games() []model.Game {
	out := make([]model.Game, 0, len(m.Volatile)+len(m.Durable))
	for _, v := range m.Volatile {
		out = append(out, v.Game())
	}
	for _, d := range m.Durable {
		out = append(out, d.Game())
	}
	SortGames(out)
	return out
}

// Merge reconciles the volatile and durable collections. A finished durable
// copy always wins; volatile records flagged finished are dropped.
func Merge(volatile, durable []model.Game, roster Roster) Merged {
	var m Merged

	durableByID := make(map[string]model.Game, len(durable))
	for _, raw := range durable {
		g, warns, ok := Validate(raw, roster)
		m.Warnings = append(m.Warnings, warns...)
		if !ok {
			continue
		}
		durableByID[g.ID] = g
	}

	volatileIDs := make(map[string]struct{}, len(volatile))
	for _, raw := range volatile {
		g, warns, ok := Validate(raw, roster)
		m.Warnings = append(m.Warnings, warns...)
		if !ok {
			continue
		}
		if g.IsFinished {
			m.Warnings = append(m.Warnings, Warning{GameID: g.ID, Reason: "volatile record flagged finished, dropped"})
			continue
		}
		if d, ok := durableByID[g.ID]; ok && d.IsFinished {
			m.Warnings = append(m.Warnings, Warning{GameID: g.ID, Reason: "superseded by durable copy"})
			continue
		}
		if _, dup := volatileIDs[g.ID]; dup {
			m.Warnings = append(m.Warnings, Warning{GameID: g.ID, Reason: "duplicate volatile record, dropped"})
			continue
		}
		volatileIDs[g.ID] = struct{}{}
		m.Volatile = append(m.Volatile, NewVolatile(g))
	}

	for _, g := range durableByID {
		if _, ok := volatileIDs[g.ID]; ok {
			m.Warnings = append(m.Warnings, Warning{GameID: g.ID, Reason: "durable copy not finished, volatile copy kept"})
			continue
		}
		m.Durable = append(m.Durable, RestoreDurable(g))
	}
	sort.Slice(m.Durable, func(i, j int) bool { return m.Durable[i].game.ID < m.Durable[j].game.ID })
	return m
}

// Validate repairs g to a structurally sound game. ok is false when the record
// can't be salvaged and should be dropped.
func Validate(g model.Game, roster Roster) (out model.Game, warnings []Warning, ok bool) {
	out = g.Clone()
	warn := func(format string, args ...any) {
		warnings = append(warnings, Warning{GameID: out.ID, Reason: fmt.Sprintf(format, args...)})
	}
	if out.ID == "" {
		warn("missing id, dropped")
		return model.Game{}, warnings, false
	}

	if !out.Location.Valid() {
		warn("unknown location %q, set to home", out.Location)
		out.Location = model.VenueHome
	}
	switch {
	case out.TimerStatus == model.TimerRunning && out.TimerStartTime == nil:
		warn("running without start time, stopped")
		out.TimerStatus = model.TimerStopped
	case out.TimerStatus != model.TimerRunning:
		if out.TimerStatus != model.TimerStopped {
			warn("unknown timer status %q, stopped", out.TimerStatus)
		}
		out.TimerStatus = model.TimerStopped
		out.TimerStartTime = nil
	}
	if out.TimerElapsedSeconds < 0 {
		warn("negative elapsed seconds, reset to 0")
		out.TimerElapsedSeconds = 0
	}
	running := out.TimerStatus == model.TimerRunning && !out.IsFinished

	seen := make(map[string]struct{}, len(out.Lineup))
	lineup := make([]model.PlayerLineupState, 0, len(out.Lineup))
	for _, p := range out.Lineup {
		if p.PlayerID == "" || !roster.has(p.PlayerID) {
			warn("lineup entry for unknown player %q dropped", p.PlayerID)
			continue
		}
		if _, dup := seen[p.PlayerID]; dup {
			warn("duplicate lineup entry for %q dropped", p.PlayerID)
			continue
		}
		seen[p.PlayerID] = struct{}{}

		if !p.Location.Valid() {
			warn("player %q has unknown location %q, benched", p.PlayerID, p.Location)
			p.Location = model.LocationBench
		}
		if p.Location == model.LocationField && (p.Position == nil || !p.Position.Valid()) {
			warn("player %q on field without a valid position, benched", p.PlayerID)
			p.Location = model.LocationBench
		}
		if p.Location != model.LocationField {
			p.Position = nil
		}
		if p.InitialPosition != nil && !p.InitialPosition.Valid() {
			p.InitialPosition = nil
		}
		if p.Location != model.LocationInactive {
			p.InactiveAccrues = false
		}
		if p.PlaytimerStartTime != nil && (!running || !accrues(p.Location)) {
			warn("stale playtimer for %q cleared", p.PlayerID)
			p.PlaytimerStartTime = nil
		}
		p.PlaytimeSeconds = max(p.PlaytimeSeconds, 0)
		p.SubbedOnCount = max(p.SubbedOnCount, 0)
		p.SubbedOffCount = max(p.SubbedOffCount, 0)
		lineup = append(lineup, p)
	}
	out.Lineup = lineup

	events := make([]model.GameEvent, 0, len(out.Events))
	for _, ev := range out.Events {
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		if !ev.Type.Valid() {
			warn("event %q has unknown type %q, dropped", ev.ID, ev.Type)
			continue
		}
		if !ev.Team.Valid() {
			warn("event %q has unknown team %q, set to home", ev.ID, ev.Team)
			ev.Team = model.VenueHome
		}
		ref := func(field string, id *string) *string {
			known, cleared := knownRef(roster, id)
			if cleared {
				warn("event %q references unknown %s %q, cleared", ev.ID, field, *id)
			}
			return known
		}
		ev.ScorerPlayerID = ref("scorer", ev.ScorerPlayerID)
		ev.AssistPlayerID = ref("assist", ev.AssistPlayerID)
		ev.PlayerInID = ref("player in", ev.PlayerInID)
		ev.PlayerOutID = ref("player out", ev.PlayerOutID)
		if ev.GameSeconds < 0 {
			ev.GameSeconds = 0
		}
		if ev.Type == model.EventGoal {
			ev.PlayerInID, ev.PlayerOutID = nil, nil
		} else {
			ev.ScorerPlayerID, ev.AssistPlayerID = nil, nil
			if ev.PlayerInID == nil && ev.PlayerOutID == nil {
				warn("substitution %q without players dropped", ev.ID)
				continue
			}
		}
		events = append(events, ev)
	}
	SortEvents(events)
	out.Events = events
	RecomputeScore(&out)

	if out.IsFinished {
		out.StorageClass = model.StorageDurable
	}
	return out, warnings, true
}

// knownRef keeps id only when it names a roster player. cleared reports a
// non-empty reference that had to be dropped.
func knownRef(roster Roster, id *string) (ref *string, cleared bool) {
	if id == nil || *id == "" {
		return nil, false
	}
	if !roster.has(*id) {
		return nil, true
	}
	return id, false
}

// SortGames orders games newest first by date then time. Games with no time
// sort after timed games on the same date.
func SortGames(games []model.Game) {
	sort.SliceStable(games, func(i, j int) bool {
		a, b := games[i], games[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		if (a.Time == "") != (b.Time == "") {
			return b.Time == ""
		}
		if a.Time != b.Time {
			return a.Time > b.Time
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// removePlayerRefs drops the player's lineup entry, anonymizes goals they took
// part in and clears their side of substitutions. A substitution left with no
// players is dropped.
func removePlayerRefs(g *model.Game, playerID string) bool {
	changed := false
	lineup := g.Lineup[:0]
	for _, p := range g.Lineup {
		if p.PlayerID == playerID {
			changed = true
			continue
		}
		lineup = append(lineup, p)
	}
	g.Lineup = lineup

	matches := func(ref *string) bool { return ref != nil && *ref == playerID }
	events := g.Events[:0]
	for _, ev := range g.Events {
		if matches(ev.ScorerPlayerID) {
			ev.ScorerPlayerID = nil
			changed = true
		}
		if matches(ev.AssistPlayerID) {
			ev.AssistPlayerID = nil
			changed = true
		}
		if matches(ev.PlayerInID) {
			ev.PlayerInID = nil
			changed = true
		}
		if matches(ev.PlayerOutID) {
			ev.PlayerOutID = nil
			changed = true
		}
		if ev.Type == model.EventSubstitution && ev.PlayerInID == nil && ev.PlayerOutID == nil {
			continue
		}
		events = append(events, ev)
	}
	g.Events = events
	return changed
}
