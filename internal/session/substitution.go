package session

import (
	"time"

	"github.com/maxviazov/matchday-session-service/internal/model"
)

// movePlayer relocates one player. Bench to field and field to bench count as
// substitutions once the game is active; moves touching inactive never do.
func movePlayer(g *model.Game, playerID string, to model.Location, pos *model.Position, now time.Time) (*model.GameEvent, error) {
	if g.IsFinished {
		return nil, ErrFinished
	}
	if !to.Valid() {
		return nil, ErrInvalidMove
	}
	p := g.LineupEntry(playerID)
	if p == nil {
		return nil, ErrPlayerNotInLineup
	}
	if to == model.LocationField {
		if pos == nil && p.Location == model.LocationField {
			pos = p.Position
		}
		if pos == nil || !pos.Valid() {
			return nil, ErrInvalidPosition
		}
	}

	from := p.Location
	active := IsActive(*g, now)
	secs := ElapsedSeconds(*g, now)
	relocate(g, p, to, pos, now)

	if !active {
		return nil, nil
	}
	id := playerID
	switch {
	case from == model.LocationBench && to == model.LocationField:
		p.SubbedOnCount++
		ev := appendSubstitution(g, &id, nil, now, secs)
		return &ev, nil
	case from == model.LocationField && to == model.LocationBench:
		p.SubbedOffCount++
		ev := appendSubstitution(g, nil, &id, now, secs)
		return &ev, nil
	}
	return nil, nil
}

// swapPlayers exchanges the locations and positions of two players. A bench and
// field pair in an active game is logged as one substitution naming both players.
func swapPlayers(g *model.Game, aID, bID string, now time.Time) (*model.GameEvent, error) {
	if g.IsFinished {
		return nil, ErrFinished
	}
	if aID == bID {
		return nil, ErrInvalidMove
	}
	a, b := g.LineupEntry(aID), g.LineupEntry(bID)
	if a == nil || b == nil {
		return nil, ErrPlayerNotInLineup
	}
	if (a.Location == model.LocationField && a.Position == nil) || (b.Location == model.LocationField && b.Position == nil) {
		return nil, ErrInvalidPosition
	}
	if a.Location == b.Location {
		if a.Location == model.LocationField {
			a.Position, b.Position = b.Position, a.Position
		}
		return nil, nil
	}

	la, lb := a.Location, b.Location
	pa, pb := copyPos(a.Position), copyPos(b.Position)
	active := IsActive(*g, now)
	secs := ElapsedSeconds(*g, now)

	// the player leaving the field moves first
	if la == model.LocationField {
		relocate(g, a, lb, pb, now)
		relocate(g, b, la, pa, now)
	} else {
		relocate(g, b, la, pa, now)
		relocate(g, a, lb, pb, now)
	}

	if !active {
		return nil, nil
	}
	var in, out *model.PlayerLineupState
	switch {
	case la == model.LocationBench && lb == model.LocationField:
		in, out = a, b
	case la == model.LocationField && lb == model.LocationBench:
		in, out = b, a
	default:
		return nil, nil
	}
	in.SubbedOnCount++
	out.SubbedOffCount++
	inID, outID := in.PlayerID, out.PlayerID
	ev := appendSubstitution(g, &inID, &outID, now, secs)
	return &ev, nil
}

// relocate updates location, position and playtimer for one player.
func relocate(g *model.Game, p *model.PlayerLineupState, to model.Location, pos *model.Position, now time.Time) {
	wasAccruing := p.PlaytimerStartTime != nil
	kickedOff := PhaseOf(*g) != PhaseNotStarted
	foldPlaytimer(p, now)
	if to == model.LocationInactive {
		p.InactiveAccrues = p.InactiveAccrues || wasAccruing || (kickedOff && p.Location == model.LocationField)
	} else {
		p.InactiveAccrues = false
	}
	if g.TimerStatus == model.TimerRunning && (to == model.LocationField || (to == model.LocationInactive && p.InactiveAccrues)) {
		start := now
		p.PlaytimerStartTime = &start
	}
	p.Location = to
	if to == model.LocationField {
		p.Position = copyPos(pos)
	} else {
		p.Position = nil
	}
}

func copyPos(p *model.Position) *model.Position {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
