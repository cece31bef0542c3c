package session

import (
	"time"

	"github.com/maxviazov/matchday-session-service/internal/model"
)

// PlanEntry is one staged swap: a bench player taking a field player's spot.
type PlanEntry struct {
	BenchPlayerID string         `json:"bench_player_id"`
	FieldPlayerID string         `json:"field_player_id"`
	Position      model.Position `json:"position"`
}

// Plan stages bench to field swaps without touching the lineup until Commit.
// The zero value is not usable; use NewPlan.
type Plan struct {
	entries map[string]PlanEntry
	order   []string
}

func NewPlan() *Plan {
	return &Plan{entries: make(map[string]PlanEntry)}
}

// Stage adds or replaces the entry for benchID. Any other bench player's claim
// on the same field player is dropped. g is only read.
func (p *Plan) Stage(g model.Game, benchID, fieldID string, pos model.Position) error {
	if g.IsFinished {
		return ErrFinished
	}
	bench, field := g.LineupEntry(benchID), g.LineupEntry(fieldID)
	if bench == nil || field == nil {
		return ErrPlayerNotInLineup
	}
	if bench.Location != model.LocationBench || field.Location != model.LocationField {
		return ErrInvalidMove
	}
	if !pos.Valid() {
		return ErrInvalidPosition
	}

	for id, e := range p.entries {
		if id != benchID && e.FieldPlayerID == fieldID {
			p.drop(id)
		}
	}
	if _, ok := p.entries[benchID]; !ok {
		p.order = append(p.order, benchID)
	}
	p.entries[benchID] = PlanEntry{BenchPlayerID: benchID, FieldPlayerID: fieldID, Position: pos}
	return nil
}

// Unstage removes the entry for benchID if present.
func (p *Plan) Unstage(benchID string) { p.drop(benchID) }

// Cancel discards every staged entry.
func (p *Plan) Cancel() {
	clear(p.entries)
	p.order = p.order[:0]
}

func (p *Plan) Len() int { return len(p.entries) }

// Entries returns staged entries in staging order.
func (p *Plan) Entries() []PlanEntry {
	out := make([]PlanEntry, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.entries[id])
	}
	return out
}

func (p *Plan) drop(benchID string) {
	if _, ok := p.entries[benchID]; !ok {
		return
	}
	delete(p.entries, benchID)
	for i, id := range p.order {
		if id == benchID {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// commitPlan applies every entry to g in staging order: the field player goes
// to the bench, then the bench player takes the staged position. Either all
// entries apply or g is left untouched.
func commitPlan(g *model.Game, p *Plan, now time.Time) ([]model.GameEvent, error) {
	if g.IsFinished {
		return nil, ErrFinished
	}
	work := g.Clone()
	active := IsActive(work, now)
	secs := ElapsedSeconds(work, now)

	var events []model.GameEvent
	for _, e := range p.Entries() {
		field, bench := work.LineupEntry(e.FieldPlayerID), work.LineupEntry(e.BenchPlayerID)
		if field == nil || bench == nil {
			return nil, ErrPlayerNotInLineup
		}
		if field.Location != model.LocationField || bench.Location != model.LocationBench {
			return nil, ErrInvalidMove
		}
		pos := e.Position
		relocate(&work, field, model.LocationBench, nil, now)
		relocate(&work, bench, model.LocationField, &pos, now)

		if active {
			field.SubbedOffCount++
			bench.SubbedOnCount++
			in, out := e.BenchPlayerID, e.FieldPlayerID
			events = append(events, appendSubstitution(&work, &in, &out, now, secs))
		}
	}
	*g = work
	p.Cancel()
	return events, nil
}
