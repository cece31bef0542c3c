// Package lineup holds the current lineup draft: the bench/field arrangement a
// coach prepares outside of any game, and the saved templates applied to it.
package lineup

import (
	"errors"

	"github.com/maxviazov/matchday-session-service/internal/model"
)

var (
	ErrUnknownPlayer   = errors.New("player not in draft")
	ErrInvalidLocation = errors.New("invalid location")
	ErrInvalidPosition = errors.New("invalid position")
)

// Draft is one team's current arrangement, kept in roster order.
// It is not safe for concurrent use.
type Draft struct {
	entries []model.TemplateEntry
}

// NewDraft starts a draft with every roster player on the bench.
func NewDraft(roster []model.Player) *Draft {
	d := &Draft{}
	d.Sync(roster)
	return d
}

// Sync aligns the draft with the roster: new players join on the bench and
// players no longer on the roster disappear.
func (d *Draft) Sync(roster []model.Player) {
	current := make(map[string]model.TemplateEntry, len(d.entries))
	for _, e := range d.entries {
		current[e.PlayerID] = e
	}
	next := make([]model.TemplateEntry, 0, len(roster))
	for _, p := range roster {
		if e, ok := current[p.ID]; ok {
			next = append(next, e)
			continue
		}
		next = append(next, model.TemplateEntry{PlayerID: p.ID, Location: model.LocationBench})
	}
	d.entries = next
}

// Move places one player. Field placements need a position on the pitch.
func (d *Draft) Move(playerID string, to model.Location, pos *model.Position) error {
	e := d.find(playerID)
	if e == nil {
		return ErrUnknownPlayer
	}
	if !to.Valid() {
		return ErrInvalidLocation
	}
	if to == model.LocationField {
		if pos == nil || !pos.Valid() {
			return ErrInvalidPosition
		}
		v := *pos
		e.Location, e.Position = to, &v
		return nil
	}
	e.Location, e.Position = to, nil
	return nil
}

// Swap exchanges two players' locations and positions.
func (d *Draft) Swap(aID, bID string) error {
	a, b := d.find(aID), d.find(bID)
	if a == nil || b == nil {
		return ErrUnknownPlayer
	}
	a.Location, b.Location = b.Location, a.Location
	a.Position, b.Position = b.Position, a.Position
	return nil
}

// Reset benches everyone.
func (d *Draft) Reset() {
	for i := range d.entries {
		d.entries[i].Location = model.LocationBench
		d.entries[i].Position = nil
	}
}

// Apply loads a template: listed players take their saved slot, everyone else
// is benched. A saved field slot without a usable position falls back to bench.
func (d *Draft) Apply(t model.SavedLineup) {
	saved := make(map[string]model.TemplateEntry, len(t.Players))
	for _, e := range t.Players {
		saved[e.PlayerID] = e
	}
	for i := range d.entries {
		e := &d.entries[i]
		s, ok := saved[e.PlayerID]
		if !ok || !s.Location.Valid() {
			e.Location, e.Position = model.LocationBench, nil
			continue
		}
		if s.Location == model.LocationField {
			if s.Position == nil || !s.Position.Valid() {
				e.Location, e.Position = model.LocationBench, nil
				continue
			}
			pos := *s.Position
			e.Location, e.Position = model.LocationField, &pos
			continue
		}
		e.Location, e.Position = s.Location, nil
	}
}

// Remove drops a player from the draft. It reports whether the player was present.
func (d *Draft) Remove(playerID string) bool {
	for i, e := range d.entries {
		if e.PlayerID == playerID {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the current arrangement.
func (d *Draft) Snapshot() []model.TemplateEntry {
	out := make([]model.TemplateEntry, len(d.entries))
	for i, e := range d.entries {
		if e.Position != nil {
			pos := *e.Position
			e.Position = &pos
		}
		out[i] = e
	}
	return out
}

func (d *Draft) find(playerID string) *model.TemplateEntry {
	for i := range d.entries {
		if d.entries[i].PlayerID == playerID {
			return &d.entries[i]
		}
	}
	return nil
}
