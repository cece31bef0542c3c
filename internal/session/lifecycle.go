package session

import (
	"strings"
	"time"

	"github.com/maxviazov/matchday-session-service/internal/model"
)

// Session is a game owned either by the volatile store (in progress) or by the
// durable store (finished). Volatile.Finish is the only way from one to the other.
type Session interface {
	ID() string
	Game() model.Game
	Class() model.StorageClass
	sealed()
}

// Details are the editable descriptive fields of a game.
type Details struct {
	Opponent    string      `json:"opponent"`
	Date        string      `json:"date"`
	Time        string      `json:"time"`
	Location    model.Venue `json:"location"`
	Season      string      `json:"season"`
	Competition string      `json:"competition"`
}

// NewGame builds a not-started game with every roster player on the bench.
func NewGame(id, teamID string, d Details, roster []model.Player, now time.Time) model.Game {
	lineup := make([]model.PlayerLineupState, 0, len(roster))
	for _, p := range roster {
		lineup = append(lineup, model.PlayerLineupState{PlayerID: p.ID, Location: model.LocationBench})
	}
	g := model.Game{
		ID:           id,
		TeamID:       teamID,
		TimerStatus:  model.TimerStopped,
		Lineup:       lineup,
		Events:       []model.GameEvent{},
		StorageClass: model.StorageVolatile,
		CreatedAt:    now,
	}
	applyDetails(&g, d)
	return g
}

func applyDetails(g *model.Game, d Details) {
	g.Opponent = strings.TrimSpace(d.Opponent)
	g.Date = strings.TrimSpace(d.Date)
	g.Time = strings.TrimSpace(d.Time)
	g.Location = d.Location
	g.Season = strings.TrimSpace(d.Season)
	g.Competition = strings.TrimSpace(d.Competition)
}

// Volatile is an in-progress game. All gameplay mutators live here.
type Volatile struct {
	game model.Game
}

// NewVolatile wraps g as an in-progress session.
func NewVolatile(g model.Game) *Volatile {
	g = g.Clone()
	g.StorageClass = model.StorageVolatile
	return &Volatile{game: g}
}

func (v *Volatile) ID() string                { return v.game.ID }
func (v *Volatile) Game() model.Game          { return v.game.Clone() }
func (v *Volatile) Class() model.StorageClass { return model.StorageVolatile }
func (*Volatile) sealed()                     {}

// StartClock starts or resumes the match clock. kickoff is true on the first start.
func (v *Volatile) StartClock(now time.Time) (kickoff bool, err error) {
	return startClock(&v.game, now)
}

func (v *Volatile) StopClock(now time.Time) error { return stopClock(&v.game, now) }

// MovePlayer relocates a player and returns the substitution event it produced, if any.
func (v *Volatile) MovePlayer(playerID string, to model.Location, pos *model.Position, now time.Time) (*model.GameEvent, error) {
	return movePlayer(&v.game, playerID, to, pos, now)
}

// SwapPlayers exchanges two players' places and returns the substitution event, if any.
func (v *Volatile) SwapPlayers(aID, bID string, now time.Time) (*model.GameEvent, error) {
	return swapPlayers(&v.game, aID, bID, now)
}

func (v *Volatile) AddGoal(team model.Side, scorerID, assistID *string, now time.Time) (model.GameEvent, error) {
	return addGoal(&v.game, team, scorerID, assistID, now)
}

func (v *Volatile) RemoveLastGoal(team model.Side) (bool, error) {
	return removeLastGoal(&v.game, team)
}

// CommitPlan applies and clears p.
func (v *Volatile) CommitPlan(p *Plan, now time.Time) ([]model.GameEvent, error) {
	return commitPlan(&v.game, p, now)
}

// UpdateDetails replaces the descriptive fields. Gameplay state is untouched.
func (v *Volatile) UpdateDetails(d Details) error {
	if v.game.IsFinished {
		return ErrFinished
	}
	applyDetails(&v.game, d)
	return nil
}

// Reset returns the game to not started: everyone benched, no playtime,
// no starters, zero score and an empty log.
func (v *Volatile) Reset() error {
	g := &v.game
	if g.IsFinished {
		return ErrFinished
	}
	g.TimerStatus = model.TimerStopped
	g.TimerStartTime = nil
	g.TimerElapsedSeconds = 0
	g.HomeScore, g.AwayScore = 0, 0
	g.Events = []model.GameEvent{}
	for i := range g.Lineup {
		g.Lineup[i] = model.PlayerLineupState{PlayerID: g.Lineup[i].PlayerID, Location: model.LocationBench}
	}
	return nil
}

// AddPlayer appends a benched lineup entry for a player that joined the roster later.
func (v *Volatile) AddPlayer(playerID string) bool {
	if v.game.LineupEntry(playerID) != nil {
		return false
	}
	v.game.Lineup = append(v.game.Lineup, model.PlayerLineupState{PlayerID: playerID, Location: model.LocationBench})
	return true
}

// RemovePlayer strips every reference to playerID. It reports whether anything changed.
func (v *Volatile) RemovePlayer(playerID string) bool {
	return removePlayerRefs(&v.game, playerID)
}

// Finish produces the durable form of the session: clock stopped, playtimes
// folded, every playtimer cleared and the finished flag set. v itself is not
// modified, so a failed durable write leaves the volatile session as it was.
func (v *Volatile) Finish(now time.Time) (Durable, error) {
	if v.game.IsFinished {
		return Durable{}, ErrFinished
	}
	g := v.game.Clone()
	if g.TimerStatus == model.TimerRunning {
		if err := stopClock(&g, now); err != nil {
			return Durable{}, err
		}
	}
	for i := range g.Lineup {
		g.Lineup[i].PlaytimerStartTime = nil
	}
	g.IsFinished = true
	g.StorageClass = model.StorageDurable
	return Durable{game: g}, nil
}

// Durable is a finished game mirrored from the durable store. It is read-mostly.
type Durable struct {
	game model.Game
}

// RestoreDurable wraps a record loaded from the durable store, forcing the
// finished invariants onto it.
func RestoreDurable(g model.Game) Durable {
	g = g.Clone()
	g.IsFinished = true
	g.StorageClass = model.StorageDurable
	g.TimerStatus = model.TimerStopped
	g.TimerStartTime = nil
	for i := range g.Lineup {
		g.Lineup[i].PlaytimerStartTime = nil
	}
	return Durable{game: g}
}

func (d Durable) ID() string                { return d.game.ID }
func (d Durable) Game() model.Game          { return d.game.Clone() }
func (d Durable) Class() model.StorageClass { return model.StorageDurable }
func (Durable) sealed()                     {}

// RemovePlayer updates the in-memory mirror only.
func (d *Durable) RemovePlayer(playerID string) bool {
	return removePlayerRefs(&d.game, playerID)
}

var (
	_ Session = (*Volatile)(nil)
	_ Session = Durable{}
)
