// Package model contains domain entities and DTOs used across layers.
// I keep it lean and focused on data shapes without behavior.
package model

import "time"

// Location is where a player currently is within one game.
type Location string

const (
	LocationBench    Location = "bench"
	LocationField    Location = "field"
	LocationInactive Location = "inactive"
)

// Valid reports whether l is one of the known locations.
func (l Location) Valid() bool {
	switch l {
	case LocationBench, LocationField, LocationInactive:
		return true
	default:
		return false
	}
}

// Venue is the side the tracked team plays as.
type Venue string

const (
	VenueHome Venue = "home"
	VenueAway Venue = "away"
)

func (v Venue) Valid() bool { return v == VenueHome || v == VenueAway }

// Side identifies a scoring side in events. It shares its values with Venue.
type Side = Venue

// TimerStatus reflects whether the match clock is running.
type TimerStatus string

const (
	TimerStopped TimerStatus = "stopped"
	TimerRunning TimerStatus = "running"
)

// StorageClass names the backing store that owns the authoritative copy of a game.
type StorageClass string

const (
	StorageVolatile StorageClass = "volatile"
	StorageDurable  StorageClass = "durable"
)

// EventType discriminates GameEvent variants.
type EventType string

const (
	EventGoal         EventType = "goal"
	EventSubstitution EventType = "substitution"
)

func (t EventType) Valid() bool { return t == EventGoal || t == EventSubstitution }

// Position is a 2-D coordinate on the pitch, both axes in percent (0..100).
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Valid reports whether both coordinates are within the pitch.
func (p Position) Valid() bool {
	return p.X >= 0 && p.X <= 100 && p.Y >= 0 && p.Y <= 100
}

// Player is a roster member as supplied by the roster store.
type Player struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	Name      string    `json:"name"`
	Number    *int      `json:"number,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PlayerLineupState is a player's status within one game.
type PlayerLineupState struct {
	PlayerID           string     `json:"player_id"`
	Location           Location   `json:"location"`
	Position           *Position  `json:"position,omitempty"`
	InitialPosition    *Position  `json:"initial_position,omitempty"`
	PlaytimeSeconds    int        `json:"playtime_seconds"`
	PlaytimerStartTime *time.Time `json:"playtimer_start_time,omitempty"`
	IsStarter          bool       `json:"is_starter"`
	SubbedOnCount      int        `json:"subbed_on_count"`
	SubbedOffCount     int        `json:"subbed_off_count"`
	// InactiveAccrues marks an inactive player who left the field after kickoff;
	// their playtimer restarts with the clock.
	InactiveAccrues bool `json:"inactive_accrues,omitempty"`
}

// GameEvent is one entry of the append-only game log.
// Goal events use Scorer/Assist; substitution events use PlayerIn/PlayerOut.
type GameEvent struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	Team           Side      `json:"team"`
	ScorerPlayerID *string   `json:"scorer_player_id,omitempty"`
	AssistPlayerID *string   `json:"assist_player_id,omitempty"`
	PlayerInID     *string   `json:"player_in_id,omitempty"`
	PlayerOutID    *string   `json:"player_out_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	GameSeconds    int       `json:"game_seconds"`
}

// Game is one match session.
type Game struct {
	ID                  string              `json:"id"`
	TeamID              string              `json:"team_id"`
	Opponent            string              `json:"opponent"`
	Date                string              `json:"date"` // YYYY-MM-DD
	Time                string              `json:"time"` // HH:MM, may be empty
	Location            Venue               `json:"location"`
	Season              string              `json:"season"`
	Competition         string              `json:"competition,omitempty"`
	HomeScore           int                 `json:"home_score"`
	AwayScore           int                 `json:"away_score"`
	TimerStatus         TimerStatus         `json:"timer_status"`
	TimerStartTime      *time.Time          `json:"timer_start_time,omitempty"`
	TimerElapsedSeconds int                 `json:"timer_elapsed_seconds"`
	IsFinished          bool                `json:"is_finished"`
	Lineup              []PlayerLineupState `json:"lineup"`
	Events              []GameEvent         `json:"events"`
	StorageClass        StorageClass        `json:"storage_class"`
	CreatedAt           time.Time           `json:"created_at"`
}

// LineupEntry finds the lineup state of a player, or nil.
func (g *Game) LineupEntry(playerID string) *PlayerLineupState {
	for i := range g.Lineup {
		if g.Lineup[i].PlayerID == playerID {
			return &g.Lineup[i]
		}
	}
	return nil
}

// Clone returns a deep copy so callers can't mutate stored state through shared slices or pointers.
func (g Game) Clone() Game {
	out := g
	out.TimerStartTime = cloneTime(g.TimerStartTime)
	if g.Lineup != nil {
		out.Lineup = make([]PlayerLineupState, len(g.Lineup))
		for i, p := range g.Lineup {
			p.Position = clonePos(p.Position)
			p.InitialPosition = clonePos(p.InitialPosition)
			p.PlaytimerStartTime = cloneTime(p.PlaytimerStartTime)
			out.Lineup[i] = p
		}
	}
	if g.Events != nil {
		out.Events = make([]GameEvent, len(g.Events))
		for i, e := range g.Events {
			e.ScorerPlayerID = cloneStr(e.ScorerPlayerID)
			e.AssistPlayerID = cloneStr(e.AssistPlayerID)
			e.PlayerInID = cloneStr(e.PlayerInID)
			e.PlayerOutID = cloneStr(e.PlayerOutID)
			out.Events[i] = e
		}
	}
	return out
}

// TemplateEntry is one player's slot in a saved lineup.
type TemplateEntry struct {
	PlayerID string    `json:"player_id"`
	Location Location  `json:"location"`
	Position *Position `json:"position,omitempty"`
}

// SavedLineup is a reusable bench/field snapshot independent of any game.
type SavedLineup struct {
	ID        string          `json:"id"`
	TeamID    string          `json:"team_id"`
	Name      string          `json:"name"`
	Players   []TemplateEntry `json:"players"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// GameHistory lists recently used seasons and competitions, newest first.
type GameHistory struct {
	Seasons      []string `json:"seasons"`
	Competitions []string `json:"competitions"`
}

// ClockSnapshot is a derived, display-only view of a game's clock.
type ClockSnapshot struct {
	GameID         string         `json:"game_id"`
	Status         TimerStatus    `json:"status"`
	ElapsedSeconds int            `json:"elapsed_seconds"`
	HomeScore      int            `json:"home_score"`
	AwayScore      int            `json:"away_score"`
	Playtime       map[string]int `json:"playtime"`
	SampledAt      time.Time      `json:"sampled_at"`
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func clonePos(p *Position) *Position {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
