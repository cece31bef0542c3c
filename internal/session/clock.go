// Package session implements the live game engine: match clock, playtime,
// substitutions, event log, planning and the volatile/durable lifecycle.
//
// Everything here is pure in-memory state manipulation. Callers pass the
// current instant explicitly so behavior is deterministic under test.
package session

import (
	"math"
	"time"

	"github.com/maxviazov/matchday-session-service/internal/model"
)

// Phase is the lifecycle state derived from a game's clock and finished flag.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseRunning    Phase = "running"
	PhasePaused     Phase = "paused"
	PhaseFinished   Phase = "finished"
)

// PhaseOf derives the lifecycle phase of g.
func PhaseOf(g model.Game) Phase {
	switch {
	case g.IsFinished:
		return PhaseFinished
	case g.TimerStatus == model.TimerRunning:
		return PhaseRunning
	case g.TimerElapsedSeconds > 0:
		return PhasePaused
	default:
		return PhaseNotStarted
	}
}

// ElapsedSeconds is the match clock reading at now. It is always recomputed
// from the accumulated base and the running start instant.
func ElapsedSeconds(g model.Game, now time.Time) int {
	elapsed := g.TimerElapsedSeconds
	if g.TimerStatus == model.TimerRunning && g.TimerStartTime != nil {
		elapsed += wholeSeconds(now.Sub(*g.TimerStartTime))
	}
	return elapsed
}

// IsActive reports whether moves should be recorded as match substitutions:
// the clock is running, or it is stopped after some play.
func IsActive(g model.Game, now time.Time) bool {
	if g.TimerStatus == model.TimerRunning {
		return true
	}
	return ElapsedSeconds(g, now) > 0
}

// startClock moves a stopped clock to running. It reports whether this was
// the first start of the session.
func startClock(g *model.Game, now time.Time) (bool, error) {
	if g.IsFinished {
		return false, ErrFinished
	}
	if g.TimerStatus == model.TimerRunning {
		return false, ErrInvalidTransition
	}
	firstStart := g.TimerElapsedSeconds == 0 && g.TimerStartTime == nil

	start := now
	g.TimerStartTime = &start
	g.TimerStatus = model.TimerRunning

	startPlaytimers(g, now, firstStart)
	if firstStart {
		g.Date = now.Format(DateLayout)
		g.Time = now.Format(TimeLayout)
	}
	return firstStart, nil
}

func stopClock(g *model.Game, now time.Time) error {
	if g.IsFinished {
		return ErrFinished
	}
	if g.TimerStatus != model.TimerRunning {
		return ErrInvalidTransition
	}
	g.TimerElapsedSeconds = ElapsedSeconds(*g, now)
	g.TimerStartTime = nil
	g.TimerStatus = model.TimerStopped

	foldPlaytimers(g, now)
	return nil
}

// Layouts used for the game's date and kick-off time fields.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// wholeSeconds rounds d to the nearest second; negative durations count as zero.
func wholeSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds()))
}
