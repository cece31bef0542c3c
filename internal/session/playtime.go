package session

import (
	"time"

	"github.com/maxviazov/matchday-session-service/internal/model"
)

// accrues reports whether a player at l keeps collecting playtime while the clock runs.
func accrues(l model.Location) bool {
	return l == model.LocationField || l == model.LocationInactive
}

// startPlaytimers starts a playtimer for every field player, and on a restart
// for inactive players who left the field after kickoff. On the very first
// start it also marks starters and captures their initial positions.
func startPlaytimers(g *model.Game, now time.Time, firstStart bool) {
	for i := range g.Lineup {
		p := &g.Lineup[i]
		if firstStart {
			p.IsStarter = p.Location == model.LocationField || p.Location == model.LocationBench
			if p.Location == model.LocationField && p.Position != nil {
				pos := *p.Position
				p.InitialPosition = &pos
			}
		}
		if p.Location == model.LocationField || (!firstStart && p.Location == model.LocationInactive && p.InactiveAccrues) {
			start := now
			p.PlaytimerStartTime = &start
		}
	}
}

// foldPlaytimers folds every running playtimer into accumulated playtime.
func foldPlaytimers(g *model.Game, now time.Time) {
	for i := range g.Lineup {
		p := &g.Lineup[i]
		if accrues(p.Location) && p.PlaytimerStartTime != nil {
			foldPlaytimer(p, now)
		}
	}
}

func foldPlaytimer(p *model.PlayerLineupState, now time.Time) {
	if p.PlaytimerStartTime == nil {
		return
	}
	p.PlaytimeSeconds += wholeSeconds(now.Sub(*p.PlaytimerStartTime))
	p.PlaytimerStartTime = nil
}

// PlayerPlaytime is the display playtime for p at now, including a running playtimer.
func PlayerPlaytime(p model.PlayerLineupState, now time.Time) int {
	total := p.PlaytimeSeconds
	if p.PlaytimerStartTime != nil {
		total += wholeSeconds(now.Sub(*p.PlaytimerStartTime))
	}
	return total
}

// Snapshot samples the derived clock view of g. It never changes g.
func Snapshot(g model.Game, now time.Time) model.ClockSnapshot {
	playtime := make(map[string]int, len(g.Lineup))
	for _, p := range g.Lineup {
		playtime[p.PlayerID] = PlayerPlaytime(p, now)
	}
	return model.ClockSnapshot{
		GameID:         g.ID,
		Status:         g.TimerStatus,
		ElapsedSeconds: ElapsedSeconds(g, now),
		HomeScore:      g.HomeScore,
		AwayScore:      g.AwayScore,
		Playtime:       playtime,
		SampledAt:      now,
	}
}
