package session

import (
	"strings"

	"github.com/maxviazov/matchday-session-service/internal/model"
)

// maxHistory bounds each recently-used list.
const maxHistory = 10

// History collects recently used seasons and competitions from games, newest
// game first. Blank values are skipped and duplicates keep their newest slot.
func History(games []model.Game) model.GameHistory {
	sorted := make([]model.Game, len(games))
	copy(sorted, games)
	SortGames(sorted)

	h := model.GameHistory{Seasons: []string{}, Competitions: []string{}}
	for _, g := range sorted {
		h.Seasons = pushRecent(h.Seasons, g.Season)
		h.Competitions = pushRecent(h.Competitions, g.Competition)
	}
	return h
}

func pushRecent(list []string, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" || len(list) >= maxHistory {
		return list
	}
	for _, v := range list {
		if strings.EqualFold(v, value) {
			return list
		}
	}
	return append(list, value)
}

// MostRecentSeason returns the newest season, or "" when none is known.
func MostRecentSeason(h model.GameHistory) string {
	if len(h.Seasons) == 0 {
		return ""
	}
	return h.Seasons[0]
}

// MostRecentCompetition returns the newest competition, or "" when none is known.
func MostRecentCompetition(h model.GameHistory) string {
	if len(h.Competitions) == 0 {
		return ""
	}
	return h.Competitions[0]
}
