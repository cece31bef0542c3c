package service

import (
	"strings"
	"time"

	"github.com/maxviazov/matchday-session-service/internal/model"
	"github.com/maxviazov/matchday-session-service/internal/repository"
	"github.com/maxviazov/matchday-session-service/internal/session"
)

func normalizePage(p repository.Page) repository.Page {
	limit := p.Limit
	offset := p.Offset
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return repository.Page{Limit: limit, Offset: offset}
}

func isValidDate(s string) bool {
	_, err := time.Parse(session.DateLayout, s)
	return err == nil
}

func isValidClock(s string) bool {
	_, err := time.Parse(session.TimeLayout, s)
	return err == nil
}

// normalizeDetails trims the free-text fields and defaults the venue to home.
func normalizeDetails(d session.Details) session.Details {
	d.Opponent = strings.TrimSpace(d.Opponent)
	d.Date = strings.TrimSpace(d.Date)
	d.Time = strings.TrimSpace(d.Time)
	d.Season = strings.TrimSpace(d.Season)
	d.Competition = strings.TrimSpace(d.Competition)
	if d.Location == "" {
		d.Location = model.VenueHome
	}
	return d
}

func validateDetails(d session.Details) error {
	var ferrs []FieldError
	if len(d.Opponent) > 120 {
		ferrs = append(ferrs, FieldError{Field: "opponent", Message: "must be at most 120 characters"})
	}
	if d.Date != "" && !isValidDate(d.Date) {
		ferrs = append(ferrs, FieldError{Field: "date", Message: "invalid format, expected YYYY-MM-DD"})
	}
	if d.Time != "" && !isValidClock(d.Time) {
		ferrs = append(ferrs, FieldError{Field: "time", Message: "invalid format, expected HH:MM"})
	}
	if !d.Location.Valid() {
		ferrs = append(ferrs, FieldError{Field: "location", Message: "must be one of home|away"})
	}
	return newInvalidInput(ferrs)
}

func requireID(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return newInvalidInput([]FieldError{{Field: field, Message: "must be set"}})
	}
	return nil
}
