package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/maxviazov/matchday-session-service/internal/live"
	"github.com/maxviazov/matchday-session-service/internal/service"
)

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Checks    map[string]Pinger
	Sessions  service.SessionService
	Templates service.TemplateService
	Roster    service.RosterService
	Hub       *live.Hub
	Logger    zerolog.Logger
}

// Register mounts all public routes on the given engine.
func Register(r *gin.Engine, d Deps) {
	h := NewHealthHandler(d.Checks)

	// Health probes
	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)

	// Docs endpoints (root-level)
	RegisterDocs(r)

	api := r.Group(APIV1Prefix)
	{
		health := api.Group("/health")
		{
			health.GET("/live", h.Liveness)
			health.GET("/ready", h.Readiness)
		}
		team := api.Group(TeamScope)
		if d.Sessions != nil {
			NewGameHandler(d.Sessions).Register(team)
		}
		if d.Templates != nil {
			NewLineupHandler(d.Templates).Register(team)
		}
		if d.Roster != nil {
			NewPlayerHandler(d.Roster).Register(team)
		}
		if d.Sessions != nil && d.Hub != nil {
			NewLiveHandler(d.Hub, d.Sessions, d.Logger).Register(team)
		}
	}
}

// RequestLogger writes one access log line per request.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	l := logger.With().Str("module", "handler").Str("component", "http").Logger()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		ev := l.Debug()
		switch {
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Info()
		}
		ev.Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Int("status", status).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}
