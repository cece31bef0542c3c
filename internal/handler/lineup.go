package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/matchday-session-service/internal/model"
	"github.com/maxviazov/matchday-session-service/internal/service"
	"github.com/maxviazov/matchday-session-service/pkg/response"
)

// LineupHandler serves saved lineups and the draft they are built from.
type LineupHandler struct {
	svc service.TemplateService
}

func NewLineupHandler(svc service.TemplateService) *LineupHandler { return &LineupHandler{svc: svc} }

func (h *LineupHandler) Register(r *gin.RouterGroup) {
	l := r.Group("/lineups")
	{
		l.GET("", h.list)
		l.POST("", h.save)
		l.POST("/:name/load", h.load)
		l.DELETE("/:name", h.remove)
	}
	d := r.Group("/draft")
	{
		d.GET("", h.draft)
		d.POST("/moves", h.move)
		d.POST("/swaps", h.swap)
		d.POST("/reset", h.reset)
	}
}

type saveLineupRequest struct {
	Name string `json:"name"`
}

func writeEntries(c *gin.Context, entries []model.TemplateEntry, err error) {
	if err != nil {
		response.WriteError(c, err)
		return
	}
	if entries == nil {
		entries = []model.TemplateEntry{}
	}
	response.WriteData(c, http.StatusOK, gin.H{"players": entries})
}

func (h *LineupHandler) list(c *gin.Context) {
	items, err := h.svc.ListTemplates(c.Request.Context(), c.Param("team_id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	if items == nil {
		items = []model.SavedLineup{}
	}
	response.WriteData(c, http.StatusOK, gin.H{"items": items})
}

func (h *LineupHandler) save(c *gin.Context) {
	var req saveLineupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	saved, err := h.svc.SaveTemplate(c.Request.Context(), c.Param("team_id"), req.Name)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, saved)
}

func (h *LineupHandler) load(c *gin.Context) {
	entries, err := h.svc.LoadTemplate(c.Request.Context(), c.Param("team_id"), c.Param("name"))
	writeEntries(c, entries, err)
}

func (h *LineupHandler) remove(c *gin.Context) {
	if err := h.svc.DeleteTemplate(c.Request.Context(), c.Param("team_id"), c.Param("name")); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LineupHandler) draft(c *gin.Context) {
	entries, err := h.svc.Draft(c.Request.Context(), c.Param("team_id"))
	writeEntries(c, entries, err)
}

func (h *LineupHandler) move(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	entries, err := h.svc.MoveDraft(c.Request.Context(), c.Param("team_id"), req.PlayerID, req.Location, req.Position)
	writeEntries(c, entries, err)
}

func (h *LineupHandler) swap(c *gin.Context) {
	var req swapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	entries, err := h.svc.SwapDraft(c.Request.Context(), c.Param("team_id"), req.PlayerAID, req.PlayerBID)
	writeEntries(c, entries, err)
}

func (h *LineupHandler) reset(c *gin.Context) {
	entries, err := h.svc.ResetDraft(c.Request.Context(), c.Param("team_id"))
	writeEntries(c, entries, err)
}
