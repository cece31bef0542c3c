package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/matchday-session-service/internal/repository"
	"github.com/maxviazov/matchday-session-service/internal/service"
	"github.com/maxviazov/matchday-session-service/pkg/response"
)

type PlayerHandler struct {
	svc service.RosterService
}

func NewPlayerHandler(svc service.RosterService) *PlayerHandler { return &PlayerHandler{svc: svc} }

func (h *PlayerHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/players")
	{
		g.GET("", h.list)
		g.GET("/search", h.search)
		g.DELETE("/:player_id", h.remove)
	}
}

func (h *PlayerHandler) list(c *gin.Context) {
	// Atoi errors fall back to 0, which the service turns into the default page.
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	page := repository.Page{Limit: limit, Offset: offset}
	res, err := h.svc.ListPlayers(c.Request.Context(), c.Param("team_id"), page)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func (h *PlayerHandler) search(c *gin.Context) {
	players, err := h.svc.SearchPlayers(c.Request.Context(), c.Param("team_id"), c.Query("q"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{"items": players})
}

// remove deletes the player and strips them from every game and the draft.
func (h *PlayerHandler) remove(c *gin.Context) {
	if err := h.svc.RemovePlayer(c.Request.Context(), c.Param("team_id"), c.Param("player_id")); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
