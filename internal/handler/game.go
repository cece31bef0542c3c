package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/matchday-session-service/internal/model"
	"github.com/maxviazov/matchday-session-service/internal/repository"
	"github.com/maxviazov/matchday-session-service/internal/service"
	"github.com/maxviazov/matchday-session-service/internal/session"
	"github.com/maxviazov/matchday-session-service/pkg/response"
)

type GameHandler struct {
	svc service.SessionService
}

func NewGameHandler(svc service.SessionService) *GameHandler { return &GameHandler{svc: svc} }

func (h *GameHandler) Register(r *gin.RouterGroup) {
	r.POST("/sync", h.sync)
	r.GET("/history", h.history)

	g := r.Group("/games")
	{
		g.GET("", h.list)
		g.POST("", h.create)
		g.GET("/:game_id", h.get)
		g.PUT("/:game_id", h.update)
		g.DELETE("/:game_id", h.remove)

		g.GET("/:game_id/clock", h.clock)
		g.POST("/:game_id/clock/start", h.startClock)
		g.POST("/:game_id/clock/stop", h.stopClock)
		g.GET("/:game_id/players/:player_id/playtime", h.playtime)

		g.POST("/:game_id/moves", h.move)
		g.POST("/:game_id/swaps", h.swap)
		g.POST("/:game_id/goals", h.addGoal)
		g.DELETE("/:game_id/goals/last", h.removeLastGoal)

		g.GET("/:game_id/plan", h.pendingPlan)
		g.POST("/:game_id/plan", h.stagePlan)
		g.POST("/:game_id/plan/commit", h.commitPlan)
		g.DELETE("/:game_id/plan", h.cancelPlan)
		g.DELETE("/:game_id/plan/:bench_player_id", h.unstagePlan)

		g.POST("/:game_id/finish", h.finish)
		g.POST("/:game_id/reset", h.reset)
	}
}

type moveRequest struct {
	PlayerID string          `json:"player_id"`
	Location model.Location  `json:"location"`
	Position *model.Position `json:"position"`
}

type swapRequest struct {
	PlayerAID string `json:"player_a_id"`
	PlayerBID string `json:"player_b_id"`
}

type goalRequest struct {
	Team     model.Side `json:"team"`
	ScorerID *string    `json:"scorer_player_id"`
	AssistID *string    `json:"assist_player_id"`
}

type planRequest struct {
	BenchPlayerID string         `json:"bench_player_id"`
	FieldPlayerID string         `json:"field_player_id"`
	Position      model.Position `json:"position"`
}

func badBody(c *gin.Context) {
	response.WriteError(c, service.ErrInvalidInput)
}

// writeGame is the common tail of every game mutation.
func writeGame(c *gin.Context, g model.Game, err error) {
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, g)
}

func (h *GameHandler) sync(c *gin.Context) {
	warnings, err := h.svc.Load(c.Request.Context(), c.Param("team_id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, w.String())
	}
	response.WriteData(c, http.StatusOK, gin.H{"warnings": out})
}

func (h *GameHandler) history(c *gin.Context) {
	hist, err := h.svc.History(c.Request.Context(), c.Param("team_id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{
		"seasons":            hist.Seasons,
		"competitions":       hist.Competitions,
		"recent_season":      session.MostRecentSeason(hist),
		"recent_competition": session.MostRecentCompetition(hist),
	})
}

func (h *GameHandler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	page := repository.Page{Limit: limit, Offset: offset}
	res, err := h.svc.ListGames(c.Request.Context(), c.Param("team_id"), page)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func (h *GameHandler) create(c *gin.Context) {
	var req session.Details
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	g, err := h.svc.CreateGame(c.Request.Context(), c.Param("team_id"), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, g)
}

func (h *GameHandler) get(c *gin.Context) {
	g, err := h.svc.GetGame(c.Request.Context(), c.Param("team_id"), c.Param("game_id"))
	writeGame(c, g, err)
}

func (h *GameHandler) update(c *gin.Context) {
	var req session.Details
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	g, err := h.svc.UpdateGame(c.Request.Context(), c.Param("team_id"), c.Param("game_id"), req)
	writeGame(c, g, err)
}

func (h *GameHandler) remove(c *gin.Context) {
	if err := h.svc.DeleteGame(c.Request.Context(), c.Param("team_id"), c.Param("game_id")); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *GameHandler) clock(c *gin.Context) {
	snap, err := h.svc.ClockSnapshot(c.Request.Context(), c.Param("team_id"), c.Param("game_id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, snap)
}

func (h *GameHandler) startClock(c *gin.Context) {
	g, err := h.svc.StartClock(c.Request.Context(), c.Param("team_id"), c.Param("game_id"))
	writeGame(c, g, err)
}

func (h *GameHandler) stopClock(c *gin.Context) {
	g, err := h.svc.StopClock(c.Request.Context(), c.Param("team_id"), c.Param("game_id"))
	writeGame(c, g, err)
}

func (h *GameHandler) playtime(c *gin.Context) {
	secs, err := h.svc.PlayerPlaytime(c.Request.Context(), c.Param("team_id"), c.Param("game_id"), c.Param("player_id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{"player_id": c.Param("player_id"), "playtime_seconds": secs})
}

func (h *GameHandler) move(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	g, err := h.svc.MovePlayer(c.Request.Context(), c.Param("team_id"), c.Param("game_id"), req.PlayerID, req.Location, req.Position)
	writeGame(c, g, err)
}

func (h *GameHandler) swap(c *gin.Context) {
	var req swapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	g, err := h.svc.SwapPlayers(c.Request.Context(), c.Param("team_id"), c.Param("game_id"), req.PlayerAID, req.PlayerBID)
	writeGame(c, g, err)
}

func (h *GameHandler) addGoal(c *gin.Context) {
	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	g, err := h.svc.AddGoal(c.Request.Context(), c.Param("team_id"), c.Param("game_id"), req.Team, req.ScorerID, req.AssistID)
	writeGame(c, g, err)
}

func (h *GameHandler) removeLastGoal(c *gin.Context) {
	team := model.Side(c.Query("team"))
	g, err := h.svc.RemoveLastGoal(c.Request.Context(), c.Param("team_id"), c.Param("game_id"), team)
	writeGame(c, g, err)
}

func writePlan(c *gin.Context, entries []session.PlanEntry, err error) {
	if err != nil {
		response.WriteError(c, err)
		return
	}
	if entries == nil {
		entries = []session.PlanEntry{}
	}
	response.WriteData(c, http.StatusOK, gin.H{"entries": entries})
}

func (h *GameHandler) pendingPlan(c *gin.Context) {
	entries, err := h.svc.PendingPlan(c.Request.Context(), c.Param("team_id"), c.Param("game_id"))
	writePlan(c, entries, err)
}

func (h *GameHandler) stagePlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	entries, err := h.svc.StagePlan(c.Request.Context(), c.Param("team_id"), c.Param("game_id"), req.BenchPlayerID, req.FieldPlayerID, req.Position)
	writePlan(c, entries, err)
}

func (h *GameHandler) unstagePlan(c *gin.Context) {
	entries, err := h.svc.UnstagePlan(c.Request.Context(), c.Param("team_id"), c.Param("game_id"), c.Param("bench_player_id"))
	writePlan(c, entries, err)
}

func (h *GameHandler) cancelPlan(c *gin.Context) {
	if err := h.svc.CancelPlan(c.Request.Context(), c.Param("team_id"), c.Param("game_id")); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *GameHandler) commitPlan(c *gin.Context) {
	g, err := h.svc.CommitPlan(c.Request.Context(), c.Param("team_id"), c.Param("game_id"))
	writeGame(c, g, err)
}

func (h *GameHandler) finish(c *gin.Context) {
	g, err := h.svc.FinishGame(c.Request.Context(), c.Param("team_id"), c.Param("game_id"))
	writeGame(c, g, err)
}

func (h *GameHandler) reset(c *gin.Context) {
	g, err := h.svc.ResetGame(c.Request.Context(), c.Param("team_id"), c.Param("game_id"))
	writeGame(c, g, err)
}
