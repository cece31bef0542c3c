package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/maxviazov/matchday-session-service/internal/live"
	"github.com/maxviazov/matchday-session-service/internal/service"
	"github.com/maxviazov/matchday-session-service/pkg/response"
)

const liveWriteTimeout = 5 * time.Second

// LiveHandler upgrades to a websocket and streams one game's updates.
type LiveHandler struct {
	hub    *live.Hub
	svc    service.SessionService
	logger zerolog.Logger
}

func NewLiveHandler(hub *live.Hub, svc service.SessionService, logger zerolog.Logger) *LiveHandler {
	return &LiveHandler{
		hub:    hub,
		svc:    svc,
		logger: logger.With().Str("module", "handler").Str("component", "live").Logger(),
	}
}

func (h *LiveHandler) Register(r *gin.RouterGroup) {
	r.GET("/games/:game_id/live", h.stream)
}

func (h *LiveHandler) stream(c *gin.Context) {
	teamID, gameID := c.Param("team_id"), c.Param("game_id")

	// resolve before upgrading so an unknown game is a plain 404
	g, err := h.svc.GetGame(c.Request.Context(), teamID, gameID)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	snap, err := h.svc.ClockSnapshot(c.Request.Context(), teamID, gameID)
	if err != nil {
		response.WriteError(c, err)
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	// clients only listen; CloseRead handles control frames and cancels on close
	ctx := conn.CloseRead(c.Request.Context())

	client := live.NewClient(teamID, gameID)
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := h.write(ctx, conn, live.Message{Type: live.MessageGame, Game: &g}); err != nil {
		return
	}
	if err := h.write(ctx, conn, live.Message{Type: live.MessageClock, Clock: &snap}); err != nil {
		return
	}

	log := h.logger.With().Str("team_id", teamID).Str("game_id", gameID).Logger()
	log.Debug().Msg("live client connected")
	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("live client gone")
			return
		case msg, ok := <-client.Send:
			if !ok {
				h.closeDropped(conn, log)
				return
			}
			if err := h.write(ctx, conn, msg); err != nil {
				log.Debug().Err(err).Msg("live write failed")
				return
			}
		}
	}
}

// closeDropped tells the client why the hub closed its outbox.
func (h *LiveHandler) closeDropped(conn *websocket.Conn, log zerolog.Logger) {
	select {
	case <-h.hub.Done():
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	default:
		log.Debug().Msg("live client dropped as too slow")
		conn.Close(websocket.StatusTryAgainLater, "client too slow")
	}
}

func (h *LiveHandler) write(ctx context.Context, conn *websocket.Conn, msg live.Message) error {
	wctx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, msg)
}
