package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/maxviazov/matchday-session-service/internal/handler"
	"github.com/maxviazov/matchday-session-service/internal/live"
	"github.com/maxviazov/matchday-session-service/internal/model"
	"github.com/maxviazov/matchday-session-service/internal/repository/memory"
	"github.com/maxviazov/matchday-session-service/internal/service"
)

const team = "team-a"

var t0 = time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

// stubPinger implements handler.Pinger for health endpoints.
type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

// env wires the real services over in-memory stores behind a gin engine.
type env struct {
	clock    fakeClock
	sessions service.SessionService
	hub      *live.Hub
	stopHub  context.CancelFunc
	router   *gin.Engine
}

func newEnv(t *testing.T, players int) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zerolog.New(io.Discard)

	roster := memory.NewPlayerStore()
	for i := 1; i <= players; i++ {
		num := i
		roster.Add(model.Player{ID: fmt.Sprintf("P%d", i), TeamID: team, Name: fmt.Sprintf("Player %d", i), Number: &num})
	}
	durable := memory.NewDurableStore()
	clock := clockwork.NewFakeClockAt(t0)

	sessions := service.NewSessionService(memory.NewVolatileStore(), durable, roster, clock, logger)
	templates := service.NewTemplateService(durable, roster, logger)
	rosterSvc := service.NewRosterService(roster, logger)
	rosterSvc.Subscribe(sessions)
	rosterSvc.Subscribe(templates)

	hub := live.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	sessions.OnChange(hub.PublishGame)

	r := gin.New()
	handler.Register(r, handler.Deps{
		Checks:    map[string]handler.Pinger{"memory": memory.Pinger{}},
		Sessions:  sessions,
		Templates: templates,
		Roster:    rosterSvc,
		Hub:       hub,
		Logger:    logger,
	})
	return &env{clock: clock, sessions: sessions, hub: hub, stopHub: cancel, router: r}
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = bytes.NewBufferString(b)
		default:
			buf, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			rd = bytes.NewReader(buf)
		}
	}
	req := httptest.NewRequest(method, "/api/v1/teams/"+team+path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %T: %v (body=%s)", out, err, w.Body.String())
	}
	return out
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

var details = map[string]string{
	"opponent": "Rovers",
	"date":     "2025-09-06",
	"time":     "10:30",
	"location": "home",
	"season":   "2025/26",
}

func (e *env) createGame(t *testing.T) model.Game {
	t.Helper()
	w := e.do(t, http.MethodPost, "/games", details)
	expectStatus(t, w, http.StatusCreated)
	return decode[model.Game](t, w)
}
