package handler_test

import (
	"net/http"
	"testing"

	"github.com/maxviazov/matchday-session-service/internal/model"
	"github.com/maxviazov/matchday-session-service/internal/repository"
)

func TestPlayerHandler_ListAndSearch(t *testing.T) {
	e := newEnv(t, 12)

	w := e.do(t, http.MethodGet, "/players?limit=5&offset=10", nil)
	expectStatus(t, w, http.StatusOK)
	page := decode[repository.PageResult[model.Player]](t, w)
	if page.Total != 12 || len(page.Items) != 2 {
		t.Fatalf("expected 2 of 12 players, got %d of %d", len(page.Items), page.Total)
	}

	w = e.do(t, http.MethodGet, "/players/search?q=11", nil)
	expectStatus(t, w, http.StatusOK)
	res := decode[struct {
		Items []model.Player `json:"items"`
	}](t, w)
	if len(res.Items) == 0 || res.Items[0].ID != "P11" {
		t.Fatalf("shirt number match should rank first, got %+v", res.Items)
	}
}

func TestPlayerHandler_RemoveStripsGames(t *testing.T) {
	e := newEnv(t, 2)
	g := e.createGame(t)

	expectStatus(t, e.do(t, http.MethodDelete, "/players/P2", nil), http.StatusNoContent)

	w := e.do(t, http.MethodGet, "/games/"+g.ID, nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[model.Game](t, w); got.LineupEntry("P2") != nil {
		t.Fatalf("removed player still in lineup")
	}

	expectStatus(t, e.do(t, http.MethodDelete, "/players/P2", nil), http.StatusNotFound)
}
