package handler_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/maxviazov/matchday-session-service/internal/model"
	"github.com/maxviazov/matchday-session-service/pkg/response"
)

type draftBody struct {
	Players []model.TemplateEntry `json:"players"`
}

func locationOf(entries []model.TemplateEntry, id string) model.Location {
	for _, e := range entries {
		if e.PlayerID == id {
			return e.Location
		}
	}
	return ""
}

func TestLineupHandler_SaveLoadDelete(t *testing.T) {
	e := newEnv(t, 3)

	w := e.do(t, http.MethodGet, "/draft", nil)
	expectStatus(t, w, http.StatusOK)
	if d := decode[draftBody](t, w); len(d.Players) != 3 {
		t.Fatalf("expected 3 draft players, got %d", len(d.Players))
	}

	expectStatus(t, e.do(t, http.MethodPost, "/draft/moves", map[string]any{
		"player_id": "P1", "location": "field", "position": map[string]float64{"x": 50, "y": 10},
	}), http.StatusOK)
	expectStatus(t, e.do(t, http.MethodPost, "/draft/moves", map[string]any{
		"player_id": "P3", "location": "inactive",
	}), http.StatusOK)

	w = e.do(t, http.MethodPost, "/lineups", map[string]string{"name": "  Sunday XI "})
	expectStatus(t, w, http.StatusOK)
	if saved := decode[model.SavedLineup](t, w); saved.Name != "Sunday XI" || len(saved.Players) != 3 {
		t.Fatalf("unexpected saved lineup %+v", saved)
	}

	w = e.do(t, http.MethodPost, "/draft/reset", nil)
	expectStatus(t, w, http.StatusOK)
	if loc := locationOf(decode[draftBody](t, w).Players, "P1"); loc != model.LocationBench {
		t.Fatalf("reset should bench P1, got %q", loc)
	}

	w = e.do(t, http.MethodPost, "/lineups/"+url.PathEscape("Sunday XI")+"/load", nil)
	expectStatus(t, w, http.StatusOK)
	loaded := decode[draftBody](t, w).Players
	if locationOf(loaded, "P1") != model.LocationField || locationOf(loaded, "P3") != model.LocationInactive {
		t.Fatalf("template not applied: %+v", loaded)
	}

	w = e.do(t, http.MethodGet, "/lineups", nil)
	expectStatus(t, w, http.StatusOK)
	if list := decode[struct {
		Items []model.SavedLineup `json:"items"`
	}](t, w); len(list.Items) != 1 {
		t.Fatalf("expected one saved lineup, got %d", len(list.Items))
	}

	expectStatus(t, e.do(t, http.MethodDelete, "/lineups/"+url.PathEscape("Sunday XI"), nil), http.StatusNoContent)
	w = e.do(t, http.MethodPost, "/lineups/"+url.PathEscape("Sunday XI")+"/load", nil)
	expectStatus(t, w, http.StatusNotFound)
	if p := decode[response.ErrorPayload](t, w); p.Error != "lineup_not_found" {
		t.Fatalf("expected lineup_not_found, got %q", p.Error)
	}
}

func TestLineupHandler_DraftSwapAndErrors(t *testing.T) {
	e := newEnv(t, 2)
	expectStatus(t, e.do(t, http.MethodPost, "/draft/moves", map[string]any{
		"player_id": "P1", "location": "field", "position": map[string]float64{"x": 20, "y": 20},
	}), http.StatusOK)

	w := e.do(t, http.MethodPost, "/draft/swaps", map[string]string{"player_a_id": "P1", "player_b_id": "P2"})
	expectStatus(t, w, http.StatusOK)
	if loc := locationOf(decode[draftBody](t, w).Players, "P2"); loc != model.LocationField {
		t.Fatalf("P2 should take the field slot, got %q", loc)
	}

	w = e.do(t, http.MethodPost, "/draft/moves", map[string]any{"player_id": "P9", "location": "bench"})
	expectStatus(t, w, http.StatusNotFound)

	w = e.do(t, http.MethodPost, "/lineups", map[string]string{"name": "   "})
	expectStatus(t, w, http.StatusBadRequest)
}
