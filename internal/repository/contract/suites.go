package contract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maxviazov/matchday-session-service/internal/model"
	"github.com/maxviazov/matchday-session-service/internal/repository"
)

type VolatileFactory func(t *testing.T) (repository.VolatileStore, func())

type DurableFactory func(t *testing.T) (repository.DurableStore, func())

// PlayerFactory also returns a seed func; the repository contract has no create.
type PlayerFactory func(t *testing.T) (repo repository.PlayerRepository, seed func(ctx context.Context, p model.Player) error, cleanup func())

type TxFactory func(t *testing.T) (tx repository.TxManager, store repository.DurableStore, cleanup func())

type PingerFactory func(t *testing.T) (repository.Pinger, func())

var kickoff = time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)

func num(n int) *int { return &n }

func str(s string) *string { return &s }

func sampleGame(id, teamID string, finished bool) model.Game {
	g := model.Game{
		ID:                  id,
		TeamID:              teamID,
		Opponent:            "Rovers",
		Date:                "2025-09-06",
		Time:                "10:00",
		Location:            model.VenueHome,
		Season:              "2025/26",
		Competition:         "League",
		HomeScore:           1,
		TimerStatus:         model.TimerStopped,
		TimerElapsedSeconds: 1500,
		IsFinished:          finished,
		StorageClass:        model.StorageVolatile,
		CreatedAt:           kickoff,
		Lineup: []model.PlayerLineupState{
			{
				PlayerID: "p1", Location: model.LocationField,
				Position: &model.Position{X: 50, Y: 20}, InitialPosition: &model.Position{X: 50, Y: 20},
				PlaytimeSeconds: 1200, IsStarter: true, SubbedOffCount: 0,
			},
			{PlayerID: "p2", Location: model.LocationBench, PlaytimeSeconds: 300, IsStarter: true, SubbedOnCount: 1},
			{PlayerID: "p3", Location: model.LocationInactive},
		},
		Events: []model.GameEvent{
			{ID: id + "-e1", Type: model.EventGoal, Team: model.VenueHome, ScorerPlayerID: str("p1"), AssistPlayerID: str("p2"), Timestamp: kickoff.Add(10 * time.Minute), GameSeconds: 600},
			{ID: id + "-e2", Type: model.EventSubstitution, Team: model.VenueHome, PlayerInID: str("p2"), PlayerOutID: str("p3"), Timestamp: kickoff.Add(20 * time.Minute), GameSeconds: 1200},
		},
	}
	if finished {
		g.StorageClass = model.StorageDurable
	}
	return g
}

func byID(games []model.Game) map[string]model.Game {
	out := make(map[string]model.Game, len(games))
	for _, g := range games {
		out[g.ID] = g
	}
	return out
}

func RunVolatileStoreContract(t *testing.T, makeStore VolatileFactory) {
	t.Helper()

	t.Run("empty_team_loads_empty", func(t *testing.T) {
		store, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		got, err := store.LoadAll(context.Background(), "nobody")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected no games, got %d", len(got))
		}
	})

	t.Run("save_and_load_round_trip", func(t *testing.T) {
		store, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		running := sampleGame("g1", "team-a", false)
		running.TimerStatus = model.TimerRunning
		start := kickoff.Add(25 * time.Minute)
		running.TimerStartTime = &start
		running.Lineup[0].PlaytimerStartTime = &start
		if err := store.SaveAll(ctx, "team-a", []model.Game{running, sampleGame("g2", "team-a", false)}); err != nil {
			t.Fatalf("save: %v", err)
		}
		got, err := store.LoadAll(ctx, "team-a")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 games, got %d", len(got))
		}
		g1 := byID(got)["g1"]
		if g1.TimerStatus != model.TimerRunning || g1.TimerStartTime == nil || !g1.TimerStartTime.Equal(start) {
			t.Fatalf("timer not preserved: %+v", g1)
		}
		if len(g1.Lineup) != 3 || g1.Lineup[0].PlaytimerStartTime == nil || g1.Lineup[0].Position == nil {
			t.Fatalf("lineup not preserved: %+v", g1.Lineup)
		}
		if len(g1.Events) != 2 || g1.Events[1].PlayerInID == nil || *g1.Events[1].PlayerInID != "p2" {
			t.Fatalf("events not preserved: %+v", g1.Events)
		}
	})

	t.Run("save_replaces_collection", func(t *testing.T) {
		store, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		if err := store.SaveAll(ctx, "team-a", []model.Game{sampleGame("g1", "team-a", false), sampleGame("g2", "team-a", false)}); err != nil {
			t.Fatalf("save: %v", err)
		}
		if err := store.SaveAll(ctx, "team-a", []model.Game{sampleGame("g2", "team-a", false)}); err != nil {
			t.Fatalf("save2: %v", err)
		}
		got, err := store.LoadAll(ctx, "team-a")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(got) != 1 || got[0].ID != "g2" {
			t.Fatalf("expected only g2, got %+v", got)
		}
		if err := store.SaveAll(ctx, "team-a", nil); err != nil {
			t.Fatalf("save empty: %v", err)
		}
		got, _ = store.LoadAll(ctx, "team-a")
		if len(got) != 0 {
			t.Fatalf("expected empty after clearing, got %d", len(got))
		}
	})

	t.Run("teams_are_isolated", func(t *testing.T) {
		store, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		_ = store.SaveAll(ctx, "team-a", []model.Game{sampleGame("g1", "team-a", false)})
		_ = store.SaveAll(ctx, "team-b", []model.Game{sampleGame("g9", "team-b", false)})
		got, err := store.LoadAll(ctx, "team-b")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(got) != 1 || got[0].ID != "g9" {
			t.Fatalf("unexpected team-b games: %+v", got)
		}
	})
}

func RunDurableStoreContract(t *testing.T, makeStore DurableFactory) {
	t.Helper()

	t.Run("upsert_and_fetch_finished", func(t *testing.T) {
		store, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		if err := store.UpsertFinished(ctx, sampleGame("g1", "team-a", true)); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		got, err := store.FetchFinished(ctx, "team-a")
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 game, got %d", len(got))
		}
		g := got[0]
		if !g.IsFinished || g.HomeScore != 1 || g.TimerElapsedSeconds != 1500 || g.Opponent != "Rovers" {
			t.Fatalf("game fields not preserved: %+v", g)
		}
		if len(g.Lineup) != 3 || g.Lineup[0].PlayerID != "p1" || g.Lineup[0].Position == nil || g.Lineup[0].Position.X != 50 {
			t.Fatalf("lineup not preserved: %+v", g.Lineup)
		}
		if g.Lineup[1].SubbedOnCount != 1 || !g.Lineup[1].IsStarter {
			t.Fatalf("counters not preserved: %+v", g.Lineup[1])
		}
		if len(g.Events) != 2 || g.Events[0].ScorerPlayerID == nil || *g.Events[0].ScorerPlayerID != "p1" {
			t.Fatalf("events not preserved: %+v", g.Events)
		}
	})

	t.Run("upsert_replaces_lineup_and_events", func(t *testing.T) {
		store, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		g := sampleGame("g1", "team-a", true)
		if err := store.UpsertFinished(ctx, g); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		g.Lineup = g.Lineup[:1]
		g.Events = g.Events[:1]
		g.AwayScore = 3
		if err := store.UpsertFinished(ctx, g); err != nil {
			t.Fatalf("upsert2: %v", err)
		}
		got, _ := store.FetchFinished(ctx, "team-a")
		if len(got) != 1 || len(got[0].Lineup) != 1 || len(got[0].Events) != 1 || got[0].AwayScore != 3 {
			t.Fatalf("expected replaced game, got %+v", got)
		}
	})

	t.Run("delete_finished", func(t *testing.T) {
		store, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		_ = store.UpsertFinished(ctx, sampleGame("g1", "team-a", true))
		if err := store.DeleteFinished(ctx, "g1"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := store.DeleteFinished(ctx, "g1"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		got, _ := store.FetchFinished(ctx, "team-a")
		if len(got) != 0 {
			t.Fatalf("expected no games, got %d", len(got))
		}
	})

	t.Run("template_upsert_matches_on_name", func(t *testing.T) {
		store, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		first, err := store.UpsertTemplate(ctx, model.SavedLineup{
			ID: "t1", TeamID: "team-a", Name: "4-4-2",
			Players: []model.TemplateEntry{{PlayerID: "p1", Location: model.LocationField, Position: &model.Position{X: 10, Y: 10}}},
		})
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
		second, err := store.UpsertTemplate(ctx, model.SavedLineup{
			ID: "t2", TeamID: "team-a", Name: "4-4-2",
			Players: []model.TemplateEntry{{PlayerID: "p2", Location: model.LocationBench}},
		})
		if err != nil {
			t.Fatalf("upsert2: %v", err)
		}
		if second.ID != first.ID {
			t.Fatalf("expected same id on name match, got %s and %s", first.ID, second.ID)
		}
		list, err := store.FetchTemplates(ctx, "team-a")
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if len(list) != 1 || len(list[0].Players) != 1 || list[0].Players[0].PlayerID != "p2" {
			t.Fatalf("unexpected templates: %+v", list)
		}
	})

	t.Run("template_delete", func(t *testing.T) {
		store, cleanup := makeStore(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		saved, err := store.UpsertTemplate(ctx, model.SavedLineup{ID: "t1", TeamID: "team-a", Name: "Cup"})
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
		if err := store.DeleteTemplate(ctx, saved.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := store.DeleteTemplate(ctx, saved.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func RunPlayerRepositoryContract(t *testing.T, makeRepo PlayerFactory) {
	t.Helper()

	t.Run("get_and_not_found", func(t *testing.T) {
		repo, seed, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		if err := seed(ctx, model.Player{ID: "p1", TeamID: "team-a", Name: "Ada", Number: num(9)}); err != nil {
			t.Fatalf("seed: %v", err)
		}
		got, err := repo.GetByID(ctx, "p1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Name != "Ada" || got.Number == nil || *got.Number != 9 {
			t.Fatalf("mismatch: %+v", got)
		}
		if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list_by_team_pagination", func(t *testing.T) {
		repo, seed, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		for i := 0; i < 5; i++ {
			id := "p" + string(rune('a'+i))
			if err := seed(ctx, model.Player{ID: id, TeamID: "team-a", Name: id, Number: num(i + 1)}); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
		_ = seed(ctx, model.Player{ID: "other", TeamID: "team-b", Name: "other"})
		res, err := repo.ListByTeam(ctx, "team-a", repository.Page{Limit: 2})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(res.Items) != 2 || res.Total != 5 {
			t.Fatalf("unexpected page: len=%d total=%d", len(res.Items), res.Total)
		}
		res2, err := repo.ListByTeam(ctx, "team-a", repository.Page{Limit: 2, Offset: 4})
		if err != nil {
			t.Fatalf("list2: %v", err)
		}
		if len(res2.Items) != 1 || res2.Total != 5 {
			t.Fatalf("unexpected page2: len=%d total=%d", len(res2.Items), res2.Total)
		}
	})

	t.Run("delete", func(t *testing.T) {
		repo, seed, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		_ = seed(ctx, model.Player{ID: "p1", TeamID: "team-a", Name: "Ada"})
		if err := repo.Delete(ctx, "p1"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := repo.Delete(ctx, "p1"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func RunTxManagerContract(t *testing.T, makeTx TxFactory) {
	t.Helper()

	t.Run("commit_on_nil_error", func(t *testing.T) {
		tx, store, cleanup := makeTx(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			return store.UpsertFinished(ctx, sampleGame("g1", "team-a", true))
		})
		if err != nil {
			t.Fatalf("tx: %v", err)
		}
		got, _ := store.FetchFinished(ctx, "team-a")
		if len(got) != 1 {
			t.Fatalf("expected committed game, got %d", len(got))
		}
	})

	t.Run("rollback_on_error", func(t *testing.T) {
		tx, store, cleanup := makeTx(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		boom := errors.New("boom")
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := store.UpsertFinished(ctx, sampleGame("g1", "team-a", true)); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		got, _ := store.FetchFinished(ctx, "team-a")
		if len(got) != 0 {
			t.Fatalf("expected rollback, got %d games", len(got))
		}
	})
}

func RunPingerContract(t *testing.T, makePinger PingerFactory) {
	t.Helper()
	t.Run("ping_ok", func(t *testing.T) {
		p, cleanup := makePinger(t)
		t.Cleanup(cleanup)
		if err := p.Ping(context.Background()); err != nil {
			t.Fatalf("ping: %v", err)
		}
	})
}
