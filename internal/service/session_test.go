package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/matchday-session-service/internal/model"
	"github.com/maxviazov/matchday-session-service/internal/repository"
	"github.com/maxviazov/matchday-session-service/internal/service"
	"github.com/maxviazov/matchday-session-service/internal/session"
)

// kickoffGame creates a game and puts P1..P11 on the field.
func kickoffGame(t *testing.T, h *harness) model.Game {
	t.Helper()
	ctx := context.Background()
	g, err := h.sessions.CreateGame(ctx, team, session.Details{Opponent: "Rovers", Season: "2025/26"})
	require.NoError(t, err)
	for i := 1; i <= 11; i++ {
		g, err = h.sessions.MovePlayer(ctx, team, g.ID, fmt.Sprintf("P%d", i), model.LocationField, pos(float64(i*8), 50))
		require.NoError(t, err)
	}
	return g
}

func TestSessionService_CreateGameSeedsRosterOnBench(t *testing.T) {
	h := newHarness(t, 4)
	g, err := h.sessions.CreateGame(context.Background(), team, session.Details{Opponent: "  Rovers ", Competition: "Cup"})
	require.NoError(t, err)

	assert.NotEmpty(t, g.ID)
	assert.Equal(t, "Rovers", g.Opponent)
	assert.Equal(t, model.VenueHome, g.Location)
	assert.Equal(t, model.StorageVolatile, g.StorageClass)
	require.Len(t, g.Lineup, 4)
	for _, p := range g.Lineup {
		assert.Equal(t, model.LocationBench, p.Location)
		assert.Zero(t, p.PlaytimeSeconds)
	}

	stored, err := h.volatile.LoadAll(context.Background(), team)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, g.ID, stored[0].ID)
}

func TestSessionService_CreateGame_Validation(t *testing.T) {
	h := newHarness(t, 1)
	cases := []struct {
		name  string
		d     session.Details
		field string
	}{
		{"bad date", session.Details{Date: "06/09/2025"}, "date"},
		{"bad time", session.Details{Time: "25:99"}, "time"},
		{"bad venue", session.Details{Location: model.Venue("neutral")}, "location"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.sessions.CreateGame(context.Background(), team, tc.d)
			require.ErrorIs(t, err, service.ErrInvalidInput)
			fields := service.FieldErrors(err)
			require.NotEmpty(t, fields)
			assert.Equal(t, tc.field, fields[0].Field)
		})
	}

	_, err := h.sessions.CreateGame(context.Background(), "", session.Details{})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestSessionService_MatchScenario(t *testing.T) {
	h := newHarness(t, 15)
	ctx := context.Background()
	g := kickoffGame(t, h)

	g, err := h.sessions.StartClock(ctx, team, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-09-06", g.Date)
	assert.Equal(t, "10:00", g.Time)
	assert.True(t, entry(g, "P12").IsStarter)

	h.advance(600)
	_, err = h.sessions.AddGoal(ctx, team, g.ID, model.VenueHome, strp("P1"), nil)
	require.NoError(t, err)

	h.advance(600)
	g, err = h.sessions.SwapPlayers(ctx, team, g.ID, "P12", "P3")
	require.NoError(t, err)

	h.advance(1500)
	g, err = h.sessions.StopClock(ctx, team, g.ID)
	require.NoError(t, err)

	assert.Equal(t, 2700, g.TimerElapsedSeconds)
	assert.Equal(t, 1, g.HomeScore)

	goals := eventsOfType(g, model.EventGoal)
	require.Len(t, goals, 1)
	assert.Equal(t, 600, goals[0].GameSeconds)
	assert.Equal(t, "P1", *goals[0].ScorerPlayerID)

	subs := eventsOfType(g, model.EventSubstitution)
	require.Len(t, subs, 1)
	assert.Equal(t, 1200, subs[0].GameSeconds)
	assert.Equal(t, "P12", *subs[0].PlayerInID)
	assert.Equal(t, "P3", *subs[0].PlayerOutID)

	assert.Equal(t, 1200, entry(g, "P3").PlaytimeSeconds)
	assert.Equal(t, 1500, entry(g, "P12").PlaytimeSeconds)
	assert.Equal(t, 1, entry(g, "P12").SubbedOnCount)
	assert.Equal(t, 1, entry(g, "P3").SubbedOffCount)
	assert.Equal(t, pos(24, 50), entry(g, "P12").Position)
	for _, p := range g.Lineup {
		assert.Nil(t, p.PlaytimerStartTime, p.PlayerID)
	}

	snap, err := h.sessions.ClockSnapshot(ctx, team, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 2700, snap.ElapsedSeconds)
	assert.Equal(t, 1500, snap.Playtime["P12"])
}

func TestSessionService_DisplayValuesAreDerived(t *testing.T) {
	h := newHarness(t, 12)
	ctx := context.Background()
	g := kickoffGame(t, h)
	_, err := h.sessions.StartClock(ctx, team, g.ID)
	require.NoError(t, err)

	h.advance(90)
	snap, err := h.sessions.ClockSnapshot(ctx, team, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TimerRunning, snap.Status)
	assert.Equal(t, 90, snap.ElapsedSeconds)

	played, err := h.sessions.PlayerPlaytime(ctx, team, g.ID, "P1")
	require.NoError(t, err)
	assert.Equal(t, 90, played)

	benched, err := h.sessions.PlayerPlaytime(ctx, team, g.ID, "P12")
	require.NoError(t, err)
	assert.Zero(t, benched)

	_, err = h.sessions.PlayerPlaytime(ctx, team, g.ID, "nobody")
	assert.ErrorIs(t, err, session.ErrPlayerNotInLineup)

	stored, err := h.sessions.GetGame(ctx, team, g.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.TimerElapsedSeconds, "sampling never advances the stored clock")
}

func TestSessionService_FinishRollsBackOnDurableFailure(t *testing.T) {
	h := newHarness(t, 12)
	ctx := context.Background()
	g := kickoffGame(t, h)
	_, err := h.sessions.StartClock(ctx, team, g.ID)
	require.NoError(t, err)
	h.advance(300)

	h.durable.fail = errDown
	_, err = h.sessions.FinishGame(ctx, team, g.ID)
	require.ErrorIs(t, err, service.ErrPersistence)
	require.ErrorIs(t, err, errDown)

	after, err := h.sessions.GetGame(ctx, team, g.ID)
	require.NoError(t, err)
	assert.False(t, after.IsFinished)
	assert.Equal(t, model.StorageVolatile, after.StorageClass)
	assert.Equal(t, model.TimerRunning, after.TimerStatus)

	stored, err := h.volatile.LoadAll(ctx, team)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.False(t, stored[0].IsFinished)

	// still editable
	_, err = h.sessions.AddGoal(ctx, team, g.ID, model.VenueAway, nil, nil)
	require.NoError(t, err)

	h.durable.fail = nil
	h.advance(300)
	done, err := h.sessions.FinishGame(ctx, team, g.ID)
	require.NoError(t, err)
	assert.True(t, done.IsFinished)
	assert.Equal(t, model.StorageDurable, done.StorageClass)
	assert.Equal(t, model.TimerStopped, done.TimerStatus)
	assert.Equal(t, 600, done.TimerElapsedSeconds)
	assert.Equal(t, 600, entry(done, "P1").PlaytimeSeconds)
	for _, p := range done.Lineup {
		assert.Nil(t, p.PlaytimerStartTime)
	}

	finished, err := h.durable.FetchFinished(ctx, team)
	require.NoError(t, err)
	require.Len(t, finished, 1)
	stored, _ = h.volatile.LoadAll(ctx, team)
	assert.Empty(t, stored)

	_, err = h.sessions.StartClock(ctx, team, g.ID)
	assert.ErrorIs(t, err, session.ErrFinished)
	_, err = h.sessions.ResetGame(ctx, team, g.ID)
	assert.ErrorIs(t, err, session.ErrFinished)
	_, err = h.sessions.FinishGame(ctx, team, g.ID)
	assert.ErrorIs(t, err, session.ErrFinished)
}

func TestSessionService_ResetAndUpdate(t *testing.T) {
	h := newHarness(t, 12)
	ctx := context.Background()
	g := kickoffGame(t, h)
	_, err := h.sessions.StartClock(ctx, team, g.ID)
	require.NoError(t, err)
	h.advance(60)
	_, err = h.sessions.AddGoal(ctx, team, g.ID, model.VenueHome, strp("P2"), strp("P3"))
	require.NoError(t, err)

	g, err = h.sessions.UpdateGame(ctx, team, g.ID, session.Details{Opponent: "United", Location: model.VenueAway, Season: " 2025/26 "})
	require.NoError(t, err)
	assert.Equal(t, "United", g.Opponent)
	assert.Equal(t, "2025/26", g.Season)
	assert.Equal(t, 1, g.HomeScore, "details edit leaves gameplay untouched")

	g, err = h.sessions.ResetGame(ctx, team, g.ID)
	require.NoError(t, err)
	assert.Equal(t, session.PhaseNotStarted, session.PhaseOf(g))
	assert.Zero(t, g.HomeScore)
	assert.Empty(t, g.Events)
	for _, p := range g.Lineup {
		assert.Equal(t, model.LocationBench, p.Location)
		assert.False(t, p.IsStarter)
	}
}

func TestSessionService_PlanStageCancelCommit(t *testing.T) {
	h := newHarness(t, 14)
	ctx := context.Background()
	g := kickoffGame(t, h)
	_, err := h.sessions.StartClock(ctx, team, g.ID)
	require.NoError(t, err)
	h.advance(1200)
	before, err := h.sessions.GetGame(ctx, team, g.ID)
	require.NoError(t, err)

	_, err = h.sessions.StagePlan(ctx, team, g.ID, "P12", "P1", model.Position{X: 10, Y: 10})
	require.NoError(t, err)
	_, err = h.sessions.StagePlan(ctx, team, g.ID, "P13", "P2", model.Position{X: 20, Y: 20})
	require.NoError(t, err)
	pending, err := h.sessions.StagePlan(ctx, team, g.ID, "P14", "P3", model.Position{X: 30, Y: 30})
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	require.NoError(t, h.sessions.CancelPlan(ctx, team, g.ID))
	after, err := h.sessions.GetGame(ctx, team, g.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	pending, err = h.sessions.PendingPlan(ctx, team, g.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = h.sessions.StagePlan(ctx, team, g.ID, "P12", "P1", model.Position{X: 10, Y: 10})
	require.NoError(t, err)
	_, err = h.sessions.StagePlan(ctx, team, g.ID, "P13", "P1", model.Position{X: 15, Y: 15})
	require.NoError(t, err)
	pending, err = h.sessions.UnstagePlan(ctx, team, g.ID, "P99")
	require.NoError(t, err)
	require.Len(t, pending, 1, "second claim on P1 replaces the first")
	assert.Equal(t, "P13", pending[0].BenchPlayerID)

	committed, err := h.sessions.CommitPlan(ctx, team, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LocationField, entry(committed, "P13").Location)
	assert.Equal(t, model.LocationBench, entry(committed, "P1").Location)
	assert.Equal(t, model.LocationBench, entry(committed, "P12").Location)
	subs := eventsOfType(committed, model.EventSubstitution)
	require.Len(t, subs, 1)
	assert.Equal(t, 1200, subs[0].GameSeconds)

	pending, err = h.sessions.PendingPlan(ctx, team, g.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = h.sessions.StagePlan(ctx, team, g.ID, "P1", "P13", model.Position{X: 200, Y: 0})
	assert.ErrorIs(t, err, session.ErrInvalidPosition)
}

func TestSessionService_LoadReconcilesStores(t *testing.T) {
	h := newHarness(t, 3)
	ctx := context.Background()

	inProgress := session.NewGame("g1", team, session.Details{Date: "2025-09-01", Location: model.VenueHome}, nil, t0)
	inProgress.Lineup = []model.PlayerLineupState{
		{PlayerID: "P1", Location: model.LocationField, Position: pos(10, 10)},
		{PlayerID: "ghost", Location: model.LocationBench},
		{PlayerID: "P2", Location: model.Location("tunnel")},
	}
	inProgress.TimerElapsedSeconds = 100
	staleFinished := session.NewGame("g2", team, session.Details{Date: "2025-08-01", Location: model.VenueHome}, nil, t0)
	staleFinished.IsFinished = true
	durableCopy := staleFinished
	durableCopy.HomeScore = 0
	archived := session.NewGame("g3", team, session.Details{Date: "2025-07-01", Location: model.VenueAway}, nil, t0)
	archived.IsFinished = true

	require.NoError(t, h.volatile.SaveAll(ctx, team, []model.Game{inProgress, staleFinished}))
	require.NoError(t, h.durable.DurableStore.UpsertFinished(ctx, durableCopy))
	require.NoError(t, h.durable.DurableStore.UpsertFinished(ctx, archived))

	warnings, err := h.sessions.Load(ctx, team)
	require.NoError(t, err)
	assert.NotEmpty(t, warnings)

	res, err := h.sessions.ListGames(ctx, team, repository.Page{})
	require.NoError(t, err)
	require.Equal(t, 3, res.Total)
	assert.Equal(t, []string{"g1", "g2", "g3"}, []string{res.Items[0].ID, res.Items[1].ID, res.Items[2].ID})
	assert.Equal(t, model.StorageVolatile, res.Items[0].StorageClass)
	assert.Equal(t, model.StorageDurable, res.Items[1].StorageClass)

	g1 := res.Items[0]
	assert.Nil(t, g1.LineupEntry("ghost"))
	assert.Equal(t, model.LocationBench, entry(g1, "P2").Location)

	stored, err := h.volatile.LoadAll(ctx, team)
	require.NoError(t, err)
	require.Len(t, stored, 1, "repairs are written back to the volatile store")
	assert.Equal(t, "g1", stored[0].ID)

	_, err = h.sessions.MovePlayer(ctx, team, "g2", "P1", model.LocationBench, nil)
	assert.ErrorIs(t, err, session.ErrFinished)
}

func TestSessionService_LoadFailsOnDurableRead(t *testing.T) {
	h := newHarness(t, 1)
	h.sessions = service.NewSessionService(h.volatile, failingFetch{h.durable}, h.players, h.clock, logger)
	_, err := h.sessions.Load(context.Background(), team)
	assert.ErrorIs(t, err, service.ErrPersistence)
}

type failingFetch struct{ repository.DurableStore }

func (failingFetch) FetchFinished(context.Context, string) ([]model.Game, error) {
	return nil, errDown
}

func TestSessionService_NotStartedGamesPickUpNewPlayers(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()
	g, err := h.sessions.CreateGame(ctx, team, session.Details{})
	require.NoError(t, err)

	n := 3
	h.players.Add(model.Player{ID: "P3", TeamID: team, Name: "Late", Number: &n})
	_, err = h.sessions.Load(ctx, team)
	require.NoError(t, err)

	g, err = h.sessions.GetGame(ctx, team, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LocationBench, entry(g, "P3").Location)
	assert.Len(t, g.Lineup, 3)
}

func TestSessionService_DeleteGame(t *testing.T) {
	h := newHarness(t, 12)
	ctx := context.Background()
	live := kickoffGame(t, h)
	finished := kickoffGame(t, h)
	_, err := h.sessions.FinishGame(ctx, team, finished.ID)
	require.NoError(t, err)

	require.NoError(t, h.sessions.DeleteGame(ctx, team, live.ID))
	_, err = h.sessions.GetGame(ctx, team, live.ID)
	assert.ErrorIs(t, err, service.ErrGameNotFound)

	h.durable.fail = errDown
	err = h.sessions.DeleteGame(ctx, team, finished.ID)
	require.ErrorIs(t, err, service.ErrPersistence)
	_, err = h.sessions.GetGame(ctx, team, finished.ID)
	require.NoError(t, err, "failed durable delete keeps the game")

	h.durable.fail = nil
	require.NoError(t, h.sessions.DeleteGame(ctx, team, finished.ID))
	assert.ErrorIs(t, h.sessions.DeleteGame(ctx, team, finished.ID), service.ErrGameNotFound)
}

func TestSessionService_PlayerRemovedCleansEveryGame(t *testing.T) {
	h := newHarness(t, 12)
	ctx := context.Background()
	roster := service.NewRosterService(h.players, logger)
	roster.Subscribe(h.sessions)

	g := kickoffGame(t, h)
	_, err := h.sessions.StartClock(ctx, team, g.ID)
	require.NoError(t, err)
	h.advance(100)
	_, err = h.sessions.AddGoal(ctx, team, g.ID, model.VenueHome, strp("P12"), strp("P1"))
	require.NoError(t, err)
	_, err = h.sessions.SwapPlayers(ctx, team, g.ID, "P12", "P2")
	require.NoError(t, err)
	_, err = h.sessions.MovePlayer(ctx, team, g.ID, "P12", model.LocationBench, nil)
	require.NoError(t, err)

	var notified []string
	h.sessions.OnChange(func(_ string, g model.Game) { notified = append(notified, g.ID) })

	require.NoError(t, roster.RemovePlayer(ctx, team, "P12"))

	got, err := h.sessions.GetGame(ctx, team, g.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LineupEntry("P12"))
	goals := eventsOfType(got, model.EventGoal)
	require.Len(t, goals, 1)
	assert.Nil(t, goals[0].ScorerPlayerID)
	assert.Equal(t, "P1", *goals[0].AssistPlayerID)
	assert.Equal(t, 1, got.HomeScore)

	subs := eventsOfType(got, model.EventSubstitution)
	require.Len(t, subs, 1, "one-sided event for the removed player is dropped")
	assert.Nil(t, subs[0].PlayerInID)
	assert.Equal(t, "P2", *subs[0].PlayerOutID)

	stored, err := h.volatile.LoadAll(ctx, team)
	require.NoError(t, err)
	assert.Nil(t, stored[0].LineupEntry("P12"))
	assert.Equal(t, []string{g.ID}, notified)

	assert.ErrorIs(t, roster.RemovePlayer(ctx, team, "P12"), service.ErrPlayerNotFound)
}

func TestSessionService_History(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	for _, d := range []session.Details{
		{Date: "2025-08-01", Season: "2024/25", Competition: "Cup"},
		{Date: "2025-09-01", Season: "2025/26", Competition: "League"},
		{Date: "2025-09-02", Season: "2025/26", Competition: "cup"},
	} {
		_, err := h.sessions.CreateGame(ctx, team, d)
		require.NoError(t, err)
	}
	hist, err := h.sessions.History(ctx, team)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025/26", "2024/25"}, hist.Seasons)
	assert.Equal(t, "cup", session.MostRecentCompetition(hist))
}

func TestSessionService_UnknownGame(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	_, err := h.sessions.StartClock(ctx, team, "missing")
	assert.ErrorIs(t, err, service.ErrGameNotFound)
	_, err = h.sessions.ClockSnapshot(ctx, team, "missing")
	assert.ErrorIs(t, err, service.ErrGameNotFound)
	_, err = h.sessions.PendingPlan(ctx, team, "missing")
	assert.ErrorIs(t, err, service.ErrGameNotFound)
}

func TestSessionService_OnChangeSeesEveryMutation(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()
	var seen []model.TimerStatus
	h.sessions.OnChange(func(teamID string, g model.Game) {
		assert.Equal(t, team, teamID)
		seen = append(seen, g.TimerStatus)
	})
	g, err := h.sessions.CreateGame(ctx, team, session.Details{})
	require.NoError(t, err)
	_, err = h.sessions.StartClock(ctx, team, g.ID)
	require.NoError(t, err)
	_, err = h.sessions.StartClock(ctx, team, g.ID)
	require.ErrorIs(t, err, session.ErrInvalidTransition)
	assert.Equal(t, []model.TimerStatus{model.TimerStopped, model.TimerRunning}, seen)
}
