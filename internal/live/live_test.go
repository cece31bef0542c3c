package live_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/matchday-session-service/internal/live"
	"github.com/maxviazov/matchday-session-service/internal/model"
)

func runHub(t *testing.T) *live.Hub {
	t.Helper()
	h := live.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

func receive(t *testing.T, c *live.Client) live.Message {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		require.True(t, ok, "outbox closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message")
	}
	return live.Message{}
}

func TestHub_RoutesByTopic(t *testing.T) {
	h := runHub(t)
	a, b := live.NewClient("team", "g1"), live.NewClient("team", "g2")
	h.Register(a)
	h.Register(b)

	h.PublishGame("team", model.Game{ID: "g1", HomeScore: 2})
	msg := receive(t, a)
	assert.Equal(t, live.MessageGame, msg.Type)
	assert.Equal(t, 2, msg.Game.HomeScore)

	select {
	case <-b.Send:
		t.Fatal("g2 watcher received g1 update")
	case <-time.After(50 * time.Millisecond):
	}

	assert.ElementsMatch(t, []live.Topic{{TeamID: "team", GameID: "g1"}, {TeamID: "team", GameID: "g2"}}, h.Topics())
	h.Unregister(a)
	_, ok := <-a.Send
	assert.False(t, ok)
	require.Eventually(t, func() bool { return len(h.Topics()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []live.Topic{{TeamID: "team", GameID: "g2"}}, h.Topics())
}

func TestHub_DropsSlowClients(t *testing.T) {
	h := runHub(t)
	c := live.NewClient("team", "g1")
	h.Register(c)
	for i := 0; i < cap(c.Send)+1; i++ {
		h.PublishGame("team", model.Game{ID: "g1"})
	}
	require.Eventually(t, func() bool { return len(h.Topics()) == 0 }, time.Second, 10*time.Millisecond)

	_, ok := <-c.Send
	for ok {
		_, ok = <-c.Send
	}
	select {
	case <-h.Done():
		t.Fatal("hub reported done after dropping a client")
	default:
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	h := live.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { h.Run(ctx); close(done) }()

	c := live.NewClient("team", "g1")
	h.Register(c)
	cancel()
	<-done
	<-h.Done()

	_, ok := <-c.Send
	assert.False(t, ok)
	h.Unregister(c)
	h.PublishGame("team", model.Game{ID: "g1"})

	late := live.NewClient("team", "g1")
	h.Register(late)
	_, ok = <-late.Send
	assert.False(t, ok)
}

type fakeSource struct {
	mu    sync.Mutex
	snaps map[string]model.ClockSnapshot
	calls int
}

func (f *fakeSource) ClockSnapshot(_ context.Context, _, gameID string) (model.ClockSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	s, ok := f.snaps[gameID]
	if !ok {
		return model.ClockSnapshot{}, errors.New("game not found")
	}
	return s, nil
}

func TestTicker_SampleBroadcastsRunningGamesOnly(t *testing.T) {
	h := runHub(t)
	src := &fakeSource{snaps: map[string]model.ClockSnapshot{
		"running": {GameID: "running", Status: model.TimerRunning, ElapsedSeconds: 61},
		"paused":  {GameID: "paused", Status: model.TimerStopped, ElapsedSeconds: 30},
	}}
	// never started; Sample is driven by hand
	ticker, err := live.NewTicker(h, src, time.Hour, nil, zerolog.New(io.Discard))
	require.NoError(t, err)

	running, paused, gone := live.NewClient("team", "running"), live.NewClient("team", "paused"), live.NewClient("team", "gone")
	h.Register(running)
	h.Register(paused)
	h.Register(gone)

	ticker.Sample(context.Background())

	msg := receive(t, running)
	assert.Equal(t, live.MessageClock, msg.Type)
	assert.Equal(t, 61, msg.Clock.ElapsedSeconds)
	select {
	case <-paused.Send:
		t.Fatal("paused game should not be sampled")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 3, src.calls)
}

func TestTicker_RunsOnSchedule(t *testing.T) {
	h := runHub(t)
	src := &fakeSource{snaps: map[string]model.ClockSnapshot{
		"g1": {GameID: "g1", Status: model.TimerRunning},
	}}
	c := live.NewClient("team", "g1")
	h.Register(c)

	ticker, err := live.NewTicker(h, src, 20*time.Millisecond, nil, zerolog.New(io.Discard))
	require.NoError(t, err)
	ticker.Start()
	t.Cleanup(func() { _ = ticker.Stop() })

	msg := receive(t, c)
	assert.Equal(t, "g1", msg.Clock.GameID)
}
