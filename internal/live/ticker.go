package live

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/maxviazov/matchday-session-service/internal/model"
)

// SnapshotSource samples the derived clock of a game.
type SnapshotSource interface {
	ClockSnapshot(ctx context.Context, teamID, gameID string) (model.ClockSnapshot, error)
}

// Ticker periodically samples running games that have watchers and pushes the
// snapshot to the hub. It only reads state.
type Ticker struct {
	s   gocron.Scheduler
	hub *Hub
	src SnapshotSource
	log zerolog.Logger
}

// NewTicker schedules sampling every interval. clock may be nil for wall time.
func NewTicker(hub *Hub, src SnapshotSource, interval time.Duration, clock clockwork.Clock, logger zerolog.Logger) (*Ticker, error) {
	l := logger.With().Str("module", "live").Str("component", "ticker").Logger()
	opts := []gocron.SchedulerOption{gocron.WithLogger(cronLogger{l})}
	if clock != nil {
		opts = append(opts, gocron.WithClock(clock))
	}
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	t := &Ticker{s: s, hub: hub, src: src, log: l}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(t.Sample, context.Background()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create clock sampling job: %w", err)
	}
	return t, nil
}

func (t *Ticker) Start() { t.s.Start() }

func (t *Ticker) Stop() error { return t.s.Shutdown() }

// Sample broadcasts one snapshot per watched running game. Games that can't
// be sampled are skipped.
func (t *Ticker) Sample(ctx context.Context) {
	for _, topic := range t.hub.Topics() {
		snap, err := t.src.ClockSnapshot(ctx, topic.TeamID, topic.GameID)
		if err != nil {
			t.log.Debug().Err(err).Str("team_id", topic.TeamID).Str("game_id", topic.GameID).Msg("clock sample skipped")
			continue
		}
		if snap.Status != model.TimerRunning {
			continue
		}
		t.hub.Broadcast(topic, Message{Type: MessageClock, Clock: &snap})
	}
}

// cronLogger routes scheduler logs through zerolog.
type cronLogger struct{ l zerolog.Logger }

func (c cronLogger) Debug(msg string, args ...any) { c.l.Debug().Fields(args).Msg(msg) }
func (c cronLogger) Info(msg string, args ...any)  { c.l.Info().Fields(args).Msg(msg) }
func (c cronLogger) Warn(msg string, args ...any)  { c.l.Warn().Fields(args).Msg(msg) }
func (c cronLogger) Error(msg string, args ...any) { c.l.Error().Fields(args).Msg(msg) }
