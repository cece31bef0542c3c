// Package redis implements the volatile store of in-progress games on Redis.
// Each team's games live in one hash: field = game id, value = JSON snapshot.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/maxviazov/matchday-session-service/internal/config"
	"github.com/maxviazov/matchday-session-service/internal/model"
	"github.com/maxviazov/matchday-session-service/internal/repository"
)

// Connect opens a client from config and pings it.
func Connect(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

type volatileStore struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
	log    zerolog.Logger
}

// NewVolatileStore builds the store. ttl of zero keeps keys until overwritten.
func NewVolatileStore(rdb *goredis.Client, prefix string, ttl time.Duration, logger zerolog.Logger) repository.VolatileStore {
	if prefix == "" {
		prefix = "matchday"
	}
	l := logger.With().Str("module", "repository").Str("component", "volatile_redis").Logger()
	return &volatileStore{rdb: rdb, prefix: prefix, ttl: ttl, log: l}
}

func (s *volatileStore) key(teamID string) string {
	return fmt.Sprintf("%s:team:%s:sessions", s.prefix, teamID)
}

// LoadAll returns every stored game. Undecodable entries are skipped and logged.
func (s *volatileStore) LoadAll(ctx context.Context, teamID string) ([]model.Game, error) {
	if s.rdb == nil {
		return nil, errors.New("redis client is nil")
	}
	raw, err := s.rdb.HGetAll(ctx, s.key(teamID)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return []model.Game{}, nil
		}
		return nil, err
	}
	out := make([]model.Game, 0, len(raw))
	for id, blob := range raw {
		var g model.Game
		if err := json.Unmarshal([]byte(blob), &g); err != nil {
			s.log.Warn().Err(err).Str("team_id", teamID).Str("game_id", id).Msg("skipping undecodable volatile game")
			continue
		}
		if g.ID == "" {
			g.ID = id
		}
		out = append(out, g)
	}
	return out, nil
}

// SaveAll replaces the team's collection atomically.
func (s *volatileStore) SaveAll(ctx context.Context, teamID string, games []model.Game) error {
	if s.rdb == nil {
		return errors.New("redis client is nil")
	}
	fields := make(map[string]any, len(games))
	for _, g := range games {
		blob, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("encode game %s: %w", g.ID, err)
		}
		fields[g.ID] = blob
	}

	key := s.key(teamID)
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	if len(fields) > 0 {
		pipe.HSet(ctx, key, fields)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save volatile games: %w", err)
	}
	return nil
}

var _ repository.VolatileStore = (*volatileStore)(nil)

type pinger struct{ rdb *goredis.Client }

// NewPinger reports Redis readiness.
func NewPinger(rdb *goredis.Client) repository.Pinger { return &pinger{rdb: rdb} }

func (p *pinger) Ping(ctx context.Context) error { return p.rdb.Ping(ctx).Err() }
