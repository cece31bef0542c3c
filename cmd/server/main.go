package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/maxviazov/matchday-session-service/internal/config"
	"github.com/maxviazov/matchday-session-service/internal/handler"
	"github.com/maxviazov/matchday-session-service/internal/live"
	"github.com/maxviazov/matchday-session-service/internal/logger"
	"github.com/maxviazov/matchday-session-service/internal/repository"
	pgstore "github.com/maxviazov/matchday-session-service/internal/repository/postgres"
	redisstore "github.com/maxviazov/matchday-session-service/internal/repository/redis"
	"github.com/maxviazov/matchday-session-service/internal/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	migrate := flag.Bool("migrate", false, "apply database migrations before serving")
	migrationsDir := flag.String("migrations", "migrations/goose_sql", "goose migrations directory")
	flag.Parse()

	// Load application config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Config loading failed: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(&cfg.Logger)
	if err != nil {
		log.Fatalf("❌ Logger initialization failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.New(ctx, cfg, &appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("❌ Postgres connection failed")
	}
	defer db.Close()

	if *migrate {
		if err := pgstore.Migrate(ctx, db.DSN(), *migrationsDir); err != nil {
			appLogger.Fatal().Err(err).Msg("❌ Migrations failed")
		}
		appLogger.Info().Str("dir", *migrationsDir).Msg("migrations applied")
	}

	rdb, err := redisstore.Connect(ctx, cfg.Redis)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("❌ Redis connection failed")
	}
	defer rdb.Close()

	volatile := redisstore.NewVolatileStore(rdb, cfg.Redis.KeyPrefix, time.Duration(cfg.Redis.TTLSeconds)*time.Second, appLogger)
	durable := pgstore.NewDurableStore(db.Pool())
	players := pgstore.NewPlayerRepository(db.Pool())

	sessions := service.NewSessionService(volatile, durable, players, clockwork.NewRealClock(), appLogger)
	templates := service.NewTemplateService(durable, players, appLogger)
	roster := service.NewRosterService(players, appLogger)
	roster.Subscribe(sessions)
	roster.Subscribe(templates)

	hub := live.NewHub()
	go hub.Run(ctx)
	sessions.OnChange(hub.PublishGame)

	ticker, err := live.NewTicker(hub, sessions, time.Duration(cfg.Live.TickIntervalMs)*time.Millisecond, nil, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("❌ Live ticker setup failed")
	}
	ticker.Start()

	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestLogger(appLogger))
	handler.Register(r, handler.Deps{
		Checks: map[string]handler.Pinger{
			"postgres": pgstore.NewPinger(db.Pool()),
			"redis":    redisstore.NewPinger(rdb),
		},
		Sessions:  sessions,
		Templates: templates,
		Roster:    roster,
		Hub:       hub,
		Logger:    appLogger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info().Int("port", cfg.App.Port).Msg("🚀 Service started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ticker.Stop(); err != nil {
		appLogger.Warn().Err(err).Msg("ticker shutdown")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("http server shutdown")
	}
	appLogger.Info().Msg("bye")
}
