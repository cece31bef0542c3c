package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/maxviazov/matchday-session-service/internal/model"
	"github.com/maxviazov/matchday-session-service/internal/repository"
	"github.com/maxviazov/matchday-session-service/internal/repository/contract"
	"github.com/pressly/goose/v3"
)

var (
	db     *sql.DB
	pool   *pgxpool.Pool
	dsn    string
	skippy bool
)

func TestMain(m *testing.M) {
	if os.Getenv("CONTRACT_TESTS") != "1" {
		// allow skipping contract tests unless explicitly enabled
		skippy = true
		os.Exit(m.Run())
	}

	dsn = buildDSNFromEnv()
	if dsn == "" {
		fmt.Println("[contract] DATABASE_URL or APP_POSTGRES_* env not set; skipping")
		skippy = true
		os.Exit(m.Run())
	}

	var err error
	db, err = sql.Open("pgx", dsn)
	if err != nil {
		fmt.Println("[contract] sql open error:", err)
		os.Exit(1)
	}
	if err := db.Ping(); err != nil {
		fmt.Println("[contract] db ping error:", err)
		os.Exit(1)
	}

	// Run migrations up
	migrationsDir := filepath.Clean(filepath.Join("..", "..", "..", "migrations", "goose_sql"))
	if err := goose.Up(db, migrationsDir); err != nil {
		fmt.Println("[contract] goose up error:", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err = pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Println("[contract] pgxpool new error:", err)
		os.Exit(1)
	}

	code := m.Run()
	pool.Close()
	db.Close()
	os.Exit(code)
}

func skipIfNeeded(t *testing.T) {
	if skippy {
		t.Skip("contract tests skipped; set CONTRACT_TESTS=1 and provide DB env")
	}
}

func buildDSNFromEnv() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	user := firstNonEmpty(os.Getenv("APP_POSTGRES_USER"), os.Getenv("POSTGRES_USER"), os.Getenv("DB_USER"))
	pass := firstNonEmpty(os.Getenv("APP_POSTGRES_PASSWORD"), os.Getenv("POSTGRES_PASSWORD"), os.Getenv("DB_PASSWORD"))
	host := firstNonEmpty(os.Getenv("APP_POSTGRES_HOST"), os.Getenv("POSTGRES_HOST"), "localhost")
	port := firstNonEmpty(os.Getenv("APP_POSTGRES_PORT"), os.Getenv("POSTGRES_PORT"), "5432")
	db := firstNonEmpty(os.Getenv("APP_POSTGRES_DB"), os.Getenv("POSTGRES_DB"), os.Getenv("DB_NAME"))
	ssl := firstNonEmpty(os.Getenv("APP_POSTGRES_SSLMODE"), os.Getenv("POSTGRES_SSLMODE"), "disable")
	if user == "" || pass == "" || db == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, ssl)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncateAll(t *testing.T) {
	t.Helper()
	stmts := []string{
		"TRUNCATE TABLE game_events, game_lineups, games CASCADE",
		"TRUNCATE TABLE saved_lineups",
		"TRUNCATE TABLE players",
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("truncate failed: %v", err)
		}
	}
}

// Factories used by contract suites

func makeDurableStore(t *testing.T) (repository.DurableStore, func()) {
	skipIfNeeded(t)
	truncateAll(t)
	return NewDurableStore(pool), func() { truncateAll(t) }
}

func makePlayerRepo(t *testing.T) (repository.PlayerRepository, func(ctx context.Context, p model.Player) error, func()) {
	skipIfNeeded(t)
	truncateAll(t)
	seed := func(ctx context.Context, p model.Player) error {
		_, err := pool.Exec(ctx,
			`INSERT INTO players (id, team_id, name, number) VALUES ($1, $2, $3, $4)`,
			p.ID, p.TeamID, p.Name, p.Number,
		)
		return err
	}
	return NewPlayerRepository(pool), seed, func() { truncateAll(t) }
}

func makeTx(t *testing.T) (repository.TxManager, repository.DurableStore, func()) {
	skipIfNeeded(t)
	truncateAll(t)
	return NewTxManager(pool), NewDurableStore(pool), func() { truncateAll(t) }
}

func makePinger(t *testing.T) (repository.Pinger, func()) {
	skipIfNeeded(t)
	return NewPinger(pool), func() {}
}

// Wire the contract suites to Postgres factories

func TestDurableStore_PostgresContract(t *testing.T) {
	contract.RunDurableStoreContract(t, makeDurableStore)
}

func TestPlayerRepository_PostgresContract(t *testing.T) {
	contract.RunPlayerRepositoryContract(t, makePlayerRepo)
}

func TestTxManager_PostgresContract(t *testing.T) {
	contract.RunTxManagerContract(t, makeTx)
}

func TestPinger_PostgresContract(t *testing.T) {
	contract.RunPingerContract(t, makePinger)
}

func TestMapPgError_CheckViolation(t *testing.T) {
	skipIfNeeded(t)
	truncateAll(t)
	t.Cleanup(func() { truncateAll(t) })
	_, err := pool.Exec(context.Background(),
		`INSERT INTO players (id, team_id, name, number) VALUES ('p1', 'team-a', 'Ada', -1)`)
	if got := repository.MapPgError(err); got != repository.ErrInvalidRecord {
		t.Fatalf("expected ErrInvalidRecord, got %v", got)
	}
}
