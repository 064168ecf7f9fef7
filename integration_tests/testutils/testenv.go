package testutils

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"testing"
	"time"

	"github.com/Black-And-White-Club/doubles-bot/app"
	"github.com/Black-And-White-Club/doubles-bot/app/database"
	"github.com/Black-And-White-Club/doubles-bot/app/eventbus"
	leaderboardqueue "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/infrastructure/queue"
	"github.com/Black-And-White-Club/doubles-bot/app/observability"
	"github.com/Black-And-White-Club/doubles-bot/config"
	"github.com/Black-And-White-Club/doubles-bot/integration_tests/containers"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
)

// Founders is the governance roster every integration test runs with.
var Founders = []string{"alice", "bob", "carol"}

// TestEnvironment holds the containers shared by a package's tests.
type TestEnvironment struct {
	Ctx           context.Context
	CancelContext context.CancelFunc
	PgContainer   *postgres.PostgresContainer
	NatsContainer testcontainers.Container
	DSN           string
	NatsURL       string
	DB            *bun.DB
	Logger        *slog.Logger
}

// NewTestEnvironment starts Postgres and NATS and applies every migration,
// including the job queue schema.
func NewTestEnvironment() (*TestEnvironment, error) {
	ctx, cancel := context.WithCancel(context.Background())
	env := &TestEnvironment{
		Ctx:           ctx,
		CancelContext: cancel,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	pg, dsn, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	env.PgContainer, env.DSN = pg, dsn

	natsContainer, natsURL, err := containers.SetupNatsContainer(ctx)
	if err != nil {
		env.Cleanup()
		return nil, err
	}
	env.NatsContainer, env.NatsURL = natsContainer, natsURL

	db, err := database.Open(ctx, config.DatabaseConfig{Driver: config.DriverPostgres, DSN: dsn}, env.Logger)
	if err != nil {
		env.Cleanup()
		return nil, err
	}
	env.DB = db

	if err := app.Migrate(ctx, db, env.Logger); err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := leaderboardqueue.Migrate(ctx, dsn, env.Logger); err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("failed to run queue migrations: %w", err)
	}
	return env, nil
}

// Config returns an application configuration pointing at the containers.
func (env *TestEnvironment) Config(reconcileInterval time.Duration) *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverPostgres, DSN: env.DSN},
		NATS:     config.NATSConfig{URL: env.NatsURL},
		HTTP:     config.HTTPConfig{Address: "127.0.0.1:0", RateLimit: 1000, Burst: 1000},
		JWT:      config.JWTConfig{Secret: "integration-secret", DefaultTTL: time.Hour},
		Governance: config.GovernanceConfig{
			Founders:               Founders,
			ReferenceMonday:        "2024-01-01",
			TimeZone:               "UTC",
			QualificationThreshold: 3,
			RatingMode:             config.RatingModeMean,
		},
		Queue: config.QueueConfig{ReconcileInterval: reconcileInterval},
	}
}

// StartApp builds the application and runs it until the test ends.
func (env *TestEnvironment) StartApp(t *testing.T, reconcileInterval time.Duration) *app.App {
	t.Helper()
	ctx, cancel := context.WithCancel(env.Ctx)

	a, err := app.New(ctx, env.Config(reconcileInterval), observability.NewNoop(env.Logger))
	if err != nil {
		cancel()
		t.Fatalf("failed to build app: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	select {
	case <-a.WatermillRouter.Running():
	case <-time.After(15 * time.Second):
		cancel()
		t.Fatal("watermill router did not start")
	}

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Logf("app stopped with error: %v", err)
			}
		case <-time.After(15 * time.Second):
			t.Log("app did not stop in time")
		}
		_ = a.Close()
	})
	return a
}

// NewEventBus connects an extra NATS bus for observing notifications.
func (env *TestEnvironment) NewEventBus(t *testing.T) eventbus.EventBus {
	t.Helper()
	bus, err := eventbus.NewNATSEventBus(env.NatsURL, env.Logger)
	if err != nil {
		t.Fatalf("failed to connect event bus: %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

// ResetDB empties every engine table and the job queue.
func (env *TestEnvironment) ResetDB(t *testing.T) {
	t.Helper()
	_, err := env.DB.ExecContext(env.Ctx,
		"TRUNCATE session_votes, sessions, check_ins, game_records, teams, players, river_job RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("failed to reset database: %v", err)
	}
}

// Cleanup closes connections and terminates the containers.
func (env *TestEnvironment) Cleanup() {
	if env.DB != nil {
		_ = env.DB.Close()
	}
	terminateCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if env.NatsContainer != nil {
		if err := env.NatsContainer.Terminate(terminateCtx); err != nil {
			log.Printf("Error terminating NATS container: %v", err)
		}
	}
	if env.PgContainer != nil {
		if err := env.PgContainer.Terminate(terminateCtx); err != nil {
			log.Printf("Error terminating Postgres container: %v", err)
		}
	}
	env.CancelContext()
}
