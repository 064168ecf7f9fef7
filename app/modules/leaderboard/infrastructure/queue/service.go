package leaderboardqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/doubles-bot/app/observability/attr"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

// QueueService schedules ledger reconciliation.
type QueueService interface {
	// EnqueueReconcile runs a reconciliation as soon as a worker is free.
	EnqueueReconcile(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

// Service runs the River client behind the periodic reconcile job. River
// needs Postgres; SQLite deployments run without it.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics metrics.OperationMetrics
}

// NewService connects a pgx pool to dsn and registers worker. A positive
// interval schedules the job periodically, starting at boot.
func NewService(ctx context.Context, dsn string, interval time.Duration, worker *ReconcileWorker, logger *slog.Logger, m metrics.OperationMetrics) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("component", "river_queue"),
	)
	if m == nil {
		m = metrics.NewNoop()
	}

	start := time.Now()
	m.RecordOperationAttempt(ctx, "initialize_service", "river")

	pool, err := openPool(ctx, dsn)
	if err != nil {
		ctxLogger.Error("Failed to open pgx pool for River", attr.Error(err))
		m.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, err
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, worker)

	var periodic []*river.PeriodicJob
	if interval > 0 {
		periodic = append(periodic, river.NewPeriodicJob(
			river.PeriodicInterval(interval),
			func() (river.JobArgs, *river.InsertOpts) {
				return ReconcileJob{Trigger: TriggerPeriodic}, &river.InsertOpts{Queue: queueName}
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		))
	}

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 5},
			// Reconciliation takes the ledger lock; one at a time is enough.
			queueName: {MaxWorkers: 1},
		},
		Workers:      workers,
		PeriodicJobs: periodic,
	})
	if err != nil {
		pool.Close()
		ctxLogger.Error("Failed to create River client", attr.Error(err))
		m.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	m.RecordOperationSuccess(ctx, "initialize_service", "river")
	m.RecordOperationDuration(ctx, "initialize_service", "river", time.Since(start))
	ctxLogger.Info("Reconcile queue initialized", attr.Duration("interval", interval))

	return &Service{client: client, pool: pool, logger: ctxLogger, metrics: m}, nil
}

// Start starts the River client.
func (s *Service) Start(ctx context.Context) error {
	s.metrics.RecordOperationAttempt(ctx, "start_service", "river")
	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "start_service", "river")
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "start_service", "river")
	s.logger.Info("Reconcile queue started")
	return nil
}

// Stop waits for running jobs and closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	s.metrics.RecordOperationAttempt(ctx, "stop_service", "river")
	defer s.pool.Close()

	if err := s.client.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "stop_service", "river")
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "stop_service", "river")
	s.logger.Info("Reconcile queue stopped")
	return nil
}

func (s *Service) EnqueueReconcile(ctx context.Context) error {
	res, err := s.client.Insert(ctx, ReconcileJob{Trigger: TriggerManual}, &river.InsertOpts{
		Queue: queueName,
		UniqueOpts: river.UniqueOpts{
			// Repeated requests within a minute collapse into one job.
			ByArgs:   true,
			ByPeriod: time.Minute,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue reconcile job: %w", err)
	}
	s.logger.InfoContext(ctx, "Reconcile job enqueued", attr.Int64("job_id", res.Job.ID))
	return nil
}

// Migrate creates or upgrades River's tables.
func Migrate(ctx context.Context, dsn string, logger *slog.Logger) error {
	pool, err := openPool(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create river migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{})
	if err != nil {
		return fmt.Errorf("failed to migrate river schema: %w", err)
	}
	for _, v := range res.Versions {
		logger.InfoContext(ctx, "Applied river migration", attr.Int("version", v.Version))
	}
	return nil
}

func openPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}
