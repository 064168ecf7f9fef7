package leaderboardqueue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	ledgerevents "github.com/Black-And-White-Club/doubles-bot/app/events/ledger"
	"github.com/Black-And-White-Club/doubles-bot/app/handlerwrapper"
	leaderboardservice "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/application"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/attr"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/riverqueue/river"
)

// Reconciler is the slice of the leaderboard service the worker needs.
type Reconciler interface {
	Reconcile(ctx context.Context) (*leaderboardservice.ReconcileReport, error)
}

// ReconcileWorker runs reconciliation and announces divergence on the bus.
// Divergence completes the job; only infrastructure errors are retried.
type ReconcileWorker struct {
	river.WorkerDefaults[ReconcileJob]

	reconciler Reconciler
	publisher  message.Publisher
	logger     *slog.Logger
	now        func() time.Time
}

func NewReconcileWorker(reconciler Reconciler, publisher message.Publisher, logger *slog.Logger) *ReconcileWorker {
	return &ReconcileWorker{
		reconciler: reconciler,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

func (w *ReconcileWorker) Work(ctx context.Context, job *river.Job[ReconcileJob]) error {
	report, err := w.reconciler.Reconcile(ctx)

	var consistency *sessiondomain.ConsistencyError
	switch {
	case err == nil:
		w.logger.InfoContext(ctx, "Scheduled reconciliation found no drift",
			attr.String("trigger", job.Args.Trigger),
			attr.Int("records", report.Records),
		)
		return nil
	case errors.As(err, &consistency):
	default:
		return err
	}

	w.logger.WarnContext(ctx, "Ledger diverges from game history",
		attr.String("trigger", job.Args.Trigger),
		attr.Int("mismatches", len(consistency.Mismatches)),
		attr.Any("mismatches", consistency.Mismatches),
	)

	if w.publisher == nil {
		return nil
	}
	if err := handlerwrapper.Publish(ctx, w.publisher, handlerwrapper.Result{
		Topic: ledgerevents.InconsistentV1,
		Payload: ledgerevents.InconsistentPayloadV1{
			Mismatches: consistency.Mismatches,
			DetectedAt: w.now().UTC(),
		},
	}); err != nil {
		// The warning above is the durable record; the event is a hint.
		w.logger.ErrorContext(ctx, "Failed to publish inconsistency",
			attr.Error(err),
		)
	}
	return nil
}
