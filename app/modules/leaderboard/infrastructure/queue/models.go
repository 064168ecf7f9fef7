package leaderboardqueue

// ReconcileJob compares the ledger with replayed game history.
type ReconcileJob struct {
	// Trigger records who enqueued the job: "periodic" or "manual".
	Trigger string `json:"trigger"`
}

// Kind returns the job type identifier for River
func (ReconcileJob) Kind() string { return "ledger_reconcile" }

const (
	TriggerPeriodic = "periodic"
	TriggerManual   = "manual"

	queueName = "ledger"
)
