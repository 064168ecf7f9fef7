// Package ledgerevents defines the ledger notification topics. Consumers
// must treat them as hints to re-read the ledger, never as data.
package ledgerevents

import (
	"time"

	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/google/uuid"
)

const (
	UpdatedV1      = "ledger.updated.v1"
	InconsistentV1 = "ledger.inconsistent.v1"
)

// Update sources.
const (
	SourceFinalize = "finalize"
	SourceQuick    = "quick"
	SourceRebuild  = "rebuild"
)

type UpdatedPayloadV1 struct {
	Source     string                   `json:"source"`
	SessionID  *uuid.UUID               `json:"session_id,omitempty"`
	Players    []sessiondomain.PlayerID `json:"players,omitempty"`
	OccurredAt time.Time                `json:"occurred_at"`
}

type InconsistentPayloadV1 struct {
	Mismatches []sessiondomain.Mismatch `json:"mismatches"`
	DetectedAt time.Time                `json:"detected_at"`
}
