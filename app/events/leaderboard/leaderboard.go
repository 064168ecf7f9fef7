// Package leaderboardevents defines the leaderboard request/reply topics.
package leaderboardevents

import (
	"time"

	leaderboarddomain "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/domain"
)

const (
	RequestedV1 = "leaderboard.requested.v1"
	// ResponseV1 is the fallback reply topic when the request carries no
	// reply_to metadata.
	ResponseV1 = "leaderboard.response.v1"
	FailedV1   = "leaderboard.failed.v1"
)

// RequestedPayloadV1 asks for a ranked leaderboard. Empty fields take the
// configured defaults.
type RequestedPayloadV1 struct {
	Mode      string `json:"mode,omitempty"`
	Threshold *int   `json:"threshold,omitempty"`
	View      string `json:"view,omitempty"`
}

type ResponsePayloadV1 struct {
	Mode        leaderboarddomain.Mode    `json:"mode"`
	View        leaderboarddomain.View    `json:"view"`
	Threshold   int                       `json:"threshold"`
	Entries     []leaderboarddomain.Entry `json:"entries"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

type FailedPayloadV1 struct {
	Reason string `json:"reason"`
	Kind   string `json:"kind"`
}
