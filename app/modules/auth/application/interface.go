package authservice

import (
	"context"
	"time"

	authdomain "github.com/Black-And-White-Club/doubles-bot/app/modules/auth/domain"
)

// Service issues and checks API bearer tokens.
type Service interface {
	// IssueToken mints a token for a registered player. The tier is taken
	// from the founder configuration. A zero ttl uses the default.
	IssueToken(ctx context.Context, playerID string, ttl time.Duration) (*TokenResponse, error)

	// Authenticate validates a token and re-checks its tier against the
	// current founder configuration.
	Authenticate(ctx context.Context, tokenString string) (*authdomain.Claims, error)
}

// TokenResponse is a freshly minted token and the identity it carries.
type TokenResponse struct {
	Token     string          `json:"token"`
	PlayerID  string          `json:"player_id"`
	Tier      authdomain.Tier `json:"tier"`
	ExpiresAt time.Time       `json:"expires_at"`
}
