package authdomain

import (
	"time"
)

// Claims is the identity carried by an API bearer token.
type Claims struct {
	PlayerID  string
	Tier      Tier
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// IsExpired checks if the claims have expired.
func (c *Claims) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// IsFounder reports whether the token was issued to a founder.
func (c *Claims) IsFounder() bool {
	return c.Tier == TierFounder
}
