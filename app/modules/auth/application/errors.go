package authservice

import "errors"

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrMissingToken is returned when no token is provided.
	ErrMissingToken = errors.New("missing authentication token")

	// ErrUnknownPlayer is returned when a token is requested for someone who is
	// neither a founder nor a registered player.
	ErrUnknownPlayer = errors.New("player is not registered")

	// ErrTierMismatch is returned when a token's tier no longer matches the
	// founder configuration.
	ErrTierMismatch = errors.New("token tier does not match founder configuration")

	// ErrGenerateToken is returned when token generation fails.
	ErrGenerateToken = errors.New("failed to generate token")
)
