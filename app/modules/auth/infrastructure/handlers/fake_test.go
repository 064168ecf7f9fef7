package authhandlers

import (
	"context"
	"slices"
	"time"

	authservice "github.com/Black-And-White-Club/doubles-bot/app/modules/auth/application"
	authdomain "github.com/Black-And-White-Club/doubles-bot/app/modules/auth/domain"
)

// ------------------------
// Fake Auth Service
// ------------------------

type FakeService struct {
	trace []string

	IssueTokenFunc   func(ctx context.Context, playerID string, ttl time.Duration) (*authservice.TokenResponse, error)
	AuthenticateFunc func(ctx context.Context, tokenString string) (*authdomain.Claims, error)
}

func (f *FakeService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeService) Trace() []string {
	return slices.Clone(f.trace)
}

func (f *FakeService) IssueToken(ctx context.Context, playerID string, ttl time.Duration) (*authservice.TokenResponse, error) {
	f.record("IssueToken")
	if f.IssueTokenFunc != nil {
		return f.IssueTokenFunc(ctx, playerID, ttl)
	}
	return &authservice.TokenResponse{Token: "fake", PlayerID: playerID}, nil
}

func (f *FakeService) Authenticate(ctx context.Context, tokenString string) (*authdomain.Claims, error) {
	f.record("Authenticate")
	if f.AuthenticateFunc != nil {
		return f.AuthenticateFunc(ctx, tokenString)
	}
	return nil, authservice.ErrInvalidToken
}

var _ authservice.Service = (*FakeService)(nil)
