package authservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	authdomain "github.com/Black-And-White-Club/doubles-bot/app/modules/auth/domain"
	authjwt "github.com/Black-And-White-Club/doubles-bot/app/modules/auth/infrastructure/jwt"
	ledgerdb "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/repositories"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTokenTTL applies when neither the caller nor the config sets one.
const DefaultTokenTTL = 24 * time.Hour

// Config holds the configuration for the auth service.
type Config struct {
	DefaultTTL time.Duration
	Founders   sessiondomain.Founders
}

// service implements the Service interface.
type service struct {
	players     ledgerdb.Repository
	jwtProvider authjwt.Provider
	config      Config
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewService creates a new auth service.
func NewService(
	jwtProvider authjwt.Provider,
	players ledgerdb.Repository,
	config Config,
	logger *slog.Logger,
	tracer trace.Tracer,
) Service {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = DefaultTokenTTL
	}
	return &service{
		players:     players,
		jwtProvider: jwtProvider,
		config:      config,
		logger:      logger,
		tracer:      tracer,
	}
}

func (s *service) tierOf(playerID string) authdomain.Tier {
	if s.config.Founders.IsFounder(sessiondomain.PlayerID(playerID)) {
		return authdomain.TierFounder
	}
	return authdomain.TierOrdinary
}

// IssueToken mints a bearer token for playerID.
func (s *service) IssueToken(ctx context.Context, playerID string, ttl time.Duration) (*TokenResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.IssueToken")
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, ErrUnknownPlayer
	}
	if ttl <= 0 {
		ttl = s.config.DefaultTTL
	}

	tier := s.tierOf(playerID)
	if tier != authdomain.TierFounder {
		if _, err := s.players.GetPlayer(ctx, nil, playerID); err != nil {
			if errors.Is(err, ledgerdb.ErrNotFound) {
				s.logger.WarnContext(ctx, "Token requested for unknown player",
					attr.String("player_id", playerID),
				)
				return nil, ErrUnknownPlayer
			}
			span.RecordError(err)
			return nil, fmt.Errorf("failed to look up player: %w", err)
		}
	}

	claims := &authdomain.Claims{
		PlayerID:  playerID,
		Tier:      tier,
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}
	token, err := s.jwtProvider.GenerateToken(claims, ttl)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", ErrGenerateToken, err)
	}

	s.logger.InfoContext(ctx, "Issued API token",
		attr.String("player_id", playerID),
		attr.String("tier", tier.String()),
	)

	return &TokenResponse{
		Token:     token,
		PlayerID:  playerID,
		Tier:      tier,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// Authenticate validates a bearer token.
func (s *service) Authenticate(ctx context.Context, tokenString string) (*authdomain.Claims, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Authenticate")
	defer span.End()

	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims, err := s.jwtProvider.ValidateToken(tokenString)
	if err != nil {
		if errors.Is(err, authjwt.ErrExpiredToken) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if want := s.tierOf(claims.PlayerID); claims.Tier != want {
		s.logger.WarnContext(ctx, "Token tier no longer matches founders",
			attr.String("player_id", claims.PlayerID),
			attr.String("claimed", claims.Tier.String()),
			attr.String("configured", want.String()),
		)
		return nil, ErrTierMismatch
	}

	return claims, nil
}
