package authhandlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Black-And-White-Club/doubles-bot/app/httpx"
	authservice "github.com/Black-And-White-Club/doubles-bot/app/modules/auth/application"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

// AuthHandlers serves the token endpoints.
type AuthHandlers struct {
	service authservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewAuthHandlers creates a new AuthHandlers instance.
func NewAuthHandlers(
	service authservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) *AuthHandlers {
	return &AuthHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

type meResponse struct {
	PlayerID  string    `json:"player_id"`
	Tier      string    `json:"tier"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HandleHTTPMe returns the caller's identity.
func (h *AuthHandlers) HandleHTTPMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, h.logger, httpx.ErrUnauthorized)
		return
	}

	h.writeJSON(w, r, http.StatusOK, meResponse{
		PlayerID:  claims.PlayerID,
		Tier:      claims.Tier.String(),
		ExpiresAt: claims.ExpiresAt,
	})
}

type tokenRequest struct {
	PlayerID string `json:"player_id"`
	TTL      string `json:"ttl,omitempty"`
}

// HandleHTTPIssueToken lets a founder mint a token for a club member.
func (h *AuthHandlers) HandleHTTPIssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tokenRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	var ttl time.Duration
	if req.TTL != "" {
		parsed, err := time.ParseDuration(req.TTL)
		if err != nil || parsed <= 0 {
			httpx.WriteError(w, r, h.logger, sessiondomain.NewInvalidInput("ttl", "must be a positive duration, got %q", req.TTL))
			return
		}
		ttl = parsed
	}

	resp, err := h.service.IssueToken(ctx, req.PlayerID, ttl)
	if err != nil {
		if errors.Is(err, authservice.ErrUnknownPlayer) {
			err = fmt.Errorf("%w: %w", httpx.ErrNotFound, err)
		}
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, resp)
}

func (h *AuthHandlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := httpx.WriteJSON(w, status, v); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to write response",
			attr.String("path", r.URL.Path),
			attr.Error(err),
		)
	}
}
