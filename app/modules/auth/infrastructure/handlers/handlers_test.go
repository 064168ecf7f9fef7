package authhandlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Black-And-White-Club/doubles-bot/app/httpx"
	authservice "github.com/Black-And-White-Club/doubles-bot/app/modules/auth/application"
	authdomain "github.com/Black-And-White-Club/doubles-bot/app/modules/auth/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestHandlers(s *FakeService) *AuthHandlers {
	return NewAuthHandlers(s, slog.New(slog.NewTextHandler(io.Discard, nil)), noop.NewTracerProvider().Tracer("test"))
}

func TestAuthHandlers_HandleHTTPMe(t *testing.T) {
	h := newTestHandlers(&FakeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(WithClaims(req.Context(), &authdomain.Claims{PlayerID: "carol", Tier: authdomain.TierFounder}))
	rec := httptest.NewRecorder()
	h.HandleHTTPMe(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body meResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "carol", body.PlayerID)
	assert.Equal(t, "founder", body.Tier)

	rec = httptest.NewRecorder()
	h.HandleHTTPMe(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assertErrorKind(t, rec, httpx.KindUnauthorized)
}

func assertErrorKind(t *testing.T, rec *httptest.ResponseRecorder, kind string) {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body httpx.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, kind, body.Kind)
}

func TestAuthHandlers_HandleHTTPIssueToken(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		issue    func(ctx context.Context, playerID string, ttl time.Duration) (*authservice.TokenResponse, error)
		want     int
		wantKind string
		wantTTL  time.Duration
	}{
		{
			name: "issues with requested ttl",
			body: `{"player_id":"dave","ttl":"2h"}`,
			want: http.StatusCreated, wantTTL: 2 * time.Hour,
		},
		{name: "bad json", body: `{`, want: http.StatusBadRequest, wantKind: httpx.KindInvalidInput},
		{name: "bad ttl", body: `{"player_id":"dave","ttl":"soon"}`, want: http.StatusBadRequest, wantKind: httpx.KindInvalidInput},
		{
			name: "unknown player",
			body: `{"player_id":"zed"}`,
			issue: func(ctx context.Context, playerID string, ttl time.Duration) (*authservice.TokenResponse, error) {
				return nil, authservice.ErrUnknownPlayer
			},
			want:     http.StatusNotFound,
			wantKind: httpx.KindNotFound,
		},
		{
			name: "service failure",
			body: `{"player_id":"dave"}`,
			issue: func(ctx context.Context, playerID string, ttl time.Duration) (*authservice.TokenResponse, error) {
				return nil, assert.AnError
			},
			want:     http.StatusInternalServerError,
			wantKind: httpx.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotTTL time.Duration
			s := &FakeService{IssueTokenFunc: tt.issue}
			if s.IssueTokenFunc == nil {
				s.IssueTokenFunc = func(ctx context.Context, playerID string, ttl time.Duration) (*authservice.TokenResponse, error) {
					gotTTL = ttl
					return &authservice.TokenResponse{Token: "tok", PlayerID: playerID, Tier: authdomain.TierOrdinary}, nil
				}
			}

			rec := httptest.NewRecorder()
			newTestHandlers(s).HandleHTTPIssueToken(rec, httptest.NewRequest(http.MethodPost, "/api/auth/tokens", strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusCreated {
				assert.Equal(t, tt.wantTTL, gotTTL)
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
				assert.Contains(t, rec.Body.String(), `"token":"tok"`)
				return
			}
			assertErrorKind(t, rec, tt.wantKind)
		})
	}
}
