package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ledgerdb "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/repositories"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	sessiondb "github.com/Black-And-White-Club/doubles-bot/app/modules/session/infrastructure/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", sessiondomain.NewInvalidInput("slot", "bad"), http.StatusBadRequest},
		{"wrapped invalid input", fmt.Errorf("CastVote: %w", sessiondomain.NewInvalidInput("tier", "bad")), http.StatusBadRequest},
		{"illegal transition", &sessiondomain.IllegalTransitionError{From: sessiondomain.StatusFinalized, Action: "vote on"}, http.StatusConflict},
		{"inconsistent", &sessiondomain.ConsistencyError{}, http.StatusConflict},
		{"session not found", sessiondb.ErrNotFound, http.StatusNotFound},
		{"player not found", ledgerdb.ErrNotFound, http.StatusNotFound},
		{"wrapped transport not found", fmt.Errorf("%w: player is not registered", ErrNotFound), http.StatusNotFound},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"anything else", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Classify(tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	req := httptest.NewRequest(http.MethodPost, "/api/admin/reconcile", nil)

	rec := httptest.NewRecorder()
	WriteError(rec, req, logger, &sessiondomain.ConsistencyError{Mismatches: []sessiondomain.Mismatch{
		{Entity: "player", ID: "alice", Field: "total_points", Ledger: "10", Computed: "12"},
	}})
	require.Equal(t, http.StatusConflict, rec.Code)
	var body ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, KindInconsistent, body.Kind)
	require.Len(t, body.Mismatches, 1)
	assert.Equal(t, "alice", body.Mismatches[0].ID)

	rec = httptest.NewRecorder()
	WriteError(rec, req, logger, errors.New("password=hunter2"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hunter2")
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	rec := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"alice"}`))
	require.NoError(t, DecodeJSON(rec, req, &v))
	assert.Equal(t, "alice", v.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	assert.ErrorIs(t, DecodeJSON(rec, req, &v), sessiondomain.ErrInvalidInput)
}

func TestDecodeOptionalJSON(t *testing.T) {
	type body struct {
		PlayerID string `json:"player_id"`
	}

	tests := []struct {
		name    string
		req     func() *http.Request
		want    string
		wantErr bool
	}{
		{
			name: "no body",
			req:  func() *http.Request { return httptest.NewRequest(http.MethodPost, "/", http.NoBody) },
		},
		{
			name: "empty body",
			req:  func() *http.Request { return httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")) },
		},
		{
			name: "sized body",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"player_id":"erin"}`))
			},
			want: "erin",
		},
		{
			name: "chunked body",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"player_id":"erin"}`))
				r.ContentLength = -1
				r.TransferEncoding = []string{"chunked"}
				return r
			},
			want: "erin",
		},
		{
			name: "malformed body",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"player_id":`))
				r.ContentLength = -1
				return r
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got body
			err := DecodeOptionalJSON(httptest.NewRecorder(), tt.req(), &got)
			if tt.wantErr {
				assert.ErrorIs(t, err, sessiondomain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.PlayerID)
		})
	}
}
