package ledgerhandlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	authdomain "github.com/Black-And-White-Club/doubles-bot/app/modules/auth/domain"
	authhandlers "github.com/Black-And-White-Club/doubles-bot/app/modules/auth/infrastructure/handlers"
	ledgerservice "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/application"
	ledgerdb "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/repositories"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type FakeLedgerService struct {
	trace []string

	RegisterPlayerFunc func(ctx context.Context, id, displayName string) (*ledgerdb.Player, error)
	GetPlayerFunc      func(ctx context.Context, id string) (*ledgerdb.Player, error)
	ListPlayersFunc    func(ctx context.Context) ([]ledgerdb.Player, error)
}

func (f *FakeLedgerService) Trace() []string { return slices.Clone(f.trace) }

func (f *FakeLedgerService) RegisterPlayer(ctx context.Context, id, displayName string) (*ledgerdb.Player, error) {
	f.trace = append(f.trace, "RegisterPlayer")
	if f.RegisterPlayerFunc != nil {
		return f.RegisterPlayerFunc(ctx, id, displayName)
	}
	return &ledgerdb.Player{ID: id, DisplayName: displayName}, nil
}

func (f *FakeLedgerService) GetPlayer(ctx context.Context, id string) (*ledgerdb.Player, error) {
	f.trace = append(f.trace, "GetPlayer")
	if f.GetPlayerFunc != nil {
		return f.GetPlayerFunc(ctx, id)
	}
	return nil, ledgerdb.ErrNotFound
}

func (f *FakeLedgerService) ListPlayers(ctx context.Context) ([]ledgerdb.Player, error) {
	f.trace = append(f.trace, "ListPlayers")
	if f.ListPlayersFunc != nil {
		return f.ListPlayersFunc(ctx)
	}
	return nil, nil
}

var _ ledgerservice.Service = (*FakeLedgerService)(nil)

func do(t *testing.T, f *FakeLedgerService, method, path, body string, tier authdomain.Tier) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	NewLedgerHandlers(f, slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterRoutes(r)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(authhandlers.WithClaims(req.Context(), &authdomain.Claims{PlayerID: "alice", Tier: tier}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestLedgerHandlers_RegisterPlayer(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		tier     authdomain.Tier
		register func(ctx context.Context, id, displayName string) (*ledgerdb.Player, error)
		want     int
	}{
		{name: "founder registers", body: `{"id":"dave","display_name":"Dave"}`, tier: authdomain.TierFounder, want: http.StatusCreated},
		{name: "ordinary forbidden", body: `{"id":"dave"}`, tier: authdomain.TierOrdinary, want: http.StatusForbidden},
		{name: "malformed body", body: `[`, tier: authdomain.TierFounder, want: http.StatusBadRequest},
		{
			name: "colon in id",
			body: `{"id":"da:ve"}`,
			tier: authdomain.TierFounder,
			register: func(ctx context.Context, id, displayName string) (*ledgerdb.Player, error) {
				return nil, sessiondomain.NewInvalidInput("id", "player id %q must not contain ':'", id)
			},
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &FakeLedgerService{RegisterPlayerFunc: tt.register}
			rec := do(t, f, http.MethodPost, "/players", tt.body, tt.tier)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestLedgerHandlers_GetAndList(t *testing.T) {
	f := &FakeLedgerService{
		GetPlayerFunc: func(ctx context.Context, id string) (*ledgerdb.Player, error) {
			if id != "dave" {
				return nil, ledgerdb.ErrNotFound
			}
			return &ledgerdb.Player{ID: "dave", DisplayName: "Dave", TotalPoints: 25, GamesPlayed: 3}, nil
		},
		ListPlayersFunc: func(ctx context.Context) ([]ledgerdb.Player, error) {
			return []ledgerdb.Player{{ID: "alice"}, {ID: "dave"}}, nil
		},
	}

	rec := do(t, f, http.MethodGet, "/players/dave", "", authdomain.TierOrdinary)
	require.Equal(t, http.StatusOK, rec.Code)
	var got PlayerView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, 25.0, got.TotalPoints)

	rec = do(t, f, http.MethodGet, "/players/zed", "", authdomain.TierOrdinary)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, f, http.MethodGet, "/players", "", authdomain.TierOrdinary)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []PlayerView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Len(t, list, 2)
	assert.Equal(t, []string{"GetPlayer", "GetPlayer", "ListPlayers"}, f.Trace())
}
