package ledgerhandlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Black-And-White-Club/doubles-bot/app/httpx"
	authhandlers "github.com/Black-And-White-Club/doubles-bot/app/modules/auth/infrastructure/handlers"
	ledgerservice "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/application"
	ledgerdb "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/repositories"
	"github.com/go-chi/chi/v5"
)

// LedgerHandlers serves the player registry.
type LedgerHandlers struct {
	service ledgerservice.Service
	logger  *slog.Logger
}

// NewLedgerHandlers creates a new LedgerHandlers instance.
func NewLedgerHandlers(service ledgerservice.Service, logger *slog.Logger) *LedgerHandlers {
	return &LedgerHandlers{service: service, logger: logger}
}

// RegisterRoutes mounts /players flat so other modules can add
// /players/{playerID}/... routes. Registration is founder only.
func (h *LedgerHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/players", h.HandleHTTPListPlayers)
	r.With(authhandlers.RequireFounder).Post("/players", h.HandleHTTPRegisterPlayer)
	r.Get("/players/{playerID}", h.HandleHTTPGetPlayer)
}

// PlayerView is a player's registry entry with cumulative totals.
type PlayerView struct {
	ID            string    `json:"id"`
	DisplayName   string    `json:"display_name"`
	TotalPoints   float64   `json:"total_points"`
	GamesPlayed   int       `json:"games_played"`
	Wins          int       `json:"wins"`
	Losses        int       `json:"losses"`
	PointDiff     int       `json:"point_diff"`
	Rating        float64   `json:"rating"`
	RatedSessions int       `json:"rated_sessions"`
	CreatedAt     time.Time `json:"created_at"`
}

func newPlayerView(p *ledgerdb.Player) PlayerView {
	return PlayerView{
		ID:            p.ID,
		DisplayName:   p.DisplayName,
		TotalPoints:   p.TotalPoints,
		GamesPlayed:   p.GamesPlayed,
		Wins:          p.Wins,
		Losses:        p.Losses,
		PointDiff:     p.PointDiff,
		Rating:        p.Rating,
		RatedSessions: p.RatedSessions,
		CreatedAt:     p.CreatedAt,
	}
}

type registerRequest struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// HandleHTTPRegisterPlayer adds or renames a club member.
func (h *LedgerHandlers) HandleHTTPRegisterPlayer(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	player, err := h.service.RegisterPlayer(r.Context(), req.ID, req.DisplayName)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, newPlayerView(player))
}

// HandleHTTPGetPlayer returns one player.
func (h *LedgerHandlers) HandleHTTPGetPlayer(w http.ResponseWriter, r *http.Request) {
	player, err := h.service.GetPlayer(r.Context(), chi.URLParam(r, "playerID"))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newPlayerView(player))
}

// HandleHTTPListPlayers returns every registered player.
func (h *LedgerHandlers) HandleHTTPListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.service.ListPlayers(r.Context())
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	out := make([]PlayerView, 0, len(players))
	for i := range players {
		out = append(out, newPlayerView(&players[i]))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
