package sessionhandlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Black-And-White-Club/doubles-bot/app/handlerwrapper"
	"github.com/Black-And-White-Club/doubles-bot/app/httpx"
	authhandlers "github.com/Black-And-White-Club/doubles-bot/app/modules/auth/infrastructure/handlers"
	sessionservice "github.com/Black-And-White-Club/doubles-bot/app/modules/session/application"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/attr"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// RegisterRoutes mounts the session API. Authoring routes require a
// founder token; voter identity always comes from the token.
func (h *SessionHandlers) RegisterRoutes(r chi.Router) {
	r.Post("/pairings", h.HandleHTTPPairings)
	r.Post("/points", h.HandleHTTPPoints)
	r.Get("/scribe", h.HandleHTTPScribe)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", h.HandleHTTPListSessions)
		r.With(authhandlers.RequireFounder).Post("/", h.HandleHTTPSubmit)
		r.With(authhandlers.RequireFounder).Post("/quick", h.HandleHTTPQuick)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.HandleHTTPGetSession)
			r.Post("/votes", h.HandleHTTPVote)
			r.With(authhandlers.RequireFounder).Post("/resubmit", h.HandleHTTPResubmit)
		})
	})

	r.Route("/checkins/{date}", func(r chi.Router) {
		r.Get("/", h.HandleHTTPListCheckIns)
		r.Post("/", h.HandleHTTPCheckIn)
		r.Delete("/", h.HandleHTTPCheckOut)
	})
}

// notify publishes hints after a committed mutation. The write already
// happened, so a publish failure is only logged.
func (h *SessionHandlers) notify(ctx context.Context, results []handlerwrapper.Result) {
	if h.publisher == nil {
		return
	}
	if err := handlerwrapper.Publish(ctx, h.publisher, results...); err != nil {
		h.logger.WarnContext(ctx, "Failed to publish session notification",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
	}
}

func (h *SessionHandlers) caller(w http.ResponseWriter, r *http.Request) (sessiondomain.PlayerID, sessiondomain.Tier, bool) {
	claims, ok := authhandlers.ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, h.logger, httpx.ErrUnauthorized)
		return "", "", false
	}
	return sessiondomain.PlayerID(claims.PlayerID), sessiondomain.Tier(claims.Tier), true
}

func (h *SessionHandlers) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		httpx.WriteError(w, r, h.logger, sessiondomain.NewInvalidInput("session_id", "%q is not a session id", chi.URLParam(r, "sessionID")))
		return uuid.Nil, false
	}
	return id, true
}

type pairingsRequest struct {
	Players []sessiondomain.PlayerID `json:"players"`
}

// HandleHTTPPairings returns the three fixed pairings for four players.
func (h *SessionHandlers) HandleHTTPPairings(w http.ResponseWriter, r *http.Request) {
	var req pairingsRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	pairings, err := h.service.GeneratePairings(r.Context(), req.Players)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pairings)
}

type pointsRequest struct {
	Slot     sessiondomain.Slot `json:"slot"`
	Own      *int               `json:"own_score,omitempty"`
	Opp      *int               `json:"opponent_score,omitempty"`
	IsWinner *bool              `json:"is_winner,omitempty"`
}

type pointsResponse struct {
	Points float64 `json:"points"`
}

// HandleHTTPPoints scores one side of one game.
func (h *SessionHandlers) HandleHTTPPoints(w http.ResponseWriter, r *http.Request) {
	var req pointsRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	points, err := h.service.CalculatePoints(r.Context(), req.Slot, req.Own, req.Opp, req.IsWinner)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pointsResponse{Points: points})
}

type scribeResponse struct {
	Date     string                 `json:"date"`
	ScribeID sessiondomain.PlayerID `json:"scribe_id"`
}

// HandleHTTPScribe returns the founder on duty for ?date= (default today).
func (h *SessionHandlers) HandleHTTPScribe(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	date, err := h.dates.Parse(r.URL.Query().Get("date"), now)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	if date.IsZero() {
		date = sessiondomain.DateOf(now, h.dates.loc)
	}

	scribe, err := h.service.CurrentScribe(r.Context(), date)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, scribeResponse{Date: date.Format(time.DateOnly), ScribeID: scribe})
}

type submitRequest struct {
	Date         string                    `json:"date,omitempty"`
	Participants []sessiondomain.PlayerID  `json:"participants,omitempty"`
	Games        []sessiondomain.GameInput `json:"games"`
	Satisfaction int                       `json:"satisfaction"`
}

// HandleHTTPSubmit creates a pending session authored by the caller.
func (h *SessionHandlers) HandleHTTPSubmit(w http.ResponseWriter, r *http.Request) {
	scribe, _, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	date, err := h.dates.Parse(req.Date, h.now())
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	view, err := h.service.SubmitSession(r.Context(), sessionservice.SubmitRequest{
		ScribeID:     scribe,
		Date:         date,
		Participants: req.Participants,
		Games:        req.Games,
		Satisfaction: req.Satisfaction,
	})
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	h.notify(r.Context(), SubmittedResults(view))
	httpx.WriteJSON(w, http.StatusCreated, view)
}

// HandleHTTPListSessions lists sessions, optionally filtered by ?status=.
func (h *SessionHandlers) HandleHTTPListSessions(w http.ResponseWriter, r *http.Request) {
	status := sessiondomain.Status(strings.ToLower(r.URL.Query().Get("status")))
	sessions, err := h.service.ListSessions(r.Context(), status)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	if sessions == nil {
		sessions = []sessionservice.SessionView{}
	}
	httpx.WriteJSON(w, http.StatusOK, sessions)
}

// HandleHTTPGetSession returns a session with its vote audit trail.
func (h *SessionHandlers) HandleHTTPGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	view, err := h.service.GetSession(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

type voteRequest struct {
	Choice sessiondomain.Choice `json:"choice"`
}

// HandleHTTPVote casts the caller's ballot with the tier from their token.
func (h *SessionHandlers) HandleHTTPVote(w http.ResponseWriter, r *http.Request) {
	voter, tier, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var body voteRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	req := sessionservice.VoteRequest{SessionID: id, VoterID: voter, Tier: tier, Choice: body.Choice}
	out, err := h.service.CastVote(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	h.notify(r.Context(), VoteResults(req, out, h.now()))
	httpx.WriteJSON(w, http.StatusOK, out)
}

type resubmitRequest struct {
	Games        []sessiondomain.GameInput `json:"games"`
	Satisfaction int                       `json:"satisfaction"`
}

// HandleHTTPResubmit replaces a contested session's games.
func (h *SessionHandlers) HandleHTTPResubmit(w http.ResponseWriter, r *http.Request) {
	scribe, _, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var body resubmitRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	view, err := h.service.ResubmitSession(r.Context(), sessionservice.ResubmitRequest{
		SessionID:    id,
		ScribeID:     scribe,
		Games:        body.Games,
		Satisfaction: body.Satisfaction,
	})
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	h.notify(r.Context(), ResubmittedResults(view))
	httpx.WriteJSON(w, http.StatusOK, view)
}

type quickRequest struct {
	Date         string                    `json:"date,omitempty"`
	Participants []sessiondomain.PlayerID  `json:"participants"`
	Games        []sessiondomain.GameInput `json:"games"`
}

// HandleHTTPQuick records games straight to the ledger.
func (h *SessionHandlers) HandleHTTPQuick(w http.ResponseWriter, r *http.Request) {
	var body quickRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	now := h.now()
	date, err := h.dates.Parse(body.Date, now)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	res, err := h.service.RecordQuickSession(r.Context(), sessionservice.QuickRequest{
		Date:         date,
		Participants: body.Participants,
		Games:        body.Games,
	})
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	h.notify(r.Context(), QuickResults(res, now))
	httpx.WriteJSON(w, http.StatusCreated, res)
}

type checkInRequest struct {
	PlayerID sessiondomain.PlayerID `json:"player_id,omitempty"`
}

type checkInResponse struct {
	Date    string                   `json:"date"`
	Players []sessiondomain.PlayerID `json:"players"`
}

// checkInTarget resolves whose check-in a request changes. Players change
// their own; founders may name anyone.
func (h *SessionHandlers) checkInTarget(w http.ResponseWriter, r *http.Request) (time.Time, sessiondomain.PlayerID, bool) {
	caller, tier, ok := h.caller(w, r)
	if !ok {
		return time.Time{}, "", false
	}
	date, ok := h.pathDate(w, r)
	if !ok {
		return time.Time{}, "", false
	}

	var body checkInRequest
	if err := httpx.DecodeOptionalJSON(w, r, &body); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return time.Time{}, "", false
	}
	target := caller
	if body.PlayerID != "" && body.PlayerID != caller {
		if tier != sessiondomain.TierFounder {
			httpx.WriteError(w, r, h.logger, httpx.ErrForbidden)
			return time.Time{}, "", false
		}
		target = body.PlayerID
	}
	return date, target, true
}

func (h *SessionHandlers) pathDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	now := h.now()
	date, err := h.dates.Parse(chi.URLParam(r, "date"), now)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return time.Time{}, false
	}
	if date.IsZero() {
		date = sessiondomain.DateOf(now, h.dates.loc)
	}
	return date, true
}

// HandleHTTPCheckIn registers a player for the day's session.
func (h *SessionHandlers) HandleHTTPCheckIn(w http.ResponseWriter, r *http.Request) {
	date, player, ok := h.checkInTarget(w, r)
	if !ok {
		return
	}
	players, err := h.service.CheckIn(r.Context(), date, player)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, checkInResponse{Date: date.Format(time.DateOnly), Players: players})
}

// HandleHTTPCheckOut withdraws a check-in.
func (h *SessionHandlers) HandleHTTPCheckOut(w http.ResponseWriter, r *http.Request) {
	date, player, ok := h.checkInTarget(w, r)
	if !ok {
		return
	}
	players, err := h.service.CheckOut(r.Context(), date, player)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, checkInResponse{Date: date.Format(time.DateOnly), Players: players})
}

// HandleHTTPListCheckIns lists the day's check-ins.
func (h *SessionHandlers) HandleHTTPListCheckIns(w http.ResponseWriter, r *http.Request) {
	date, ok := h.pathDate(w, r)
	if !ok {
		return
	}
	players, err := h.service.ListCheckIns(r.Context(), date)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	if players == nil {
		players = []sessiondomain.PlayerID{}
	}
	httpx.WriteJSON(w, http.StatusOK, checkInResponse{Date: date.Format(time.DateOnly), Players: players})
}
