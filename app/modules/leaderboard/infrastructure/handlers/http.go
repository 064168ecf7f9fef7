package leaderboardhandlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	ledgerevents "github.com/Black-And-White-Club/doubles-bot/app/events/ledger"
	"github.com/Black-And-White-Club/doubles-bot/app/handlerwrapper"
	"github.com/Black-And-White-Club/doubles-bot/app/httpx"
	authhandlers "github.com/Black-And-White-Club/doubles-bot/app/modules/auth/infrastructure/handlers"
	leaderboardservice "github.com/Black-And-White-Club/doubles-bot/app/modules/leaderboard/application"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RegisterRoutes mounts standings, exports, charts and the founder-only
// ledger maintenance endpoints.
func (h *LeaderboardHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/leaderboard", h.HandleHTTPLeaderboard)
	r.Get("/leaderboard/export.xlsx", h.HandleHTTPExport)
	r.Get("/players/{playerID}/chart.png", h.HandleHTTPChart)

	r.Route("/admin", func(r chi.Router) {
		r.Use(authhandlers.RequireFounder)
		r.Post("/reconcile", h.HandleHTTPReconcile)
		r.Post("/rebuild", h.HandleHTTPRebuild)
	})
}

func (h *LeaderboardHandlers) HandleHTTPLeaderboard(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	board, err := h.service.GetLeaderboard(r.Context(), q)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, board)
}

func (h *LeaderboardHandlers) HandleHTTPExport(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	data, err := h.service.ExportStandings(r.Context(), q)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	mode := q.Mode
	if mode == "" {
		mode = "singles"
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="standings-%s.xlsx"`, strings.ToLower(mode)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *LeaderboardHandlers) HandleHTTPChart(w http.ResponseWriter, r *http.Request) {
	png, err := h.service.PointsHistoryChart(r.Context(), chi.URLParam(r, "playerID"))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// HandleHTTPReconcile runs reconciliation inline, or enqueues it with
// ?async=true when a job queue is available.
func (h *LeaderboardHandlers) HandleHTTPReconcile(w http.ResponseWriter, r *http.Request) {
	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		if h.enqueuer == nil {
			httpx.WriteError(w, r, h.logger, sessiondomain.NewInvalidInput("async", "no job queue is configured"))
			return
		}
		if err := h.enqueuer.EnqueueReconcile(r.Context()); err != nil {
			httpx.WriteError(w, r, h.logger, err)
			return
		}
		httpx.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
		return
	}

	report, err := h.service.Reconcile(r.Context())
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, report)
}

func (h *LeaderboardHandlers) HandleHTTPRebuild(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Rebuild(r.Context())
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	h.notify(r.Context(), handlerwrapper.Result{
		Topic: ledgerevents.UpdatedV1,
		Payload: ledgerevents.UpdatedPayloadV1{
			Source:     ledgerevents.SourceRebuild,
			OccurredAt: report.CheckedAt,
		},
	})
	httpx.WriteJSON(w, http.StatusOK, report)
}

func parseQuery(r *http.Request) (leaderboardservice.Query, error) {
	v := r.URL.Query()
	q := leaderboardservice.Query{Mode: v.Get("mode"), View: v.Get("view")}
	if raw := v.Get("threshold"); raw != "" {
		t, err := strconv.Atoi(raw)
		if err != nil {
			return q, sessiondomain.NewInvalidInput("threshold", "%q is not a number", raw)
		}
		q.Threshold = &t
	}
	return q, nil
}
