package sessionservice

import (
	"context"
	"fmt"
	"time"

	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/Black-And-White-Club/doubles-bot/app/results"
)

// GeneratePairings returns the fixed round robin for four players.
func (s *SessionService) GeneratePairings(ctx context.Context, players []sessiondomain.PlayerID) ([3]sessiondomain.Pairing, error) {
	result, err := withTelemetry(s, ctx, "GeneratePairings", fmt.Sprint(players), func(ctx context.Context) (results.OperationResult[[3]sessiondomain.Pairing, error], error) {
		pairings, err := sessiondomain.GeneratePairings(players)
		return classify(pairings, err)
	})
	return unwrap(result, err)
}

// CalculatePoints scores one side of one game.
func (s *SessionService) CalculatePoints(ctx context.Context, slot sessiondomain.Slot, own, opp *int, isWinner *bool) (float64, error) {
	result, err := withTelemetry(s, ctx, "CalculatePoints", fmt.Sprintf("slot-%d", slot), func(ctx context.Context) (results.OperationResult[float64, error], error) {
		points, err := sessiondomain.CalculatePoints(slot, own, opp, isWinner)
		return classify(points, err)
	})
	return unwrap(result, err)
}

// CurrentScribe returns the founder on scribe duty for the week containing date.
func (s *SessionService) CurrentScribe(ctx context.Context, date time.Time) (sessiondomain.PlayerID, error) {
	if date.IsZero() {
		date = s.opts.Now()
	}
	result, err := withTelemetry(s, ctx, "CurrentScribe", s.dateKey(date), func(ctx context.Context) (results.OperationResult[sessiondomain.PlayerID, error], error) {
		scribe, err := sessiondomain.CurrentScribe(date, s.opts.Founders)
		return classify(scribe, err)
	})
	return unwrap(result, err)
}
