package leaderboarddomain

import (
	"math"
	"slices"
	"strconv"

	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
)

// PointsTolerance absorbs float drift between incremental and replayed sums.
const PointsTolerance = 1e-6

// Entities compared by reconciliation.
const (
	EntityPlayer = "player"
	EntityTeam   = "team"
)

// Compare lists every field where the stored totals differ from totals
// recomputed from history. Ids present on only one side are compared
// against zero totals. The result is ordered by id, then field.
func Compare(entity string, stored, computed map[string]sessiondomain.Totals) []sessiondomain.Mismatch {
	ids := make([]string, 0, len(stored)+len(computed))
	for id := range stored {
		ids = append(ids, id)
	}
	for id := range computed {
		if _, ok := stored[id]; !ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	var out []sessiondomain.Mismatch
	for _, id := range ids {
		s, c := stored[id], computed[id]
		if math.Abs(s.TotalPoints-c.TotalPoints) > PointsTolerance {
			out = append(out, mismatch(entity, id, "total_points", formatFloat(s.TotalPoints), formatFloat(c.TotalPoints)))
		}
		out = appendInt(out, entity, id, "games_played", s.GamesPlayed, c.GamesPlayed)
		out = appendInt(out, entity, id, "wins", s.Wins, c.Wins)
		out = appendInt(out, entity, id, "losses", s.Losses, c.Losses)
		out = appendInt(out, entity, id, "point_diff", s.PointDiff, c.PointDiff)
	}
	return out
}

func appendInt(out []sessiondomain.Mismatch, entity, id, field string, stored, computed int) []sessiondomain.Mismatch {
	if stored == computed {
		return out
	}
	return append(out, mismatch(entity, id, field, strconv.Itoa(stored), strconv.Itoa(computed)))
}

func mismatch(entity, id, field, stored, computed string) sessiondomain.Mismatch {
	return sessiondomain.Mismatch{Entity: entity, ID: id, Field: field, Ledger: stored, Computed: computed}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}
