// Package leaderboarddomain turns ledger totals into ordered standings.
package leaderboarddomain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
)

// DefaultThreshold is the games a player or team needs to qualify.
const DefaultThreshold = 18

// Mode selects individual or pair standings.
type Mode string

const (
	ModeSingles Mode = "singles"
	ModeDoubles Mode = "doubles"
)

// View selects the ordering.
type View string

const (
	ViewPoints       View = "points"
	ViewClub         View = "club"
	ViewDifferential View = "differential"
)

// ParseMode defaults to singles.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeSingles:
		return ModeSingles, nil
	case ModeDoubles:
		return ModeDoubles, nil
	default:
		return "", sessiondomain.NewInvalidInput("mode", "unknown mode %q", s)
	}
}

// ParseView defaults to points.
func ParseView(s string) (View, error) {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case "", ViewPoints:
		return ViewPoints, nil
	case ViewClub:
		return ViewClub, nil
	case ViewDifferential:
		return ViewDifferential, nil
	default:
		return "", sessiondomain.NewInvalidInput("view", "unknown view %q", s)
	}
}

// Row is one ledger entity before ranking.
type Row struct {
	ID      string
	Name    string
	Members []sessiondomain.PlayerID
	Totals  sessiondomain.Totals
	// Satisfaction is the player's session rating; zero for teams.
	Satisfaction float64
}

// Entry is a ranked leaderboard line.
type Entry struct {
	Rank         int                      `json:"rank"`
	ID           string                   `json:"id"`
	Name         string                   `json:"name"`
	Members      []sessiondomain.PlayerID `json:"members,omitempty"`
	AvgPoints    float64                  `json:"avg_points"`
	GamesPlayed  int                      `json:"games_played"`
	TotalPoints  float64                  `json:"total_points"`
	Wins         int                      `json:"wins"`
	Losses       int                      `json:"losses"`
	WinPct       float64                  `json:"win_pct"`
	PointDiff    int                      `json:"point_diff"`
	Rating       float64                  `json:"rating"`
	Satisfaction float64                  `json:"satisfaction,omitempty"`
	Qualifies    bool                     `json:"qualifies"`
}

// Leaderboard is one ranked snapshot of the ledger.
type Leaderboard struct {
	Mode        Mode      `json:"mode"`
	View        View      `json:"view"`
	Threshold   int       `json:"threshold"`
	Entries     []Entry   `json:"entries"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ClubRating is the composite behind the club view: the mean of average
// points and win percentage, both on a 0..10 scale.
func ClubRating(t sessiondomain.Totals) float64 {
	return (t.AvgPoints() + t.WinPct()/10) / 2
}

// BuildStandings computes an entry per row, ordered by id. An entity
// qualifies once games_played reaches threshold; exactly threshold counts.
func BuildStandings(rows []Row, threshold int) []Entry {
	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, Entry{
			ID:           r.ID,
			Name:         r.Name,
			Members:      r.Members,
			AvgPoints:    r.Totals.AvgPoints(),
			GamesPlayed:  r.Totals.GamesPlayed,
			TotalPoints:  r.Totals.TotalPoints,
			Wins:         r.Totals.Wins,
			Losses:       r.Totals.Losses,
			WinPct:       r.Totals.WinPct(),
			PointDiff:    r.Totals.PointDiff,
			Rating:       ClubRating(r.Totals),
			Satisfaction: r.Satisfaction,
			Qualifies:    r.Totals.GamesPlayed >= threshold,
		})
	}
	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.ID, b.ID) })
	return entries
}

// Rank orders entries for view and assigns 1-based ranks.
//
// The points view puts qualified entries before provisional ones and orders
// each group by average points, highest first. It has no secondary key: the
// sort is stable over entries already ordered by id, so equal averages keep
// id order. The club and differential views break ties explicitly.
func Rank(entries []Entry, view View) []Entry {
	out := slices.Clone(entries)
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.ID, b.ID) })

	switch view {
	case ViewClub:
		slices.SortStableFunc(out, func(a, b Entry) int {
			if c := cmpDesc(a.Rating, b.Rating); c != 0 {
				return c
			}
			return cmpDesc(a.Wins, b.Wins)
		})
	case ViewDifferential:
		slices.SortStableFunc(out, func(a, b Entry) int {
			if c := cmpDesc(a.PointDiff, b.PointDiff); c != 0 {
				return c
			}
			return cmpDesc(a.Wins, b.Wins)
		})
	default:
		slices.SortStableFunc(out, func(a, b Entry) int {
			if a.Qualifies != b.Qualifies {
				if a.Qualifies {
					return -1
				}
				return 1
			}
			return cmpDesc(a.AvgPoints, b.AvgPoints)
		})
	}

	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func cmpDesc[T int | float64](a, b T) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}

// TeamName renders a pair for display.
func TeamName(a, b string) string {
	return fmt.Sprintf("%s & %s", a, b)
}
