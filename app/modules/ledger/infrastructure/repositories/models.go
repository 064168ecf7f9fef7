package ledgerdb

import (
	"time"

	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Player is a club member together with their cumulative ledger totals.
type Player struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID            string    `bun:"id,pk"`
	DisplayName   string    `bun:"display_name,notnull"`
	TotalPoints   float64   `bun:"total_points,notnull,default:0"`
	GamesPlayed   int       `bun:"games_played,notnull,default:0"`
	Wins          int       `bun:"wins,notnull,default:0"`
	Losses        int       `bun:"losses,notnull,default:0"`
	PointDiff     int       `bun:"point_diff,notnull,default:0"`
	Rating        float64   `bun:"rating,notnull,default:0"`
	RatedSessions int       `bun:"rated_sessions,notnull,default:0"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (p *Player) Totals() sessiondomain.Totals {
	return sessiondomain.Totals{
		TotalPoints: p.TotalPoints,
		GamesPlayed: p.GamesPlayed,
		Wins:        p.Wins,
		Losses:      p.Losses,
		PointDiff:   p.PointDiff,
	}
}

func (p *Player) SetTotals(t sessiondomain.Totals) {
	p.TotalPoints = t.TotalPoints
	p.GamesPlayed = t.GamesPlayed
	p.Wins = t.Wins
	p.Losses = t.Losses
	p.PointDiff = t.PointDiff
}

// Team is a canonical pair of players. TeamKey is always "lo:hi".
type Team struct {
	bun.BaseModel `bun:"table:teams,alias:t"`

	TeamKey     string    `bun:"team_key,pk"`
	PlayerA     string    `bun:"player_a,notnull"`
	PlayerB     string    `bun:"player_b,notnull"`
	TotalPoints float64   `bun:"total_points,notnull,default:0"`
	GamesPlayed int       `bun:"games_played,notnull,default:0"`
	Wins        int       `bun:"wins,notnull,default:0"`
	Losses      int       `bun:"losses,notnull,default:0"`
	PointDiff   int       `bun:"point_diff,notnull,default:0"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// NewTeam builds an empty team row for a canonical key.
func NewTeam(key sessiondomain.TeamKey) Team {
	m := key.Members()
	return Team{TeamKey: string(key), PlayerA: string(m[0]), PlayerB: string(m[1])}
}

func (t *Team) Totals() sessiondomain.Totals {
	return sessiondomain.Totals{
		TotalPoints: t.TotalPoints,
		GamesPlayed: t.GamesPlayed,
		Wins:        t.Wins,
		Losses:      t.Losses,
		PointDiff:   t.PointDiff,
	}
}

func (t *Team) SetTotals(tot sessiondomain.Totals) {
	t.TotalPoints = tot.TotalPoints
	t.GamesPlayed = tot.GamesPlayed
	t.Wins = tot.Wins
	t.Losses = tot.Losses
	t.PointDiff = tot.PointDiff
}

// GameRecord is the immutable history entry for one accepted game.
// SessionID is nil for games recorded on the lightweight path.
type GameRecord struct {
	bun.BaseModel `bun:"table:game_records,alias:gr"`

	ID          uuid.UUID  `bun:"id,pk,type:uuid"`
	SessionID   *uuid.UUID `bun:"session_id,type:uuid"`
	SessionDate string     `bun:"session_date,notnull,type:varchar(10)"`
	Slot        int        `bun:"slot,notnull"`
	TeamA1      string     `bun:"team_a1,notnull"`
	TeamA2      string     `bun:"team_a2,notnull"`
	TeamB1      string     `bun:"team_b1,notnull"`
	TeamB2      string     `bun:"team_b2,notnull"`
	ScoreA      *int       `bun:"score_a"`
	ScoreB      *int       `bun:"score_b"`
	Winner      string     `bun:"winner,notnull"`
	PointsA     float64    `bun:"points_a,notnull"`
	PointsB     float64    `bun:"points_b,notnull"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// NewGameRecord converts a scored game into its history row.
func NewGameRecord(sessionID *uuid.UUID, date string, g sessiondomain.GameResult, a sessiondomain.GameAward) GameRecord {
	return GameRecord{
		ID:          uuid.New(),
		SessionID:   sessionID,
		SessionDate: date,
		Slot:        int(g.Slot),
		TeamA1:      string(g.TeamA[0]),
		TeamA2:      string(g.TeamA[1]),
		TeamB1:      string(g.TeamB[0]),
		TeamB2:      string(g.TeamB[1]),
		ScoreA:      g.ScoreA,
		ScoreB:      g.ScoreB,
		Winner:      string(a.Winner),
		PointsA:     a.PointsA,
		PointsB:     a.PointsB,
	}
}

// Award rebuilds the award this record was credited with. Differential is
// recomputed from the stored scores.
func (r *GameRecord) Award() sessiondomain.GameAward {
	a := sessiondomain.GameAward{
		Slot:    sessiondomain.Slot(r.Slot),
		TeamA:   sessiondomain.Team{sessiondomain.PlayerID(r.TeamA1), sessiondomain.PlayerID(r.TeamA2)},
		TeamB:   sessiondomain.Team{sessiondomain.PlayerID(r.TeamB1), sessiondomain.PlayerID(r.TeamB2)},
		Winner:  sessiondomain.Side(r.Winner),
		PointsA: r.PointsA,
		PointsB: r.PointsB,
	}
	if a.Slot.ScoreBased() && r.ScoreA != nil && r.ScoreB != nil {
		d := *r.ScoreA - *r.ScoreB
		if d < 0 {
			d = -d
		}
		a.Differential = d
	}
	return a
}

// Involves reports whether the player took part in the game.
func (r *GameRecord) Involves(playerID string) bool {
	return r.TeamA1 == playerID || r.TeamA2 == playerID || r.TeamB1 == playerID || r.TeamB2 == playerID
}

// CheckIn marks a player as available for the session on a date.
type CheckIn struct {
	bun.BaseModel `bun:"table:check_ins,alias:ci"`

	SessionDate string    `bun:"session_date,pk,type:varchar(10)"`
	PlayerID    string    `bun:"player_id,pk"`
	CheckedInAt time.Time `bun:"checked_in_at,nullzero,notnull,default:current_timestamp"`
}
