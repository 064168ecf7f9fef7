package sessiondomain

const (
	// TargetScore is the score that ends a score-based game.
	TargetScore = 9

	// WinAward is the flat award for winning a score-based game.
	WinAward = 10.0

	BinaryWinAward  = 10.0
	BinaryLossAward = 5.0
)

// CalculatePoints returns the per-player award for one side of a game.
//
// Slots one and two compare own against opp: a strict win earns WinAward,
// anything else earns own/TargetScore*WinAward. Ties are rejected here rather
// than trusted to callers. Slot three ignores scores and pays BinaryWinAward or
// BinaryLossAward by isWinner.
func CalculatePoints(slot Slot, own, opp *int, isWinner *bool) (float64, error) {
	switch {
	case slot.ScoreBased():
		if err := validateScores(own, opp); err != nil {
			return 0, err
		}
		if *own > *opp {
			return WinAward, nil
		}
		return float64(*own) / TargetScore * WinAward, nil

	case slot == SlotThree:
		if isWinner == nil {
			return 0, invalid("is_winner", "slot 3 requires a winner flag")
		}
		if *isWinner {
			return BinaryWinAward, nil
		}
		return BinaryLossAward, nil

	default:
		return 0, invalid("slot", "unknown slot %d", slot)
	}
}

func validateScores(a, b *int) error {
	if a == nil || b == nil {
		return invalid("score", "score-based slots require both scores")
	}
	for _, s := range []int{*a, *b} {
		if s < 0 || s > TargetScore {
			return invalid("score", "score %d outside [0,%d]", s, TargetScore)
		}
	}
	if *a == *b {
		return invalid("score", "tied score %d-%d is not allowed", *a, *b)
	}
	return nil
}

// GameAward is the scored outcome of one game.
type GameAward struct {
	Slot         Slot
	TeamA        Team
	TeamB        Team
	Winner       Side
	PointsA      float64
	PointsB      float64
	Differential int // absolute score margin, zero for binary slots
}

// ScoreGame awards every player the full award of their team.
func ScoreGame(g GameResult) (GameAward, error) {
	award := GameAward{Slot: g.Slot, TeamA: g.TeamA, TeamB: g.TeamB}

	if g.Slot.ScoreBased() {
		a, err := CalculatePoints(g.Slot, g.ScoreA, g.ScoreB, nil)
		if err != nil {
			return GameAward{}, err
		}
		b, err := CalculatePoints(g.Slot, g.ScoreB, g.ScoreA, nil)
		if err != nil {
			return GameAward{}, err
		}
		award.PointsA, award.PointsB = a, b
		if *g.ScoreA > *g.ScoreB {
			award.Winner = SideA
			award.Differential = *g.ScoreA - *g.ScoreB
		} else {
			award.Winner = SideB
			award.Differential = *g.ScoreB - *g.ScoreA
		}
		return award, nil
	}

	if !g.Winner.Valid() {
		return GameAward{}, invalid("winner", "slot %d requires a winner", g.Slot)
	}
	aWon := g.Winner == SideA
	bWon := !aWon
	a, err := CalculatePoints(g.Slot, nil, nil, &aWon)
	if err != nil {
		return GameAward{}, err
	}
	b, _ := CalculatePoints(g.Slot, nil, nil, &bWon)
	award.PointsA, award.PointsB, award.Winner = a, b, g.Winner
	return award, nil
}

// ScoreSession scores every game, failing on the first invalid one.
func ScoreSession(games []GameResult) ([]GameAward, error) {
	awards := make([]GameAward, 0, len(games))
	for _, g := range games {
		a, err := ScoreGame(g)
		if err != nil {
			return nil, err
		}
		awards = append(awards, a)
	}
	return awards, nil
}

// PlayerPoints returns the award credited to each of the four players.
func (a GameAward) PlayerPoints() map[PlayerID]float64 {
	return map[PlayerID]float64{
		a.TeamA[0]: a.PointsA,
		a.TeamA[1]: a.PointsA,
		a.TeamB[0]: a.PointsB,
		a.TeamB[1]: a.PointsB,
	}
}

// TotalAwarded is the sum of every player's award in the game.
func (a GameAward) TotalAwarded() float64 {
	return 2*a.PointsA + 2*a.PointsB
}
