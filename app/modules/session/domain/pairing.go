package sessiondomain

// Pairing fixes the two teams of one slot.
type Pairing struct {
	Slot  Slot `json:"slot"`
	TeamA Team `json:"team_a"`
	TeamB Team `json:"team_b"`
}

// PlayersPerSession is the session quota.
const PlayersPerSession = 4

// GeneratePairings returns the round robin for an ordered 4-player list:
//
//	Game 1: {p1,p2} vs {p3,p4}
//	Game 2: {p1,p3} vs {p2,p4}
//	Game 3: {p1,p4} vs {p2,p3}
//
// Every player partners each other player exactly once across the three games.
func GeneratePairings(players []PlayerID) ([3]Pairing, error) {
	if err := ValidateParticipants(players); err != nil {
		return [3]Pairing{}, err
	}

	p1, p2, p3, p4 := players[0], players[1], players[2], players[3]
	return [3]Pairing{
		{Slot: SlotOne, TeamA: Team{p1, p2}, TeamB: Team{p3, p4}},
		{Slot: SlotTwo, TeamA: Team{p1, p3}, TeamB: Team{p2, p4}},
		{Slot: SlotThree, TeamA: Team{p1, p4}, TeamB: Team{p2, p3}},
	}, nil
}

// ValidateParticipants checks for exactly four distinct, non-empty ids.
func ValidateParticipants(players []PlayerID) error {
	if len(players) != PlayersPerSession {
		return invalid("players", "expected %d players, got %d", PlayersPerSession, len(players))
	}
	seen := make(map[PlayerID]struct{}, len(players))
	for _, p := range players {
		if p == "" {
			return invalid("players", "player id must not be empty")
		}
		if _, dup := seen[p]; dup {
			return invalid("players", "duplicate player %q", p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// BuildGames attaches the fixed pairings to the scribe's per-slot inputs and
// validates every result. Exactly one input per slot is required.
func BuildGames(players []PlayerID, inputs []GameInput) ([]GameResult, error) {
	pairings, err := GeneratePairings(players)
	if err != nil {
		return nil, err
	}
	if len(inputs) != len(pairings) {
		return nil, invalid("games", "expected %d games, got %d", len(pairings), len(inputs))
	}

	bySlot := make(map[Slot]GameInput, len(inputs))
	for _, in := range inputs {
		if !in.Slot.Valid() {
			return nil, invalid("games", "unknown slot %d", in.Slot)
		}
		if _, dup := bySlot[in.Slot]; dup {
			return nil, invalid("games", "slot %d submitted twice", in.Slot)
		}
		bySlot[in.Slot] = in
	}

	games := make([]GameResult, 0, len(pairings))
	for _, p := range pairings {
		in := bySlot[p.Slot]
		g := GameResult{
			Slot:   p.Slot,
			TeamA:  p.TeamA,
			TeamB:  p.TeamB,
			ScoreA: in.ScoreA,
			ScoreB: in.ScoreB,
			Winner: in.Winner,
		}

		if p.Slot.ScoreBased() {
			if err := validateScores(in.ScoreA, in.ScoreB); err != nil {
				return nil, err
			}
			if *in.ScoreA > *in.ScoreB {
				g.Winner = SideA
			} else {
				g.Winner = SideB
			}
		} else {
			if !in.Winner.Valid() {
				return nil, invalid("winner", "slot %d requires a winner of %q or %q", p.Slot, SideA, SideB)
			}
			g.ScoreA, g.ScoreB = nil, nil
		}
		games = append(games, g)
	}
	return games, nil
}
