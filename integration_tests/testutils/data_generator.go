package testutils

import (
	"fmt"
	"strings"
	"time"

	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/brianvoe/gofakeit/v7"
)

// TestDataGenerator produces reproducible players and session results.
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  uint64
}

// NewTestDataGenerator creates a generator; without a seed the clock is used.
func NewTestDataGenerator(seed ...uint64) *TestDataGenerator {
	s := uint64(time.Now().UnixNano())
	if len(seed) > 0 {
		s = seed[0]
	}
	return &TestDataGenerator{faker: gofakeit.New(s), seed: s}
}

// Seed returns the seed, for reproducing a failing run.
func (g *TestDataGenerator) Seed() uint64 { return g.seed }

// Player is a registry entry to create.
type Player struct {
	ID          string
	DisplayName string
}

// Players returns n players with distinct ids.
func (g *TestDataGenerator) Players(n int) []Player {
	out := make([]Player, n)
	for i := range out {
		first := g.faker.FirstName()
		out[i] = Player{
			ID:          fmt.Sprintf("%s-%d", strings.ToLower(g.faker.LetterN(6)), i),
			DisplayName: first + " " + g.faker.LastName(),
		}
	}
	return out
}

// Foursome picks four distinct ids from players.
func (g *TestDataGenerator) Foursome(players []Player) []sessiondomain.PlayerID {
	idx := make([]int, len(players))
	for i := range idx {
		idx[i] = i
	}
	g.faker.ShuffleInts(idx)
	out := make([]sessiondomain.PlayerID, 4)
	for i, j := range idx[:4] {
		out[i] = sessiondomain.PlayerID(players[j].ID)
	}
	return out
}

// Games returns a valid result for the three slots: one side reaches the
// target of nine in each scored slot and the binary slot has a winner.
func (g *TestDataGenerator) Games() []sessiondomain.GameInput {
	scored := func(slot sessiondomain.Slot) sessiondomain.GameInput {
		win, lose := 9, g.faker.IntRange(0, 8)
		if g.faker.Bool() {
			return sessiondomain.GameInput{Slot: slot, ScoreA: &win, ScoreB: &lose}
		}
		return sessiondomain.GameInput{Slot: slot, ScoreA: &lose, ScoreB: &win}
	}
	winner := sessiondomain.SideA
	if g.faker.Bool() {
		winner = sessiondomain.SideB
	}
	return []sessiondomain.GameInput{
		scored(sessiondomain.SlotOne),
		scored(sessiondomain.SlotTwo),
		{Slot: sessiondomain.SlotThree, Winner: winner},
	}
}

// Satisfaction returns a rating in the accepted 1..10 range.
func (g *TestDataGenerator) Satisfaction() int {
	return g.faker.IntRange(1, 10)
}
