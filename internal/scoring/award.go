// Package scoring holds the point award rules applied to recorded games.
package scoring

import "github.com/mvoss/clubnight/internal/club"

// Side selects the team a point award is computed for.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// Fixed awards for win/lose-only games.
const (
	winPoints  = 10
	losePoints = 5
)

// Award maps a decided game to the point award for one side.
//
// Games with a positive combined score award each side its raw recorded
// score. Everything else, scores absent or summing to zero, is treated as a
// win/lose-only game: the winner gets 10, the loser 5. Note that a scored
// game finishing 0-0 therefore falls through to the fixed awards; the rule
// keys off the recorded scores alone, not the game type.
func Award(g *club.Game, side Side) int {
	if scored(g) {
		if side == SideA {
			return *g.ScoreA
		}
		return *g.ScoreB
	}

	if winner(g) == side {
		return winPoints
	}
	return losePoints
}

func scored(g *club.Game) bool {
	return g.ScoreA != nil && g.ScoreB != nil && *g.ScoreA+*g.ScoreB > 0
}

func winner(g *club.Game) Side {
	if g.Winner == club.WinnerB {
		return SideB
	}
	return SideA
}
