package scoring_test

import (
	"testing"

	"github.com/mvoss/clubnight/internal/club"
	"github.com/mvoss/clubnight/internal/scoring"
	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestAwardScoredGame(t *testing.T) {
	g := &club.Game{ScoreA: intPtr(6), ScoreB: intPtr(4), Winner: club.WinnerA}

	assert.Equal(t, 6, scoring.Award(g, scoring.SideA))
	assert.Equal(t, 4, scoring.Award(g, scoring.SideB))
}

func TestAwardBinaryGame(t *testing.T) {
	g := &club.Game{Winner: club.WinnerA}

	assert.Equal(t, 10, scoring.Award(g, scoring.SideA))
	assert.Equal(t, 5, scoring.Award(g, scoring.SideB))

	g.Winner = club.WinnerB
	assert.Equal(t, 5, scoring.Award(g, scoring.SideA))
	assert.Equal(t, 10, scoring.Award(g, scoring.SideB))
}

func TestAwardZeroSumFallsBackToFixed(t *testing.T) {
	// A 0-0 scored game is indistinguishable from a win/lose-only game under
	// the current rule and gets the fixed awards.
	g := &club.Game{ScoreA: intPtr(0), ScoreB: intPtr(0), Winner: club.WinnerB}

	assert.Equal(t, 5, scoring.Award(g, scoring.SideA))
	assert.Equal(t, 10, scoring.Award(g, scoring.SideB))
}

func TestAwardPartialScoresAreBinary(t *testing.T) {
	g := &club.Game{ScoreA: intPtr(7), Winner: club.WinnerA}

	assert.Equal(t, 10, scoring.Award(g, scoring.SideA))
	assert.Equal(t, 5, scoring.Award(g, scoring.SideB))
}
