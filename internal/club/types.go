package club

import (
	"database/sql"
	"sync"

	"github.com/mvoss/clubnight/internal/session"
)

// store handles all database operations for the club.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Winner identifies the side that won a game.
type Winner string

const (
	WinnerA Winner = "A"
	WinnerB Winner = "B"
)

// ProcessingStatus tracks how far a recorded game has moved through the
// post-result pipeline.
type ProcessingStatus string

const (
	StatusNew          ProcessingStatus = "NEW"
	StatusStatsUpdated ProcessingStatus = "STATS_UPDATED"
	StatusCompleted    ProcessingStatus = "COMPLETED"
)

// Team is one side of a game. Player2 is empty for a singles game.
type Team struct {
	Player1 string `json:"player1" msgpack:"player1"`
	Player2 string `json:"player2,omitempty" msgpack:"player2"`
}

// Game is one recorded contest. Scores are nil until a result is recorded and
// the row is never mutated again once Winner is set.
type Game struct {
	ID               string           `json:"id" msgpack:"id"`
	Session          session.ID       `json:"session" msgpack:"session"`
	GameNumber       int              `json:"game_number" msgpack:"game_number"`
	TeamA            Team             `json:"team_a" msgpack:"team_a"`
	TeamB            Team             `json:"team_b" msgpack:"team_b"`
	ScoreA           *int             `json:"score_a" msgpack:"score_a"`
	ScoreB           *int             `json:"score_b" msgpack:"score_b"`
	Winner           Winner           `json:"winner,omitempty" msgpack:"winner"`
	RecordedAt       int64            `json:"recorded_at" msgpack:"recorded_at"`
	ProcessingStatus ProcessingStatus `json:"processing_status" msgpack:"processing_status"`
}

// Decided reports whether a winner has been recorded.
func (g *Game) Decided() bool {
	return g.Winner == WinnerA || g.Winner == WinnerB
}

// IsDoubles reports whether both sides field two players.
func (g *Game) IsDoubles() bool {
	return g.TeamA.Player2 != "" && g.TeamB.Player2 != ""
}

// Players returns all participant IDs, skipping empty singles positions.
func (g *Game) Players() []string {
	ids := make([]string, 0, 4)
	for _, id := range []string{g.TeamA.Player1, g.TeamA.Player2, g.TeamB.Player1, g.TeamB.Player2} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// PlayerInfo represents a club member in the store.
type PlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
