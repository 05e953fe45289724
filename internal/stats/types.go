package stats

import (
	"database/sql"
	"fmt"
	"sync"
)

// store handles all aggregate database operations.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// PlayerStats is the running aggregate for one player, split into a combined
// bucket and per-shape singles/doubles buckets.
type PlayerStats struct {
	PlayerID      string `json:"player_id"`
	PlayerName    string `json:"player_name"`
	TotalPoints   int    `json:"total_points"`
	GamesPlayed   int    `json:"games_played"`
	SinglesPoints int    `json:"singles_points"`
	SinglesGames  int    `json:"singles_games"`
	DoublesPoints int    `json:"doubles_points"`
	DoublesGames  int    `json:"doubles_games"`
}

// TeamStats is the running aggregate for one unordered doubles pair.
type TeamStats struct {
	TeamKey     string `json:"team_key"`
	Player1ID   string `json:"player1_id"`
	Player2ID   string `json:"player2_id"`
	TotalPoints int    `json:"total_points"`
	GamesPlayed int    `json:"games_played"`
}

// Mismatch describes one divergence between the stored aggregates and a full
// replay of the game history.
type Mismatch struct {
	Kind   string `json:"kind"` // "player" or "team"
	Key    string `json:"key"`
	Stored string `json:"stored"`
	Replay string `json:"replayed"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s %s: stored %s, replayed %s", m.Kind, m.Key, m.Stored, m.Replay)
}

// TeamKey builds the canonical key for an unordered pair of player IDs.
func TeamKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}
