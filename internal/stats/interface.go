package stats

import "github.com/mvoss/clubnight/internal/club"

// StatsStore maintains per-player and per-team point aggregates derived from
// the game history. Incremental application and full recomputation must
// always agree; Verify surfaces any divergence without correcting it.
type StatsStore interface {
	ApplyGame(game *club.Game) error
	Recompute() error
	Verify() ([]Mismatch, error)
	GetPlayerStats() ([]PlayerStats, error)
	GetTeamStats() ([]TeamStats, error)
}
