// Package leaderboard turns raw point aggregates into ranked standings.
// Ranking is a pure computation over a stats snapshot so every surface
// (HTTP, Slack, CLI) renders the same order.
package leaderboard

import (
	"sort"

	"github.com/mvoss/clubnight/internal/stats"
)

// Scope selects which aggregate bucket a player ranking is computed from.
type Scope string

const (
	ScopeCombined Scope = "combined"
	ScopeSingles  Scope = "singles"
	ScopeDoubles  Scope = "doubles"
)

// ParseScope maps a request parameter onto a Scope, defaulting to combined.
func ParseScope(s string) Scope {
	switch Scope(s) {
	case ScopeSingles:
		return ScopeSingles
	case ScopeDoubles:
		return ScopeDoubles
	default:
		return ScopeCombined
	}
}

// Entry is one leaderboard row.
type Entry struct {
	Rank        int     `json:"rank"`
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	TotalPoints int     `json:"total_points"`
	GamesPlayed int     `json:"games_played"`
	Average     float64 `json:"average"`
}

func average(points, games int) float64 {
	if games == 0 {
		return 0
	}
	return float64(points) / float64(games)
}

// RankPlayers orders players by average points per game, highest first.
// Players with no games rank with an average of zero rather than being
// dropped. Ties break on player ID so the order is stable across calls.
func RankPlayers(players []stats.PlayerStats, scope Scope) []Entry {
	entries := make([]Entry, 0, len(players))
	for _, p := range players {
		points, games := p.TotalPoints, p.GamesPlayed
		switch scope {
		case ScopeSingles:
			points, games = p.SinglesPoints, p.SinglesGames
		case ScopeDoubles:
			points, games = p.DoublesPoints, p.DoublesGames
		}
		entries = append(entries, Entry{
			ID:          p.PlayerID,
			Name:        p.PlayerName,
			TotalPoints: points,
			GamesPlayed: games,
			Average:     average(points, games),
		})
	}
	rank(entries)
	return entries
}

// RankTeams orders doubles pairs by average points per game, highest first.
func RankTeams(teams []stats.TeamStats) []Entry {
	entries := make([]Entry, 0, len(teams))
	for _, team := range teams {
		entries = append(entries, Entry{
			ID:          team.TeamKey,
			Name:        team.Player1ID + " / " + team.Player2ID,
			TotalPoints: team.TotalPoints,
			GamesPlayed: team.GamesPlayed,
			Average:     average(team.TotalPoints, team.GamesPlayed),
		})
	}
	rank(entries)
	return entries
}

func rank(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Average != entries[j].Average {
			return entries[i].Average > entries[j].Average
		}
		return entries[i].ID < entries[j].ID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
