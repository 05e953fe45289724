package notifier

import (
	"github.com/mvoss/clubnight/internal/club"
	"github.com/mvoss/clubnight/internal/leaderboard"
	"github.com/mvoss/clubnight/internal/reservation"
	"github.com/mvoss/clubnight/internal/session"
)

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// For the session lineup once slots fill up
	SendLineupNotification(id session.ID, slots [reservation.NumSlots]*reservation.Slot, dryRun bool) error
	// For completed games
	SendResultNotification(game *club.Game, dryRun bool) error
	// For leaderboards
	SendLeaderboard(entries []leaderboard.Entry, dryRun bool) error
	SendTeamLeaderboard(entries []leaderboard.Entry, dryRun bool) error

	// For formatting responses for slash commands
	FormatSlotsResponse(id session.ID, slots [reservation.NumSlots]*reservation.Slot) (any, error)
	FormatLeaderboardResponse(entries []leaderboard.Entry) (any, error)
	FormatTeamLeaderboardResponse(entries []leaderboard.Entry) (any, error)
}
