package processor

import (
	"github.com/mvoss/clubnight/internal/club"
	"github.com/mvoss/clubnight/internal/notifier"
)

// Store defines the database operations required by the processor.
type Store interface {
	GetGamesForProcessing() ([]*club.Game, error)
	GetGame(gameID string) (*club.Game, error)
	UpdateProcessingStatus(gameID string, status club.ProcessingStatus) error
}

// Notifier defines the notification operations required by the processor.
// This is now an alias for the main notifier interface for decoupling.
type Notifier interface {
	notifier.Notifier
}
