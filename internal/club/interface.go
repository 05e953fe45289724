package club

import "github.com/mvoss/clubnight/internal/session"

// ClubStore defines the interface for interacting with the club's data.
type ClubStore interface {
	AddPlayer(playerID, name string)
	UpsertPlayers(players []PlayerInfo) error
	IsKnownPlayer(playerID string) bool
	GetAllPlayers() ([]PlayerInfo, error)

	RecordGame(game *Game) error
	SetResult(gameID string, scoreA, scoreB *int, winner Winner) error
	GetGame(gameID string) (*Game, error)
	GetGamesForProcessing() ([]*Game, error)
	GetAllGames() ([]*Game, error)
	GetGamesBySession(id session.ID) ([]*Game, error)
	UpdateProcessingStatus(gameID string, status ProcessingStatus) error

	Clear()
	ClearGame(gameID string)
}
