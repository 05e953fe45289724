package club

import (
	"sync"

	"github.com/mvoss/clubnight/internal/session"
)

// MockStore is a mock implementation of the ClubStore interface for testing.
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	// Spies for method calls
	AddPlayerFunc              func(playerID, name string)
	UpsertPlayersFunc          func(players []PlayerInfo) error
	IsKnownPlayerFunc          func(playerID string) bool
	GetAllPlayersFunc          func() ([]PlayerInfo, error)
	RecordGameFunc             func(game *Game) error
	SetResultFunc              func(gameID string, scoreA, scoreB *int, winner Winner) error
	GetGameFunc                func(gameID string) (*Game, error)
	GetGamesForProcessingFunc  func() ([]*Game, error)
	GetAllGamesFunc            func() ([]*Game, error)
	GetGamesBySessionFunc      func(id session.ID) ([]*Game, error)
	UpdateProcessingStatusFunc func(gameID string, status ProcessingStatus) error
	ClearFunc                  func()
	ClearGameFunc              func(gameID string)

	// Call records
	UpsertPlayersCalls          [][]PlayerInfo
	RecordGameCalls             []*Game
	SetResultCalls              []SetResultCall
	UpdateProcessingStatusCalls []UpdateProcessingStatusCall
}

// SetResultCall holds the arguments for a call to SetResult.
type SetResultCall struct {
	GameID string
	ScoreA *int
	ScoreB *int
	Winner Winner
}

// UpdateProcessingStatusCall holds the arguments for a call to UpdateProcessingStatus.
type UpdateProcessingStatusCall struct {
	GameID string
	Status ProcessingStatus
}

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{}
}

// Reset clears all call records.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertPlayersCalls = nil
	m.RecordGameCalls = nil
	m.SetResultCalls = nil
	m.UpdateProcessingStatusCalls = nil
}

func (m *MockStore) AddPlayer(playerID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddPlayerFunc != nil {
		m.AddPlayerFunc(playerID, name)
	}
}

func (m *MockStore) UpsertPlayers(players []PlayerInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertPlayersCalls = append(m.UpsertPlayersCalls, players)
	if m.UpsertPlayersFunc != nil {
		return m.UpsertPlayersFunc(players)
	}
	return nil
}

func (m *MockStore) IsKnownPlayer(playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.IsKnownPlayerFunc != nil {
		return m.IsKnownPlayerFunc(playerID)
	}
	return true
}

func (m *MockStore) GetAllPlayers() ([]PlayerInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetAllPlayersFunc != nil {
		return m.GetAllPlayersFunc()
	}
	return nil, nil
}

func (m *MockStore) RecordGame(game *Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordGameCalls = append(m.RecordGameCalls, game)
	if m.RecordGameFunc != nil {
		return m.RecordGameFunc(game)
	}
	return nil
}

func (m *MockStore) SetResult(gameID string, scoreA, scoreB *int, winner Winner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetResultCalls = append(m.SetResultCalls, SetResultCall{GameID: gameID, ScoreA: scoreA, ScoreB: scoreB, Winner: winner})
	if m.SetResultFunc != nil {
		return m.SetResultFunc(gameID, scoreA, scoreB, winner)
	}
	return nil
}

func (m *MockStore) GetGame(gameID string) (*Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetGameFunc != nil {
		return m.GetGameFunc(gameID)
	}
	return nil, ErrGameNotFound
}

func (m *MockStore) GetGamesForProcessing() ([]*Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetGamesForProcessingFunc != nil {
		return m.GetGamesForProcessingFunc()
	}
	return nil, nil
}

func (m *MockStore) GetAllGames() ([]*Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetAllGamesFunc != nil {
		return m.GetAllGamesFunc()
	}
	return nil, nil
}

func (m *MockStore) GetGamesBySession(id session.ID) ([]*Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetGamesBySessionFunc != nil {
		return m.GetGamesBySessionFunc(id)
	}
	return nil, nil
}

func (m *MockStore) UpdateProcessingStatus(gameID string, status ProcessingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateProcessingStatusCalls = append(m.UpdateProcessingStatusCalls, UpdateProcessingStatusCall{GameID: gameID, Status: status})
	if m.UpdateProcessingStatusFunc != nil {
		return m.UpdateProcessingStatusFunc(gameID, status)
	}
	return nil
}

func (m *MockStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClearFunc != nil {
		m.ClearFunc()
	}
}

func (m *MockStore) ClearGame(gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClearGameFunc != nil {
		m.ClearGameFunc(gameID)
	}
}
