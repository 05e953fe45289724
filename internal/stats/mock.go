package stats

import (
	"sync"

	"github.com/mvoss/clubnight/internal/club"
)

// MockStore is a mock implementation of the StatsStore interface for testing.
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	// Spies for method calls
	ApplyGameFunc      func(game *club.Game) error
	RecomputeFunc      func() error
	VerifyFunc         func() ([]Mismatch, error)
	GetPlayerStatsFunc func() ([]PlayerStats, error)
	GetTeamStatsFunc   func() ([]TeamStats, error)

	// Call records
	ApplyGameCalls []*club.Game
	RecomputeCalls int
	VerifyCalls    int
}

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{}
}

// Reset clears all call records.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ApplyGameCalls = nil
	m.RecomputeCalls = 0
	m.VerifyCalls = 0
}

func (m *MockStore) ApplyGame(game *club.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ApplyGameCalls = append(m.ApplyGameCalls, game)
	if m.ApplyGameFunc != nil {
		return m.ApplyGameFunc(game)
	}
	return nil
}

func (m *MockStore) Recompute() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecomputeCalls++
	if m.RecomputeFunc != nil {
		return m.RecomputeFunc()
	}
	return nil
}

func (m *MockStore) Verify() ([]Mismatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VerifyCalls++
	if m.VerifyFunc != nil {
		return m.VerifyFunc()
	}
	return nil, nil
}

func (m *MockStore) GetPlayerStats() ([]PlayerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetPlayerStatsFunc != nil {
		return m.GetPlayerStatsFunc()
	}
	return nil, nil
}

func (m *MockStore) GetTeamStats() ([]TeamStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetTeamStatsFunc != nil {
		return m.GetTeamStatsFunc()
	}
	return nil, nil
}
