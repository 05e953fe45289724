package reservation

import (
	"sync"
	"time"

	"github.com/mvoss/clubnight/internal/bus"
	"github.com/mvoss/clubnight/internal/session"
)

// ClaimCall records the arguments of one Claim invocation.
type ClaimCall struct {
	SlotNumber int
	PlayerID   string
	PlayerName string
	ClaimedBy  string
}

// MockStore is a mock implementation of the SlotStore interface for testing.
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	// Spies for method calls
	CurrentSessionFunc func(now time.Time) session.ID
	ListSlotsFunc      func(now time.Time) (session.ID, [NumSlots]*Slot, error)
	ClaimFunc          func(now time.Time, slotNumber int, playerID, playerName, claimedBy string) error
	ReleaseFunc        func(now time.Time, slotNumber int) error
	PurgeExpiredFunc   func(now time.Time) error
	SubscribeFunc      func(id session.ID) (<-chan bus.Event, func())

	// Call records
	ClaimCalls        []ClaimCall
	ReleaseCalls      []int
	PurgeExpiredCalls int
}

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{}
}

// Reset clears all call records.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClaimCalls = nil
	m.ReleaseCalls = nil
	m.PurgeExpiredCalls = 0
}

func (m *MockStore) CurrentSession(now time.Time) session.ID {
	if m.CurrentSessionFunc != nil {
		return m.CurrentSessionFunc(now)
	}
	return 0
}

func (m *MockStore) ListSlots(now time.Time) (session.ID, [NumSlots]*Slot, error) {
	if m.ListSlotsFunc != nil {
		return m.ListSlotsFunc(now)
	}
	var slots [NumSlots]*Slot
	return 0, slots, nil
}

func (m *MockStore) Claim(now time.Time, slotNumber int, playerID, playerName, claimedBy string) error {
	m.mu.Lock()
	m.ClaimCalls = append(m.ClaimCalls, ClaimCall{
		SlotNumber: slotNumber,
		PlayerID:   playerID,
		PlayerName: playerName,
		ClaimedBy:  claimedBy,
	})
	m.mu.Unlock()
	if m.ClaimFunc != nil {
		return m.ClaimFunc(now, slotNumber, playerID, playerName, claimedBy)
	}
	return nil
}

func (m *MockStore) Release(now time.Time, slotNumber int) error {
	m.mu.Lock()
	m.ReleaseCalls = append(m.ReleaseCalls, slotNumber)
	m.mu.Unlock()
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(now, slotNumber)
	}
	return nil
}

func (m *MockStore) PurgeExpired(now time.Time) error {
	m.mu.Lock()
	m.PurgeExpiredCalls++
	m.mu.Unlock()
	if m.PurgeExpiredFunc != nil {
		return m.PurgeExpiredFunc(now)
	}
	return nil
}

func (m *MockStore) Subscribe(id session.ID) (<-chan bus.Event, func()) {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(id)
	}
	ch := make(chan bus.Event)
	return ch, func() {}
}
