package notifier

import (
	"sync"

	"github.com/mvoss/clubnight/internal/club"
	"github.com/mvoss/clubnight/internal/leaderboard"
	"github.com/mvoss/clubnight/internal/reservation"
	"github.com/mvoss/clubnight/internal/session"
)

// LineupCall records the arguments of one SendLineupNotification invocation.
type LineupCall struct {
	Session session.ID
	Slots   [reservation.NumSlots]*reservation.Slot
}

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Call records
	SendLineupNotificationCalls []LineupCall
	SendResultNotificationCalls []*club.Game
	SendLeaderboardCalls        [][]leaderboard.Entry
	SendTeamLeaderboardCalls    [][]leaderboard.Entry

	// Spies for send functions
	SendResultNotificationFunc func(game *club.Game, dryRun bool) error

	// Spies for format functions
	FormatSlotsResponseFunc           func(id session.ID, slots [reservation.NumSlots]*reservation.Slot) (any, error)
	FormatLeaderboardResponseFunc     func(entries []leaderboard.Entry) (any, error)
	FormatTeamLeaderboardResponseFunc func(entries []leaderboard.Entry) (any, error)

	// Call records for format functions
	LastSlotsResponse           any
	LastLeaderboardResponse     any
	LastTeamLeaderboardResponse any
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendLineupNotificationCalls = nil
	m.SendResultNotificationCalls = nil
	m.SendLeaderboardCalls = nil
	m.SendTeamLeaderboardCalls = nil
	m.LastSlotsResponse = nil
	m.LastLeaderboardResponse = nil
	m.LastTeamLeaderboardResponse = nil
}

func (m *Mock) SendLineupNotification(id session.ID, slots [reservation.NumSlots]*reservation.Slot, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendLineupNotificationCalls = append(m.SendLineupNotificationCalls, LineupCall{Session: id, Slots: slots})
	return nil
}

func (m *Mock) SendResultNotification(game *club.Game, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendResultNotificationCalls = append(m.SendResultNotificationCalls, game)
	if m.SendResultNotificationFunc != nil {
		return m.SendResultNotificationFunc(game, dryRun)
	}
	return nil
}

func (m *Mock) SendLeaderboard(entries []leaderboard.Entry, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendLeaderboardCalls = append(m.SendLeaderboardCalls, entries)
	return nil
}

func (m *Mock) SendTeamLeaderboard(entries []leaderboard.Entry, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendTeamLeaderboardCalls = append(m.SendTeamLeaderboardCalls, entries)
	return nil
}

func (m *Mock) FormatSlotsResponse(id session.ID, slots [reservation.NumSlots]*reservation.Slot) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatSlotsResponseFunc != nil {
		resp, err := m.FormatSlotsResponseFunc(id, slots)
		m.LastSlotsResponse = resp
		return resp, err
	}
	return "formatted_slots", nil
}

func (m *Mock) FormatLeaderboardResponse(entries []leaderboard.Entry) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatLeaderboardResponseFunc != nil {
		resp, err := m.FormatLeaderboardResponseFunc(entries)
		m.LastLeaderboardResponse = resp
		return resp, err
	}
	return "formatted_leaderboard", nil
}

func (m *Mock) FormatTeamLeaderboardResponse(entries []leaderboard.Entry) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatTeamLeaderboardResponseFunc != nil {
		resp, err := m.FormatTeamLeaderboardResponseFunc(entries)
		m.LastTeamLeaderboardResponse = resp
		return resp, err
	}
	return "formatted_team_leaderboard", nil
}
