package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                   sync.Mutex
	claimsAccepted       int
	claimsRejected       int
	gamesRecorded        int
	gamesProcessed       int
	processingDurations  []float64
	reconcileRuns        int
	reconcileMismatches  int
	slackNotifSent       int
	slackNotifFailed     int
	startupTime          float64
	slotEventSubscribers int
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		processingDurations: make([]float64, 0),
	}
}

func (m *Mock) IncClaimsAccepted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claimsAccepted++
}

func (m *Mock) IncClaimsRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claimsRejected++
}

func (m *Mock) IncGamesRecorded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gamesRecorded++
}

func (m *Mock) IncGamesProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gamesProcessed++
}

func (m *Mock) ObserveProcessingDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processingDurations = append(m.processingDurations, duration)
}

func (m *Mock) IncReconcileRuns() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconcileRuns++
}

func (m *Mock) AddReconcileMismatches(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconcileMismatches += count
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

func (m *Mock) SetSlotEventSubscribers(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slotEventSubscribers = count
}

// ClaimsAccepted returns the number of times IncClaimsAccepted was called.
func (m *Mock) ClaimsAccepted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.claimsAccepted
}

// ClaimsRejected returns the number of times IncClaimsRejected was called.
func (m *Mock) ClaimsRejected() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.claimsRejected
}

// GamesRecorded returns the number of times IncGamesRecorded was called.
func (m *Mock) GamesRecorded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gamesRecorded
}

// GamesProcessed returns the number of times IncGamesProcessed was called.
func (m *Mock) GamesProcessed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gamesProcessed
}

// ReconcileRuns returns the number of times IncReconcileRuns was called.
func (m *Mock) ReconcileRuns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reconcileRuns
}

// ReconcileMismatches returns the running mismatch count.
func (m *Mock) ReconcileMismatches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reconcileMismatches
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}
