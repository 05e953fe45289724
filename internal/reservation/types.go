package reservation

import (
	"database/sql"
	"sync"

	"github.com/mvoss/clubnight/internal/bus"
	"github.com/mvoss/clubnight/internal/session"
)

// NumSlots is the fixed capacity of one session.
const NumSlots = 4

// store handles the slot table for the active session.
type store struct {
	db       *sql.DB
	mu       sync.RWMutex
	schedule session.Schedule
	events   *bus.Bus
}

// Slot is one claimed position in a session.
type Slot struct {
	Session    session.ID `json:"session"`
	SlotNumber int        `json:"slot_number"`
	PlayerID   string     `json:"player_id"`
	PlayerName string     `json:"player_name"`
	ClaimedBy  string     `json:"claimed_by,omitempty"`
	ClaimedAt  int64      `json:"claimed_at"`
}
