package reservation

import (
	"time"

	"github.com/mvoss/clubnight/internal/bus"
	"github.com/mvoss/clubnight/internal/session"
)

// SlotStore manages the fixed-capacity slot table for the current session.
// All mutations resolve the session from the supplied instant, and the
// database's uniqueness constraints are the authority on claim races: a
// rejected insert means the slot or player was taken first, never a
// check-then-act in application code.
type SlotStore interface {
	CurrentSession(now time.Time) session.ID
	ListSlots(now time.Time) (session.ID, [NumSlots]*Slot, error)
	Claim(now time.Time, slotNumber int, playerID, playerName, claimedBy string) error
	Release(now time.Time, slotNumber int) error
	PurgeExpired(now time.Time) error
	Subscribe(id session.ID) (<-chan bus.Event, func())
}
