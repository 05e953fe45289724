package reservation

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mvoss/clubnight/internal/bus"
	"github.com/mvoss/clubnight/internal/session"
)

// ErrAlreadyOccupied is returned when the requested slot is already claimed.
var ErrAlreadyOccupied = errors.New("slot already occupied")

// ErrDuplicatePlayer is returned when the player already holds a slot in the
// same session.
var ErrDuplicatePlayer = errors.New("player already holds a slot in this session")

// ErrInvalidSlot is returned for slot numbers outside 1..NumSlots.
var ErrInvalidSlot = errors.New("invalid slot number")

// ErrMissingPlayer is returned when a claim carries no player identity.
var ErrMissingPlayer = errors.New("player id is required")

// New creates a new SlotStore.
func New(db *sql.DB, schedule session.Schedule, events *bus.Bus) SlotStore {
	return &store{
		db:       db,
		schedule: schedule,
		events:   events,
	}
}

func (s *store) CurrentSession(now time.Time) session.ID {
	return s.schedule.ID(now)
}

// ListSlots returns the complete fixed-size assignment for the current
// session, with empty positions explicit as nil. Expired sessions are purged
// first so a stale week never leaks into the active view.
func (s *store) ListSlots(now time.Time) (session.ID, [NumSlots]*Slot, error) {
	var slots [NumSlots]*Slot

	if err := s.PurgeExpired(now); err != nil {
		log.Error("Failed to purge expired slots", "error", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id := s.schedule.ID(now)
	rows, err := s.db.Query(`
		SELECT slot_number, player_id, player_name, claimed_by, claimed_at
		FROM slots WHERE session_ts = ?
	`, int64(id))
	if err != nil {
		return id, slots, err
	}
	defer rows.Close()

	for rows.Next() {
		slot := Slot{Session: id}
		var claimedBy sql.NullString
		if err := rows.Scan(&slot.SlotNumber, &slot.PlayerID, &slot.PlayerName, &claimedBy, &slot.ClaimedAt); err != nil {
			log.Error("Failed to scan slot row", "error", err)
			continue
		}
		slot.ClaimedBy = claimedBy.String
		if slot.SlotNumber >= 1 && slot.SlotNumber <= NumSlots {
			slots[slot.SlotNumber-1] = &slot
		}
	}
	return id, slots, rows.Err()
}

// Claim assigns a slot to a player for the current session. The insert is the
// race arbiter: the slot table's primary key rejects a taken slot and the
// per-session player index rejects a second slot for the same player, so a
// losing concurrent claim fails without mutating anything.
func (s *store) Claim(now time.Time, slotNumber int, playerID, playerName, claimedBy string) error {
	if slotNumber < 1 || slotNumber > NumSlots {
		return ErrInvalidSlot
	}
	if strings.TrimSpace(playerID) == "" {
		return ErrMissingPlayer
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.schedule.ID(now)
	_, err := s.db.Exec(`
		INSERT INTO slots (session_ts, slot_number, player_id, player_name, claimed_by, claimed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, int64(id), slotNumber, playerID, playerName, nullable(claimedBy), now.Unix())
	if err != nil {
		return mapConstraintErr(err)
	}

	s.events.Publish(bus.Event{
		Session:    id,
		Type:       bus.EventSlotClaimed,
		SlotNumber: slotNumber,
		PlayerID:   playerID,
		PlayerName: playerName,
	})
	return nil
}

// Release clears a slot. Releasing an already-empty slot succeeds without
// emitting a notification.
func (s *store) Release(now time.Time, slotNumber int) error {
	if slotNumber < 1 || slotNumber > NumSlots {
		return ErrInvalidSlot
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.schedule.ID(now)
	res, err := s.db.Exec("DELETE FROM slots WHERE session_ts = ? AND slot_number = ?", int64(id), slotNumber)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return nil
	}

	s.events.Publish(bus.Event{
		Session:    id,
		Type:       bus.EventSlotReleased,
		SlotNumber: slotNumber,
	})
	return nil
}

// PurgeExpired removes slot rows for sessions strictly before the current one.
func (s *store) PurgeExpired(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM slots WHERE session_ts < ?", int64(s.schedule.ID(now)))
	return err
}

func (s *store) Subscribe(id session.ID) (<-chan bus.Event, func()) {
	return s.events.Subscribe(id)
}

// mapConstraintErr translates the database's uniqueness violations into the
// reservation error taxonomy. The player index is checked first since its
// message also contains the table name.
func mapConstraintErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "slots.session_ts, slots.player_id"):
		return ErrDuplicatePlayer
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return ErrAlreadyOccupied
	}
	return err
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
