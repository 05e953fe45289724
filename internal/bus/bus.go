package bus

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mvoss/clubnight/internal/session"
)

// EventType describes a slot table mutation.
type EventType string

const (
	EventSlotClaimed  EventType = "slot-claimed"
	EventSlotReleased EventType = "slot-released"
)

// Event is one accepted slot mutation, delivered to every subscriber of the
// session it belongs to.
type Event struct {
	Session    session.ID `json:"session"`
	Type       EventType  `json:"type"`
	SlotNumber int        `json:"slot_number"`
	PlayerID   string     `json:"player_id,omitempty"`
	PlayerName string     `json:"player_name,omitempty"`
}

// subscriberBuffer bounds how far a subscriber may lag behind. A subscriber
// that overflows it is closed; a closed channel tells the client to re-fetch
// the slot table, which is always a safe resync.
const subscriberBuffer = 32

// Bus is an in-process publish/subscribe channel keyed by session identifier.
// Events are delivered to each subscriber in publish order.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[session.ID]map[int]chan Event
}

func New() *Bus {
	return &Bus{
		subs: make(map[session.ID]map[int]chan Event),
	}
}

// Subscribe registers interest in mutations for one session. The returned
// cancel func is idempotent and closes the channel.
func (b *Bus) Subscribe(id session.ID) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[id]; !ok {
		b.subs[id] = make(map[int]chan Event)
	}
	subID := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id][subID] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.removeLocked(id, subID)
	}
	return ch, cancel
}

// Publish fans the event out to every subscriber of its session. The caller
// publishes in mutation acceptance order; holding the bus lock for the whole
// fan-out preserves that order per subscriber.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subID, ch := range b.subs[ev.Session] {
		select {
		case ch <- ev:
		default:
			// Subscriber is too far behind, drop it so it re-fetches.
			log.Warn("Dropping slow slot event subscriber", "session", ev.Session, "subscriber", subID)
			b.removeLocked(ev.Session, subID)
		}
	}
}

func (b *Bus) removeLocked(id session.ID, subID int) {
	sessionSubs, ok := b.subs[id]
	if !ok {
		return
	}
	if ch, exists := sessionSubs[subID]; exists {
		delete(sessionSubs, subID)
		close(ch)
	}
	if len(sessionSubs) == 0 {
		delete(b.subs, id)
	}
}
