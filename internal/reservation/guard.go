package reservation

import (
	"errors"
	"sync"
)

// ErrRequestInFlight is returned when a mutation for the same key is still
// being processed.
var ErrRequestInFlight = errors.New("request already in flight")

// Guard serializes in-process mutations per key, typically the claiming
// player's identity. The database constraints already arbitrate true races;
// the guard only stops one impatient client from queueing the same mutation
// twice, e.g. a double-clicked claim button.
type Guard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{inflight: make(map[string]struct{})}
}

// Acquire reserves the key and returns a release func, or ErrRequestInFlight
// if another mutation for the key has not finished.
func (g *Guard) Acquire(key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.inflight[key]; ok {
		return nil, ErrRequestInFlight
	}
	g.inflight[key] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			delete(g.inflight, key)
		})
	}
	return release, nil
}
