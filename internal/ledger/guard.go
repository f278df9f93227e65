package ledger

import "sync"

// entryGuard rejects concurrent re-entry into deposit/withdraw for the
// same (pool, user). The gateway call inside those operations is the
// one place control is ceded to external code, so the guard is held
// across it and released on every exit path.
type entryGuard struct {
	mu       sync.Mutex
	inFlight map[PositionKey]struct{}
}

func newEntryGuard() *entryGuard {
	return &entryGuard{inFlight: make(map[PositionKey]struct{})}
}

// TryAcquire marks the key as in flight. Returns false if an operation
// for the same key has not completed yet.
func (g *entryGuard) TryAcquire(key PositionKey) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, held := g.inFlight[key]; held {
		return false
	}
	g.inFlight[key] = struct{}{}
	return true
}

// Release clears the in-flight mark.
func (g *entryGuard) Release(key PositionKey) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, key)
}
