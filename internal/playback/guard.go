package playback

import (
	"sync"
	"time"
)

// Guard consolidates the feedback-loop bookkeeping both sync paths consult:
// the outbound debounce clock and the reconciling flag that keeps inbound
// reconciliation from re-triggering the outbound path.
type Guard struct {
	mu              sync.Mutex
	lastBroadcastAt time.Time
	reconciling     bool
}

// NewGuard creates a guard with no broadcast history.
func NewGuard() *Guard {
	return &Guard{}
}

// AllowBroadcast reports whether an outbound broadcast may be sent at now,
// recording it when allowed. Broadcasts are suppressed while reconciling a
// remote event and within the debounce interval of the previous broadcast.
func (g *Guard) AllowBroadcast(now time.Time, debounce time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.reconciling {
		return false
	}
	if !g.lastBroadcastAt.IsZero() && now.Sub(g.lastBroadcastAt) < debounce {
		return false
	}
	g.lastBroadcastAt = now
	return true
}

// LastBroadcastAt returns the time of the last allowed broadcast.
func (g *Guard) LastBroadcastAt() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastBroadcastAt
}

// BeginReconcile marks the start of applying a remote event to the local player.
func (g *Guard) BeginReconcile() {
	g.mu.Lock()
	g.reconciling = true
	g.mu.Unlock()
}

// EndReconcile clears the reconciling flag.
func (g *Guard) EndReconcile() {
	g.mu.Lock()
	g.reconciling = false
	g.mu.Unlock()
}

// Reconciling reports whether a remote event is currently being applied.
func (g *Guard) Reconciling() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reconciling
}
