package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// syncGuards holds the in-memory connect-flow protections: the set of
// already-consumed authorization codes and the pending OAuth states
// awaiting a callback. Entries age out; stale ones are swept lazily on
// access.
type syncGuards struct {
	mu            sync.Mutex
	usedCodes     map[string]time.Time
	pendingStates map[uuid.UUID]pendingState
	lastSweep     time.Time
}

type pendingState struct {
	state     string
	createdAt time.Time
}

func newSyncGuards() syncGuards {
	return syncGuards{
		usedCodes:     make(map[string]time.Time),
		pendingStates: make(map[uuid.UUID]pendingState),
		lastSweep:     time.Now(),
	}
}

// markCodeUsed returns false if the code was already consumed.
func (g *syncGuards) markCodeUsed(code string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sweepLocked()

	if _, seen := g.usedCodes[code]; seen {
		return false
	}
	g.usedCodes[code] = time.Now()
	return true
}

func (g *syncGuards) registerState(userID uuid.UUID, state string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sweepLocked()

	g.pendingStates[userID] = pendingState{state: state, createdAt: time.Now()}
}

// consumeState verifies and removes the pending state for a user.
func (g *syncGuards) consumeState(userID uuid.UUID, state string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	pending, ok := g.pendingStates[userID]
	if !ok || state == "" || pending.state != state {
		return false
	}
	delete(g.pendingStates, userID)

	return time.Since(pending.createdAt) <= pendingStateTTL
}

// sweepLocked clears aged entries at most once per hour.
func (g *syncGuards) sweepLocked() {
	now := time.Now()
	if now.Sub(g.lastSweep) < usedCodeTTL {
		return
	}
	g.lastSweep = now

	for code, usedAt := range g.usedCodes {
		if now.Sub(usedAt) > usedCodeTTL {
			delete(g.usedCodes, code)
		}
	}
	for userID, pending := range g.pendingStates {
		if now.Sub(pending.createdAt) > pendingStateTTL {
			delete(g.pendingStates, userID)
		}
	}
}
