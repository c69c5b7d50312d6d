// Package session tracks the staff authentication signal and answers
// "is a session active" for routing.
package session

import "sync"

// State is one emission of the authentication signal. Identity is empty when
// signed out.
type State struct {
	Authenticated bool   `json:"authenticated"`
	Identity      string `json:"identity,omitempty"`
}

// Signal is the external authentication source. Subscribe registers a
// callback invoked on every session change and returns its cancel func.
type Signal interface {
	Subscribe(fn func(State)) (cancel func())
}

// Gate subscribes once to the signal for the lifetime of the application and
// exposes the latest snapshot. Consumers read it synchronously; the gate
// caches no protected data and performs no redirects itself.
type Gate struct {
	mu     sync.RWMutex
	state  State
	cancel func()
}

// NewGate subscribes to the signal and returns the gate.
func NewGate(sig Signal) *Gate {
	g := &Gate{}
	g.cancel = sig.Subscribe(func(s State) {
		g.mu.Lock()
		g.state = s
		g.mu.Unlock()
	})
	return g
}

// Authenticated reports whether a session is active.
func (g *Gate) Authenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state.Authenticated
}

// Identity returns the signed-in identity, empty when signed out.
func (g *Gate) Identity() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state.Identity
}

// Snapshot returns the current state.
func (g *Gate) Snapshot() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Close tears the subscription down. Called once on shutdown.
func (g *Gate) Close() {
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}
