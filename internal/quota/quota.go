// Package quota meters intelligent searches for users on the free tier.
//
// Every user starts with the same allowance. Pro users are never blocked and
// never charged. Counters live in memory for the life of the process.
package quota

import (
	"sync"

	"github.com/valpere/vidlingo/internal/identity"
)

// DefaultFreeSearches is the allowance of a new free-tier user.
const DefaultFreeSearches = 5

// Decision is the outcome of TryAcquire.
type Decision int

const (
	Allowed Decision = iota
	Blocked
)

func (d Decision) String() string {
	if d == Blocked {
		return "blocked"
	}
	return "allowed"
}

// State is a user's quota as shown to them.
type State struct {
	Remaining int  `json:"remaining"`
	Unlimited bool `json:"unlimited"`
}

// Gate tracks the remaining free searches of every user seen so far.
type Gate struct {
	mu        sync.Mutex
	allowance int
	remaining map[string]int
}

// NewGate creates a Gate granting allowance searches per user. A negative
// allowance is treated as zero.
func NewGate(allowance int) *Gate {
	if allowance < 0 {
		allowance = 0
	}
	return &Gate{
		allowance: allowance,
		remaining: make(map[string]int),
	}
}

// TryAcquire reports whether user may start a search. It does not charge.
func (g *Gate) TryAcquire(user *identity.User) Decision {
	if isUnlimited(user) {
		return Allowed
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.remainingLocked(key(user)) > 0 {
		return Allowed
	}
	return Blocked
}

// Consume charges one search to user. It is a no-op for pro users and never
// takes the count below zero.
func (g *Gate) Consume(user *identity.User) {
	if isUnlimited(user) {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	k := key(user)
	if n := g.remainingLocked(k); n > 0 {
		g.remaining[k] = n - 1
	}
}

// State returns user's current quota.
func (g *Gate) State(user *identity.User) State {
	g.mu.Lock()
	defer g.mu.Unlock()

	return State{
		Remaining: g.remainingLocked(key(user)),
		Unlimited: isUnlimited(user),
	}
}

// Remaining returns the number of free searches user has left.
func (g *Gate) Remaining(user *identity.User) int {
	return g.State(user).Remaining
}

// Set overrides the remaining count for user. Negative values become zero.
func (g *Gate) Set(user *identity.User, remaining int) {
	if remaining < 0 {
		remaining = 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.remaining[key(user)] = remaining
}

func (g *Gate) remainingLocked(k string) int {
	if n, ok := g.remaining[k]; ok {
		return n
	}
	return g.allowance
}

func isUnlimited(user *identity.User) bool {
	return user != nil && user.IsPro
}

func key(user *identity.User) string {
	if user == nil {
		return identity.Guest("").ID
	}
	return user.ID
}
