// Package model holds the persistent domain objects that outlive any one
// client session: players and their Elo ratings.
package model

import (
	"math"
	"sync"
	"unsafe"
)

// InitialRating is the rating assigned to a player on first registration.
const InitialRating = 1500

// EloK is the K-factor used by PostResult.
const EloK = 32

// Result is the outcome of a single game, from player1's perspective.
type Result int

const (
	Draw Result = iota
	Player1Won
	Player2Won
)

// Player is a persistent identity keyed by username. Its name never
// changes after creation; its rating mutates as games complete.
type Player struct {
	mu     sync.Mutex
	name   string
	rating int32
}

// NewPlayer creates a player with the initial rating. Only called by
// PlayerRegistry.Register, which is responsible for interning by name.
func NewPlayer(name string) *Player {
	return &Player{name: name, rating: InitialRating}
}

// Name returns the player's username.
func (p *Player) Name() string {
	return p.name
}

// Rating returns the player's current rating.
func (p *Player) Rating() int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rating
}

// PostResult applies the Elo update to both players for a single completed
// game. Both locks are acquired in a fixed order (lower pointer address
// first) regardless of argument order, so that two concurrent calls
// involving the same pair of players can never deadlock AB/BA.
func PostResult(p1, p2 *Player, result Result) {
	if p1 == p2 {
		return
	}
	first, second := p1, p2
	if uintptr(unsafe.Pointer(p2)) < uintptr(unsafe.Pointer(p1)) {
		first, second = p2, p1
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	var s1, s2 float64
	switch result {
	case Player1Won:
		s1, s2 = 1, 0
	case Player2Won:
		s1, s2 = 0, 1
	default:
		s1, s2 = 0.5, 0.5
	}

	r1, r2 := float64(p1.rating), float64(p2.rating)
	e1 := 1.0 / (1.0 + math.Pow(10.0, (r2-r1)/400.0))
	e2 := 1.0 / (1.0 + math.Pow(10.0, (r1-r2)/400.0))

	p1.rating += int32(EloK * (s1 - e1))
	p2.rating += int32(EloK * (s2 - e2))
}
