package jeux

import (
	"sync"

	"github.com/udisondev/jeux/internal/game"
)

// InvitationState is the lifecycle state of an Invitation.
type InvitationState int

const (
	// Open is the state from creation until the target accepts, declines,
	// or the source revokes it.
	Open InvitationState = iota
	// Accepted is the state once a game is underway.
	Accepted
	// Closed is terminal: declined, revoked, or the game it carried ended
	// (by termination or resignation).
	Closed
)

func (s InvitationState) String() string {
	switch s {
	case Open:
		return "open"
	case Accepted:
		return "accepted"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Invitation is a proposal for a game between two clients, and, once
// accepted, the game itself. source is the client that made the invitation;
// target is the invitee. sourceRole and targetRole are fixed at creation and
// never swap.
//
// An Invitation is referenced under its own local id from both source's and
// target's invitation maps; the two local ids need not match.
type Invitation struct {
	mu sync.Mutex

	source     *Client
	target     *Client
	sourceRole game.Role
	targetRole game.Role

	state InvitationState
	game  *game.Game
}

func newInvitation(source, target *Client, sourceRole, targetRole game.Role) *Invitation {
	return &Invitation{
		source:     source,
		target:     target,
		sourceRole: sourceRole,
		targetRole: targetRole,
		state:      Open,
	}
}

// State returns the invitation's current lifecycle state.
func (inv *Invitation) State() InvitationState {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.state
}

// Source returns the inviting client.
func (inv *Invitation) Source() *Client { return inv.source }

// Target returns the invited client.
func (inv *Invitation) Target() *Client { return inv.target }

// Opponent returns the other side of the invitation relative to c. c must
// be either Source() or Target(); any other value returns nil.
func (inv *Invitation) Opponent(c *Client) *Client {
	switch c {
	case inv.source:
		return inv.target
	case inv.target:
		return inv.source
	default:
		return nil
	}
}

// RoleOf returns the playing role c was assigned when the invitation was
// created. c must be either Source() or Target(); any other value returns
// game.NullRole.
func (inv *Invitation) RoleOf(c *Client) game.Role {
	switch c {
	case inv.source:
		return inv.sourceRole
	case inv.target:
		return inv.targetRole
	default:
		return game.NullRole
	}
}

// Game returns the invitation's game, or nil if it has not been accepted
// yet.
func (inv *Invitation) Game() *game.Game {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.game
}

// accept transitions an Open invitation to Accepted and starts the game.
// by must be the target. Returns whether the source moves first, so the
// caller can decide which side's reply carries the initial board.
func (inv *Invitation) accept(by *Client) (sourceMovesFirst bool, board string, err error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if by != inv.target {
		return false, "", newError(KindIllegalState, "accept called by non-target")
	}
	if inv.state != Open {
		return false, "", newError(KindIllegalState, "%w", ErrInvitationNotOpen)
	}

	inv.game = game.NewGame()
	inv.state = Accepted
	return inv.sourceRole == game.FirstPlayer, inv.game.UnparseState(), nil
}

// revoke closes an Open invitation. by must be the source.
func (inv *Invitation) revoke(by *Client) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if by != inv.source {
		return newError(KindIllegalState, "revoke called by non-source")
	}
	if inv.state != Open {
		return newError(KindIllegalState, "%w", ErrInvitationNotOpen)
	}
	inv.state = Closed
	return nil
}

// decline closes an Open invitation. by must be the target.
func (inv *Invitation) decline(by *Client) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if by != inv.target {
		return newError(KindIllegalState, "decline called by non-target")
	}
	if inv.state != Open {
		return newError(KindIllegalState, "%w", ErrInvitationNotOpen)
	}
	inv.state = Closed
	return nil
}

// resign resigns the live game on behalf of by, closing the invitation.
// Fails with ErrNoGame if the invitation was never accepted, ErrIllegalState
// if the game already ended.
func (inv *Invitation) resign(by *Client) (winner game.Role, err error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if inv.state != Accepted || inv.game == nil {
		return game.NullRole, newError(KindNoGame, "%w", ErrNoGame)
	}
	role := inv.roleOfLocked(by)
	if err := inv.game.Resign(role); err != nil {
		return game.NullRole, asGameError(err)
	}
	inv.state = Closed
	return inv.game.Winner(), nil
}

// closeAfterTermination marks an Accepted invitation Closed once its game
// has reached a terminal state on its own (a winning or drawing move). It
// is a no-op if the invitation was already closed concurrently.
func (inv *Invitation) closeAfterTermination() {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.state = Closed
}

func (inv *Invitation) roleOfLocked(c *Client) game.Role {
	switch c {
	case inv.source:
		return inv.sourceRole
	case inv.target:
		return inv.targetRole
	default:
		return game.NullRole
	}
}
