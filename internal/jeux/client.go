package jeux

import (
	"net"
	"sync"
	"time"

	"github.com/udisondev/jeux/internal/game"
	"github.com/udisondev/jeux/internal/model"
	"github.com/udisondev/jeux/internal/protocol"
)

// Client is a single connected session. A Client starts anonymous; Login
// binds it to exactly one Player for the lifetime of the connection.
//
// Two mutexes guard disjoint state, deliberately: stateMu protects player
// and the invitation map (fast, never held across I/O); sendMu serializes
// writes to conn (held only around protocol.Send, which may block on a
// slow peer). A goroutine must never acquire sendMu while holding stateMu.
type Client struct {
	conn net.Conn

	sendMu       sync.Mutex
	writeTimeout time.Duration

	stateMu     sync.Mutex
	player      *model.Player
	invitations map[uint8]*Invitation
}

// NewClient wraps conn in a fresh, not-yet-logged-in Client.
func NewClient(conn net.Conn) *Client {
	return &Client{
		conn:        conn,
		invitations: make(map[uint8]*Invitation),
	}
}

// Conn returns the underlying connection.
func (c *Client) Conn() net.Conn { return c.conn }

// SetWriteTimeout bounds how long a single Send may block on a slow peer.
// Zero disables the deadline.
func (c *Client) SetWriteTimeout(d time.Duration) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	c.writeTimeout = d
}

// Player returns the logged-in player, or nil if Login has not succeeded
// yet.
func (c *Client) Player() *model.Player {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.player
}

// Login binds c to player. It is set-once: a second call on an
// already-logged-in client fails with ErrAlreadyLoggedIn. The registry
// argument is used to reject a login that would give the same player two
// simultaneous live clients.
func (c *Client) Login(registry *ClientRegistry, player *model.Player) error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.player != nil {
		return newError(KindIllegalState, "%w", ErrAlreadyLoggedIn)
	}
	if registry.hasLiveClientFor(c, player) {
		return newError(KindIllegalState, "%w", ErrPlayerTaken)
	}
	c.player = player
	return nil
}

// Send writes a single packet to the client's connection, serialized
// against any concurrent Send on the same Client.
func (c *Client) Send(h protocol.Header, payload []byte) error {
	c.sendMu.Lock()
	timeout := c.writeTimeout
	c.sendMu.Unlock()

	if timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}
	return protocol.Send(c.conn, &c.sendMu, h, payload)
}

// sendNotify is a best-effort asynchronous notification: failures are
// reported to the caller but never block the caller's own reply.
func (c *Client) sendNotify(typ protocol.PacketType, id uint8, role game.Role, payload []byte) error {
	h := protocol.NewHeader(typ, id, uint8(role), len(payload))
	return c.Send(h, payload)
}

// addInvitation interns inv under the smallest unused local id for this
// client and returns that id.
func (c *Client) addInvitation(inv *Invitation) uint8 {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	var id uint8
	for {
		if _, taken := c.invitations[id]; !taken {
			break
		}
		id++
	}
	c.invitations[id] = inv
	return id
}

// removeInvitation drops the invitation under localID, if present.
func (c *Client) removeInvitation(localID uint8) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	delete(c.invitations, localID)
}

// invitation looks up the invitation under localID.
func (c *Client) invitation(localID uint8) (*Invitation, error) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	inv, ok := c.invitations[localID]
	if !ok {
		return nil, newError(KindNotFound, "%w: %d", ErrUnknownInvitation, localID)
	}
	return inv, nil
}

// invitationIDFor returns the local id under which c holds inv, if any.
func (c *Client) invitationIDFor(inv *Invitation) (uint8, bool) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	for id, v := range c.invitations {
		if v == inv {
			return id, true
		}
	}
	return 0, false
}

// invitationsSnapshot returns a copy of the client's outstanding invitations.
func (c *Client) invitationsSnapshot() map[uint8]*Invitation {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	out := make(map[uint8]*Invitation, len(c.invitations))
	for id, inv := range c.invitations {
		out[id] = inv
	}
	return out
}

// MakeInvitation creates an invitation from c (as srcRole) to target (as
// tgtRole), interns it on both clients' invitation maps, and notifies
// target asynchronously. Returns c's own local id for the new invitation.
func (c *Client) MakeInvitation(target *Client, srcRole, tgtRole game.Role) (uint8, error) {
	if target == c {
		return 0, newError(KindIllegalState, "%w", ErrSelfInvite)
	}
	if srcRole == tgtRole {
		return 0, newError(KindIllegalState, "%w", ErrSameRole)
	}
	if target.Player() == nil {
		return 0, newError(KindIllegalState, "%w", ErrTargetNotLoggedIn)
	}

	inv := newInvitation(c, target, srcRole, tgtRole)
	srcID := c.addInvitation(inv)
	tgtID := target.addInvitation(inv)

	if err := target.sendNotify(protocol.Invited, tgtID, tgtRole, nil); err != nil {
		target.removeInvitation(tgtID)
		c.removeInvitation(srcID)
		return 0, newError(KindIO, "notifying target of invitation: %w", err)
	}
	return srcID, nil
}

// RevokeInvitation closes an Open invitation c made as its source, and
// notifies the target.
func (c *Client) RevokeInvitation(localID uint8) error {
	inv, err := c.invitation(localID)
	if err != nil {
		return err
	}
	if err := inv.revoke(c); err != nil {
		return err
	}
	target := inv.Opponent(c)
	tgtID, _ := target.invitationIDFor(inv)
	_ = target.sendNotify(protocol.Revoked, tgtID, inv.RoleOf(target), nil)
	target.removeInvitation(tgtID)
	c.removeInvitation(localID)
	return nil
}

// DeclineInvitation closes an Open invitation c received as its target,
// and notifies the source.
func (c *Client) DeclineInvitation(localID uint8) error {
	inv, err := c.invitation(localID)
	if err != nil {
		return err
	}
	if err := inv.decline(c); err != nil {
		return err
	}
	source := inv.Opponent(c)
	srcID, _ := source.invitationIDFor(inv)
	_ = source.sendNotify(protocol.Declined, srcID, inv.RoleOf(source), nil)
	source.removeInvitation(srcID)
	c.removeInvitation(localID)
	return nil
}

// AcceptInvitation accepts an Open invitation c received as its target,
// starting the game. It returns the payload to use for c's own ACK reply:
// nil when the source moves first (the source's async ACCEPTED carries the
// board instead), or the serialized initial board when c itself moves
// first.
func (c *Client) AcceptInvitation(localID uint8) ([]byte, error) {
	inv, err := c.invitation(localID)
	if err != nil {
		return nil, err
	}
	sourceMovesFirst, board, err := inv.accept(c)
	if err != nil {
		return nil, err
	}

	source := inv.Opponent(c)
	srcID, _ := source.invitationIDFor(inv)

	if sourceMovesFirst {
		_ = source.sendNotify(protocol.Accepted, srcID, inv.RoleOf(source), []byte(board))
		return nil, nil
	}
	_ = source.sendNotify(protocol.Accepted, srcID, inv.RoleOf(source), nil)
	return []byte(board), nil
}

// MoveOutcome describes the effect of a successful MakeMove call, so the
// caller can pick the right reply packet type.
type MoveOutcome struct {
	Board string
	Ended bool
	// Winner is only meaningful when Ended is true.
	Winner game.Role
}

// MakeMove parses and applies a move by c's role within the invitation
// under localID, notifies the opponent, and, if the move ends the game,
// posts the Elo update and closes the invitation.
func (c *Client) MakeMove(localID uint8, text string) (MoveOutcome, error) {
	inv, err := c.invitation(localID)
	if err != nil {
		return MoveOutcome{}, err
	}

	g := inv.Game()
	if g == nil {
		return MoveOutcome{}, newError(KindNoGame, "%w", ErrNoGame)
	}
	role := inv.RoleOf(c)

	move, err := g.ParseMove(role, text)
	if err != nil {
		return MoveOutcome{}, asGameError(err)
	}
	if err := g.ApplyMove(move); err != nil {
		return MoveOutcome{}, asGameError(err)
	}
	board := g.UnparseState()

	opponent := inv.Opponent(c)
	oppID, _ := opponent.invitationIDFor(inv)
	_ = opponent.sendNotify(protocol.Moved, oppID, inv.RoleOf(opponent), []byte(board))

	if !g.Over() {
		return MoveOutcome{Board: board}, nil
	}

	winner := g.Winner()
	inv.closeAfterTermination()
	postEloResult(inv, winner)

	_ = opponent.sendNotify(protocol.Ended, oppID, winner, nil)
	opponent.removeInvitation(oppID)
	c.removeInvitation(localID)

	return MoveOutcome{Board: board, Ended: true, Winner: winner}, nil
}

// ResignGame resigns the live game within the invitation under localID on
// behalf of c. The opponent is notified of the resignation and then, like
// the resigning side, of the game's end.
func (c *Client) ResignGame(localID uint8) (game.Role, error) {
	inv, err := c.invitation(localID)
	if err != nil {
		return game.NullRole, err
	}

	opponent := inv.Opponent(c)
	oppID, _ := opponent.invitationIDFor(inv)

	winner, err := inv.resign(c)
	if err != nil {
		return game.NullRole, err
	}
	postEloResult(inv, winner)

	_ = opponent.sendNotify(protocol.Resigned, oppID, inv.RoleOf(c), nil)
	_ = opponent.sendNotify(protocol.Ended, oppID, winner, nil)
	opponent.removeInvitation(oppID)
	c.removeInvitation(localID)

	return winner, nil
}

// postEloResult applies the Elo update for a concluded game to both
// invitation participants.
func postEloResult(inv *Invitation, winner game.Role) {
	source, target := inv.Source(), inv.Target()
	p1, p2 := source.Player(), target.Player()
	if p1 == nil || p2 == nil {
		return
	}

	var result model.Result
	switch winner {
	case inv.RoleOf(source):
		result = model.Player1Won
	case inv.RoleOf(target):
		result = model.Player2Won
	default:
		result = model.Draw
	}
	model.PostResult(p1, p2, result)
}

// Logout implicitly resigns every live game the client is party to,
// closes every outstanding invitation, and drops the player reference. It
// is idempotent.
func (c *Client) Logout() {
	c.stateMu.Lock()
	if c.player == nil {
		c.stateMu.Unlock()
		return
	}
	c.stateMu.Unlock()

	for localID, inv := range c.invitationsSnapshot() {
		switch inv.State() {
		case Open:
			if inv.Source() == c {
				_ = c.RevokeInvitation(localID)
			} else {
				_ = c.DeclineInvitation(localID)
			}
		case Accepted:
			// ResignGame posts the Elo update, so the player reference
			// must still be in place while invitations are processed.
			_, _ = c.ResignGame(localID)
		case Closed:
			c.removeInvitation(localID)
		}
	}

	c.stateMu.Lock()
	c.player = nil
	c.stateMu.Unlock()
}
