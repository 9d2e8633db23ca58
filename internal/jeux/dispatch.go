package jeux

import (
	"fmt"
	"sort"

	"github.com/udisondev/jeux/internal/game"
	"github.com/udisondev/jeux/internal/model"
	"github.com/udisondev/jeux/internal/protocol"
)

// reply is what a dispatch handler wants sent back to the requesting
// client in response to its packet. Handlers return the zero reply together
// with a non-nil error; the caller then sends NACK instead (or, for a
// KindIO error, ends the connection).
type reply struct {
	typ     protocol.PacketType
	id      uint8
	role    game.Role
	payload []byte
}

// dispatch interprets one received packet from c and returns the packet to
// send back as its direct reply. Asynchronous notifications to other
// clients are sent by the Client methods themselves before dispatch
// returns.
func dispatch(c *Client, players *model.PlayerRegistry, registry *ClientRegistry, h protocol.Header, payload []byte) (reply, error) {
	if h.Type == protocol.Login {
		return dispatchLogin(c, players, registry, payload)
	}
	if c.Player() == nil {
		return reply{}, newError(KindIllegalState, "%w", ErrNotLoggedIn)
	}

	switch h.Type {
	case protocol.Users:
		return dispatchUsers(registry)
	case protocol.Invite:
		return dispatchInvite(c, registry, h, payload)
	case protocol.Revoke:
		return dispatchRevoke(c, h)
	case protocol.Accept:
		return dispatchAccept(c, h)
	case protocol.Decline:
		return dispatchDecline(c, h)
	case protocol.Move:
		return dispatchMove(c, h, payload)
	case protocol.Resign:
		return dispatchResign(c, h)
	default:
		return reply{}, newError(KindProtocol, "%w: %v", ErrUnknownPacketType, h.Type)
	}
}

func dispatchLogin(c *Client, players *model.PlayerRegistry, registry *ClientRegistry, payload []byte) (reply, error) {
	name := string(payload)
	if name == "" {
		return reply{}, newError(KindProtocol, "login payload must carry a username")
	}
	player := players.Register(name)
	if err := c.Login(registry, player); err != nil {
		return reply{}, err
	}
	return reply{typ: protocol.Ack}, nil
}

func dispatchUsers(registry *ClientRegistry) (reply, error) {
	allPlayers := registry.AllPlayers()
	sort.Slice(allPlayers, func(i, j int) bool { return allPlayers[i].Name() < allPlayers[j].Name() })

	var buf []byte
	for _, p := range allPlayers {
		buf = append(buf, []byte(fmt.Sprintf("%s\t%d\n", p.Name(), p.Rating()))...)
	}
	return reply{typ: protocol.Ack, payload: buf}, nil
}

func dispatchInvite(c *Client, registry *ClientRegistry, h protocol.Header, payload []byte) (reply, error) {
	targetName := string(payload)
	target, ok := registry.Lookup(targetName)
	if !ok {
		return reply{}, newError(KindNotFound, "%w: %s", ErrTargetNotLoggedIn, targetName)
	}

	sourceRole := game.Role(h.Role)
	targetRole := sourceRole.Opponent()

	localID, err := c.MakeInvitation(target, sourceRole, targetRole)
	if err != nil {
		return reply{}, err
	}
	return reply{typ: protocol.Ack, id: localID}, nil
}

func dispatchRevoke(c *Client, h protocol.Header) (reply, error) {
	if err := c.RevokeInvitation(h.ID); err != nil {
		return reply{}, err
	}
	return reply{typ: protocol.Ack}, nil
}

func dispatchDecline(c *Client, h protocol.Header) (reply, error) {
	if err := c.DeclineInvitation(h.ID); err != nil {
		return reply{}, err
	}
	return reply{typ: protocol.Ack}, nil
}

func dispatchAccept(c *Client, h protocol.Header) (reply, error) {
	board, err := c.AcceptInvitation(h.ID)
	if err != nil {
		return reply{}, err
	}
	return reply{typ: protocol.Ack, payload: board}, nil
}

func dispatchMove(c *Client, h protocol.Header, payload []byte) (reply, error) {
	outcome, err := c.MakeMove(h.ID, string(payload))
	if err != nil {
		return reply{}, err
	}
	if outcome.Ended {
		return reply{typ: protocol.Ended, id: h.ID, role: outcome.Winner}, nil
	}
	return reply{typ: protocol.Ack, payload: []byte(outcome.Board)}, nil
}

func dispatchResign(c *Client, h protocol.Header) (reply, error) {
	winner, err := c.ResignGame(h.ID)
	if err != nil {
		return reply{}, err
	}
	return reply{typ: protocol.Ended, id: h.ID, role: winner}, nil
}
