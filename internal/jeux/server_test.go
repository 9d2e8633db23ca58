package jeux

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/jeux/internal/game"
	"github.com/udisondev/jeux/internal/model"
	"github.com/udisondev/jeux/internal/protocol"
	"github.com/udisondev/jeux/internal/testutil"
)

func startTestServer(t *testing.T) (addr string, shutdown func()) {
	t.Helper()
	ln, address := testutil.ListenTCP(t)

	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(model.NewPlayerRegistry(), NewClientRegistry(0))

	done := make(chan struct{})
	go func() {
		srv.Serve(ctx, ln)
		close(done)
	}()

	return address, func() {
		cancel()
		<-done
	}
}

func dialAndLogin(t *testing.T, addr, name string) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	testutil.SendPacket(t, conn, protocol.NewHeader(protocol.Login, 0, 0, len(name)), []byte(name))
	h, _ := testutil.RecvPacket(t, conn)
	require.Equal(t, protocol.Ack, h.Type)
	return conn
}

// TestFullMatchOverTheWire exercises login, invitation, accept, three
// winning moves, and the resulting ENDED packets for both sides.
func TestFullMatchOverTheWire(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	alice := dialAndLogin(t, addr, "alice")
	defer alice.Close()
	bob := dialAndLogin(t, addr, "bob")
	defer bob.Close()

	// alice invites bob, requesting FirstPlayer for herself (alice gets X
	// and moves first, bob gets O).
	testutil.SendPacket(t, alice, protocol.NewHeader(protocol.Invite, 0, uint8(game.FirstPlayer), len("bob")), []byte("bob"))
	ackH, _ := testutil.RecvPacket(t, alice)
	require.Equal(t, protocol.Ack, ackH.Type)
	aliceInvID := ackH.ID

	invitedH, _ := testutil.RecvPacket(t, bob)
	require.Equal(t, protocol.Invited, invitedH.Type)
	bobInvID := invitedH.ID

	bob.SetReadDeadline(time.Now().Add(2 * time.Second))
	testutil.SendPacket(t, bob, protocol.NewHeader(protocol.Accept, bobInvID, 0, 0))
	acceptAckH, _ := testutil.RecvPacket(t, bob)
	require.Equal(t, protocol.Ack, acceptAckH.Type)

	acceptedH, board := testutil.RecvPacket(t, alice)
	require.Equal(t, protocol.Accepted, acceptedH.Type)
	require.Len(t, board, game.StateSize)

	// alice (X) plays 1, 2, 3 winning the top row; bob (O) plays 4, 5.
	testutil.SendPacket(t, alice, protocol.NewHeader(protocol.Move, aliceInvID, 0, 1), []byte("1"))
	aliceAck, _ := testutil.RecvPacket(t, alice)
	require.Equal(t, protocol.Ack, aliceAck.Type)
	bobMoved, _ := testutil.RecvPacket(t, bob)
	require.Equal(t, protocol.Moved, bobMoved.Type)

	testutil.SendPacket(t, bob, protocol.NewHeader(protocol.Move, bobInvID, 0, 1), []byte("4"))
	bobAck, _ := testutil.RecvPacket(t, bob)
	require.Equal(t, protocol.Ack, bobAck.Type)
	aliceMoved, _ := testutil.RecvPacket(t, alice)
	require.Equal(t, protocol.Moved, aliceMoved.Type)

	testutil.SendPacket(t, alice, protocol.NewHeader(protocol.Move, aliceInvID, 0, 1), []byte("2"))
	testutil.RecvPacket(t, alice) // ack
	testutil.RecvPacket(t, bob)   // moved

	testutil.SendPacket(t, bob, protocol.NewHeader(protocol.Move, bobInvID, 0, 1), []byte("5"))
	testutil.RecvPacket(t, bob) // ack
	testutil.RecvPacket(t, alice) // moved

	testutil.SendPacket(t, alice, protocol.NewHeader(protocol.Move, aliceInvID, 0, 1), []byte("3"))

	aliceEnded, _ := testutil.RecvPacket(t, alice)
	require.Equal(t, protocol.Ended, aliceEnded.Type)
	require.Equal(t, uint8(game.FirstPlayer), aliceEnded.Role)

	bobMovedFinal, _ := testutil.RecvPacket(t, bob)
	require.Equal(t, protocol.Moved, bobMovedFinal.Type)
	bobEnded, _ := testutil.RecvPacket(t, bob)
	require.Equal(t, protocol.Ended, bobEnded.Type)
	require.Equal(t, uint8(game.FirstPlayer), bobEnded.Role)
}

func TestUsersListsLoggedInPlayers(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	alice := dialAndLogin(t, addr, "alice")
	defer alice.Close()
	bob := dialAndLogin(t, addr, "bob")
	defer bob.Close()

	testutil.SendPacket(t, alice, protocol.NewHeader(protocol.Users, 0, 0, 0), nil)
	h, payload := testutil.RecvPacket(t, alice)
	require.Equal(t, protocol.Ack, h.Type)
	require.Contains(t, string(payload), "alice\t1500\n")
	require.Contains(t, string(payload), "bob\t1500\n")
}

func TestMoveBeforeLoginIsNacked(t *testing.T) {
	ln, addr := testutil.ListenTCP(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := NewServer(model.NewPlayerRegistry(), NewClientRegistry(0))
	go srv.Serve(ctx, ln)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	testutil.SendPacket(t, conn, protocol.NewHeader(protocol.Move, 0, 0, 1), []byte("1"))
	h, _ := testutil.RecvPacket(t, conn)
	require.Equal(t, protocol.Nack, h.Type)
}
