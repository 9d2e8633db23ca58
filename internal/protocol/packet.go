// Package protocol implements the jeux binary packet framing: a fixed
// 13-byte header followed by an optional variable-length payload, carried
// over any reliable byte stream (net.Conn in production, net.Pipe in
// tests).
package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"
)

// HeaderSize is the fixed on-wire size of a packet header, in bytes.
const HeaderSize = 13

// MaxPayloadSize is the largest payload the 16-bit size field can express.
const MaxPayloadSize = 1<<16 - 1

// PacketType identifies the kind of packet on the wire.
type PacketType uint8

const (
	None PacketType = iota
	Login
	Users
	Invite
	Revoke
	Accept
	Decline
	Move
	Resign
	Ack
	Nack
	Invited
	Revoked
	Accepted
	Declined
	Moved
	Resigned
	Ended
)

func (t PacketType) String() string {
	switch t {
	case None:
		return "NONE"
	case Login:
		return "LOGIN"
	case Users:
		return "USERS"
	case Invite:
		return "INVITE"
	case Revoke:
		return "REVOKE"
	case Accept:
		return "ACCEPT"
	case Decline:
		return "DECLINE"
	case Move:
		return "MOVE"
	case Resign:
		return "RESIGN"
	case Ack:
		return "ACK"
	case Nack:
		return "NACK"
	case Invited:
		return "INVITED"
	case Revoked:
		return "REVOKED"
	case Accepted:
		return "ACCEPTED"
	case Declined:
		return "DECLINED"
	case Moved:
		return "MOVED"
	case Resigned:
		return "RESIGNED"
	case Ended:
		return "ENDED"
	default:
		return fmt.Sprintf("PacketType(%d)", uint8(t))
	}
}

// Header is the fixed-layout packet header. Role uses the small integer
// encoding 0=none, 1=first player, 2=second player (see internal/game.Role).
type Header struct {
	Type PacketType
	ID   uint8
	Role uint8
	Size uint16
	Sec  uint32
	Nsec uint32
}

// NewHeader builds a header stamped with the current wall-clock time.
func NewHeader(typ PacketType, id, role uint8, size int) Header {
	now := time.Now()
	return Header{
		Type: typ,
		ID:   id,
		Role: role,
		Size: uint16(size),
		Sec:  uint32(now.Unix()),
		Nsec: uint32(now.Nanosecond()),
	}
}

func (h Header) encode() [HeaderSize]byte {
	var buf [HeaderSize]byte
	buf[0] = byte(h.Type)
	buf[1] = h.ID
	buf[2] = h.Role
	binary.BigEndian.PutUint16(buf[3:5], h.Size)
	binary.BigEndian.PutUint32(buf[5:9], h.Sec)
	binary.BigEndian.PutUint32(buf[9:13], h.Nsec)
	return buf
}

func decodeHeader(buf [HeaderSize]byte) Header {
	return Header{
		Type: PacketType(buf[0]),
		ID:   buf[1],
		Role: buf[2],
		Size: binary.BigEndian.Uint16(buf[3:5]),
		Sec:  binary.BigEndian.Uint32(buf[5:9]),
		Nsec: binary.BigEndian.Uint32(buf[9:13]),
	}
}

// Send writes header followed by payload (if any) to w. When sendMu is
// non-nil, Send holds it across both writes, so concurrent senders sharing
// that mutex never interleave on the stream (jeux.Client.Send passes its own
// send mutex). A nil sendMu skips locking, for single-writer callers such
// as test helpers.
func Send(w io.Writer, sendMu *sync.Mutex, h Header, payload []byte) error {
	if sendMu != nil {
		sendMu.Lock()
		defer sendMu.Unlock()
	}
	if int(h.Size) != len(payload) {
		h.Size = uint16(len(payload))
	}
	buf := h.encode()
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("writing packet header: %w", err)
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("writing packet payload: %w", err)
		}
	}
	return nil
}

// Recv reads exactly one packet from r: the fixed header, then Size bytes
// of payload if Size > 0. A clean end-of-stream on the header read returns
// io.EOF unwrapped so callers can distinguish graceful disconnection from a
// mid-packet I/O failure (io.ErrUnexpectedEOF, or a wrapped error).
func Recv(r io.Reader) (Header, []byte, error) {
	var raw [HeaderSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		if err == io.EOF {
			return Header{}, nil, io.EOF
		}
		return Header{}, nil, fmt.Errorf("reading packet header: %w", err)
	}
	h := decodeHeader(raw)

	if h.Size == 0 {
		return h, nil, nil
	}
	payload := make([]byte, h.Size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Header{}, nil, fmt.Errorf("reading packet payload: %w", err)
	}
	return h, payload, nil
}
