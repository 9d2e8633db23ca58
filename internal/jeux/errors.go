package jeux

import (
	"errors"
	"fmt"

	"github.com/udisondev/jeux/internal/game"
)

// Kind classifies an error for the purposes of §7's dispatch policy: every
// Kind other than KindIO and KindFull becomes a NACK to the offending client
// without ending the connection; KindIO ends the service loop; KindFull
// closes the connection immediately, before any packet is exchanged.
type Kind int

const (
	KindIO Kind = iota
	KindProtocol
	KindIllegalState
	KindIllegalMove
	KindNotFound
	KindNoGame
	KindFull
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindProtocol:
		return "protocol"
	case KindIllegalState:
		return "illegal_state"
	case KindIllegalMove:
		return "illegal_move"
	case KindNotFound:
		return "not_found"
	case KindNoGame:
		return "no_game"
	case KindFull:
		return "full"
	default:
		return "unknown"
	}
}

// Error carries a Kind alongside the wrapped cause, so a single errors.As
// call at the dispatch boundary is enough to decide how to react.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Sentinel causes, wrapped by newError at the call site that detects them.
var (
	ErrAlreadyLoggedIn   = errors.New("client already logged in")
	ErrNotLoggedIn       = errors.New("client not logged in")
	ErrPlayerTaken       = errors.New("player already has a live client")
	ErrUnknownPacketType = errors.New("unknown packet type")
	ErrInvitationNotOpen = errors.New("invitation is not open")
	ErrNoGame            = errors.New("invitation has no game in progress")
	ErrSelfInvite        = errors.New("cannot invite self")
	ErrSameRole          = errors.New("source and target roles must differ")
	ErrTargetNotLoggedIn = errors.New("target is not logged in")
	ErrUnknownInvitation = errors.New("unknown invitation id")
	ErrRegistryFull      = errors.New("client registry is full")
)

// errKind reports the classification of err, defaulting to KindIO when err
// does not carry an explicit *Error (e.g. a raw I/O error from the
// protocol package).
func errKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindIO
}

// asGameError reclassifies errors surfaced by package game into this
// package's Kind taxonomy.
func asGameError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, game.ErrIllegalMove):
		return newError(KindIllegalMove, "%w", err)
	case errors.Is(err, game.ErrIllegalState):
		return newError(KindIllegalState, "%w", err)
	default:
		return newError(KindIO, "%w", err)
	}
}
