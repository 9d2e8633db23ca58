// Package game implements the rules of a single 3x3 tic-tac-toe match:
// board state, move legality, termination detection, and the text
// encodings used on the wire and in logs.
package game

import (
	"errors"
	"fmt"
	"sync"
)

// Role identifies which of the two seats a move or a winner belongs to.
type Role uint8

const (
	NullRole Role = iota
	FirstPlayer
	SecondPlayer
)

func (r Role) String() string {
	switch r {
	case FirstPlayer:
		return "X"
	case SecondPlayer:
		return "O"
	default:
		return " "
	}
}

// Opponent returns the other playing role. Opponent(NullRole) is NullRole.
func (r Role) Opponent() Role {
	switch r {
	case FirstPlayer:
		return SecondPlayer
	case SecondPlayer:
		return FirstPlayer
	default:
		return NullRole
	}
}

var (
	// ErrIllegalMove is returned by ApplyMove/ParseMove for any move that
	// is not legal in the game's current state.
	ErrIllegalMove = errors.New("illegal move")
	// ErrIllegalState is returned by Resign when the game has already
	// terminated.
	ErrIllegalState = errors.New("illegal game state")
)

// Move is an immutable (position, role) pair. Position is 0-based (0..8).
type Move struct {
	Position int
	Role     Role
}

// Game is a single tic-tac-toe match. All fields are guarded by mu; the
// zero value is not usable, use NewGame.
type Game struct {
	mu        sync.Mutex
	cells     [9]Role
	toMove    Role
	moveCount int
	over      bool
	winner    Role
}

// NewGame returns a fresh game with an empty board, first player to move.
func NewGame() *Game {
	return &Game{toMove: FirstPlayer}
}

// ToMove returns the role whose turn it is to move next.
func (g *Game) ToMove() Role {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.toMove
}

// Over reports whether the game has terminated (win or draw).
func (g *Game) Over() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.over
}

// Winner returns the winning role, or NullRole if the game is a draw or
// still in progress.
func (g *Game) Winner() Role {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.winner
}

// ApplyMove validates and applies move to the board. It fails with
// ErrIllegalMove if the cell is occupied, the role is not the role-to-move,
// or the game has already terminated.
func (g *Game) ApplyMove(move Move) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.over {
		return fmt.Errorf("game already over: %w", ErrIllegalMove)
	}
	if move.Position < 0 || move.Position > 8 {
		return fmt.Errorf("position %d out of range: %w", move.Position, ErrIllegalMove)
	}
	if move.Role != g.toMove {
		return fmt.Errorf("role %v is not on the move: %w", move.Role, ErrIllegalMove)
	}
	if g.cells[move.Position] != NullRole {
		return fmt.Errorf("cell %d occupied: %w", move.Position, ErrIllegalMove)
	}

	g.cells[move.Position] = move.Role
	g.moveCount++
	g.toMove = g.toMove.Opponent()
	g.evaluateTermination()
	return nil
}

// lines enumerates the eight ways to win tic-tac-toe.
var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // rows
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // columns
	{0, 4, 8}, {2, 4, 6}, // diagonals
}

// evaluateTermination must be called with mu held.
func (g *Game) evaluateTermination() {
	for _, line := range lines {
		a, b, c := g.cells[line[0]], g.cells[line[1]], g.cells[line[2]]
		if a != NullRole && a == b && a == c {
			g.over = true
			g.winner = a
			return
		}
	}
	if g.moveCount == 9 {
		g.over = true
		g.winner = NullRole
	}
}

// Resign terminates the game with the other role as winner. Fails with
// ErrIllegalState if the game has already terminated.
func (g *Game) Resign(role Role) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.over {
		return ErrIllegalState
	}
	g.over = true
	g.winner = role.Opponent()
	return nil
}

// ParseMove interprets text as a move by role in this game's current
// state. text must be a single digit '1'..'9'; cell index is digit-1. If
// role is NullRole, the game's current role-to-move is used; otherwise
// role must equal the role-to-move or parsing fails.
func (g *Game) ParseMove(role Role, text string) (Move, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(text) != 1 || text[0] < '1' || text[0] > '9' {
		return Move{}, fmt.Errorf("malformed move text %q: %w", text, ErrIllegalMove)
	}
	position := int(text[0]-'1')

	effectiveRole := role
	if effectiveRole == NullRole {
		effectiveRole = g.toMove
	} else if effectiveRole != g.toMove {
		return Move{}, fmt.Errorf("role %v is not on the move: %w", role, ErrIllegalMove)
	}

	return Move{Position: position, Role: effectiveRole}, nil
}

// UnparseMove renders a move as "<pos>←X" / "<pos>←O", position 1-based.
func UnparseMove(m Move) string {
	return fmt.Sprintf("%d←%s", m.Position+1, m.Role)
}

// UnparseState renders the board as a fixed 29-byte human-readable grid:
// three rows of "c|c|c" separated by "-----" dashes, NUL-terminated.
func (g *Game) UnparseState() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return unparseCells(g.cells)
}

// StateSize is the total size, in bytes, of an UnparseState result
// (29 content bytes followed by one NUL terminator).
const StateSize = 30

func unparseCells(cells [9]Role) string {
	var b [StateSize]byte
	row := func(off int, cs [3]Role) {
		b[off] = cellByte(cs[0])
		b[off+1] = '|'
		b[off+2] = cellByte(cs[1])
		b[off+3] = '|'
		b[off+4] = cellByte(cs[2])
	}
	row(0, [3]Role{cells[0], cells[1], cells[2]})
	copy(b[5:12], "\n-----\n")
	row(12, [3]Role{cells[3], cells[4], cells[5]})
	copy(b[17:24], "\n-----\n")
	row(24, [3]Role{cells[6], cells[7], cells[8]})
	b[29] = 0
	return string(b[:])
}

func cellByte(r Role) byte {
	switch r {
	case FirstPlayer:
		return 'X'
	case SecondPlayer:
		return 'O'
	default:
		return ' '
	}
}
