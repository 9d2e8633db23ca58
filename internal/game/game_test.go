package game

import (
	"errors"
	"testing"
)

func TestApplyMoveSequenceWinsForFirstPlayer(t *testing.T) {
	g := NewGame()

	moves := []Move{
		{Position: 0, Role: FirstPlayer},  // X
		{Position: 3, Role: SecondPlayer}, // O
		{Position: 1, Role: FirstPlayer},  // X
		{Position: 4, Role: SecondPlayer}, // O
		{Position: 2, Role: FirstPlayer},  // X completes top row
	}
	for i, m := range moves {
		if err := g.ApplyMove(m); err != nil {
			t.Fatalf("move %d: unexpected error: %v", i, err)
		}
	}

	if !g.Over() {
		t.Fatalf("game should be over after a winning row")
	}
	if g.Winner() != FirstPlayer {
		t.Fatalf("winner = %v, want FirstPlayer", g.Winner())
	}
}

func TestApplyMoveDraw(t *testing.T) {
	g := NewGame()
	// X O X
	// X O O
	// O X X
	moves := []Move{
		{0, FirstPlayer}, {1, SecondPlayer}, {2, FirstPlayer},
		{4, SecondPlayer}, {3, FirstPlayer}, {5, SecondPlayer},
		{7, FirstPlayer}, {6, SecondPlayer}, {8, FirstPlayer},
	}
	for i, m := range moves {
		if err := g.ApplyMove(m); err != nil {
			t.Fatalf("move %d: unexpected error: %v", i, err)
		}
	}
	if !g.Over() {
		t.Fatalf("game should be over when the board fills")
	}
	if g.Winner() != NullRole {
		t.Fatalf("winner = %v, want NullRole (draw)", g.Winner())
	}
}

func TestApplyMoveRejectsOutOfTurn(t *testing.T) {
	g := NewGame()
	err := g.ApplyMove(Move{Position: 0, Role: SecondPlayer})
	if !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("err = %v, want ErrIllegalMove", err)
	}
}

func TestApplyMoveRejectsOccupiedCell(t *testing.T) {
	g := NewGame()
	if err := g.ApplyMove(Move{Position: 0, Role: FirstPlayer}); err != nil {
		t.Fatalf("first move: %v", err)
	}
	err := g.ApplyMove(Move{Position: 0, Role: SecondPlayer})
	if !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("err = %v, want ErrIllegalMove", err)
	}
}

func TestApplyMoveRejectsAfterGameOver(t *testing.T) {
	g := NewGame()
	if err := g.Resign(FirstPlayer); err != nil {
		t.Fatalf("resign: %v", err)
	}
	err := g.ApplyMove(Move{Position: 0, Role: SecondPlayer})
	if !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("err = %v, want ErrIllegalMove", err)
	}
}

func TestResignSetsOpponentAsWinner(t *testing.T) {
	g := NewGame()
	if err := g.Resign(FirstPlayer); err != nil {
		t.Fatalf("resign: %v", err)
	}
	if !g.Over() {
		t.Fatalf("game should be over after resignation")
	}
	if g.Winner() != SecondPlayer {
		t.Fatalf("winner = %v, want SecondPlayer", g.Winner())
	}
}

func TestResignFailsWhenAlreadyOver(t *testing.T) {
	g := NewGame()
	if err := g.Resign(FirstPlayer); err != nil {
		t.Fatalf("first resign: %v", err)
	}
	err := g.Resign(SecondPlayer)
	if !errors.Is(err, ErrIllegalState) {
		t.Fatalf("err = %v, want ErrIllegalState", err)
	}
}

func TestParseMoveUsesToMoveWhenRoleIsNull(t *testing.T) {
	g := NewGame()
	m, err := g.ParseMove(NullRole, "5")
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	if m.Position != 4 || m.Role != FirstPlayer {
		t.Fatalf("got %+v, want {4 FirstPlayer}", m)
	}
}

func TestParseMoveRejectsWrongRole(t *testing.T) {
	g := NewGame()
	_, err := g.ParseMove(SecondPlayer, "5")
	if !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("err = %v, want ErrIllegalMove", err)
	}
}

func TestParseMoveRejectsMalformedText(t *testing.T) {
	g := NewGame()
	for _, text := range []string{"", "0", "10", "a", "55"} {
		if _, err := g.ParseMove(NullRole, text); !errors.Is(err, ErrIllegalMove) {
			t.Errorf("ParseMove(%q) err = %v, want ErrIllegalMove", text, err)
		}
	}
}

func TestUnparseStateMatchesWireExample(t *testing.T) {
	g := NewGame()
	move, err := g.ParseMove(NullRole, "1")
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	if err := g.ApplyMove(move); err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}

	want := "X| | \n-----\n | | \n-----\n | | \x00"
	got := g.UnparseState()
	if got != want {
		t.Fatalf("UnparseState() = %q, want %q", got, want)
	}
	if len(got) != StateSize {
		t.Fatalf("len(UnparseState()) = %d, want %d", len(got), StateSize)
	}
}

func TestUnparseMove(t *testing.T) {
	if got, want := UnparseMove(Move{Position: 0, Role: FirstPlayer}), "1←X"; got != want {
		t.Fatalf("UnparseMove = %q, want %q", got, want)
	}
}

func TestRoleOpponent(t *testing.T) {
	if FirstPlayer.Opponent() != SecondPlayer {
		t.Fatalf("FirstPlayer.Opponent() = %v, want SecondPlayer", FirstPlayer.Opponent())
	}
	if SecondPlayer.Opponent() != FirstPlayer {
		t.Fatalf("SecondPlayer.Opponent() = %v, want FirstPlayer", SecondPlayer.Opponent())
	}
	if NullRole.Opponent() != NullRole {
		t.Fatalf("NullRole.Opponent() = %v, want NullRole", NullRole.Opponent())
	}
}
