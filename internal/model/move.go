package model

import (
	"fmt"
	"strings"
)

// Move is one of the three hand shapes
type Move string

const (
	MoveRock     Move = "rock"
	MovePaper    Move = "paper"
	MoveScissors Move = "scissors"
)

// Moves lists every valid move
var Moves = []Move{MoveRock, MovePaper, MoveScissors}

// beats maps each move to the move it defeats
var beats = map[Move]Move{
	MoveRock:     MoveScissors,
	MoveScissors: MovePaper,
	MovePaper:    MoveRock,
}

// Valid reports whether m is one of the three moves
func (m Move) Valid() bool {
	_, ok := beats[m]
	return ok
}

// Beats reports whether m defeats other
func (m Move) Beats(other Move) bool {
	return beats[m] == other
}

// ParseMove parses a move name, case-insensitively
func ParseMove(s string) (Move, error) {
	m := Move(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	return m, nil
}

// Outcome is the result of a round, tagged by seat
type Outcome string

const (
	OutcomeSeat0Win Outcome = "player1_win"
	OutcomeSeat1Win Outcome = "player2_win"
	OutcomeDraw     Outcome = "draw"
)

// Resolve computes the outcome of seat 0 playing m0 against seat 1 playing m1
func Resolve(m0, m1 Move) Outcome {
	switch {
	case m0 == m1:
		return OutcomeDraw
	case m0.Beats(m1):
		return OutcomeSeat0Win
	default:
		return OutcomeSeat1Win
	}
}

// Winner returns the winning seat, or false for a draw
func (o Outcome) Winner() (Seat, bool) {
	switch o {
	case OutcomeSeat0Win:
		return Seat0, true
	case OutcomeSeat1Win:
		return Seat1, true
	default:
		return 0, false
	}
}

// Describe renders the outcome as a phrase naming the winner
func (o Outcome) Describe(names [2]string) string {
	seat, ok := o.Winner()
	if !ok {
		return "It's a draw!"
	}
	return names[seat] + " wins!"
}
