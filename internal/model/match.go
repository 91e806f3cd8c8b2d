package model

import "time"

// MatchRecord is an immutable record of one resolved round
type MatchRecord struct {
	ID       string
	RoomID   RoomID
	Players  [2]PlayerID // indexed by seat
	Moves    [2]Move     // indexed by seat
	Outcome  Outcome
	PlayedAt time.Time
}

// Score is a head-to-head aggregate between two players, ordered as queried
type Score struct {
	FirstWins  int
	SecondWins int
	Draws      int
}

// Swap returns the same aggregate from the second player's point of view
func (s Score) Swap() Score {
	return Score{FirstWins: s.SecondWins, SecondWins: s.FirstWins, Draws: s.Draws}
}

// ForSeat orients a score queried as (seat 0, seat 1) towards the given seat
func (s Score) ForSeat(seat Seat) Score {
	if seat == Seat1 {
		return s.Swap()
	}
	return s
}

// Tally adds one record to the aggregate for the ordered pair (first, second)
func (s *Score) Tally(rec *MatchRecord, first PlayerID) {
	winner, ok := rec.Outcome.Winner()
	if !ok {
		s.Draws++
		return
	}
	if rec.Players[winner] == first {
		s.FirstWins++
	} else {
		s.SecondWins++
	}
}

// Involves reports whether the record is between a and b in either order
func (rec *MatchRecord) Involves(a, b PlayerID) bool {
	return (rec.Players[0] == a && rec.Players[1] == b) ||
		(rec.Players[0] == b && rec.Players[1] == a)
}
