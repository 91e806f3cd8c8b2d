package model

import "strconv"

// RoomID is a short random token identifying a live room
type RoomID string

// Seat indexes one of the two positions in a room
type Seat int

const (
	Seat0 Seat = 0
	Seat1 Seat = 1
)

// Seats lists both seats in index order
var Seats = [2]Seat{Seat0, Seat1}

// Other returns the opposing seat
func (s Seat) Other() Seat {
	return 1 - s
}

// Number returns the 1-based seat number shown to players
func (s Seat) Number() int {
	return int(s) + 1
}

func (s Seat) String() string {
	return strconv.Itoa(int(s))
}

// Phase is the state of a room's session
type Phase string

const (
	PhaseWaiting    Phase = "waiting"    // fewer than two registered seats
	PhaseReady      Phase = "ready"      // both seats registered, ready notice sent
	PhaseCollecting Phase = "collecting" // one move submitted this round
	PhaseResolved   Phase = "resolved"   // last round resolved, moves cleared
)
