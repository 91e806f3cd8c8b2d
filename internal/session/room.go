package session

import (
	"sync"

	"github.com/mcoot/rpsmatch/internal/model"
)

// Room is a two-seat session. All fields are guarded by mu; the Coordinator
// is the only writer.
type Room struct {
	id model.RoomID

	mu            sync.Mutex
	seats         [2]Conn
	names         [2]string
	players       [2]model.PlayerID
	registered    [2]bool
	moves         map[model.Seat]model.Move
	readyNotified bool
	phase         model.Phase
}

func newRoom(id model.RoomID) *Room {
	return &Room{
		id:    id,
		moves: make(map[model.Seat]model.Move, 2),
		phase: model.PhaseWaiting,
	}
}

// ID returns the room's identifier
func (r *Room) ID() model.RoomID {
	return r.id
}

// Phase returns the room's current state
func (r *Room) Phase() model.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// PendingMoves returns how many moves have been submitted this round
func (r *Room) PendingMoves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.moves)
}

// Occupied returns how many seats currently hold a connection
func (r *Room) Occupied() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.seats {
		if c != nil {
			n++
		}
	}
	return n
}

// SeatInfo describes one seat for read-only inspection
type SeatInfo struct {
	Number     int
	Occupied   bool
	Registered bool
	Name       string
	PlayerID   model.PlayerID
}

// RoomInfo is a point-in-time snapshot of a room
type RoomInfo struct {
	ID           model.RoomID
	Phase        model.Phase
	Seats        [2]SeatInfo
	PendingMoves int
}

// Info takes a consistent snapshot of the room
func (r *Room) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := RoomInfo{
		ID:           r.id,
		Phase:        r.phase,
		PendingMoves: len(r.moves),
	}
	for _, seat := range model.Seats {
		info.Seats[seat] = SeatInfo{
			Number:     seat.Number(),
			Occupied:   r.seats[seat] != nil,
			Registered: r.registered[seat],
			Name:       r.names[seat],
			PlayerID:   r.players[seat],
		}
	}
	return info
}

// Caller must hold mu for the helpers below

func (r *Room) bothOccupiedLocked() bool {
	return r.seats[model.Seat0] != nil && r.seats[model.Seat1] != nil
}

func (r *Room) bothRegisteredLocked() bool {
	return r.registered[model.Seat0] && r.registered[model.Seat1]
}

func (r *Room) clearMovesLocked() {
	clear(r.moves)
}

func (r *Room) clearSeatLocked(seat model.Seat) {
	r.seats[seat] = nil
	r.names[seat] = ""
	r.players[seat] = 0
	r.registered[seat] = false
}
