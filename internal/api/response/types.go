package response

import (
	"time"

	"github.com/mcoot/rpsmatch/internal/model"
	"github.com/mcoot/rpsmatch/internal/session"
)

// Health is the liveness response
type Health struct {
	Status string `json:"status"`
	Rooms  int    `json:"rooms"`
}

// Player represents a player in API responses
type Player struct {
	ID          model.PlayerID `json:"id"`
	DisplayName string         `json:"display_name"`
}

// Seat represents one seat of a room
type Seat struct {
	Number   int     `json:"number"`
	Occupied bool    `json:"occupied"`
	Player   *Player `json:"player,omitempty"`
}

// Room represents a live room
type Room struct {
	ID           model.RoomID `json:"id"`
	Phase        model.Phase  `json:"phase"`
	Seats        []Seat       `json:"seats"`
	PendingMoves int          `json:"pending_moves"`
}

// RoomFromInfo converts a room snapshot to a response Room
func RoomFromInfo(info session.RoomInfo) Room {
	room := Room{
		ID:           info.ID,
		Phase:        info.Phase,
		Seats:        make([]Seat, 0, len(info.Seats)),
		PendingMoves: info.PendingMoves,
	}
	for _, s := range info.Seats {
		seat := Seat{Number: s.Number, Occupied: s.Occupied}
		if s.Registered {
			seat.Player = &Player{ID: s.PlayerID, DisplayName: s.Name}
		}
		room.Seats = append(room.Seats, seat)
	}
	return room
}

// RoomList is the response for listing rooms
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// Score is a head-to-head aggregate from player A's point of view
type Score struct {
	PlayerA Player `json:"player_a"`
	PlayerB Player `json:"player_b"`
	AWins   int    `json:"a_wins"`
	BWins   int    `json:"b_wins"`
	Draws   int    `json:"draws"`
}

// ScoreFromModel builds a Score response
func ScoreFromModel(a, b Player, score model.Score) Score {
	return Score{
		PlayerA: a,
		PlayerB: b,
		AWins:   score.FirstWins,
		BWins:   score.SecondWins,
		Draws:   score.Draws,
	}
}

// Match represents one recorded round
type Match struct {
	ID       string            `json:"id"`
	RoomID   model.RoomID      `json:"room_id"`
	Players  [2]model.PlayerID `json:"players"`
	Choices  [2]model.Move     `json:"choices"`
	Outcome  model.Outcome     `json:"outcome"`
	PlayedAt time.Time         `json:"played_at"`
}

// MatchFromModel converts a match record to a response Match
func MatchFromModel(rec *model.MatchRecord) Match {
	return Match{
		ID:       rec.ID,
		RoomID:   rec.RoomID,
		Players:  rec.Players,
		Choices:  rec.Moves,
		Outcome:  rec.Outcome,
		PlayedAt: rec.PlayedAt,
	}
}

// MatchList is the response for a pair's match history
type MatchList struct {
	Matches []Match `json:"matches"`
}
