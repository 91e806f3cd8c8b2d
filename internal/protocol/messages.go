package protocol

import (
	"fmt"

	"github.com/mcoot/rpsmatch/internal/model"
)

// Type discriminates protocol messages on the wire
type Type string

const (
	// Client to server
	TypeRegister Type = "register"
	TypeChoice   Type = "choice"

	// Server to client
	TypeRegistered           Type = "registered"
	TypeGameReady            Type = "game_ready"
	TypeChoiceReceived       Type = "choice_received"
	TypeResult               Type = "result"
	TypeOpponentDisconnected Type = "opponent_disconnected"
	TypeError                Type = "error"
)

const (
	waitingText      = "Waiting for opponent..."
	disconnectedText = "Your opponent has left. Waiting for another player..."
)

// Message is any protocol message
type Message interface {
	MessageType() Type
}

// Register is sent by a client to claim a display name
type Register struct {
	Type Type   `json:"type"`
	Name string `json:"name"`
}

func NewRegister(name string) *Register {
	return &Register{Type: TypeRegister, Name: name}
}

func (m *Register) MessageType() Type { return TypeRegister }

// Choice is a client's move for the current round
type Choice struct {
	Type Type       `json:"type"`
	Move model.Move `json:"move"`
}

func NewChoice(move model.Move) *Choice {
	return &Choice{Type: TypeChoice, Move: move}
}

func (m *Choice) MessageType() Type { return TypeChoice }

// Registered confirms registration and the seat assigned
type Registered struct {
	Type       Type           `json:"type"`
	SeatNumber int            `json:"seat_number"`
	RoomID     model.RoomID   `json:"room_id"`
	PlayerID   model.PlayerID `json:"player_id"`
	Message    string         `json:"message"`
}

func NewRegistered(seat model.Seat, room model.RoomID, player model.PlayerID, name string) *Registered {
	return &Registered{
		Type:       TypeRegistered,
		SeatNumber: seat.Number(),
		RoomID:     room,
		PlayerID:   player,
		Message:    fmt.Sprintf("Welcome %s! You are Player %d", name, seat.Number()),
	}
}

func (m *Registered) MessageType() Type { return TypeRegistered }

// GameReady announces that both seats are filled, with the pair's standing
type GameReady struct {
	Type          Type         `json:"type"`
	OpponentName  string       `json:"opponent_name"`
	RoomID        model.RoomID `json:"room_id"`
	YourScore     int          `json:"your_score"`
	OpponentScore int          `json:"opponent_score"`
	Draws         int          `json:"draws"`
}

// NewGameReady builds the notice for one seat; score must already be
// oriented towards the recipient
func NewGameReady(room model.RoomID, opponent string, score model.Score) *GameReady {
	return &GameReady{
		Type:          TypeGameReady,
		OpponentName:  opponent,
		RoomID:        room,
		YourScore:     score.FirstWins,
		OpponentScore: score.SecondWins,
		Draws:         score.Draws,
	}
}

func (m *GameReady) MessageType() Type { return TypeGameReady }

// ChoiceReceived acknowledges a move to its submitter
type ChoiceReceived struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
}

func NewChoiceReceived() *ChoiceReceived {
	return &ChoiceReceived{Type: TypeChoiceReceived, Message: waitingText}
}

func (m *ChoiceReceived) MessageType() Type { return TypeChoiceReceived }

// Result reports a resolved round from one seat's point of view
type Result struct {
	Type           Type       `json:"type"`
	YourChoice     model.Move `json:"your_choice"`
	OpponentChoice model.Move `json:"opponent_choice"`
	WinnerText     string     `json:"winner_text"`
	YourName       string     `json:"your_name"`
	OpponentName   string     `json:"opponent_name"`
	YourScore      int        `json:"your_score"`
	OpponentScore  int        `json:"opponent_score"`
	Draws          int        `json:"draws"`
}

// NewResult builds the result for the given seat from the round's record,
// the names indexed by seat and the aggregate oriented as (seat 0, seat 1)
func NewResult(seat model.Seat, rec *model.MatchRecord, names [2]string, score model.Score) *Result {
	mine := score.ForSeat(seat)
	other := seat.Other()
	return &Result{
		Type:           TypeResult,
		YourChoice:     rec.Moves[seat],
		OpponentChoice: rec.Moves[other],
		WinnerText:     rec.Outcome.Describe(names),
		YourName:       names[seat],
		OpponentName:   names[other],
		YourScore:      mine.FirstWins,
		OpponentScore:  mine.SecondWins,
		Draws:          mine.Draws,
	}
}

func (m *Result) MessageType() Type { return TypeResult }

// OpponentDisconnected tells the surviving seat its opponent left
type OpponentDisconnected struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
}

func NewOpponentDisconnected() *OpponentDisconnected {
	return &OpponentDisconnected{Type: TypeOpponentDisconnected, Message: disconnectedText}
}

func (m *OpponentDisconnected) MessageType() Type { return TypeOpponentDisconnected }

// Error reports a server-side failure affecting the recipient
type Error struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
}

func NewError(message string) *Error {
	return &Error{Type: TypeError, Message: message}
}

func (m *Error) MessageType() Type { return TypeError }
