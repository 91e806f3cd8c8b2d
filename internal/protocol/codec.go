package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mcoot/rpsmatch/internal/model"
)

// MaxMessageSize is the largest encoded message accepted from a peer
const MaxMessageSize = 4096

var (
	ErrMalformed       = errors.New("malformed message")
	ErrUnknownType     = errors.New("unknown message type")
	ErrMessageTooLarge = errors.New("message too large")
)

type envelope struct {
	Type Type `json:"type"`
}

// Decode parses one encoded message and validates its fields
func Decode(data []byte) (Message, error) {
	if len(data) > MaxMessageSize {
		return nil, ErrMessageTooLarge
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var msg Message
	switch env.Type {
	case TypeRegister:
		msg = &Register{}
	case TypeChoice:
		msg = &Choice{}
	case TypeRegistered:
		msg = &Registered{}
	case TypeGameReady:
		msg = &GameReady{}
	case TypeChoiceReceived:
		msg = &ChoiceReceived{}
	case TypeResult:
		msg = &Result{}
	case TypeOpponentDisconnected:
		msg = &OpponentDisconnected{}
	case TypeError:
		msg = &Error{}
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := validate(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func validate(msg Message) error {
	switch m := msg.(type) {
	case *Register:
		m.Name = strings.TrimSpace(m.Name)
		if m.Name == "" {
			return fmt.Errorf("%w: %v", ErrMalformed, model.ErrEmptyName)
		}
	case *Choice:
		move, err := model.ParseMove(string(m.Move))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		m.Move = move
	}
	return nil
}

// Encode serializes a message without a trailing delimiter
func Encode(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	if len(data) > MaxMessageSize {
		return nil, ErrMessageTooLarge
	}
	return data, nil
}
