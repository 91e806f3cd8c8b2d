package session

import "github.com/mcoot/rpsmatch/internal/protocol"

// Conn is one client's bidirectional message channel. Send must be safe to
// call concurrently with Receive, and Close must be idempotent.
type Conn interface {
	ID() string
	RemoteAddr() string
	Receive() (protocol.Message, error)
	Send(msg protocol.Message) error
	Close() error
}
