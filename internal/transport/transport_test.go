package transport

import (
	"context"
	"sync"

	"github.com/mcoot/rpsmatch/internal/model"
	"github.com/mcoot/rpsmatch/internal/protocol"
	"github.com/mcoot/rpsmatch/internal/session"
)

// echoHandler answers every register with a registered message and records
// how each connection ended
type echoHandler struct {
	mu     sync.Mutex
	names  []string
	errors []error
}

func (h *echoHandler) Serve(_ context.Context, conn session.Conn) {
	defer func() { _ = conn.Close() }()
	for {
		msg, err := conn.Receive()
		if err != nil {
			h.mu.Lock()
			h.errors = append(h.errors, err)
			h.mu.Unlock()
			return
		}
		if reg, ok := msg.(*protocol.Register); ok {
			h.mu.Lock()
			h.names = append(h.names, reg.Name)
			h.mu.Unlock()
			_ = conn.Send(protocol.NewRegistered(model.Seat0, "ROOM01", 1, reg.Name))
		}
	}
}

func (h *echoHandler) ended() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.errors)
}
