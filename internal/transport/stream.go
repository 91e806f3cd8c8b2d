package transport

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/rpsmatch/internal/protocol"
	"github.com/mcoot/rpsmatch/internal/session"
)

// DefaultWriteTimeout bounds a single send to a slow or stalled peer
const DefaultWriteTimeout = 10 * time.Second

// StreamConn speaks newline-delimited JSON over a byte stream
type StreamConn struct {
	conn         net.Conn
	id           string
	reader       *bufio.Reader
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Ensure StreamConn implements session.Conn
var _ session.Conn = (*StreamConn)(nil)

// NewStreamConn wraps conn. A zero writeTimeout disables write deadlines.
func NewStreamConn(conn net.Conn, writeTimeout time.Duration) *StreamConn {
	return &StreamConn{
		conn: conn,
		id:   uuid.NewString(),
		// One extra byte for the delimiter
		reader:       bufio.NewReaderSize(conn, protocol.MaxMessageSize+1),
		writeTimeout: writeTimeout,
	}
}

func (c *StreamConn) ID() string {
	return c.id
}

func (c *StreamConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Receive blocks for the next message. Blank lines are skipped.
func (c *StreamConn) Receive() (protocol.Message, error) {
	for {
		line, err := c.reader.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			return nil, protocol.ErrMessageTooLarge
		}
		if err != nil {
			return nil, err
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		return protocol.Decode(line)
	}
}

// Send writes one message followed by a newline. Safe for concurrent use.
func (c *StreamConn) Send(msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	_, err = c.conn.Write(data)
	return err
}

// Close closes the underlying connection; later calls return the first result
func (c *StreamConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
