package session

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/mcoot/rpsmatch/internal/model"
	"github.com/mcoot/rpsmatch/internal/protocol"
	"github.com/mcoot/rpsmatch/internal/storage"
)

type inbound struct {
	msg protocol.Message
	err error
}

// fakeConn records sent messages and replays queued inbound messages
type fakeConn struct {
	id    string
	inbox chan inbound

	mu      sync.Mutex
	sent    []protocol.Message
	sendErr error

	closeOnce sync.Once
	done      chan struct{}
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{
		id:    id,
		inbox: make(chan inbound, 16),
		done:  make(chan struct{}),
	}
}

func (c *fakeConn) ID() string         { return c.id }
func (c *fakeConn) RemoteAddr() string { return "fake/" + c.id }

func (c *fakeConn) Receive() (protocol.Message, error) {
	select {
	case in := <-c.inbox:
		return in.msg, in.err
	case <-c.done:
		return nil, io.EOF
	}
}

func (c *fakeConn) Send(msg protocol.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *fakeConn) push(msg protocol.Message) {
	c.inbox <- inbound{msg: msg}
}

func (c *fakeConn) pushErr(err error) {
	c.inbox <- inbound{err: err}
}

func (c *fakeConn) failSends(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErr = err
}

func (c *fakeConn) messages() []protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]protocol.Message(nil), c.sent...)
}

// sentOf returns every message of type T the connection has been sent
func sentOf[T protocol.Message](c *fakeConn) []T {
	var out []T
	for _, m := range c.messages() {
		if t, ok := m.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// lastOf returns the most recent message of type T, or the zero value
func lastOf[T protocol.Message](c *fakeConn) T {
	all := sentOf[T](c)
	var zero T
	if len(all) == 0 {
		return zero
	}
	return all[len(all)-1]
}

var errLedgerDown = errors.New("ledger unavailable")

// flakyLedger wraps a real ledger and fails selected operations on demand
type flakyLedger struct {
	storage.Ledger

	mu             sync.Mutex
	failRegister   bool
	failRecord     bool
	failAggregates bool
}

func (l *flakyLedger) set(fn func(l *flakyLedger)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l)
}

func (l *flakyLedger) RegisterOrFetchPlayer(ctx context.Context, name string) (model.PlayerID, error) {
	l.mu.Lock()
	fail := l.failRegister
	l.mu.Unlock()
	if fail {
		return 0, errLedgerDown
	}
	return l.Ledger.RegisterOrFetchPlayer(ctx, name)
}

func (l *flakyLedger) RecordMatch(ctx context.Context, rec *model.MatchRecord) error {
	l.mu.Lock()
	fail := l.failRecord
	l.mu.Unlock()
	if fail {
		return errLedgerDown
	}
	return l.Ledger.RecordMatch(ctx, rec)
}

func (l *flakyLedger) AggregateScore(ctx context.Context, a, b model.PlayerID) (model.Score, error) {
	l.mu.Lock()
	fail := l.failAggregates
	l.mu.Unlock()
	if fail {
		return model.Score{}, errLedgerDown
	}
	return l.Ledger.AggregateScore(ctx, a, b)
}

// recordingPublisher captures published matches
type recordingPublisher struct {
	mu      sync.Mutex
	records []*model.MatchRecord
}

func (p *recordingPublisher) PublishMatch(_ context.Context, rec *model.MatchRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, rec)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []*model.MatchRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*model.MatchRecord(nil), p.records...)
}
