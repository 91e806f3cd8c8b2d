package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsmatch/internal/dependencies/clock"
	"github.com/mcoot/rpsmatch/internal/dependencies/mocks"
	"github.com/mcoot/rpsmatch/internal/events"
	"github.com/mcoot/rpsmatch/internal/model"
	"github.com/mcoot/rpsmatch/internal/protocol"
	"github.com/mcoot/rpsmatch/internal/storage/memory"
	"github.com/mcoot/rpsmatch/internal/testutil"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type HandlerSuite struct {
	suite.Suite
	ledger   *flakyLedger
	registry *Registry
	handler  *Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ledger = &flakyLedger{Ledger: memory.New()}
	s.registry = NewRegistry(mocks.NewMockRandom(), testutil.NopLogger())
	coordinator := NewCoordinator(s.ledger, s.registry, clock.New(), events.NopPublisher{}, testutil.NopLogger())
	s.handler = NewHandler(coordinator, testutil.NopLogger())
}

// serve runs the handler for conn and returns a channel closed when it exits
func (s *HandlerSuite) serve(conn *fakeConn) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.handler.Serve(context.Background(), conn)
	}()
	return done
}

func (s *HandlerSuite) waitDone(done <-chan struct{}) {
	select {
	case <-done:
	case <-time.After(waitFor):
		s.FailNow("handler did not exit")
	}
}

func (s *HandlerSuite) waitForCount(count func() int, want int, what string) {
	s.Eventually(func() bool { return count() >= want }, waitFor, tick, what)
}

func (s *HandlerSuite) TestFullSession() {
	alice, bob := newFakeConn("alice"), newFakeConn("bob")
	aliceDone := s.serve(alice)
	s.Eventually(func() bool { return s.registry.Len() == 1 }, waitFor, tick)
	bobDone := s.serve(bob)

	alice.push(protocol.NewRegister("Alice"))
	bob.push(protocol.NewRegister("Bob"))
	s.waitForCount(func() int { return len(sentOf[*protocol.GameReady](alice)) }, 1, "alice ready")
	s.waitForCount(func() int { return len(sentOf[*protocol.GameReady](bob)) }, 1, "bob ready")

	alice.push(protocol.NewChoice(model.MoveRock))
	bob.push(protocol.NewChoice(model.MoveScissors))
	s.waitForCount(func() int { return len(sentOf[*protocol.Result](alice)) }, 1, "alice result")
	s.waitForCount(func() int { return len(sentOf[*protocol.Result](bob)) }, 1, "bob result")

	result := lastOf[*protocol.Result](bob)
	s.Equal(0, result.YourScore)
	s.Equal(1, result.OpponentScore)

	_ = alice.Close()
	s.waitDone(aliceDone)
	s.waitForCount(func() int { return len(sentOf[*protocol.OpponentDisconnected](bob)) }, 1, "bob notified")
	s.Equal(1, s.registry.Len())

	_ = bob.Close()
	s.waitDone(bobDone)
	s.Equal(0, s.registry.Len())
}

func (s *HandlerSuite) TestNonRegisterFirstMessageEndsConnection() {
	conn := newFakeConn("c")
	done := s.serve(conn)

	conn.push(protocol.NewChoice(model.MoveRock))
	s.waitDone(done)

	s.True(conn.isClosed())
	s.Empty(conn.messages())
	s.Equal(0, s.registry.Len())
}

func (s *HandlerSuite) TestMalformedMessageEndsConnection() {
	conn := newFakeConn("c")
	done := s.serve(conn)

	conn.push(protocol.NewRegister("Alice"))
	conn.pushErr(protocol.ErrMalformed)
	s.waitDone(done)

	s.True(conn.isClosed())
	s.Len(sentOf[*protocol.Registered](conn), 1)
}

func (s *HandlerSuite) TestRegistrationFailureSendsError() {
	s.ledger.set(func(l *flakyLedger) { l.failRegister = true })
	conn := newFakeConn("c")
	done := s.serve(conn)

	conn.push(protocol.NewRegister("Alice"))
	s.waitDone(done)

	s.Len(sentOf[*protocol.Error](conn), 1)
	s.True(conn.isClosed())
	s.Equal(0, s.registry.Len())
}

func (s *HandlerSuite) TestNameClashKeepsConnectionOpen() {
	alice, twin := newFakeConn("alice"), newFakeConn("twin")
	aliceDone := s.serve(alice)
	s.Eventually(func() bool { return s.registry.Len() == 1 }, waitFor, tick)
	twinDone := s.serve(twin)

	alice.push(protocol.NewRegister("Alice"))
	s.waitForCount(func() int { return len(sentOf[*protocol.Registered](alice)) }, 1, "alice registered")

	twin.push(protocol.NewRegister("Alice"))
	s.waitForCount(func() int { return len(sentOf[*protocol.Error](twin)) }, 1, "twin told name is taken")
	s.Contains(lastOf[*protocol.Error](twin).Message, "Alice is already playing")
	s.False(twin.isClosed())

	twin.push(protocol.NewRegister("Bob"))
	s.waitForCount(func() int { return len(sentOf[*protocol.GameReady](alice)) }, 1, "alice ready")
	s.Equal("Bob", lastOf[*protocol.GameReady](alice).OpponentName)

	_ = alice.Close()
	_ = twin.Close()
	s.waitDone(aliceDone)
	s.waitDone(twinDone)
	s.Equal(0, s.registry.Len())
}

func (s *HandlerSuite) TestIgnoredMovesKeepConnectionOpen() {
	conn := newFakeConn("c")
	done := s.serve(conn)

	conn.push(protocol.NewRegister("Alice"))
	conn.push(protocol.NewChoice(model.MoveRock))
	conn.push(protocol.NewRegister("Alicia"))
	s.waitForCount(func() int { return len(sentOf[*protocol.Registered](conn)) }, 2, "re-registered")

	s.Empty(sentOf[*protocol.ChoiceReceived](conn))
	s.False(conn.isClosed())

	_ = conn.Close()
	s.waitDone(done)
}
