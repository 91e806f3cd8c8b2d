package transport

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsmatch/internal/testutil"
)

type ServerSuite struct {
	suite.Suite
	handler *echoHandler
	server  *Server
	served  chan error
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	s.handler = &echoHandler{}
	cfg := DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0

	server := NewServer(cfg, s.handler, nil, testutil.NopLogger())
	s.Require().NoError(server.Listen())
	served := make(chan error, 1)
	s.server = server
	s.served = served

	// The goroutine outlives this test; it must not read suite fields that
	// the next SetupTest overwrites
	go func() { served <- server.Serve(context.Background()) }()
}

func (s *ServerSuite) TearDownTest() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.server.Shutdown(ctx)
}

func (s *ServerSuite) dial() (net.Conn, *bufio.Reader) {
	conn, err := net.DialTimeout("tcp", s.server.Addr(), time.Second)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })
	return conn, bufio.NewReader(conn)
}

func (s *ServerSuite) TestServesConnections() {
	for _, name := range []string{"Alice", "Bob"} {
		conn, reader := s.dial()
		_, err := conn.Write([]byte(`{"type":"register","name":"` + name + `"}` + "\n"))
		s.Require().NoError(err)

		s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
		line, err := reader.ReadString('\n')
		s.Require().NoError(err)
		s.Contains(line, `"type":"registered"`)
		s.Contains(line, "Welcome "+name)
	}
}

func (s *ServerSuite) TestShutdownClosesLiveConnections() {
	conn, reader := s.dial()
	_, err := conn.Write([]byte(`{"type":"register","name":"Alice"}` + "\n"))
	s.Require().NoError(err)
	_, err = reader.ReadString('\n')
	s.Require().NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Require().NoError(s.server.Shutdown(ctx))

	select {
	case err := <-s.served:
		s.NoError(err)
	case <-time.After(2 * time.Second):
		s.FailNow("accept loop did not stop")
	}
	s.Equal(1, s.handler.ended())

	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, err = reader.ReadString('\n')
	s.Error(err)
}

func (s *ServerSuite) TestListenFailsWhenAddressInUse() {
	host, port, err := net.SplitHostPort(s.server.Addr())
	s.Require().NoError(err)

	cfg := DefaultServerConfig()
	cfg.Host = host
	cfg.Port, err = strconv.Atoi(port)
	s.Require().NoError(err)

	other := NewServer(cfg, s.handler, nil, testutil.NopLogger())
	s.Error(other.Listen())
}
