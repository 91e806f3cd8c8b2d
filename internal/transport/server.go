package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/mcoot/rpsmatch/internal/session"
)

// ConnHandler runs one connection to completion
type ConnHandler interface {
	Serve(ctx context.Context, conn session.Conn)
}

// ConnCloser force-closes every live connection during shutdown
type ConnCloser interface {
	CloseAll()
}

// ServerConfig holds configuration for the game listener
type ServerConfig struct {
	Host         string
	Port         int
	WriteTimeout time.Duration
}

// DefaultServerConfig returns sensible defaults for the game listener
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         5555,
		WriteTimeout: DefaultWriteTimeout,
	}
}

// Server accepts TCP connections and hands each to a ConnHandler on its own
// goroutine
type Server struct {
	config  ServerConfig
	handler ConnHandler
	closer  ConnCloser
	logger  *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[*StreamConn]struct{}
	closing  bool
	wg       sync.WaitGroup
}

// NewServer creates a new game server
func NewServer(config ServerConfig, handler ConnHandler, closer ConnCloser, logger *slog.Logger) *Server {
	return &Server{
		config:  config,
		handler: handler,
		closer:  closer,
		logger:  logger.With(slog.String("component", "tcp")),
		conns:   make(map[*StreamConn]struct{}),
	}
}

// Listen binds the configured address
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("game server listening", slog.String("addr", ln.Addr().String()))
	return nil
}

// Serve runs the accept loop until Shutdown is called. Listen must have
// succeeded first.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("serve called before listen")
	}

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosing() {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				backoff = nextBackoff(backoff)
				s.logger.Warn("accept error; retrying", slog.Duration("backoff", backoff), slog.Any("error", err))
				time.Sleep(backoff)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}
		backoff = 0

		sc := NewStreamConn(conn, s.config.WriteTimeout)
		s.mu.Lock()
		if s.closing {
			s.mu.Unlock()
			_ = sc.Close()
			return nil
		}
		s.conns[sc] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()

		go func() {
			defer s.wg.Done()
			defer s.forget(sc)
			s.handler.Serve(ctx, sc)
		}()
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	if d *= 2; d > time.Second {
		return time.Second
	}
	return d
}

func (s *Server) forget(sc *StreamConn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, sc)
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// Shutdown stops accepting, closes every live connection and waits for the
// handlers to finish or ctx to expire
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	ln := s.listener
	conns := make([]*StreamConn, 0, len(s.conns))
	for sc := range s.conns {
		conns = append(conns, sc)
	}
	s.mu.Unlock()

	s.logger.Info("shutting down game server")
	if ln != nil {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Warn("close listener", slog.Any("error", err))
		}
	}
	// Connections that have not been seated yet are only known here
	for _, sc := range conns {
		_ = sc.Close()
	}
	if s.closer != nil {
		s.closer.CloseAll()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("game server stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown: %w", ctx.Err())
	}
}

// Addr returns the bound address, or the configured one before Listen
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
}
