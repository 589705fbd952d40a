// Package worldnode implements the world-node wire protocol front end: the
// TCP acceptor, the per-connection handshake and framed stream cipher, and
// the opcode dispatcher that hands everything else to the message bus.
package worldnode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/avalon-core/worldnode/internal/bus"
	"github.com/avalon-core/worldnode/internal/config"
	"github.com/avalon-core/worldnode/internal/metrics"
)

// Server accepts world-node connections and drives each through the
// handshake and dispatch state machine.
type Server struct {
	cfg        config.WorldNode
	accounts   AccountLookup
	characters CharacterLookup
	bus        *bus.Bus
	metrics    *metrics.Metrics
	logger     *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewServer builds a Server from its configuration and collaborators. b is
// the shared message bus every connection forwards non-built-in opcodes
// onto; the world handler consumes it.
func NewServer(cfg config.WorldNode, accounts AccountLookup, characters CharacterLookup, b *bus.Bus, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.Default()
	}
	return &Server{
		cfg:        cfg,
		accounts:   accounts,
		characters: characters,
		bus:        b,
		metrics:    m,
		logger:     logger,
	}
}

// Addr returns the listener's bound address, or nil before Run/Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run listens on cfg.BindAddress:cfg.Port and serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	return s.Serve(ctx, ln)
}

// Serve accepts connections from ln until ctx is canceled. Exposed
// separately from Run so tests can serve a listener bound to an ephemeral
// port.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	s.logger.Info("world node listening", "address", ln.Addr())
	s.acceptLoop(ctx, &wg, ln)
	wg.Wait()
	return nil
}

func (s *Server) acceptLoop(ctx context.Context, wg *sync.WaitGroup, ln net.Listener) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		if tcpConn, ok := conn.(*net.TCPConn); ok {
			_ = tcpConn.SetKeepAlive(true)
			_ = tcpConn.SetKeepAlivePeriod(30 * time.Second)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConnection(ctx, conn)
		}()
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	logger := s.logger.With("remote", conn.RemoteAddr().String())

	cfg := connectionConfig{
		sendQueueSize: s.cfg.SendQueueSize,
		writeTimeout:  s.cfg.WriteTimeout,
		readTimeout:   s.cfg.ReadTimeout,
	}

	c, err := newConnection(conn, cfg, s.accounts, s.characters, s.bus, s.metrics, logger)
	if err != nil {
		logger.Error("failed to initialize connection", "error", err)
		return
	}

	if s.metrics != nil {
		s.metrics.RecordConnect()
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.close("shutdown")
		case <-done:
		}
	}()
	defer c.close("eof")

	if err := c.sendChallenge(); err != nil {
		logger.Warn("failed to send auth challenge", "error", err)
		return
	}

	go c.writePump()

	logger.Info("world node connection established")
	c.readLoop(ctx)
}
