// Package realmlist implements the realm (server-list) endpoint: a thin TCP
// responder that writes the configured realm catalog to every connection
// and closes it. It shares nothing with the world node's protocol machinery
// beyond the byte buffer; clients talk to it before they ever hold a
// session key.
package realmlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/avalon-core/worldnode/internal/buffer"
	"github.com/avalon-core/worldnode/internal/config"
)

const writeTimeout = 5 * time.Second

// Server serves the realm catalog.
type Server struct {
	cfg    config.RealmNode
	logger *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewServer builds a Server from its configuration.
func NewServer(cfg config.RealmNode, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, logger: logger}
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

// Serve accepts connections from ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.logger.Info("realm list listening", "address", ln.Addr(), "realms", len(s.cfg.Realms))

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				wg.Wait()
				return nil
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.respond(conn)
		}()
	}
}

// respond writes the whole catalog and closes. Realm-list clients are
// one-shot: there is no request to parse.
func (s *Server) respond(conn net.Conn) {
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return
	}
	if _, err := conn.Write(Catalog(s.cfg.Realms)); err != nil {
		s.logger.Debug("realm list write failed", "remote", conn.RemoteAddr(), "error", err)
	}
}

// Catalog serializes the realm entries: a u8 count, then per realm a u32
// id, the name as a NUL-terminated string, the address as a NUL-terminated
// "host:port" string.
func Catalog(realms []config.RealmEntry) []byte {
	b := buffer.New(1 + len(realms)*32)
	b.WriteUint8(uint8(len(realms)))
	for _, r := range realms {
		b.WriteUint32(uint32(r.ID))
		b.WriteCString(r.Name)
		b.WriteCString(fmt.Sprintf("%s:%d", r.Host, r.Port))
	}
	return b.Bytes()
}
