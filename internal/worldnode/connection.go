package worldnode

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avalon-core/worldnode/internal/bignum"
	"github.com/avalon-core/worldnode/internal/bus"
	"github.com/avalon-core/worldnode/internal/metrics"
	"github.com/avalon-core/worldnode/internal/opcode"
	"github.com/avalon-core/worldnode/internal/protocol"
	"github.com/avalon-core/worldnode/internal/worldnode/serverpackets"
	"github.com/avalon-core/worldnode/internal/wowcrypto"
)

// AccountLookup resolves the session key an upstream auth server stored for
// an account, the one piece of account persistence the handshake needs.
// *db.AccountRepository satisfies this; tests supply a fake.
type AccountLookup interface {
	SessionKeyByUsername(ctx context.Context, username string) (accountID uint32, sessionKeyHex string, err error)
}

// CharacterLookup resolves the online character guid consulted during the
// post-auth preamble. *db.CharacterRepository satisfies this.
type CharacterLookup interface {
	OnlineCharacterGUID(ctx context.Context, accountID uint32) (uint64, error)
}

// Phase is the connection's position in the handshake state machine:
// UNVERIFIED -> CHALLENGE_SENT -> AWAITING_AUTH -> AUTH_VERIFYING ->
// AUTHENTICATED -> CLOSED.
type Phase int32

const (
	PhaseUnverified Phase = iota
	PhaseChallengeSent
	PhaseAwaitingAuth
	PhaseAuthVerifying
	PhaseAuthenticated
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseUnverified:
		return "UNVERIFIED"
	case PhaseChallengeSent:
		return "CHALLENGE_SENT"
	case PhaseAwaitingAuth:
		return "AWAITING_AUTH"
	case PhaseAuthVerifying:
		return "AUTH_VERIFYING"
	case PhaseAuthenticated:
		return "AUTHENTICATED"
	case PhaseClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

const (
	defaultSendQueueSize = 256
	defaultWriteTimeout  = 5 * time.Second
	defaultReadTimeout   = 120 * time.Second
)

// outboundFrame is one queued server frame awaiting the write pump.
type outboundFrame struct {
	opcode  uint16
	payload []byte
}

// Connection is one accepted world-node socket: the per-connection cipher,
// handshake seeds, and authentication state. Every field touched from both
// the read loop and an async DB callback is atomic or guarded so the two
// never race.
type Connection struct {
	conn       net.Conn
	remoteAddr string
	logger     *slog.Logger

	cipher   *wowcrypto.Cipher
	seed1    [16]byte
	seed2    [16]byte
	connSeed uint32

	opcodeMax uint32

	phase      atomic.Int32
	accountID  atomic.Uint32
	generation atomic.Uint64

	mu         sync.Mutex
	sessionKey *bignum.BigNumber

	sendCh    chan outboundFrame
	verifyCh  chan verifyOutcome
	closeCh   chan struct{}
	closeOnce sync.Once

	writeTimeout time.Duration
	readTimeout  time.Duration

	accounts   AccountLookup
	characters CharacterLookup
	bus        *bus.Bus
	metrics    *metrics.Metrics
}

// connectionConfig carries the per-connection knobs server.go resolves
// from config.WorldNode before constructing a Connection.
type connectionConfig struct {
	sendQueueSize int
	writeTimeout  time.Duration
	readTimeout   time.Duration
	opcodeMax     uint32
}

// newConnection allocates a Connection in PhaseUnverified with fresh random
// seeds. It does not touch the network until sendChallenge is called.
func newConnection(conn net.Conn, cfg connectionConfig, accounts AccountLookup, characters CharacterLookup, b *bus.Bus, m *metrics.Metrics, logger *slog.Logger) (*Connection, error) {
	seed1, err := bignum.Rand(128)
	if err != nil {
		return nil, fmt.Errorf("generating seed1: %w", err)
	}
	seed2, err := bignum.Rand(128)
	if err != nil {
		return nil, fmt.Errorf("generating seed2: %w", err)
	}
	connSeedBN, err := bignum.Rand(32)
	if err != nil {
		return nil, fmt.Errorf("generating connection seed: %w", err)
	}

	if cfg.sendQueueSize <= 0 {
		cfg.sendQueueSize = defaultSendQueueSize
	}
	if cfg.writeTimeout <= 0 {
		cfg.writeTimeout = defaultWriteTimeout
	}
	if cfg.readTimeout <= 0 {
		cfg.readTimeout = defaultReadTimeout
	}
	if cfg.opcodeMax == 0 {
		cfg.opcodeMax = opcode.OPCODEMax
	}

	c := &Connection{
		conn:         conn,
		remoteAddr:   conn.RemoteAddr().String(),
		logger:       logger,
		cipher:       wowcrypto.New(),
		connSeed:     bytesToUint32(connSeedBN.Bytes(4)),
		opcodeMax:    cfg.opcodeMax,
		sendCh:       make(chan outboundFrame, cfg.sendQueueSize),
		verifyCh:     make(chan verifyOutcome, 1),
		closeCh:      make(chan struct{}),
		writeTimeout: cfg.writeTimeout,
		readTimeout:  cfg.readTimeout,
		accounts:     accounts,
		characters:   characters,
		bus:          b,
		metrics:      m,
	}
	copy(c.seed1[:], seed1.Bytes(16))
	copy(c.seed2[:], seed2.Bytes(16))
	c.phase.Store(int32(PhaseUnverified))
	return c, nil
}

func bytesToUint32(b []byte) uint32 {
	var v uint32
	for _, x := range b {
		v = v<<8 | uint32(x)
	}
	return v
}

// Account implements bus.ConnectionHandle.
func (c *Connection) Account() uint32 { return c.accountID.Load() }

// Generation implements bus.ConnectionHandle.
func (c *Connection) Generation() uint64 { return c.generation.Load() }

// Send implements bus.ConnectionHandle: enqueues an outbound frame without
// blocking. Returns false if the connection is closed or its send queue is
// full.
func (c *Connection) Send(op uint16, payload []byte) bool {
	select {
	case <-c.closeCh:
		return false
	default:
	}
	select {
	case c.sendCh <- outboundFrame{opcode: op, payload: payload}:
		return true
	default:
		return false
	}
}

func (c *Connection) phaseValue() Phase { return Phase(c.phase.Load()) }

func (c *Connection) setPhase(p Phase) { c.phase.Store(int32(p)) }

// casPhase atomically transitions from "from" to "to", reporting whether
// the transition happened. Guards AUTH_SESSION/REDIRECT_CLIENT_PROOF
// against driving the handshake twice concurrently.
func (c *Connection) casPhase(from, to Phase) bool {
	return c.phase.CompareAndSwap(int32(from), int32(to))
}

// setSessionKey stores the session key recovered from the accounts table.
// Written exactly once, by completeHandshake on the read-loop goroutine.
func (c *Connection) setSessionKey(k *bignum.BigNumber) {
	c.mu.Lock()
	c.sessionKey = k
	c.mu.Unlock()
}

// close tears down the socket and write pump exactly once, advancing the
// generation counter so any in-flight bus message stamped with an older
// generation recognizes this connection as stale. Closing closeCh also makes
// an in-flight DB verification drop its outcome.
func (c *Connection) close(reason string) {
	c.closeOnce.Do(func() {
		c.setPhase(PhaseClosed)
		c.generation.Add(1)
		close(c.closeCh)
		c.conn.Close()
		if c.metrics != nil {
			c.metrics.RecordDisconnect(reason)
		}
	})
}

// writePump owns every write to conn: it serializes outbound frames so
// sends on one connection are strictly ordered.
func (c *Connection) writePump() {
	for {
		select {
		case <-c.closeCh:
			return
		case f, ok := <-c.sendCh:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				c.logger.Warn("set write deadline failed", "remote", c.remoteAddr, "error", err)
				return
			}
			if err := protocol.WriteServerFrame(c.conn, c.cipher, f.opcode, f.payload); err != nil {
				c.logger.Warn("write frame failed", "remote", c.remoteAddr, "opcode", f.opcode, "error", err)
				return
			}
		}
	}
}

// sendChallenge emits the two fixed initial server frames over the
// pass-through cipher and transitions to CHALLENGE_SENT. Sent
// synchronously, ahead of the write pump, so no other frame can race it
// onto the wire first.
func (c *Connection) sendChallenge() error {
	resume := serverpackets.ResumeComms{}
	if err := protocol.WriteServerFrame(c.conn, c.cipher, opcode.SMSGResumeComms, resume.Write()); err != nil {
		return fmt.Errorf("sending RESUME_COMMS: %w", err)
	}

	challenge := serverpackets.AuthChallenge{
		ConnSeed: c.connSeed,
		Seed1:    c.seed1,
		Seed2:    c.seed2,
	}
	if err := protocol.WriteServerFrame(c.conn, c.cipher, opcode.SMSGAuthChallenge, challenge.Write()); err != nil {
		return fmt.Errorf("sending AUTH_CHALLENGE: %w", err)
	}
	c.setPhase(PhaseChallengeSent)
	c.setPhase(PhaseAwaitingAuth)
	return nil
}

// readLoop drives the connection until a fatal error or close, dispatching
// every frame through handlePacket. While a session verification is in
// flight it waits for the outcome before reading the next header: the
// cipher transition must happen here, between two frames, so an encrypted
// header is never decoded with the pass-through cipher.
func (c *Connection) readLoop(ctx context.Context) {
	for {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			c.logger.Debug("set read deadline failed", "remote", c.remoteAddr, "error", err)
			return
		}
		header, body, err := protocol.ReadClientFrame(c.conn, c.cipher, c.opcodeMax)
		if err != nil {
			c.logger.Debug("client frame read ended", "remote", c.remoteAddr, "error", err)
			c.close(string(errorKind(err)))
			return
		}
		if err := c.handlePacket(ctx, header, body); err != nil {
			c.logger.Debug("client frame handling ended connection", "remote", c.remoteAddr, "error", err)
			c.close(string(errorKind(err)))
			return
		}
		if c.phaseValue() == PhaseAuthVerifying {
			if err := c.awaitVerification(ctx); err != nil {
				c.logger.Debug("session verification ended connection", "remote", c.remoteAddr, "error", err)
				return
			}
		}
	}
}
