package worldnode

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/avalon-core/worldnode/internal/bignum"
	"github.com/avalon-core/worldnode/internal/bus"
	"github.com/avalon-core/worldnode/internal/opcode"
	"github.com/avalon-core/worldnode/internal/worldnode/clientpackets"
	"github.com/avalon-core/worldnode/internal/wowcrypto"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConnection(t *testing.T, serverConn net.Conn, accounts AccountLookup, characters CharacterLookup) *Connection {
	t.Helper()
	return &Connection{
		conn:         serverConn,
		remoteAddr:   "test",
		logger:       discardLogger(),
		cipher:       wowcrypto.New(),
		opcodeMax:    opcode.OPCODEMax,
		sendCh:       make(chan outboundFrame, 16),
		verifyCh:     make(chan verifyOutcome, 1),
		closeCh:      make(chan struct{}),
		writeTimeout: time.Second,
		readTimeout:  time.Second,
		accounts:     accounts,
		characters:   characters,
		bus:          bus.New(16),
	}
}

// Fixed seed1/seed2/conn_seed must produce exact, reproducible
// SMSG_AUTH_CHALLENGE payload bytes.
func TestSendChallenge_ExactBytes(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	c := newTestConnection(t, serverConn, nil, nil)
	c.connSeed = 0xDEADBEEF
	for i := 0; i < 16; i++ {
		c.seed1[i] = byte(i)
		c.seed2[i] = byte(i + 0x10)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- c.sendChallenge() }()

	// RESUME_COMMS: empty payload, server header is 4 bytes (size=2).
	resumeHeader := make([]byte, 4)
	if _, err := io.ReadFull(clientConn, resumeHeader); err != nil {
		t.Fatalf("reading RESUME_COMMS header: %v", err)
	}
	if size := binary.BigEndian.Uint16(resumeHeader[0:2]); size != 2 {
		t.Fatalf("RESUME_COMMS size = %d, want 2", size)
	}

	challengeHeader := make([]byte, 4)
	if _, err := io.ReadFull(clientConn, challengeHeader); err != nil {
		t.Fatalf("reading AUTH_CHALLENGE header: %v", err)
	}
	bodySize := int(binary.BigEndian.Uint16(challengeHeader[0:2])) - 2
	body := make([]byte, bodySize)
	if _, err := io.ReadFull(clientConn, body); err != nil {
		t.Fatalf("reading AUTH_CHALLENGE body: %v", err)
	}

	wantBody, err := hex.DecodeString("01000000EFBEADDE000102030405060708090A0B0C0D0E0F101112131415161718191A1B1C1D1E1F")
	if err != nil {
		t.Fatalf("decoding expected hex: %v", err)
	}
	if !bytes.Equal(body, wantBody) {
		t.Fatalf("AUTH_CHALLENGE body = %X, want %X", body, wantBody)
	}

	if err := <-errCh; err != nil {
		t.Fatalf("sendChallenge: %v", err)
	}
	if c.phaseValue() != PhaseAwaitingAuth {
		t.Fatalf("phase = %v, want AWAITING_AUTH", c.phaseValue())
	}
}

// PING must be answered with PONG{u32 0} queued for the write pump.
func TestHandlePing_QueuesPong(t *testing.T) {
	serverConn, _ := net.Pipe()
	defer serverConn.Close()
	c := newTestConnection(t, serverConn, nil, nil)

	if err := c.handlePing(); err != nil {
		t.Fatalf("handlePing: %v", err)
	}

	select {
	case f := <-c.sendCh:
		if f.opcode != opcode.SMSGPong {
			t.Fatalf("opcode = %#x, want SMSG_PONG", f.opcode)
		}
		if len(f.payload) != 4 || binary.LittleEndian.Uint32(f.payload) != 0 {
			t.Fatalf("payload = %x, want 4 zero bytes", f.payload)
		}
	default:
		t.Fatal("expected a queued PONG frame")
	}
}

type fakeAccounts struct {
	accountID     uint32
	sessionKeyHex string
	err           error
}

func (f *fakeAccounts) SessionKeyByUsername(ctx context.Context, username string) (uint32, string, error) {
	if f.err != nil {
		return 0, "", f.err
	}
	return f.accountID, f.sessionKeyHex, nil
}

type fakeCharacters struct {
	guid uint64
	err  error
}

func (f *fakeCharacters) OnlineCharacterGUID(ctx context.Context, accountID uint32) (uint64, error) {
	return f.guid, f.err
}

// A digest computed over the exact update sequence the client uses must
// authenticate the connection and produce AUTH_RESPONSE with AUTH_OK.
func TestVerifyAuthSession_SuccessfulDigest(t *testing.T) {
	serverConn, _ := net.Pipe()
	defer serverConn.Close()

	sessionKey := bignum.FromBytes(bytes.Repeat([]byte{0xAB}, 10))
	accounts := &fakeAccounts{accountID: 42, sessionKeyHex: sessionKey.String()}
	characters := &fakeCharacters{err: errors.New("no online character")}

	c := newTestConnection(t, serverConn, accounts, characters)
	c.connSeed = 0xDEADBEEF
	c.setPhase(PhaseAwaitingAuth)

	digest := authSessionDigest("TESTER", 0x11223344, c.connSeed, sessionKey)
	parsed := &clientpackets.AuthSession{
		AccountName:    "TESTER",
		LocalChallenge: 0x11223344,
		Digest:         digest,
	}

	// Run the verification and consume its outcome the way the read loop
	// does between two header reads.
	c.verifyAuthSession(context.Background(), parsed, time.Now())
	if err := c.awaitVerification(context.Background()); err != nil {
		t.Fatalf("awaitVerification: %v", err)
	}

	if c.Account() != 42 {
		t.Fatalf("account = %d, want 42", c.Account())
	}
	if c.phaseValue() != PhaseAuthenticated {
		t.Fatalf("phase = %v, want AUTHENTICATED", c.phaseValue())
	}
	if !c.cipher.IsActive() {
		t.Fatal("cipher must be active after successful handshake")
	}

	f := <-c.sendCh
	if f.opcode != opcode.SMSGAuthResponse {
		t.Fatalf("first post-auth frame opcode = %#x, want SMSG_AUTH_RESPONSE", f.opcode)
	}
	if f.payload[0] != opcode.AuthOK {
		t.Fatalf("AUTH_RESPONSE first byte = %d, want AUTH_OK", f.payload[0])
	}
}

// A flipped digest byte must close the connection
// without ever queuing AUTH_RESPONSE.
func TestVerifyAuthSession_DigestMismatchNeverAuthenticates(t *testing.T) {
	serverConn, _ := net.Pipe()
	defer serverConn.Close()

	sessionKey := bignum.FromBytes(bytes.Repeat([]byte{0xCD}, 10))
	accounts := &fakeAccounts{accountID: 7, sessionKeyHex: sessionKey.String()}

	c := newTestConnection(t, serverConn, accounts, &fakeCharacters{err: errors.New("none")})
	c.connSeed = 0xDEADBEEF
	c.setPhase(PhaseAwaitingAuth)

	digest := authSessionDigest("TESTER", 0x11223344, c.connSeed, sessionKey)
	digest[0] ^= 0xFF // flip one byte

	parsed := &clientpackets.AuthSession{AccountName: "TESTER", LocalChallenge: 0x11223344, Digest: digest}
	c.verifyAuthSession(context.Background(), parsed, time.Now())
	if err := c.awaitVerification(context.Background()); !errors.Is(err, ErrDigestMismatch) {
		t.Fatalf("awaitVerification err = %v, want ErrDigestMismatch", err)
	}

	if c.Account() != 0 {
		t.Fatalf("account = %d, want 0 (never authenticated)", c.Account())
	}
	if c.phaseValue() != PhaseClosed {
		t.Fatalf("phase = %v, want CLOSED", c.phaseValue())
	}
	select {
	case f := <-c.sendCh:
		t.Fatalf("no frame should be queued on digest mismatch, got opcode %#x", f.opcode)
	default:
	}
}

// A redirect proof carries no addon blob but must finish the same way:
// cipher active, account set, AUTH_RESPONSE first in the queue.
func TestVerifyRedirectProof_SuccessfulDigest(t *testing.T) {
	serverConn, _ := net.Pipe()
	defer serverConn.Close()

	sessionKey := bignum.FromBytes(bytes.Repeat([]byte{0x5A}, 12))
	accounts := &fakeAccounts{accountID: 17, sessionKeyHex: sessionKey.String()}

	c := newTestConnection(t, serverConn, accounts, &fakeCharacters{err: errors.New("none")})
	c.connSeed = 0xCAFEBABE
	c.setPhase(PhaseAwaitingAuth)

	digest := redirectProofDigest("TESTER", sessionKey, c.connSeed)
	parsed := &clientpackets.RedirectClientProof{Username: "TESTER", Digest: digest}

	c.verifyRedirectProof(context.Background(), parsed, time.Now())
	if err := c.awaitVerification(context.Background()); err != nil {
		t.Fatalf("awaitVerification: %v", err)
	}

	if c.Account() != 17 {
		t.Fatalf("account = %d, want 17", c.Account())
	}
	if !c.cipher.IsActive() {
		t.Fatal("cipher must be active after successful redirect proof")
	}
	f := <-c.sendCh
	if f.opcode != opcode.SMSGAuthResponse {
		t.Fatalf("first post-auth frame opcode = %#x, want SMSG_AUTH_RESPONSE", f.opcode)
	}
}

// An opcode with no built-in handler becomes
// exactly one FORWARD_PACKET message carrying the authenticated account id
// and the payload verbatim.
func TestForwardPacket_NonBuiltinOpcode(t *testing.T) {
	serverConn, _ := net.Pipe()
	defer serverConn.Close()
	c := newTestConnection(t, serverConn, nil, nil)
	c.accountID.Store(99)
	c.setPhase(PhaseAuthenticated)

	payload := []byte{0xAA, 0xBB, 0xCC}
	if err := c.forwardPacket(opcode.CMSGNameQuery, payload); err != nil {
		t.Fatalf("forwardPacket: %v", err)
	}

	msg := <-c.bus.Messages()
	if msg.Account != 99 {
		t.Fatalf("forwarded account = %d, want 99", msg.Account)
	}
	if msg.Opcode != uint16(opcode.CMSGNameQuery) {
		t.Fatalf("forwarded opcode = %#x, want CMSG_NAME_QUERY", msg.Opcode)
	}
	if !bytes.Equal(msg.Payload, payload) {
		t.Fatalf("forwarded payload = %x, want %x", msg.Payload, payload)
	}

	select {
	case <-c.bus.Messages():
		t.Fatal("expected exactly one forwarded message")
	default:
	}
}

// A declared frame size above the maximum must
// close the connection before any further frame is accepted.
func TestReadLoop_OversizedFrameStopsReading(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	c := newTestConnection(t, serverConn, nil, nil)

	done := make(chan struct{})
	go func() {
		c.readLoop(context.Background())
		close(done)
	}()

	header := make([]byte, 6)
	binary.BigEndian.PutUint16(header[0:2], 20000)
	binary.LittleEndian.PutUint32(header[2:6], opcode.CMSGPing)
	go clientConn.Write(header)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("readLoop did not return after an oversized frame")
	}
}
