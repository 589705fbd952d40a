package worldnode

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/avalon-core/worldnode/internal/bignum"
	"github.com/avalon-core/worldnode/internal/buffer"
	"github.com/avalon-core/worldnode/internal/bus"
	"github.com/avalon-core/worldnode/internal/db"
	"github.com/avalon-core/worldnode/internal/opcode"
	"github.com/avalon-core/worldnode/internal/worldnode/clientpackets"
	"github.com/avalon-core/worldnode/internal/worldnode/serverpackets"
	"github.com/avalon-core/worldnode/internal/wowcrypto"
)

// sessionKeyWidth is the fixed big-endian serialization width fed into
// every digest and cipher-key derivation. The upstream auth server stores
// session keys at this width; changing it would require re-deriving every
// stored key, so it is a constant rather than a config field.
const sessionKeyWidth = 40

// authSessionDigest reproduces the client's AUTH_SESSION proof:
//
//	sha.update(account_name)
//	sha.update(u32 0)
//	sha.update(u32 local_challenge, LE)
//	sha.update(u32 conn_seed, LE)
//	sha.update_bignum(40, session_key)
func authSessionDigest(accountName string, localChallenge, connSeed uint32, sessionKey *bignum.BigNumber) [20]byte {
	h := wowcrypto.NewHasher()
	h.Update([]byte(accountName))

	var zero [4]byte
	h.Update(zero[:])

	var tmp [4]byte
	putUint32LE(tmp[:], localChallenge)
	h.Update(tmp[:])
	putUint32LE(tmp[:], connSeed)
	h.Update(tmp[:])

	h.UpdateBigNum(sessionKeyWidth, sessionKey)
	return h.Sum()
}

// redirectProofDigest reproduces the REDIRECT_CLIENT_PROOF check,
// symmetrical to AUTH_SESSION:
//
//	sha.update(username)
//	sha.update_bignum(40, session_key)
//	sha.update(u32 conn_seed, LE)
func redirectProofDigest(username string, sessionKey *bignum.BigNumber, connSeed uint32) [20]byte {
	h := wowcrypto.NewHasher()
	h.Update([]byte(username))
	h.UpdateBigNum(sessionKeyWidth, sessionKey)

	var tmp [4]byte
	putUint32LE(tmp[:], connSeed)
	h.Update(tmp[:])
	return h.Sum()
}

func putUint32LE(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
}

// verifyOutcome is the result of an asynchronous session verification,
// handed back to the read loop over verifyCh. The goroutine doing the DB
// work never touches cipher state or emits bytes itself; only the read
// loop does, after receiving this.
type verifyOutcome struct {
	accountID  uint32
	sessionKey *bignum.BigNumber
	addonRaw   []byte
	err        error
	started    time.Time
}

// handleAuthSession parses CMSG_AUTH_SESSION and, if this connection hasn't
// already started verifying, launches the asynchronous DB lookup. The read
// loop then suspends on verifyCh before reading the next header.
func (c *Connection) handleAuthSession(ctx context.Context, body []byte) error {
	if c.Account() != 0 {
		return ErrProtocol
	}
	if !c.casPhase(PhaseAwaitingAuth, PhaseAuthVerifying) {
		// Already verifying or past it; a second AUTH_SESSION in this
		// window is a protocol violation.
		return ErrProtocol
	}

	parsed, err := clientpackets.ParseAuthSession(body)
	if err != nil {
		return errors.Join(ErrProtocol, err)
	}

	go c.verifyAuthSession(ctx, parsed, time.Now())
	return nil
}

// handleRedirectClientProof is CMSG_AUTH_SESSION's sibling for a connection
// continuing a session after a redirect.
func (c *Connection) handleRedirectClientProof(ctx context.Context, body []byte) error {
	if c.Account() != 0 {
		return ErrProtocol
	}
	if !c.casPhase(PhaseAwaitingAuth, PhaseAuthVerifying) {
		return ErrProtocol
	}

	parsed, err := clientpackets.ParseRedirectClientProof(body)
	if err != nil {
		return errors.Join(ErrProtocol, err)
	}

	go c.verifyRedirectProof(ctx, parsed, time.Now())
	return nil
}

func (c *Connection) verifyAuthSession(ctx context.Context, parsed *clientpackets.AuthSession, started time.Time) {
	accountID, sessionKeyHex, err := c.accounts.SessionKeyByUsername(ctx, parsed.AccountName)
	if err != nil {
		c.deliverOutcome(verifyOutcome{err: noAccountErr(err), started: started})
		return
	}

	sessionKey, err := bignum.FromHex(sessionKeyHex)
	if err != nil {
		c.deliverOutcome(verifyOutcome{err: errors.Join(ErrNoAccount, err), started: started})
		return
	}

	expected := authSessionDigest(parsed.AccountName, parsed.LocalChallenge, c.connSeed, sessionKey)
	if subtle.ConstantTimeCompare(expected[:], parsed.Digest[:]) != 1 {
		c.deliverOutcome(verifyOutcome{err: ErrDigestMismatch, started: started})
		return
	}

	c.deliverOutcome(verifyOutcome{
		accountID:  accountID,
		sessionKey: sessionKey,
		addonRaw:   parsed.AddonRaw,
		started:    started,
	})
}

func (c *Connection) verifyRedirectProof(ctx context.Context, parsed *clientpackets.RedirectClientProof, started time.Time) {
	accountID, sessionKeyHex, err := c.accounts.SessionKeyByUsername(ctx, parsed.Username)
	if err != nil {
		c.deliverOutcome(verifyOutcome{err: noAccountErr(err), started: started})
		return
	}

	sessionKey, err := bignum.FromHex(sessionKeyHex)
	if err != nil {
		c.deliverOutcome(verifyOutcome{err: errors.Join(ErrNoAccount, err), started: started})
		return
	}

	expected := redirectProofDigest(parsed.Username, sessionKey, c.connSeed)
	if subtle.ConstantTimeCompare(expected[:], parsed.Digest[:]) != 1 {
		c.deliverOutcome(verifyOutcome{err: ErrDigestMismatch, started: started})
		return
	}

	c.deliverOutcome(verifyOutcome{
		accountID:  accountID,
		sessionKey: sessionKey,
		started:    started,
	})
}

// deliverOutcome hands the verification result to the read loop. If the
// connection closed while the DB call was in flight, the outcome is
// dropped: a closed connection must see no further side effects.
func (c *Connection) deliverOutcome(o verifyOutcome) {
	select {
	case c.verifyCh <- o:
	case <-c.closeCh:
	}
}

// awaitVerification suspends the read loop until the verification goroutine
// delivers its outcome, then applies it here, in the connection's own
// serialization domain: finalizing the cipher between two header reads
// guarantees the next inbound header is decoded with the freshly keyed
// state. Returns a non-nil error when the connection must stop reading.
func (c *Connection) awaitVerification(ctx context.Context) error {
	select {
	case <-c.closeCh:
		return errConnClosed
	case outcome := <-c.verifyCh:
		if outcome.err != nil {
			c.failHandshake(outcome.err)
			return outcome.err
		}
		c.completeHandshake(ctx, outcome)
		return nil
	}
}

func noAccountErr(err error) error {
	if errors.Is(err, db.ErrAccountNotFound) {
		return errors.Join(ErrNoAccount, err)
	}
	return err
}

// failHandshake closes the connection without ever sending AUTH_RESPONSE;
// the upstream close signal is the only feedback a failed client gets.
func (c *Connection) failHandshake(err error) {
	kind := errorKind(err)
	c.logger.Warn("handshake failed", "remote", c.remoteAddr, "error", err)
	if c.metrics != nil {
		c.metrics.RecordHandshakeFailure(string(kind))
	}
	c.close(string(kind))
}

// completeHandshake finalizes the cipher, emits the fixed post-auth frame
// sequence (AUTH_RESPONSE, ADDON_INFO, CLIENTCACHE_VERSION, TUTORIAL_FLAGS),
// then checks for an online character and forwards a synthetic PLAYER_LOGIN
// message if one exists. Runs in the read-loop goroutine.
func (c *Connection) completeHandshake(ctx context.Context, o verifyOutcome) {
	accountID, sessionKey, addonRaw, started := o.accountID, o.sessionKey, o.addonRaw, o.started

	c.setSessionKey(sessionKey)
	c.cipher.Finalize(sessionKey, c.seed1, c.seed2)
	c.accountID.Store(accountID)
	c.setPhase(PhaseAuthenticated)

	if c.metrics != nil {
		c.metrics.RecordHandshakeSuccess(time.Since(started).Seconds())
	}

	authResponse := serverpackets.AuthResponse{Result: opcode.AuthOK, Expansion: 2}
	c.Send(opcode.SMSGAuthResponse, authResponse.Write())

	entries := parseAddonBlob(addonRaw, c.logger)
	addonInfo := serverpackets.AddonInfo{Entries: c.addonVerdicts(entries)}
	c.Send(opcode.SMSGAddonInfo, addonInfo.Write())

	clientCache := serverpackets.ClientCacheVersion{Version: 0}
	c.Send(opcode.SMSGClientCacheVersion, clientCache.Write())

	tutorialFlags := serverpackets.TutorialFlags{}
	c.Send(opcode.SMSGTutorialFlags, tutorialFlags.Write())

	guid, err := c.characters.OnlineCharacterGUID(ctx, accountID)
	if err != nil {
		return // no online character, nothing to forward
	}

	payload := buffer.New(8)
	payload.WriteUint64(guid)

	c.bus.Push(bus.Message{
		Code:       bus.ForwardPacket,
		Opcode:     uint16(opcode.CMSGPlayerLogin),
		Account:    accountID,
		Payload:    payload.Bytes(),
		Connection: c,
		Generation: c.Generation(),
	})
	if c.metrics != nil {
		c.metrics.RecordForwardedPacket()
	}
}
