package worldnode

import (
	"errors"

	"github.com/avalon-core/worldnode/internal/buffer"
	"github.com/avalon-core/worldnode/internal/protocol"
)

// Kind labels a terminal connection error for metrics and logging.
type Kind string

const (
	KindShortRead      Kind = "short_read"
	KindProtocol       Kind = "protocol"
	KindDigestMismatch Kind = "digest_mismatch"
	KindNoAccount      Kind = "no_account"
	KindZlib           Kind = "zlib"
	KindIO             Kind = "io"
)

// Sentinel errors for the failures this package originates itself. All but
// ErrZlib are fatal to the connection; ErrZlib is only logged, and the
// handshake continues with an empty addon list.
var (
	ErrProtocol       = errors.New("worldnode: protocol violation")
	ErrDigestMismatch = errors.New("worldnode: digest mismatch")
	ErrNoAccount      = errors.New("worldnode: no matching account")
	ErrZlib           = errors.New("worldnode: addon decompression failed")
)

// errConnClosed reports that the connection closed while the read loop was
// suspended on an async verification result.
var errConnClosed = errors.New("worldnode: connection closed")

// errorKind maps a connection-fatal error to its Kind label.
func errorKind(err error) Kind {
	switch {
	case errors.Is(err, ErrProtocol),
		errors.Is(err, protocol.ErrUndersizedFrame),
		errors.Is(err, protocol.ErrOversizedFrame),
		errors.Is(err, protocol.ErrOpcodeOutOfRange):
		return KindProtocol
	case errors.Is(err, buffer.ErrShortRead):
		return KindShortRead
	case errors.Is(err, ErrDigestMismatch):
		return KindDigestMismatch
	case errors.Is(err, ErrNoAccount):
		return KindNoAccount
	case errors.Is(err, ErrZlib):
		return KindZlib
	default:
		return KindIO
	}
}
