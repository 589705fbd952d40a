// Package opcode defines the wire opcodes the world node's dispatcher
// recognizes, plus the static addon CRC reference table consulted during
// the post-auth preamble.
package opcode

// Client opcodes (CMSG_*), carried in the 4-byte little-endian field of the
// client packet header.
const (
	CMSGSuspendCommsAck          uint32 = 0x02AF
	CMSGPing                     uint32 = 0x02B1
	CMSGKeepAlive                uint32 = 0x02C9
	CMSGAuthSession              uint32 = 0x01ED
	CMSGRedirectClientProof      uint32 = 0x0273
	CMSGReadyForAccountDataTimes uint32 = 0x04AF
	CMSGUpdateAccountData        uint32 = 0x034A
	CMSGPlayerLogin              uint32 = 0x003D
	CMSGNameQuery                uint32 = 0x0050

	// OPCODEMax is the exclusive upper bound every inbound opcode must
	// satisfy; anything at or above it is a protocol violation.
	OPCODEMax uint32 = 0x0600
)

// Server opcodes (SMSG_*), carried in the 2-byte little-endian field of the
// server packet header.
const (
	SMSGResumeComms               uint16 = 0x0980
	SMSGAuthChallenge             uint16 = 0x01EC
	SMSGAuthResponse              uint16 = 0x01EE
	SMSGPong                      uint16 = 0x01DD
	SMSGAccountDataTimes          uint16 = 0x0209
	SMSGUpdateAccountDataComplete uint16 = 0x0391
	SMSGAddonInfo                 uint16 = 0x02EF
	SMSGClientCacheVersion        uint16 = 0x04AB
	SMSGTutorialFlags             uint16 = 0x00FD
)

// AuthResponse codes. Only AuthOK is ever produced by this node; the rest
// are documented for completeness of the wire contract.
const (
	AuthOK                = 12
	AuthFailed            = 13
	AuthReject            = 14
	AuthBadServerProof    = 15
	AuthUnavailable       = 16
	AuthSystemError       = 17
	AuthVersionMismatch   = 20
	AuthUnknownAccount    = 21
	AuthIncorrectPassword = 22
	AuthBanned            = 28
)
