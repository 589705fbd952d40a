// Package worldhandler consumes the message bus the world node's
// connections produce. It is the single consumer of the many-producer
// queue: every non-built-in opcode, plus the synthetic PLAYER_LOGIN emitted
// after a successful handshake, arrives here as a FORWARD_PACKET message.
//
// The world-simulation systems that would give most opcodes meaning are
// collaborators outside this repository; the handler dispatches to the
// funcs registered with it and logs everything else at debug level.
package worldhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avalon-core/worldnode/internal/buffer"
	"github.com/avalon-core/worldnode/internal/bus"
	"github.com/avalon-core/worldnode/internal/itemcache"
	"github.com/avalon-core/worldnode/internal/opcode"
)

// Func handles one forwarded message. The message's Connection handle is
// the only way back to the client; implementations must check msg.Stale()
// has not become true before replying through it.
type Func func(ctx context.Context, msg bus.Message) error

// Handler drains the bus and dispatches each message by opcode.
type Handler struct {
	bus      *bus.Bus
	cache    *itemcache.Cache
	logger   *slog.Logger
	handlers map[uint16]Func
}

// New builds a Handler with the built-in PLAYER_LOGIN handler registered.
func New(b *bus.Bus, cache *itemcache.Cache, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		bus:      b,
		cache:    cache,
		logger:   logger,
		handlers: make(map[uint16]Func),
	}
	h.Register(uint16(opcode.CMSGPlayerLogin), h.handlePlayerLogin)
	return h
}

// Register installs fn for op, replacing any previous registration. Must be
// called before Run; the handler map is not guarded.
func (h *Handler) Register(op uint16, fn Func) {
	h.handlers[op] = fn
}

// Run consumes messages until ctx is canceled. It is the bus's single
// consumer; run exactly one Run per Handler.
func (h *Handler) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-h.bus.Messages():
			h.handle(ctx, msg)
		}
	}
}

func (h *Handler) handle(ctx context.Context, msg bus.Message) {
	if msg.Stale() {
		h.logger.Debug("dropping stale message", "opcode", fmt.Sprintf("%#x", msg.Opcode), "account", msg.Account)
		return
	}

	fn, ok := h.handlers[msg.Opcode]
	if !ok {
		h.logger.Debug("no world handler for opcode",
			"opcode", fmt.Sprintf("%#x", msg.Opcode),
			"account", msg.Account,
			"payload_bytes", len(msg.Payload))
		return
	}

	if err := fn(ctx, msg); err != nil {
		h.logger.Warn("world handler failed",
			"opcode", fmt.Sprintf("%#x", msg.Opcode),
			"account", msg.Account,
			"error", err)
	}
}

// handlePlayerLogin resolves the logging-in character through the cache and
// records the login. Spawning the character into a world simulation belongs
// to collaborators outside this repository.
func (h *Handler) handlePlayerLogin(ctx context.Context, msg bus.Message) error {
	b := buffer.NewFromBytes(msg.Payload)
	guid, err := b.ReadUint64()
	if err != nil {
		return fmt.Errorf("reading player guid: %w", err)
	}

	ch, err := h.cache.Character(ctx, guid)
	if err != nil {
		return fmt.Errorf("resolving character %d: %w", guid, err)
	}

	h.logger.Info("player login",
		"account", msg.Account,
		"guid", ch.GUID,
		"name", ch.Name,
		"level", ch.Level)
	return nil
}
