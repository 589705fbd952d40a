// Package itemcache caches the static character rows the world handler
// occasionally needs to annotate forwarded messages. The world node itself
// never touches this cache (its only borrow from the character table is
// the online-character check inside the handshake), so the cache stays
// deliberately small: read-through, keyed by guid, never invalidated during
// process lifetime.
package itemcache

import (
	"context"
	"fmt"
	"sync"
)

// Character is the cached slice of one characters row.
type Character struct {
	GUID    uint64
	Account uint32
	Name    string
	Level   uint8
}

// CharacterSource fetches a character row on cache miss.
// *db.CharacterRepository satisfies this.
type CharacterSource interface {
	CharacterByGUID(ctx context.Context, guid uint64) (account uint32, name string, level uint8, err error)
}

// Cache is a read-through character cache.
type Cache struct {
	source CharacterSource

	mu         sync.RWMutex
	characters map[uint64]Character
}

// New returns an empty Cache backed by source.
func New(source CharacterSource) *Cache {
	return &Cache{
		source:     source,
		characters: make(map[uint64]Character),
	}
}

// Character returns the cached row for guid, fetching it from the source on
// first access.
func (c *Cache) Character(ctx context.Context, guid uint64) (Character, error) {
	c.mu.RLock()
	ch, ok := c.characters[guid]
	c.mu.RUnlock()
	if ok {
		return ch, nil
	}

	account, name, level, err := c.source.CharacterByGUID(ctx, guid)
	if err != nil {
		return Character{}, fmt.Errorf("fetching character %d: %w", guid, err)
	}

	ch = Character{GUID: guid, Account: account, Name: name, Level: level}
	c.mu.Lock()
	c.characters[guid] = ch
	c.mu.Unlock()
	return ch, nil
}

// Len returns the number of cached characters.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.characters)
}
