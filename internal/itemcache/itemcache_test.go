package itemcache

import (
	"context"
	"errors"
	"testing"
)

type fakeSource struct {
	calls int
	err   error
}

func (f *fakeSource) CharacterByGUID(ctx context.Context, guid uint64) (uint32, string, uint8, error) {
	f.calls++
	if f.err != nil {
		return 0, "", 0, f.err
	}
	return 42, "Arthas", 80, nil
}

func TestCache_ReadThrough(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	cache := New(src)

	ch, err := cache.Character(context.Background(), 7)
	if err != nil {
		t.Fatalf("Character: %v", err)
	}
	if ch.Name != "Arthas" || ch.Account != 42 || ch.Level != 80 || ch.GUID != 7 {
		t.Errorf("character = %+v", ch)
	}

	// Second lookup must be served from the cache.
	if _, err := cache.Character(context.Background(), 7); err != nil {
		t.Fatalf("cached Character: %v", err)
	}
	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1", src.calls)
	}
	if cache.Len() != 1 {
		t.Errorf("len = %d, want 1", cache.Len())
	}
}

func TestCache_SourceErrorNotCached(t *testing.T) {
	t.Parallel()

	src := &fakeSource{err: errors.New("no row")}
	cache := New(src)

	if _, err := cache.Character(context.Background(), 9); err == nil {
		t.Fatal("expected error from source")
	}
	if cache.Len() != 0 {
		t.Errorf("len = %d, want 0 after a failed fetch", cache.Len())
	}
}
