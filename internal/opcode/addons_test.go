package opcode

import "testing"

func TestWellKnownAddons_NoDuplicatesOrEmptyNames(t *testing.T) {
	seen := make(map[string]bool, len(WellKnownAddons))
	for _, name := range WellKnownAddons {
		if name == "" {
			t.Fatal("empty addon name in WellKnownAddons")
		}
		if seen[name] {
			t.Fatalf("duplicate addon name %q", name)
		}
		seen[name] = true
	}
}

func TestCanonicalAddonCRC_Value(t *testing.T) {
	if CanonicalAddonCRC != 0x4C1C776D {
		t.Fatalf("got %x, want 0x4C1C776D", CanonicalAddonCRC)
	}
}
