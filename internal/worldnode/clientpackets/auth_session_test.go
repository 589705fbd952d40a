package clientpackets

import (
	"bytes"
	"testing"

	"github.com/avalon-core/worldnode/internal/buffer"
)

func buildAuthSessionBody(accountName string, localChallenge uint32, digest [20]byte, addonRaw []byte) []byte {
	b := buffer.New(64)
	b.WriteUint32(12340) // build
	b.WriteUint32(0)     // login_server_id
	b.WriteCString(accountName)
	b.WriteUint32(0) // login_server_type
	b.WriteUint32(localChallenge)
	b.WriteUint32(0) // region_id
	b.WriteUint32(0) // battlegroup_id
	b.WriteUint32(0) // realm_id
	b.WriteUint64(0) // dos_response
	b.WriteBytes(digest[:])
	b.WriteBytes(addonRaw)
	return b.Bytes()
}

func TestParseAuthSession_RoundTrip(t *testing.T) {
	t.Parallel()

	var digest [20]byte
	for i := range digest {
		digest[i] = byte(i)
	}
	addonRaw := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	p, err := ParseAuthSession(buildAuthSessionBody("TESTER", 0x11223344, digest, addonRaw))
	if err != nil {
		t.Fatalf("ParseAuthSession: %v", err)
	}

	if p.Build != 12340 {
		t.Errorf("build = %d, want 12340", p.Build)
	}
	if p.AccountName != "TESTER" {
		t.Errorf("account name = %q, want TESTER", p.AccountName)
	}
	if p.LocalChallenge != 0x11223344 {
		t.Errorf("local challenge = %#x, want 0x11223344", p.LocalChallenge)
	}
	if p.Digest != digest {
		t.Errorf("digest = %X, want %X", p.Digest, digest)
	}
	if !bytes.Equal(p.AddonRaw, addonRaw) {
		t.Errorf("addon blob = %X, want %X", p.AddonRaw, addonRaw)
	}
}

func TestParseAuthSession_TruncatedBody(t *testing.T) {
	t.Parallel()

	var digest [20]byte
	full := buildAuthSessionBody("TESTER", 1, digest, nil)

	if _, err := ParseAuthSession(full[:len(full)-25]); err == nil {
		t.Fatal("expected error for a body truncated inside dos_response")
	}
	if _, err := ParseAuthSession(nil); err == nil {
		t.Fatal("expected error for an empty body")
	}
}

func TestParseRedirectClientProof_RoundTrip(t *testing.T) {
	t.Parallel()

	var digest [20]byte
	for i := range digest {
		digest[i] = byte(0xA0 + i)
	}

	b := buffer.New(40)
	b.WriteCString("TESTER")
	b.WriteUint64(7) // dos_response
	b.WriteBytes(digest[:])

	p, err := ParseRedirectClientProof(b.Bytes())
	if err != nil {
		t.Fatalf("ParseRedirectClientProof: %v", err)
	}
	if p.Username != "TESTER" {
		t.Errorf("username = %q, want TESTER", p.Username)
	}
	if p.Digest != digest {
		t.Errorf("digest = %X, want %X", p.Digest, digest)
	}
}

func TestParseUpdateAccountData_Fields(t *testing.T) {
	t.Parallel()

	b := buffer.New(12)
	b.WriteUint32(3)    // data type
	b.WriteUint32(1000) // timestamp
	b.WriteUint32(64)   // decompressed size

	p, err := ParseUpdateAccountData(b.Bytes())
	if err != nil {
		t.Fatalf("ParseUpdateAccountData: %v", err)
	}
	if p.DataType != 3 || p.Timestamp != 1000 || p.DecompressedSize != 64 {
		t.Errorf("parsed = %+v, want {3 1000 64}", p)
	}

	if _, err := ParseUpdateAccountData(b.Bytes()[:7]); err == nil {
		t.Fatal("expected error for truncated body")
	}
}
