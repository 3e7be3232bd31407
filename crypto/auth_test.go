package crypto

import (
	"errors"
	"testing"
)

func TestVerifySignaturesRecoversSigner(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signer := key.PubKey().Address().Raw()

	digest := InvocationDigest("confirm_payout", 7, []byte("payload"))
	sig, err := key.Sign(digest)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	set, err := VerifySignatures(digest, sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := set.RequireAuth(signer); err != nil {
		t.Fatalf("expected signer to be authorized: %v", err)
	}
	var other [20]byte
	other[0] = 0x01
	if err := set.RequireAuth(other); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestSignatureBoundToDigest(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signer := key.PubKey().Address().Raw()
	sig, err := key.Sign(InvocationDigest("pause", 1, nil))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	set, err := VerifySignatures(InvocationDigest("pause", 2, nil), sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := set.RequireAuth(signer); err == nil {
		t.Fatalf("signature over a different nonce must not authorize the signer")
	}
}

func TestVerifySignaturesRejectsMalformed(t *testing.T) {
	if _, err := VerifySignatures(InvocationDigest("pause", 1, nil), []byte{0x01}); err == nil {
		t.Fatalf("expected malformed signature to fail")
	}
}

func TestParseAddressRoundTrip(t *testing.T) {
	var raw [20]byte
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	encoded := FormatAddress(raw)
	parsed, err := ParseAddress(encoded)
	if err != nil {
		t.Fatalf("parse bech32: %v", err)
	}
	if parsed != raw {
		t.Fatalf("bech32 round trip mismatch")
	}
	parsed, err = ParseAddress("0x0102030405060708090a0b0c0d0e0f1011121314")
	if err != nil {
		t.Fatalf("parse hex: %v", err)
	}
	if parsed != raw {
		t.Fatalf("hex parse mismatch")
	}
	if _, err := ParseAddress("0x1234"); err == nil {
		t.Fatalf("expected short hex address to fail")
	}
}
