package antiforgery

import (
	"crypto/ed25519"
	"testing"
)

func TestEd25519Verifier_ValidSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	payload := []byte("hello invocation")
	envelope := Sign(priv, payload)

	v := NewEd25519Verifier()
	if err := v.Validate(envelope, []ed25519.PublicKey{pub}); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestEd25519Verifier_UntrustedIssuer(t *testing.T) {
	_, priv, _ := ed25519.GenerateKey(nil)
	otherPub, _, _ := ed25519.GenerateKey(nil)

	envelope := Sign(priv, []byte("payload"))

	v := NewEd25519Verifier()
	err := v.Validate(envelope, []ed25519.PublicKey{otherPub})
	if err != ErrUntrusted {
		t.Fatalf("expected ErrUntrusted, got %v", err)
	}
}

func TestEd25519Verifier_NoTrustedIssuers(t *testing.T) {
	_, priv, _ := ed25519.GenerateKey(nil)
	envelope := Sign(priv, []byte("payload"))

	v := NewEd25519Verifier()
	if err := v.Validate(envelope, nil); err != ErrUntrusted {
		t.Fatalf("expected ErrUntrusted with no trusted issuers, got %v", err)
	}
}

func TestEd25519Verifier_BodyTooShort(t *testing.T) {
	v := NewEd25519Verifier()
	pub, _, _ := ed25519.GenerateKey(nil)
	if err := v.Validate([]byte("short"), []ed25519.PublicKey{pub}); err != ErrBodyTooShort {
		t.Fatalf("expected ErrBodyTooShort, got %v", err)
	}
}

func TestEd25519Verifier_TamperedPayloadFailsVerification(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	envelope := Sign(priv, []byte("original"))

	// Flip a byte in the payload portion without re-signing.
	tampered := append([]byte(nil), envelope...)
	tampered[len(tampered)-1] ^= 0xFF

	v := NewEd25519Verifier()
	if err := v.Validate(tampered, []ed25519.PublicKey{pub}); err != ErrUntrusted {
		t.Fatalf("expected ErrUntrusted for tampered payload, got %v", err)
	}
}

func TestPayload_StripsSignature(t *testing.T) {
	_, priv, _ := ed25519.GenerateKey(nil)
	payload := []byte("body bytes")
	envelope := Sign(priv, payload)

	got, err := Payload(envelope)
	if err != nil {
		t.Fatalf("Payload failed: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("Payload() = %q, want %q", got, payload)
	}
}
