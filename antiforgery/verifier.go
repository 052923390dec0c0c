// Package antiforgery validates that an invocation body was genuinely
// signed by a trusted cluster issuer before the invocation pipeline does
// any further work on it (S2 of the pipeline).
package antiforgery

import (
	"crypto/ed25519"
	"errors"
)

// SignatureSize is the length, in bytes, of the detached Ed25519
// signature prepended to every invocation's raw wire body.
const SignatureSize = ed25519.SignatureSize

// ErrBodyTooShort is returned when a raw body is shorter than a single
// detached signature, so it cannot possibly carry one.
var ErrBodyTooShort = errors.New("antiforgery: body too short to carry a signature")

// ErrUntrusted is returned when a body's signature does not verify
// against any of the supplied trusted issuer keys.
var ErrUntrusted = errors.New("antiforgery: signature does not match a trusted issuer")

// Verifier is the anti-forgery collaborator consumed by the invocation
// pipeline: submit the raw body and the set of trusted cluster issuer
// keys, get back ok or a reason for rejection.
type Verifier interface {
	Validate(rawBody []byte, trustedIssuers []ed25519.PublicKey) error
}

// Ed25519Verifier expects rawBody to be a detached-signature envelope:
// the first SignatureSize bytes are an Ed25519 signature over the
// remaining payload bytes. This is the cluster-issuer anti-forgery
// scheme the lattice bus uses to stop forged invocations from reaching
// an actor.
type Ed25519Verifier struct{}

// NewEd25519Verifier constructs the stdlib-backed verifier. There is no
// ecosystem nkey-style signing library in the dependency corpus this
// module draws from, so signature verification uses crypto/ed25519
// directly rather than reaching for a third-party substitute.
func NewEd25519Verifier() *Ed25519Verifier {
	return &Ed25519Verifier{}
}

// Validate implements Verifier.
func (v *Ed25519Verifier) Validate(rawBody []byte, trustedIssuers []ed25519.PublicKey) error {
	if len(rawBody) < SignatureSize {
		return ErrBodyTooShort
	}
	sig := rawBody[:SignatureSize]
	payload := rawBody[SignatureSize:]

	for _, issuer := range trustedIssuers {
		if ed25519.Verify(issuer, payload, sig) {
			return nil
		}
	}
	return ErrUntrusted
}

var _ Verifier = (*Ed25519Verifier)(nil)

// Sign produces a detached-signature envelope for payload using priv,
// for use by bus clients originating invocations and by tests.
func Sign(priv ed25519.PrivateKey, payload []byte) []byte {
	sig := ed25519.Sign(priv, payload)
	out := make([]byte, 0, len(sig)+len(payload))
	out = append(out, sig...)
	out = append(out, payload...)
	return out
}

// Payload strips the detached signature from an envelope previously
// produced by Sign, returning the bare payload bytes. Callers use this
// after Validate succeeds to recover the body to deserialize.
func Payload(rawBody []byte) ([]byte, error) {
	if len(rawBody) < SignatureSize {
		return nil, ErrBodyTooShort
	}
	return rawBody[SignatureSize:], nil
}
