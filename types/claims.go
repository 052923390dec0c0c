package types

import "time"

// Claims is the signed metadata extracted from a wasm artifact: public
// key, issuer, capability set, revision, name, call alias, and validity
// window. The claims store persists and looks these up by public key.
type Claims struct {
	PublicKey    string   `msgpack:"public_key"`
	Issuer       string   `msgpack:"issuer"`
	Name         string   `msgpack:"name"`
	CallAlias    string   `msgpack:"call_alias,omitempty"`
	Capabilities []string `msgpack:"caps"`
	Tags         []string `msgpack:"tags,omitempty"`
	Revision     int64    `msgpack:"revision"`
	Version      string   `msgpack:"version,omitempty"`

	// IssuedAt and Expires bound the claims' validity window. Expires is
	// the zero value when the claims never expire.
	IssuedAt time.Time `msgpack:"issued_at"`
	Expires  time.Time `msgpack:"expires,omitempty"`
}

// HasCapability reports whether contractID is present in the claims'
// capability set. Used by S3 to authorise capability-provider origins.
func (c Claims) HasCapability(contractID string) bool {
	for _, cap := range c.Capabilities {
		if cap == contractID {
			return true
		}
	}
	return false
}

// Expired reports whether the claims' validity window has closed as of
// now. Claims with a zero Expires never expire.
func (c Claims) Expired(now time.Time) bool {
	if c.Expires.IsZero() {
		return false
	}
	return !now.Before(c.Expires)
}

// PublicClaims is the subset of Claims safe to publish on actor_started:
// the full public bundle, never any private signing material.
type PublicClaims struct {
	PublicKey    string   `msgpack:"public_key"`
	Issuer       string   `msgpack:"issuer"`
	Name         string   `msgpack:"name"`
	CallAlias    string   `msgpack:"call_alias,omitempty"`
	Capabilities []string `msgpack:"caps"`
	Tags         []string `msgpack:"tags,omitempty"`
	Revision     int64    `msgpack:"revision"`
	Version      string   `msgpack:"version,omitempty"`
	IssuedAt     time.Time `msgpack:"issued_at"`
	Expires      time.Time `msgpack:"expires,omitempty"`
}

// Public projects Claims down to the fields allowed on the wire.
func (c Claims) Public() PublicClaims {
	return PublicClaims{
		PublicKey:    c.PublicKey,
		Issuer:       c.Issuer,
		Name:         c.Name,
		CallAlias:    c.CallAlias,
		Capabilities: c.Capabilities,
		Tags:         c.Tags,
		Revision:     c.Revision,
		Version:      c.Version,
		IssuedAt:     c.IssuedAt,
		Expires:      c.Expires,
	}
}
