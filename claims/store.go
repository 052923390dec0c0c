// Package claims implements the host- and lattice-wide claims store
// consumed by instance start (persisting an actor's own claims) and by
// the invocation pipeline's policy stage (looking up source/target
// claims by public key).
package claims

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/latticerun/actorhost/types"
)

// ErrNotFound is returned by Lookup when no claims are registered for
// the given (lattice_prefix, public_key) pair.
var ErrNotFound = errors.New("claims: no claims registered for public key")

// Store is the claims store contract: put(host_id, lattice_prefix,
// claims); lookup(lattice_prefix, public_key) -> {ok, claims}|err.
// Assumed concurrent-safe and shared across all instances on a host.
type Store interface {
	Put(ctx context.Context, hostID, latticePrefix string, c types.Claims) error
	Lookup(ctx context.Context, latticePrefix, publicKey string) (types.Claims, error)
}

type key struct {
	latticePrefix string
	publicKey     string
}

// record pairs stored claims with the host that registered them.
type record struct {
	hostID string
	claims types.Claims
}

// MemoryStore is a process-local, concurrent-safe Store. It is the
// default implementation: the claims store is host-wide but has no
// cross-host consistency requirement in scope for this core.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[key]record
}

// NewMemoryStore creates an empty claims store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[key]record)}
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, hostID, latticePrefix string, c types.Claims) error {
	if c.PublicKey == "" {
		return fmt.Errorf("claims: cannot store claims with empty public key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key{latticePrefix: latticePrefix, publicKey: c.PublicKey}] = record{hostID: hostID, claims: c}
	return nil
}

// Lookup implements Store.
func (s *MemoryStore) Lookup(_ context.Context, latticePrefix, publicKey string) (types.Claims, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key{latticePrefix: latticePrefix, publicKey: publicKey}]
	if !ok {
		return types.Claims{}, ErrNotFound
	}
	return rec.claims, nil
}

var _ Store = (*MemoryStore)(nil)
