package claims

import (
	"context"
	"errors"
	"testing"

	"github.com/latticerun/actorhost/types"
)

func TestMemoryStore_PutLookupRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	c := types.Claims{PublicKey: "Mxxxxx", Capabilities: []string{"wasmcloud:keyvalue"}}
	if err := store.Put(ctx, "host-1", "default", c); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Lookup(ctx, "default", "Mxxxxx")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got.PublicKey != c.PublicKey || !got.HasCapability("wasmcloud:keyvalue") {
		t.Fatalf("Lookup() = %+v, want %+v", got, c)
	}
}

func TestMemoryStore_LookupMissing(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Lookup(context.Background(), "default", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_ScopedByLatticePrefix(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_ = store.Put(ctx, "host-1", "default", types.Claims{PublicKey: "Mxxxxx"})

	_, err := store.Lookup(ctx, "other-lattice", "Mxxxxx")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected claims scoped to lattice_prefix, got %v", err)
	}
}

func TestMemoryStore_PutRejectsEmptyPublicKey(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Put(context.Background(), "host-1", "default", types.Claims{}); err == nil {
		t.Fatal("expected error for empty public key")
	}
}
