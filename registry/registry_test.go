package registry

import (
	"errors"
	"testing"
)

func TestHostRegistry_ResolveMissing(t *testing.T) {
	r := NewHostRegistry()
	_, err := r.Resolve("host-1")
	if !errors.Is(err, ErrHostNotFound) {
		t.Fatalf("expected ErrHostNotFound, got %v", err)
	}
}

func TestHostRegistry_RegisterAndResolve(t *testing.T) {
	r := NewHostRegistry()
	r.Register("host-1", "default")
	prefix, err := r.Resolve("host-1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if prefix != "default" {
		t.Fatalf("Resolve() = %q, want %q", prefix, "default")
	}
}

func TestReferenceMap_EmptyImageRefNotStored(t *testing.T) {
	m := NewReferenceMap()
	m.Put("Mxxxxx", "")
	if _, ok := m.Get("Mxxxxx"); ok {
		t.Fatal("empty image_ref must not be written per spec.md §4.2")
	}
}

func TestReferenceMap_PutGetDelete(t *testing.T) {
	m := NewReferenceMap()
	m.Put("Mxxxxx", "registry.io/echo:v1")

	ref, ok := m.Get("Mxxxxx")
	if !ok || ref != "registry.io/echo:v1" {
		t.Fatalf("Get() = (%q, %v), want (registry.io/echo:v1, true)", ref, ok)
	}

	m.Delete("Mxxxxx")
	if _, ok := m.Get("Mxxxxx"); ok {
		t.Fatal("expected reference removed after Delete")
	}
}

func TestActorRegistry_PermitsDuplicatesPerPublicKey(t *testing.T) {
	r := NewActorRegistry()
	r.Register("Mxxxxx", &Handle{InstanceID: "inst-1"})
	r.Register("Mxxxxx", &Handle{InstanceID: "inst-2"})

	handles := r.Lookup("Mxxxxx")
	if len(handles) != 2 {
		t.Fatalf("expected 2 live instances under one public key, got %d", len(handles))
	}
	if r.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", r.Count())
	}
}

func TestActorRegistry_DeregisterIsIdempotent(t *testing.T) {
	r := NewActorRegistry()
	r.Register("Mxxxxx", &Handle{InstanceID: "inst-1"})

	r.Deregister("Mxxxxx", "inst-1")
	if got := r.Lookup("Mxxxxx"); len(got) != 0 {
		t.Fatalf("expected no handles after deregister, got %d", len(got))
	}

	// Deregistering an already-gone instance must be a no-op, not a panic.
	r.Deregister("Mxxxxx", "inst-1")
	if r.Count() != 0 {
		t.Fatalf("Count() = %d, want 0", r.Count())
	}
}
