package registry

import "sync"

// Handle is an opaque registration token for one running instance.
// Instance itself lives in the runtime package; it is threaded through
// here as Owner (via an `any` value) so this package has no import-time
// dependency on runtime, matching the teacher's leaves-first layering
// (registry sits below runtime in the dependency graph).
type Handle struct {
	InstanceID string
	Owner      any
}

// ActorRegistry is the process-local C6 registry: public key to live
// instance handles. The same public key may map to multiple live
// instances — the registry permits duplicates, since multiple copies of
// one actor may run concurrently on a host.
type ActorRegistry struct {
	mu        sync.Mutex
	instances map[string][]*Handle
}

// NewActorRegistry creates an empty actor registry.
func NewActorRegistry() *ActorRegistry {
	return &ActorRegistry{instances: make(map[string][]*Handle)}
}

// Register adds handle under publicKey.
func (r *ActorRegistry) Register(publicKey string, handle *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[publicKey] = append(r.instances[publicKey], handle)
}

// Deregister removes the handle with the given instance id from
// publicKey's entry, releasing it on termination. A no-op if the handle
// is already gone, so halt remains idempotent (P7).
func (r *ActorRegistry) Deregister(publicKey, instanceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	handles := r.instances[publicKey]
	for i, h := range handles {
		if h.InstanceID == instanceID {
			r.instances[publicKey] = append(handles[:i], handles[i+1:]...)
			break
		}
	}
	if len(r.instances[publicKey]) == 0 {
		delete(r.instances, publicKey)
	}
}

// Lookup returns all live instance handles registered under publicKey.
func (r *ActorRegistry) Lookup(publicKey string) []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	handles := r.instances[publicKey]
	out := make([]*Handle, len(handles))
	copy(out, handles)
	return out
}

// Count returns the total number of registered instances across all
// public keys, used by the host CLI's stats view.
func (r *ActorRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, handles := range r.instances {
		total += len(handles)
	}
	return total
}

// All returns every live handle across every public key, used by the
// host CLI's list view. Order is unspecified.
func (r *ActorRegistry) All() []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Handle, 0, len(r.instances))
	for _, handles := range r.instances {
		out = append(out, handles...)
	}
	return out
}
