package types

import "sync"

// WireAddress identifies one side of an invocation: an actor or a
// capability provider. Both origin and target use this shape on the wire.
type WireAddress struct {
	PublicKey  string `msgpack:"public_key"`
	ContractID string `msgpack:"contract_id,omitempty"`
	LinkName   string `msgpack:"link_name,omitempty"`
}

// IsCapabilityProvider reports whether this address identifies a capability
// provider rather than another actor. Per the absent-form rule, both nil
// and empty-string forms of contract_id/link_name count as absent.
func (a WireAddress) IsCapabilityProvider() bool {
	return a.ContractID != "" || a.LinkName != ""
}

// Annotations is an opaque string-to-string bag attached to an actor
// instance at start time and echoed back on lifecycle events.
type Annotations map[string]string

// Clone returns a defensive copy so callers cannot mutate the instance's
// stored annotations through a returned map.
func (a Annotations) Clone() Annotations {
	if a == nil {
		return nil
	}
	out := make(Annotations, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// snapshot holds the fields of an ActorInstance that are fixed at start
// time and never mutated afterward. Reads need no lock.
type snapshot struct {
	instanceID    string
	claims        Claims
	imageRef      string
	annotations   Annotations
	hostID        string
	latticePrefix string
	apiVersion    string
}

// mutable holds the fields of an ActorInstance that change over the
// instance's lifetime. Guarded by its own lock so introspection reads
// never contend with invocation processing on the mailbox.
type mutable struct {
	mu                sync.RWMutex
	actorReference    any
	currentInvocation *Invocation
	healthy           bool
}

// Defaults returned by introspection queries against a non-existent
// instance, per the Instance State Store contract.
const (
	DefaultImageRef   = "n/a"
	DefaultInstanceID = "??"
)

// ActorInstance holds one running wasm module's runtime metadata: an
// immutable snapshot taken at start time plus a small mutable slot for the
// actor reference and in-flight invocation. instance_id and claims.public_key
// never change after construction; actor_reference is replaced only by the
// live-update protocol, under the mutable lock.
// The wasm runtime handle itself is not stored on ActorInstance: the
// instance holds a non-owning actor_reference only, while the shared
// runtime service is held by the owning runtime.Instance (see the
// runtime package) to avoid a types<->runtime import cycle.
type ActorInstance struct {
	snapshot
	mutable
}

// NewActorInstance constructs the fixed snapshot half of an instance.
// The actor reference is installed separately via SetActorReference once
// precompilation succeeds, keeping construction free of fallible calls.
func NewActorInstance(instanceID string, claims Claims, imageRef string, annotations Annotations, hostID, latticePrefix string) *ActorInstance {
	return &ActorInstance{
		snapshot: snapshot{
			instanceID:    instanceID,
			claims:        claims,
			imageRef:      imageRef,
			annotations:   annotations.Clone(),
			hostID:        hostID,
			latticePrefix: latticePrefix,
			apiVersion:    Version,
		},
		mutable: mutable{
			healthy: true,
		},
	}
}

// InstanceID returns the immutable instance identifier.
func (a *ActorInstance) InstanceID() string {
	if a == nil || a.instanceID == "" {
		return DefaultInstanceID
	}
	return a.instanceID
}

// Claims returns the instance's signed claims.
func (a *ActorInstance) Claims() Claims {
	if a == nil {
		return Claims{}
	}
	return a.claims
}

// Annotations returns a defensive copy of the instance's annotation bag.
func (a *ActorInstance) Annotations() Annotations {
	if a == nil {
		return Annotations{}
	}
	if a.annotations == nil {
		return Annotations{}
	}
	return a.annotations.Clone()
}

// ImageRef returns the optional registry reference, or the documented
// default if absent.
func (a *ActorInstance) ImageRef() string {
	if a == nil || a.imageRef == "" {
		return DefaultImageRef
	}
	return a.imageRef
}

// HostID returns the enclosing host identifier.
func (a *ActorInstance) HostID() string {
	if a == nil {
		return ""
	}
	return a.hostID
}

// LatticePrefix returns the logical network prefix this instance belongs to.
func (a *ActorInstance) LatticePrefix() string {
	if a == nil {
		return ""
	}
	return a.latticePrefix
}

// ActorReference returns the current opaque handle to the precompiled wasm
// artifact. Non-blocking w.r.t. other readers.
func (a *ActorInstance) ActorReference() any {
	if a == nil {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.actorReference
}

// SetActorReference installs a new actor reference. Only the owning
// instance's mailbox loop calls this, during start or live-update.
func (a *ActorInstance) SetActorReference(ref any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actorReference = ref
}

// CurrentInvocation returns the invocation presently being processed, or
// nil if the instance is idle.
func (a *ActorInstance) CurrentInvocation() *Invocation {
	if a == nil {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.currentInvocation
}

// SetCurrentInvocation records the in-flight invocation. Pass nil to clear
// it once the pipeline has produced a response.
func (a *ActorInstance) SetCurrentInvocation(inv *Invocation) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.currentInvocation = inv
}

// Healthy reports the instance's last-observed health.
func (a *ActorInstance) Healthy() bool {
	if a == nil {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.healthy
}

// SetHealthy updates the instance's health flag.
func (a *ActorInstance) SetHealthy(healthy bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.healthy = healthy
}

// APIVersion returns the wire contract version this instance was started
// under.
func (a *ActorInstance) APIVersion() string {
	if a == nil || a.apiVersion == "" {
		return Version
	}
	return a.apiVersion
}
