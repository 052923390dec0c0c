package runtime

import (
	"context"
	"errors"

	"github.com/latticerun/actorhost/antiforgery"
	"github.com/latticerun/actorhost/trace"
	"github.com/latticerun/actorhost/types"
	"github.com/latticerun/actorhost/wire"
)

// ErrInstanceHalted is returned by RequestLiveUpdate calls against an
// instance that has already been halted. Invoke on a halted instance
// does not return it; it replies with an "instance halted" failure
// response instead.
var ErrInstanceHalted = errors.New("runtime: instance halted")

// mailboxMsg is the sum type (*Instance).loop processes strictly one at
// a time. That single-goroutine ordering is what makes "at most one
// invocation in flight" and "live-update never races a concurrent
// invoke or halt" true by construction rather than by a field-level
// lock: invokeMsg, haltMsg, and updateMsg all travel this one channel,
// so the engine's precompile/invoke/release calls for one instance
// never run concurrently with each other.
//
// A fourth conceptual variant, introspectMsg, never travels the
// channel: introspection queries (InstanceID, Claims, Annotations,
// ImageRef, CurrentInvocation, ArtifactRef) read the state cell's own
// RWMutex directly, so a slow invocation can never block an operator's
// read. It is declared below only to keep the full four-way union
// visible at the type level; loop gives it an explicit no-op case, and
// its default case drops any other unrecognised variant.
type mailboxMsg any

type introspectMsg struct{}

type invokeMsg struct {
	ctx       context.Context
	payload   []byte
	traceBlob []byte
	reply     chan invokeResult
}

type invokeResult struct {
	resp *types.InvocationResponse
	inv  *types.Invocation
}

type haltMsg struct {
	ctx   context.Context
	reply chan error
}

type updateMsg struct {
	ctx   context.Context
	req   LiveUpdateRequest
	reply chan error
}

// Instance is the per-actor runtime cell (C1): an ActorInstance state
// record, the shared Engine handle used to invoke and release its
// artifact, the lifecycle collaborators (C2/C4/C6) needed to service a
// halt or live-update, and the single-goroutine mailbox that serializes
// every invoke/halt/live-update delivered to it. The ActorInstance
// itself already carries the snapshot/mutable split described by the
// spec's state-cell design note: fixed fields (instance_id, claims,
// host_id, lattice_prefix) need no lock, while actor_reference and
// current_invocation live behind a single writer lock so introspection
// never contends with invocation processing. Instance adds the mailbox
// on top of that split: the lock protects the state cell's own fields
// from torn reads, but it is the mailbox — not the lock — that
// prevents a halt or live-update from racing a call into the engine.
type Instance struct {
	state  *types.ActorInstance
	engine Engine
	deps   ManagerDeps

	mailbox chan mailboxMsg
}

// NewInstance wraps state with the engine and lifecycle collaborators
// its mailbox loop needs, and starts the single goroutine that
// serializes every invoke/halt/live-update against it.
func NewInstance(state *types.ActorInstance, engine Engine, deps ManagerDeps) *Instance {
	inst := &Instance{
		state:   state,
		engine:  engine,
		deps:    deps,
		mailbox: make(chan mailboxMsg, 32),
	}
	go inst.loop()
	return inst
}

// loop is the single goroutine that owns this instance's mailbox. It
// runs for the lifetime of the process: halting an instance flips its
// Healthy flag rather than tearing the goroutine down, so a second,
// concurrent halt request can never deadlock waiting on a dead loop —
// it simply finds Healthy already false and replies immediately.
func (i *Instance) loop() {
	for msg := range i.mailbox {
		switch m := msg.(type) {
		case invokeMsg:
			m.reply <- i.handleInvoke(m)
		case haltMsg:
			m.reply <- i.handleHalt(m.ctx)
		case updateMsg:
			m.reply <- i.handleLiveUpdate(m.ctx, m.req)
		case introspectMsg:
			// Never sent; introspection bypasses the mailbox entirely.
		default:
			// A message variant this binary doesn't recognise (e.g. sent
			// by a newer/older host during a rolling upgrade). Drop it
			// rather than panic, per the mailbox hygiene rule.
		}
	}
}

func (i *Instance) handleInvoke(m invokeMsg) invokeResult {
	if !i.state.Healthy() {
		return invokeResult{resp: types.NewFailureResponse("", i.InstanceID(), "instance halted"), inv: nil}
	}

	// Record the in-flight invocation before the pipeline runs so a
	// concurrent introspection read (get_invocation) observes it for
	// the full duration of the call, not just after the fact. A
	// decode failure here is harmless: the pipeline's own S1 stage
	// re-decodes and produces the real failure response; this
	// best-effort peek only feeds introspection.
	if body, err := antiforgery.Payload(m.payload); err == nil {
		if inv, err := wire.DecodeInvocation(body); err == nil {
			i.state.SetCurrentInvocation(inv)
		}
	}
	defer i.state.SetCurrentInvocation(nil)

	resp, inv := RunPipeline(m.ctx, i.deps.Pipeline, i, m.payload, m.traceBlob)
	return invokeResult{resp: resp, inv: inv}
}

// Invoke delivers payload for synchronous S1-S6 processing on this
// instance's mailbox, blocking until the loop goroutine has run this
// invocation (and any invocation already ahead of it in the mailbox).
func (i *Instance) Invoke(ctx context.Context, payload, traceBlob []byte) (*types.InvocationResponse, *types.Invocation) {
	reply := make(chan invokeResult, 1)
	i.mailbox <- invokeMsg{ctx: ctx, payload: payload, traceBlob: traceBlob, reply: reply}
	res := <-reply
	return res.resp, res.inv
}

// RequestHalt delivers a halt through the mailbox, guaranteeing it
// never runs concurrently with an in-flight invocation or a
// live-update: both travel the same channel, read by the same
// goroutine. Halting an already-halted instance is a no-op (P7),
// short-circuited without touching the mailbox at all.
func (i *Instance) RequestHalt(ctx context.Context) error {
	if !i.state.Healthy() {
		return nil
	}
	reply := make(chan error, 1)
	i.mailbox <- haltMsg{ctx: ctx, reply: reply}
	return <-reply
}

// RequestLiveUpdate delivers a live-update through the mailbox so the
// precompile/swap/release sequence never races a concurrent invocation.
func (i *Instance) RequestLiveUpdate(ctx context.Context, req LiveUpdateRequest) error {
	reply := make(chan error, 1)
	i.mailbox <- updateMsg{ctx: ctx, req: req, reply: reply}
	return <-reply
}

// handleHalt runs on the mailbox loop goroutine only. It is the body
// Manager.Halt used to run inline on the caller's goroutine; moving it
// here means it can never overlap a concurrent invokeMsg or updateMsg
// for the same instance.
func (i *Instance) handleHalt(ctx context.Context) error {
	if !i.state.Healthy() {
		return nil
	}
	i.state.SetHealthy(false)

	publicKey := i.Claims().PublicKey
	latticePrefix := i.state.LatticePrefix()

	i.deps.Events.Publish(ctx, latticePrefix, types.EventActorStopped, types.ActorStoppedData{
		PublicKey:   publicKey,
		InstanceID:  i.InstanceID(),
		Annotations: i.Annotations(),
	})

	if err := i.deps.Supervisor.Release(latticePrefix, publicKey); err != nil {
		i.deps.Logger.Warn("failed to release rpc subscription on halt", map[string]any{"error": err.Error()})
	}
	i.deps.Actors.Deregister(publicKey, i.InstanceID())
	if err := i.engine.Release(i.ArtifactRef()); err != nil {
		i.deps.Logger.Warn("failed to release artifact on halt", map[string]any{"error": err.Error()})
	}
	i.deps.Metrics.IncInstanceHalted()
	return nil
}

// handleLiveUpdate runs on the mailbox loop goroutine only, so the
// precompile/swap/release sequence below can never race a concurrent
// invocation already mid-flight through the engine: any invokeMsg
// enqueued after this updateMsg waits behind it, and any invokeMsg
// enqueued before it has already returned by the time this handler
// runs, since both travel the same single-consumer channel.
func (i *Instance) handleLiveUpdate(ctx context.Context, req LiveUpdateRequest) error {
	if !i.state.Healthy() {
		return ErrInstanceHalted
	}
	ctx = trace.Inject(ctx, req.TraceContext)
	ctx, span := trace.StartLiveUpdate(ctx, i.Claims().PublicKey, req.NewClaims.Revision)
	defer span.End()

	latticePrefix := i.state.LatticePrefix()
	publicKey := i.Claims().PublicKey

	newRef, err := i.engine.Precompile(ctx, req.NewBytes)
	if err != nil {
		trace.SetError(span, err)
		i.deps.Metrics.IncInstanceUpdateFailure()
		i.deps.Events.Publish(ctx, latticePrefix, types.EventActorUpdateFailed, types.ActorUpdateFailedData{
			PublicKey:  publicKey,
			InstanceID: i.InstanceID(),
			Reason:     err.Error(),
		})
		return nil
	}

	if err := i.deps.Claims.Put(ctx, i.state.HostID(), latticePrefix, req.NewClaims); err != nil {
		i.deps.Logger.Warn("failed to persist updated claims", map[string]any{"error": err.Error()})
	}

	oldRef := i.ArtifactRef()
	i.ReplaceArtifactRef(newRef)
	if err := i.engine.Release(oldRef); err != nil {
		i.deps.Logger.Warn("failed to release previous artifact after live update", map[string]any{"error": err.Error()})
	}

	i.deps.Metrics.IncInstanceUpdated()
	i.deps.Events.Publish(ctx, latticePrefix, types.EventActorUpdated, types.ActorUpdatedData{
		PublicKey:  publicKey,
		Revision:   req.NewClaims.Revision,
		InstanceID: i.InstanceID(),
	})
	trace.SetOK(span)
	return nil
}

// NewInstanceForTest exposes the mailbox constructor to tests outside
// the lifecycle manager's Start path, using zero-value deps for
// collaborators the test doesn't exercise.
func NewInstanceForTest(state *types.ActorInstance, engine Engine) *Instance {
	return NewInstance(state, engine, ManagerDeps{})
}

// Introspection queries (get_instance_id, get_claims, get_annotations,
// get_image_ref, get_invocation per 4.1). These read only the state
// cell and never touch the engine or the mailbox, so they cannot block
// behind a long-running invocation.

// InstanceID returns "??" if state is nil, the documented default.
func (i *Instance) InstanceID() string {
	if i == nil {
		return types.DefaultInstanceID
	}
	return i.state.InstanceID()
}

// Claims returns an empty Claims value if state is nil.
func (i *Instance) Claims() types.Claims {
	if i == nil {
		return types.Claims{}
	}
	return i.state.Claims()
}

// Annotations returns an empty map if state is nil.
func (i *Instance) Annotations() types.Annotations {
	if i == nil {
		return types.Annotations{}
	}
	return i.state.Annotations()
}

// ImageRef returns "n/a" if state is nil or the image ref is unset.
func (i *Instance) ImageRef() string {
	if i == nil {
		return types.DefaultImageRef
	}
	return i.state.ImageRef()
}

// CurrentInvocation returns nil if the instance is idle.
func (i *Instance) CurrentInvocation() *types.Invocation {
	if i == nil {
		return nil
	}
	return i.state.CurrentInvocation()
}

// State returns the underlying ActorInstance state cell.
func (i *Instance) State() *types.ActorInstance {
	if i == nil {
		return nil
	}
	return i.state
}

// Engine returns the wasm runtime service this instance invokes through.
func (i *Instance) Engine() Engine {
	if i == nil {
		return nil
	}
	return i.engine
}

// ArtifactRef returns the current opaque handle to the instance's
// precompiled wasm artifact, or a zero ArtifactRef if none has been
// installed yet (pre-start) or state is nil.
func (i *Instance) ArtifactRef() ArtifactRef {
	if i == nil {
		return ArtifactRef(0)
	}
	ref, _ := i.state.ActorReference().(ArtifactRef)
	return ref
}

// ReplaceArtifactRef atomically installs a new ArtifactRef. Only
// Start (before the instance is reachable by anyone else) and the
// mailbox loop's live-update handling call this.
func (i *Instance) ReplaceArtifactRef(ref ArtifactRef) {
	i.state.SetActorReference(ref)
}
