package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/latticerun/actorhost/antiforgery"
	"github.com/latticerun/actorhost/bus"
	"github.com/latticerun/actorhost/claims"
	"github.com/latticerun/actorhost/events"
	"github.com/latticerun/actorhost/log"
	"github.com/latticerun/actorhost/metrics"
	"github.com/latticerun/actorhost/registry"
	"github.com/latticerun/actorhost/trace"
	"github.com/latticerun/actorhost/types"
	"github.com/latticerun/actorhost/wire"
)

// ManagerDeps are the collaborators the lifecycle manager (C2) wires
// together on start, halt, and live-update, plus the pipeline deps (C3)
// reused for every invocation the resulting instance's mailbox handles.
type ManagerDeps struct {
	Engine     Engine
	Bus        bus.Bus
	Supervisor *bus.SubscriptionSupervisor
	Hosts      *registry.HostRegistry
	References *registry.ReferenceMap
	Actors     *registry.ActorRegistry
	Claims     claims.Store
	Events     *events.Publisher
	Metrics    *metrics.Collector
	Logger     *log.Logger
	Pipeline   PipelineDeps
}

// Manager implements the Lifecycle Manager (C2): start, halt, and
// live-update transitions, each publishing its dedicated lifecycle
// event per 4.2.
type Manager struct {
	deps ManagerDeps
}

// NewManager wires a lifecycle manager over deps.
func NewManager(deps ManagerDeps) *Manager {
	return &Manager{deps: deps}
}

// StartRequest carries everything Start needs per 3's Lifecycle clause.
type StartRequest struct {
	Claims      types.Claims
	Bytes       []byte
	ImageRef    string
	Annotations types.Annotations
	HostID      string
}

// Start resolves the instance's lattice, precompiles its bytes, and
// wires the new instance into the claims store, subscription
// supervisor, reference map, and actor registry (C6), publishing
// actor_started only once every prior step has succeeded so that no
// invocation can be delivered before the event is on the wire (P9).
// On precompile failure it publishes actor_start_failed and refuses to
// start: no Instance is returned and no process remains.
func (m *Manager) Start(ctx context.Context, req StartRequest) (*Instance, error) {
	latticePrefix, err := m.deps.Hosts.Resolve(req.HostID)
	if err != nil {
		return nil, fmt.Errorf("runtime: start failed to resolve host: %w", err)
	}

	ref, err := m.deps.Engine.Precompile(ctx, req.Bytes)
	if err != nil {
		m.deps.Metrics.IncInstanceStartFailure()
		m.publishStartFailed(ctx, latticePrefix, req.Claims.PublicKey, err)
		return nil, fmt.Errorf("runtime: precompile failed: %w", err)
	}

	instanceID := uuid.NewString()

	if err := m.deps.Claims.Put(ctx, req.HostID, latticePrefix, req.Claims); err != nil {
		_ = m.deps.Engine.Release(ref)
		m.deps.Metrics.IncInstanceStartFailure()
		m.publishStartFailed(ctx, latticePrefix, req.Claims.PublicKey, err)
		return nil, fmt.Errorf("runtime: failed to persist claims: %w", err)
	}

	state := types.NewActorInstance(instanceID, req.Claims, req.ImageRef, req.Annotations, req.HostID, latticePrefix)
	inst := NewInstance(state, m.deps.Engine, m.deps)
	inst.ReplaceArtifactRef(ref)

	if req.ImageRef != "" {
		m.deps.References.Put(req.Claims.PublicKey, req.ImageRef)
	}

	m.deps.Events.Publish(ctx, latticePrefix, types.EventActorStarted, types.ActorStartedData{
		PublicKey:   req.Claims.PublicKey,
		ImageRef:    req.ImageRef,
		Annotations: req.Annotations,
		Claims:      req.Claims.Public(),
	})

	if err := m.deps.Supervisor.Ensure(ctx, latticePrefix, req.Claims.PublicKey, m.mailboxHandler(inst)); err != nil {
		_ = m.deps.Engine.Release(ref)
		m.deps.Metrics.IncInstanceStartFailure()
		return nil, fmt.Errorf("runtime: failed to ensure rpc subscription: %w", err)
	}

	m.deps.Actors.Register(req.Claims.PublicKey, &registry.Handle{InstanceID: instanceID, Owner: inst})
	m.deps.Metrics.IncInstanceStarted()
	return inst, nil
}

func (m *Manager) publishStartFailed(ctx context.Context, latticePrefix, publicKey string, cause error) {
	m.deps.Events.Publish(ctx, latticePrefix, types.EventActorStartFailed, types.ActorStartFailedData{
		PublicKey: publicKey,
		Reason:    cause.Error(),
	})
}

// Halt terminates inst: publishes actor_stopped, releases its RPC
// subscription and artifact, and deregisters it from C6. Halting an
// already-halted instance is a no-op (P7): Healthy is flipped to false
// exactly once, at the moment halt takes effect. The work itself runs
// on inst's own mailbox goroutine (see handleHalt in instance.go), so
// it can never interleave with an invocation or live-update already
// mid-flight against the same instance.
func (m *Manager) Halt(ctx context.Context, inst *Instance) error {
	return inst.RequestHalt(ctx)
}

// LiveUpdateRequest carries the parameters of a live-update call.
type LiveUpdateRequest struct {
	NewBytes     []byte
	NewClaims    types.Claims
	NewImageRef  string
	TraceContext trace.Context
}

// LiveUpdate precompiles new_bytes and, on success, atomically swaps
// actor_reference and publishes actor_updated; on failure it retains
// the prior reference and publishes actor_update_failed. Either way the
// call always succeeds from the caller's perspective — a failed update
// is a recorded event, not a process crash (4.2, error kind 8). Per
// Open Question (a), the prior artifact is released once the swap
// commits rather than retained until shutdown. Like Halt, the swap
// itself runs on inst's own mailbox goroutine (handleLiveUpdate in
// instance.go): it is delivered through the same channel an in-flight
// invocation would be replying through, so the precompile/swap/release
// sequence can never observe, or be observed by, a concurrent Invoke.
// The update runs under a 30 second deadline carried on ctx into the
// engine's Precompile and the event publish calls.
func (m *Manager) LiveUpdate(ctx context.Context, inst *Instance, req LiveUpdateRequest) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return inst.RequestLiveUpdate(ctx, req)
}

// mailboxHandler wraps the instance's own invocation mailbox (C1/C3) as
// a bus.Handler: deliver to Invoke, publish the invocation-result event
// (C4), and reply on the bus. Per 4.5, an incoming invocation whose
// header list carries a traceparent entry has its distributed tracing
// context extracted and installed via trace.FromHeaders before the
// handling span is opened; absent that header, FromHeaders itself
// clears context rather than leaving a stale parent attached. The raw
// bus envelope is peeked at here (outside the pipeline's own S1/S2
// gates) purely to recover the header list — a peek failure just means
// no headers are available yet, and the real S1 decode inside Invoke
// still runs and produces the authoritative failure response if the
// envelope is actually malformed.
func (m *Manager) mailboxHandler(inst *Instance) bus.Handler {
	return func(ctx context.Context, topic string, payload []byte) {
		ctx = trace.FromHeaders(peekHeaders(payload))

		ctx, span := trace.StartHandleInvocation(ctx, inst.Claims().PublicKey, "", trace.AttrInstanceID.String(inst.InstanceID()))
		defer span.End()

		traceBlob, err := msgpack.Marshal(trace.Extract(ctx))
		if err != nil {
			traceBlob = nil
		}

		resp, inv := inst.Invoke(ctx, payload, traceBlob)

		operation, origin, target, reqBytes := "", "", "", int64(len(payload))
		if inv != nil {
			operation = inv.Operation
			origin = inv.Origin.PublicKey
			target = inv.Target.PublicKey
			reqBytes = inv.ContentLength
			span.SetAttributes(trace.AttrOperation.String(operation), trace.AttrInvocationID.String(inv.ID))
		}

		if resp.Failed() {
			trace.SetError(span, fmt.Errorf("%s", resp.Error))
		} else {
			trace.SetOK(span)
		}

		eventType := types.EventInvocationSucceeded
		if resp.Failed() {
			eventType = types.EventInvocationFailed
		}
		m.deps.Events.Publish(ctx, inst.State().LatticePrefix(), eventType, types.InvocationResultData{
			InvocationID: resp.InvocationID,
			Origin:       origin,
			Target:       target,
			Operation:    operation,
			Bytes:        reqBytes,
			Error:        resp.Error,
		})

		encoded, err := wire.EncodeInvocationResponse(resp)
		if err != nil {
			m.deps.Logger.Error("failed to encode invocation response", map[string]any{"error": err.Error()})
			return
		}
		if err := m.deps.Bus.Publish(ctx, topic+".reply", encoded); err != nil {
			m.deps.Logger.Error("failed to publish invocation reply", map[string]any{"error": err.Error()})
		}
	}
}

// peekHeaders recovers an invocation's header list from a raw bus
// envelope without otherwise validating it, for trace context
// extraction ahead of the real pipeline decode. Returns nil on any
// failure, which trace.FromHeaders already treats as "no traceparent
// present" and clears context accordingly.
func peekHeaders(rawBody []byte) []types.WireHeader {
	body, err := antiforgery.Payload(rawBody)
	if err != nil {
		return nil
	}
	inv, err := wire.DecodeInvocation(body)
	if err != nil {
		return nil
	}
	return inv.Headers
}
