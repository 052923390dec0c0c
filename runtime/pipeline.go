package runtime

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/latticerun/actorhost/antiforgery"
	"github.com/latticerun/actorhost/claims"
	"github.com/latticerun/actorhost/metrics"
	"github.com/latticerun/actorhost/objectstore"
	"github.com/latticerun/actorhost/policy"
	"github.com/latticerun/actorhost/types"
	"github.com/latticerun/actorhost/wire"
)

// PipelineDeps are the external collaborators the invocation pipeline
// (C3) threads a Token through. Every field is shared across all
// instances on a host except TrustedIssuers, which is host-wide
// configuration rather than per-call state.
type PipelineDeps struct {
	Verifier       antiforgery.Verifier
	TrustedIssuers []ed25519.PublicKey
	Claims         claims.Store
	Policy         policy.Evaluator
	Objects        objectstore.Store
	Metrics        *metrics.Collector
	HostConfig     map[string]string
	HostLabels     map[string]string
}

// RunPipeline executes the fixed S1-S6 stages against rawBody for inst,
// returning the response to reply with and, when S1 succeeded, the
// decoded invocation (needed by the caller to publish the
// invocation-result event and to reply on the right bus topic). It
// never returns an error: every path produces a response record per the
// propagation policy (7), and the pipeline runs to completion rather
// than aborting early — later stages simply refuse to touch a Token
// that has already failed.
func RunPipeline(ctx context.Context, deps PipelineDeps, inst *Instance, rawBody []byte, traceBlob []byte) (*types.InvocationResponse, *types.Invocation) {
	deps.Metrics.IncInvocationTotal()

	tok := &types.Token{}
	stageUnpack(tok, rawBody, deps)
	stageAntiForgery(tok, inst, rawBody, deps)
	stageSourceTarget(tok, inst, deps)
	stagePolicy(ctx, tok, inst, deps)
	stageDechunk(ctx, tok, deps)
	resp := stageInvoke(ctx, tok, inst, deps, traceBlob)

	if resp.Failed() {
		deps.Metrics.IncInvocationFailed()
	} else {
		deps.Metrics.IncInvocationSucceeded()
	}
	return resp, tok.Invocation
}

// stageUnpack is S1: decode the inbound body from msgpack. rawBody is
// the detached-signature envelope antiforgery.Sign produces (a fixed-size
// signature prefix followed by the msgpack-encoded invocation); stripping
// the prefix here is a pure framing operation and does not itself
// authenticate anything — that is S2's job, run against the same
// rawBody. A failure here leaves tok.IID empty — the invocation id is
// not known until decode succeeds — so the failure response carries no
// id either.
func stageUnpack(tok *types.Token, rawBody []byte, deps PipelineDeps) {
	body, err := antiforgery.Payload(rawBody)
	if err != nil {
		deps.Metrics.IncDecodeError()
		tok.Fail("", "Failed to deserialize invocation")
		return
	}
	inv, err := wire.DecodeInvocation(body)
	if err != nil {
		deps.Metrics.IncDecodeError()
		tok.Fail("", "Failed to deserialize invocation")
		return
	}
	tok.IID = inv.ID
	tok.Invocation = inv
}

// stageAntiForgery is S2: verify the raw body against trusted cluster
// issuer keys. Runs even after a decode failure has no effect, since
// tok.Fail is a no-op once a prior stage has already failed.
func stageAntiForgery(tok *types.Token, inst *Instance, rawBody []byte, deps PipelineDeps) {
	if tok.Failed() {
		return
	}
	if err := deps.Verifier.Validate(rawBody, deps.TrustedIssuers); err != nil {
		deps.Metrics.IncGateRejection("anti_forgery")
		tok.Fail(inst.InstanceID(), fmt.Sprintf("Anti-forgery check failed: %s", err))
		return
	}
	tok.AntiForgery = true
}

// stageSourceTarget is S3: an origin with no link_name/contract_id is
// another actor and passes unconditionally; otherwise it identifies as a
// capability provider and the target instance's own claims must include
// contract_id (P5).
func stageSourceTarget(tok *types.Token, inst *Instance, deps PipelineDeps) {
	if tok.Failed() {
		return
	}
	origin := tok.Invocation.Origin
	if !origin.IsCapabilityProvider() {
		tok.SourceTarget = true
		return
	}
	if !inst.Claims().HasCapability(origin.ContractID) {
		deps.Metrics.IncGateRejection("source_target")
		tok.Fail(inst.InstanceID(), fmt.Sprintf("Invocation source does not have the required capability claim %s", origin.ContractID))
		return
	}
	tok.SourceTarget = true
}

// stagePolicy is S4: look up source and target claims, deny on expiry or
// missing claims, then defer to the policy evaluator. The evaluator is
// not called if S3 already denied (P4).
func stagePolicy(ctx context.Context, tok *types.Token, inst *Instance, deps PipelineDeps) {
	if tok.Failed() {
		return
	}

	latticePrefix := inst.State().LatticePrefix()
	sourceClaims, err := deps.Claims.Lookup(ctx, latticePrefix, tok.Invocation.Origin.PublicKey)
	if err != nil {
		deps.Metrics.IncGateRejection("policy")
		tok.Fail(inst.InstanceID(), "Policy evaluation rejected invocation attempt")
		return
	}
	targetClaims, err := deps.Claims.Lookup(ctx, latticePrefix, tok.Invocation.Target.PublicKey)
	if err != nil {
		deps.Metrics.IncGateRejection("policy")
		tok.Fail(inst.InstanceID(), "Policy evaluation rejected invocation attempt")
		return
	}
	if sourceClaims.Expired(time.Now()) {
		deps.Metrics.IncGateRejection("policy")
		tok.Fail(inst.InstanceID(), "Policy evaluation rejected invocation attempt")
		return
	}

	req := policy.Request{
		HostConfig: deps.HostConfig,
		HostLabels: deps.HostLabels,
		Source:     policy.DescriptorFromClaims(sourceClaims),
		Target:     policy.DescriptorFromClaims(targetClaims),
		Action:     policy.ActionPerformInvocation,
	}
	decision, err := deps.Policy.Evaluate(ctx, req)
	if err != nil || !decision.Allows() {
		deps.Metrics.IncGateRejection("policy")
		tok.Fail(inst.InstanceID(), "Policy evaluation rejected invocation attempt")
		return
	}
	tok.Policy = true
}

// stageDechunk is S5: materialise an out-of-band payload from the
// object store. Skipped entirely if a prior gate already failed. A
// dechunk failure is not fatal: the invocation proceeds with an empty
// payload and the runtime's own error is the observable outcome (Open
// Question (b), error kind 6).
func stageDechunk(ctx context.Context, tok *types.Token, deps PipelineDeps) {
	if tok.Failed() {
		return
	}
	if !tok.Invocation.IsChunked() {
		return
	}
	payload, err := deps.Objects.Dechunk(ctx, tok.Invocation.ID)
	if err != nil {
		deps.Metrics.IncDechunkFailure()
		tok.Invocation.Msg = []byte{}
		return
	}
	deps.Metrics.IncDechunkSuccess()
	tok.Invocation.Msg = payload
}

// stageInvoke is S6: call the runtime and apply the response chunk rule.
// A Token that failed earlier never reaches the runtime (P4); its
// terminal response is returned unchanged.
func stageInvoke(ctx context.Context, tok *types.Token, inst *Instance, deps PipelineDeps, traceBlob []byte) *types.InvocationResponse {
	if tok.Failed() {
		return tok.InvRes
	}

	out, err := inst.Engine().Invoke(ctx, inst.ArtifactRef(), tok.Invocation.Operation, tok.Invocation.Msg, traceBlob)
	if err != nil {
		return &types.InvocationResponse{
			InvocationID:  tok.IID,
			InstanceID:    inst.InstanceID(),
			Msg:           []byte{},
			Error:         err.Error(),
			ContentLength: 0,
		}
	}

	resp := &types.InvocationResponse{
		InvocationID:  tok.IID,
		InstanceID:    inst.InstanceID(),
		Msg:           out,
		ContentLength: int64(len(out)),
	}
	if len(out) > types.ChunkThreshold {
		if werr := deps.Objects.Chunk(ctx, resp.InvocationID+"-r", out); werr == nil {
			deps.Metrics.IncChunkWriteSuccess()
			resp.Msg = []byte{}
		} else {
			deps.Metrics.IncChunkWriteFailure()
		}
	}
	return resp
}
