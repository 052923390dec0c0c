// Package policy implements the policy evaluator consumed by S4 of the
// invocation pipeline: given host configuration, host labels, and the
// source/target actor descriptors, decide whether an invocation may
// proceed.
package policy

import (
	"context"

	"github.com/latticerun/actorhost/types"
)

// Action names the operation being authorised. The pipeline always asks
// for "perform_invocation"; the type exists so future lifecycle-policy
// checks (not in scope for this core) have somewhere to grow.
type Action string

// ActionPerformInvocation is the only action this core evaluates.
const ActionPerformInvocation Action = "perform_invocation"

// Descriptor is the actor-shaped view of one side of an invocation that
// the evaluator reasons about.
type Descriptor struct {
	PublicKey    string
	ContractID   string
	LinkName     string
	Capabilities []string
}

// DescriptorFromClaims builds a Descriptor from stored claims.
func DescriptorFromClaims(c types.Claims) Descriptor {
	return Descriptor{PublicKey: c.PublicKey, Capabilities: c.Capabilities}
}

// Request carries everything the evaluator needs to reach a decision.
type Request struct {
	HostConfig map[string]string
	HostLabels map[string]string
	Source     Descriptor
	Target     Descriptor
	Action     Action
}

// Decision is the evaluator's verdict. Disabled means the evaluator has
// no opinion (policy_eval_disabled) and the call is treated as
// permitted; it is distinct from an explicit Permitted=true so callers
// can tell "nobody configured policy" from "policy explicitly allowed
// this".
type Decision struct {
	Permitted bool
	Disabled  bool
}

// Allows reports whether this decision lets the invocation proceed: an
// explicit permit or a disabled (no-op) evaluator both count as a pass.
// An evaluator error is deny and never reaches this method.
func (d Decision) Allows() bool {
	return d.Disabled || d.Permitted
}

// Evaluator is the policy collaborator consumed by S4. An error return
// means deny; Decision.Disabled means permit regardless of Permitted.
type Evaluator interface {
	Evaluate(ctx context.Context, req Request) (Decision, error)
}
