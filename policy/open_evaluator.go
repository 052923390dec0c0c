package policy

import "context"

// OpenEvaluator is the permit-all default: every request is reported as
// policy_eval_disabled, i.e. permitted by the absence of policy rather
// than an explicit grant. This is the evaluator a host runs with until
// an operator installs a LuaEvaluator script.
type OpenEvaluator struct{}

// NewOpenEvaluator constructs the permit-all evaluator.
func NewOpenEvaluator() *OpenEvaluator {
	return &OpenEvaluator{}
}

// Evaluate implements Evaluator.
func (*OpenEvaluator) Evaluate(_ context.Context, _ Request) (Decision, error) {
	return Decision{Disabled: true}, nil
}

var _ Evaluator = (*OpenEvaluator)(nil)
