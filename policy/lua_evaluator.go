package policy

import (
	"context"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// evaluateFn is the name of the Lua global function a policy script must
// define: evaluate(host_config, host_labels, source, target, action) ->
// permitted, disabled (two booleans).
const evaluateFn = "evaluate"

// LuaEvaluator runs a host-authored Lua script to decide whether an
// invocation is permitted. gopher-lua states are not safe for concurrent
// use, so calls are serialised behind a mutex; this matches the policy
// evaluator's documented contract of being a single RPC-shaped call per
// invocation rather than a hot inner loop.
type LuaEvaluator struct {
	mu    sync.Mutex
	state *lua.LState
}

// NewLuaEvaluator compiles and runs script once (to register its global
// evaluate function) and returns an evaluator ready to call it per
// invocation.
func NewLuaEvaluator(script string) (*LuaEvaluator, error) {
	state := lua.NewState()
	if err := state.DoString(script); err != nil {
		state.Close()
		return nil, fmt.Errorf("policy: failed to load lua script: %w", err)
	}
	if state.GetGlobal(evaluateFn).Type() != lua.LTFunction {
		state.Close()
		return nil, fmt.Errorf("policy: lua script does not define function %q", evaluateFn)
	}
	return &LuaEvaluator{state: state}, nil
}

// Close releases the Lua interpreter state.
func (e *LuaEvaluator) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Close()
}

// Evaluate implements Evaluator.
func (e *LuaEvaluator) Evaluate(_ context.Context, req Request) (Decision, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	L := e.state
	err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal(evaluateFn),
		NRet:    2,
		Protect: true,
	},
		stringMapToTable(L, req.HostConfig),
		stringMapToTable(L, req.HostLabels),
		descriptorToTable(L, req.Source),
		descriptorToTable(L, req.Target),
		lua.LString(string(req.Action)),
	)
	if err != nil {
		return Decision{}, fmt.Errorf("policy: lua evaluation error: %w", err)
	}
	defer L.Pop(2)

	disabled := L.Get(-1)
	permitted := L.Get(-2)

	return Decision{
		Permitted: lua.LVAsBool(permitted),
		Disabled:  lua.LVAsBool(disabled),
	}, nil
}

func stringMapToTable(L *lua.LState, m map[string]string) *lua.LTable {
	t := L.NewTable()
	for k, v := range m {
		t.RawSetString(k, lua.LString(v))
	}
	return t
}

func descriptorToTable(L *lua.LState, d Descriptor) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("public_key", lua.LString(d.PublicKey))
	t.RawSetString("contract_id", lua.LString(d.ContractID))
	t.RawSetString("link_name", lua.LString(d.LinkName))
	caps := L.NewTable()
	for _, c := range d.Capabilities {
		caps.Append(lua.LString(c))
	}
	t.RawSetString("caps", caps)
	return t
}

var _ Evaluator = (*LuaEvaluator)(nil)
