// Package runtime implements the actor instance controller: the per-actor
// state cell (C1), the lifecycle manager (C2), and the invocation pipeline
// (C3). It consumes the wasm runtime, object store, claims store, policy
// evaluator, and registry packages as injected collaborators.
package runtime

import (
	"context"
	"errors"
	"sync"
)

// ArtifactRef is an opaque, non-owning handle to a precompiled wasm
// artifact. The instance holds the handle; the Engine owns the bytes
// behind it. Zero is never a valid ref returned by Precompile.
type ArtifactRef uint64

// ErrArtifactNotFound is returned by Invoke/Release when ref does not
// name a live artifact, e.g. after a prior Release or a bad handle.
var ErrArtifactNotFound = errors.New("runtime: artifact not found")

// Engine is the wasm runtime service consumed by the pipeline's S6 and by
// the lifecycle manager's start/live-update paths. It is shared across
// every instance on a host, so implementations must be safe for
// concurrent Invoke calls against distinct ArtifactRefs.
type Engine interface {
	// Precompile loads wasmBytes and returns a handle to the compiled
	// artifact, or an error if the bytes are not a valid module.
	Precompile(ctx context.Context, wasmBytes []byte) (ArtifactRef, error)

	// Invoke calls operation on the artifact named by ref with payload,
	// returning the raw response bytes. traceBlob is an opaque
	// serialised trace context, passed through without interpretation.
	Invoke(ctx context.Context, ref ArtifactRef, operation string, payload []byte, traceBlob []byte) ([]byte, error)

	// Release frees the artifact behind ref. Per spec Open Question (a),
	// the instance releases its previous actor_reference on a successful
	// live-update rather than retaining it until shutdown.
	Release(ref ArtifactRef) error
}

// TestEngine is a deterministic in-process Engine with no real wasm
// interpreter behind it, used by unit tests and as the engine
// cmd/actorhost wires into every host it builds.
// Precompile accepts any byte slice, empty included, except bytes
// registered with Reject to force a named failure; Invoke echoes the payload back unless an
// operation handler has been installed with OnInvoke.
type TestEngine struct {
	mu        sync.Mutex
	next      ArtifactRef
	artifacts map[ArtifactRef][]byte
	rejects   map[string]error // keyed by string(wasmBytes); see Reject
	onInvoke  map[string]func(payload []byte) ([]byte, error)
}

// NewTestEngine creates an empty deterministic engine.
func NewTestEngine() *TestEngine {
	return &TestEngine{
		artifacts: make(map[ArtifactRef][]byte),
		rejects:   make(map[string]error),
		onInvoke:  make(map[string]func(payload []byte) ([]byte, error)),
	}
}

// Reject configures Precompile to fail with err whenever it is called
// with exactly these bytes, modelling a bad-magic-style precompile
// failure for live-update and start failure tests.
func (e *TestEngine) Reject(wasmBytes []byte, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rejects[string(wasmBytes)] = err
}

// OnInvoke installs a deterministic handler for operation, overriding
// the default echo behaviour.
func (e *TestEngine) OnInvoke(operation string, fn func(payload []byte) ([]byte, error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onInvoke[operation] = fn
}

// Precompile implements Engine.
func (e *TestEngine) Precompile(_ context.Context, wasmBytes []byte) (ArtifactRef, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err, ok := e.rejects[string(wasmBytes)]; ok {
		return 0, err
	}

	e.next++
	ref := e.next
	e.artifacts[ref] = append([]byte(nil), wasmBytes...)
	return ref, nil
}

// Invoke implements Engine.
func (e *TestEngine) Invoke(_ context.Context, ref ArtifactRef, operation string, payload []byte, _ []byte) ([]byte, error) {
	e.mu.Lock()
	_, ok := e.artifacts[ref]
	handler := e.onInvoke[operation]
	e.mu.Unlock()

	if !ok {
		return nil, ErrArtifactNotFound
	}
	if handler != nil {
		return handler(payload)
	}
	return payload, nil
}

// Release implements Engine.
func (e *TestEngine) Release(ref ArtifactRef) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.artifacts[ref]; !ok {
		return ErrArtifactNotFound
	}
	delete(e.artifacts, ref)
	return nil
}

var _ Engine = (*TestEngine)(nil)
