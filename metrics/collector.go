// Package metrics provides per-host metrics collection for the actor
// instance controller.
//
// The Collector accumulates counters over a host's lifetime. It is a
// leaf package with no internal dependencies.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all tracked metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Lifecycle
	InstancesStarted      int64
	InstancesHalted       int64
	InstancesUpdated      int64
	InstanceUpdateFailure int64
	InstanceStartFailure  int64

	// Invocation pipeline
	InvocationsTotal     int64
	InvocationsSucceeded int64
	InvocationsFailed    int64
	GateRejections       map[string]int64 // gate name -> rejection count
	DecodeErrors         int64

	// Object store
	ChunkWriteSuccess int64
	ChunkWriteFailure int64
	DechunkSuccess    int64
	DechunkFailure    int64

	// Lode archival sink
	LodeWriteSuccess int64
	LodeWriteFailure int64

	// Dimensions (informational, set at construction)
	HostID        string
	LatticePrefix string
}

// Collector accumulates metrics for one host's actor instances.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	// Lifecycle
	instancesStarted      int64
	instancesHalted       int64
	instancesUpdated      int64
	instanceUpdateFailure int64
	instanceStartFailure  int64

	// Invocation pipeline
	invocationsTotal     int64
	invocationsSucceeded int64
	invocationsFailed    int64
	gateRejections       map[string]int64
	decodeErrors         int64

	// Object store
	chunkWriteSuccess int64
	chunkWriteFailure int64
	dechunkSuccess    int64
	dechunkFailure    int64

	// Lode archival sink
	lodeWriteSuccess int64
	lodeWriteFailure int64

	// Dimensions
	hostID        string
	latticePrefix string
}

// NewCollector creates a Collector scoped to hostID/latticePrefix.
func NewCollector(hostID, latticePrefix string) *Collector {
	return &Collector{
		gateRejections: make(map[string]int64),
		hostID:         hostID,
		latticePrefix:  latticePrefix,
	}
}

// --- Lifecycle ---

// IncInstanceStarted records a successful actor start.
func (c *Collector) IncInstanceStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.instancesStarted++
	c.mu.Unlock()
}

// IncInstanceHalted records an actor halt.
func (c *Collector) IncInstanceHalted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.instancesHalted++
	c.mu.Unlock()
}

// IncInstanceUpdated records a successful live update.
func (c *Collector) IncInstanceUpdated() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.instancesUpdated++
	c.mu.Unlock()
}

// IncInstanceUpdateFailure records a failed live update (precompile error).
func (c *Collector) IncInstanceUpdateFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.instanceUpdateFailure++
	c.mu.Unlock()
}

// IncInstanceStartFailure records a failed actor start.
func (c *Collector) IncInstanceStartFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.instanceStartFailure++
	c.mu.Unlock()
}

// --- Invocation pipeline ---

// IncInvocationTotal records one invocation entering the pipeline.
func (c *Collector) IncInvocationTotal() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.invocationsTotal++
	c.mu.Unlock()
}

// IncInvocationSucceeded records a pipeline run that reached Invoke and
// produced a non-error response.
func (c *Collector) IncInvocationSucceeded() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.invocationsSucceeded++
	c.mu.Unlock()
}

// IncInvocationFailed records a pipeline run that ended in a failure
// response, regardless of which stage produced it.
func (c *Collector) IncInvocationFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.invocationsFailed++
	c.mu.Unlock()
}

// IncGateRejection records a pipeline gate rejection keyed by gate name
// (anti_forgery, source_target, policy).
func (c *Collector) IncGateRejection(gate string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.gateRejections[gate]++
	c.mu.Unlock()
}

// IncDecodeError records a wire decode failure (S1).
func (c *Collector) IncDecodeError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.decodeErrors++
	c.mu.Unlock()
}

// --- Object store ---

// IncChunkWriteSuccess records a successful object store Chunk call.
func (c *Collector) IncChunkWriteSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.chunkWriteSuccess++
	c.mu.Unlock()
}

// IncChunkWriteFailure records a failed object store Chunk call.
func (c *Collector) IncChunkWriteFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.chunkWriteFailure++
	c.mu.Unlock()
}

// IncDechunkSuccess records a successful object store Dechunk call.
func (c *Collector) IncDechunkSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.dechunkSuccess++
	c.mu.Unlock()
}

// IncDechunkFailure records a failed object store Dechunk call.
func (c *Collector) IncDechunkFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.dechunkFailure++
	c.mu.Unlock()
}

// --- Lode archival sink ---

// IncLodeWriteSuccess records a successful Lode archival write.
func (c *Collector) IncLodeWriteSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.lodeWriteSuccess++
	c.mu.Unlock()
}

// IncLodeWriteFailure records a failed Lode archival write.
func (c *Collector) IncLodeWriteFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.lodeWriteFailure++
	c.mu.Unlock()
}

// Snapshot returns an immutable point-in-time view of all metrics. The
// returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	rejections := make(map[string]int64, len(c.gateRejections))
	for k, v := range c.gateRejections {
		rejections[k] = v
	}

	return Snapshot{
		InstancesStarted:      c.instancesStarted,
		InstancesHalted:       c.instancesHalted,
		InstancesUpdated:      c.instancesUpdated,
		InstanceUpdateFailure: c.instanceUpdateFailure,
		InstanceStartFailure:  c.instanceStartFailure,

		InvocationsTotal:     c.invocationsTotal,
		InvocationsSucceeded: c.invocationsSucceeded,
		InvocationsFailed:    c.invocationsFailed,
		GateRejections:       rejections,
		DecodeErrors:         c.decodeErrors,

		ChunkWriteSuccess: c.chunkWriteSuccess,
		ChunkWriteFailure: c.chunkWriteFailure,
		DechunkSuccess:    c.dechunkSuccess,
		DechunkFailure:    c.dechunkFailure,

		LodeWriteSuccess: c.lodeWriteSuccess,
		LodeWriteFailure: c.lodeWriteFailure,

		HostID:        c.hostID,
		LatticePrefix: c.latticePrefix,
	}
}
