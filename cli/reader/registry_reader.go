package reader

import (
	"fmt"

	"github.com/latticerun/actorhost/metrics"
	"github.com/latticerun/actorhost/registry"
	"github.com/latticerun/actorhost/runtime"
)

// RegistryReader is a live Reader over a host's collaborators: it
// reports on whatever the host's actor registry and metrics collector
// actually hold, rather than stub data. It is not installed by
// `actorhost run`.
type RegistryReader struct {
	hostID  string
	hosts   *registry.HostRegistry
	actors  *registry.ActorRegistry
	metrics *metrics.Collector
}

// NewRegistryReader wires a Reader over a running host's collaborators.
func NewRegistryReader(hostID string, hosts *registry.HostRegistry, actors *registry.ActorRegistry, m *metrics.Collector) *RegistryReader {
	return &RegistryReader{hostID: hostID, hosts: hosts, actors: actors, metrics: m}
}

// InspectInstance implements Reader.
func (r *RegistryReader) InspectInstance(publicKey string) (*InspectInstanceResponse, error) {
	handles := r.actors.Lookup(publicKey)
	if len(handles) == 0 {
		return nil, fmt.Errorf("reader: no live instance for public key %q", publicKey)
	}
	inst, ok := handles[0].Owner.(*runtime.Instance)
	if !ok {
		return nil, fmt.Errorf("reader: registered handle for %q has no instance attached", publicKey)
	}

	claims := inst.Claims()
	resp := &InspectInstanceResponse{
		InstanceID:    inst.InstanceID(),
		PublicKey:     claims.PublicKey,
		Capabilities:  claims.Capabilities,
		ImageRef:      inst.ImageRef(),
		HostID:        inst.State().HostID(),
		LatticePrefix: inst.State().LatticePrefix(),
		Healthy:       inst.State().Healthy(),
	}
	if !claims.IssuedAt.IsZero() {
		issued := claims.IssuedAt
		resp.Issued = &issued
	}
	if !claims.Expires.IsZero() {
		expires := claims.Expires
		resp.Expires = &expires
	}
	if inv := inst.CurrentInvocation(); inv != nil {
		resp.CurrentOp = inv.Operation
	}
	return resp, nil
}

// InspectHost implements Reader.
func (r *RegistryReader) InspectHost(hostID string) (*InspectHostResponse, error) {
	latticePrefix, err := r.hosts.Resolve(hostID)
	if err != nil {
		return nil, fmt.Errorf("reader: %w", err)
	}
	return &InspectHostResponse{
		HostID:        hostID,
		LatticePrefix: latticePrefix,
		InstanceCount: r.actors.Count(),
	}, nil
}

// ListInstances implements Reader.
func (r *RegistryReader) ListInstances() []ListInstanceItem {
	handles := r.actors.All()
	items := make([]ListInstanceItem, 0, len(handles))
	for _, h := range handles {
		inst, ok := h.Owner.(*runtime.Instance)
		if !ok {
			continue
		}
		items = append(items, ListInstanceItem{
			InstanceID: inst.InstanceID(),
			PublicKey:  inst.Claims().PublicKey,
			ImageRef:   inst.ImageRef(),
			Healthy:    inst.State().Healthy(),
		})
	}
	return items
}

// StatsHost implements Reader.
func (r *RegistryReader) StatsHost() *HostStatsResponse {
	snap := r.metrics.Snapshot()
	return &HostStatsResponse{
		HostID:                snap.HostID,
		LatticePrefix:         snap.LatticePrefix,
		InstancesStarted:      snap.InstancesStarted,
		InstancesHalted:       snap.InstancesHalted,
		InstancesUpdated:      snap.InstancesUpdated,
		InstanceUpdateFailure: snap.InstanceUpdateFailure,
		InstanceStartFailure:  snap.InstanceStartFailure,
		InvocationsTotal:      snap.InvocationsTotal,
		InvocationsSucceeded:  snap.InvocationsSucceeded,
		InvocationsFailed:     snap.InvocationsFailed,
		GateRejections:        snap.GateRejections,
		DecodeErrors:          snap.DecodeErrors,
		ChunkWriteSuccess:     snap.ChunkWriteSuccess,
		ChunkWriteFailure:     snap.ChunkWriteFailure,
		DechunkSuccess:        snap.DechunkSuccess,
		DechunkFailure:        snap.DechunkFailure,
	}
}

var _ Reader = (*RegistryReader)(nil)
