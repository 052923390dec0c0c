package reader

import "time"

// InspectInstanceResponse is the detail view for one live actor
// instance, keyed by its claims public key.
type InspectInstanceResponse struct {
	InstanceID    string     `json:"instance_id"`
	PublicKey     string     `json:"public_key"`
	Capabilities  []string   `json:"capabilities,omitempty"`
	ImageRef      string     `json:"image_ref,omitempty"`
	HostID        string     `json:"host_id"`
	LatticePrefix string     `json:"lattice_prefix"`
	Healthy       bool       `json:"healthy"`
	Issued        *time.Time `json:"issued,omitempty"`
	Expires       *time.Time `json:"expires,omitempty"`
	CurrentOp     string     `json:"current_operation,omitempty"`
}

// InspectHostResponse is the detail view for one virtual host.
type InspectHostResponse struct {
	HostID        string `json:"host_id"`
	LatticePrefix string `json:"lattice_prefix"`
	InstanceCount int    `json:"instance_count"`
}

// ListInstanceItem is one row in `actorctl list`.
type ListInstanceItem struct {
	InstanceID string `json:"instance_id"`
	PublicKey  string `json:"public_key"`
	ImageRef   string `json:"image_ref,omitempty"`
	Healthy    bool   `json:"healthy"`
}

// HostStatsResponse mirrors metrics.Snapshot for the stats command,
// kept as its own type so the CLI layer never imports metrics directly.
type HostStatsResponse struct {
	HostID        string `json:"host_id"`
	LatticePrefix string `json:"lattice_prefix"`

	InstancesStarted      int64 `json:"instances_started"`
	InstancesHalted       int64 `json:"instances_halted"`
	InstancesUpdated      int64 `json:"instances_updated"`
	InstanceUpdateFailure int64 `json:"instance_update_failure"`
	InstanceStartFailure  int64 `json:"instance_start_failure"`

	InvocationsTotal     int64            `json:"invocations_total"`
	InvocationsSucceeded int64            `json:"invocations_succeeded"`
	InvocationsFailed    int64            `json:"invocations_failed"`
	GateRejections       map[string]int64 `json:"gate_rejections,omitempty"`
	DecodeErrors         int64            `json:"decode_errors"`

	ChunkWriteSuccess int64 `json:"chunk_write_success"`
	ChunkWriteFailure int64 `json:"chunk_write_failure"`
	DechunkSuccess    int64 `json:"dechunk_success"`
	DechunkFailure    int64 `json:"dechunk_failure"`
}
