package lode

import (
	"time"

	"github.com/latticerun/actorhost/metrics"
	"github.com/latticerun/actorhost/types"
)

// RecordKind discriminator values for the records this package writes.
const (
	RecordKindEvent   = "event"
	RecordKindChunk   = "chunk"
	RecordKindMetrics = "metrics"
)

// Event is the archival shape of one published cloud event. It mirrors
// types.CloudEvent rather than embedding it directly so the Lode write
// path never has to reach back into the types package for its wire
// envelope.
type Event struct {
	ID              string
	Type            string
	Source          string
	Time            string
	Data            any
	ContractVersion string
	HostID          string
}

// EventFromCloudEvent converts a published cloud event into the shape
// lode.Sink archives.
func EventFromCloudEvent(evt *types.CloudEvent) Event {
	return Event{
		ID:              evt.ID,
		Type:            evt.Type,
		Source:          evt.Source,
		Time:            evt.Time,
		Data:            evt.Data,
		ContractVersion: evt.ContractVersion,
		HostID:          evt.HostID,
	}
}

// Chunk is one accounting record for an object-store chunk write: the
// key it was stored under and how many bytes, never the payload itself
// (the object store already owns the bytes; Lode's append-only dataset
// has no point-read path for retrieval anyway).
type Chunk struct {
	Key        string
	Bytes      int
	ArchivedAt time.Time
}

// toEventRecordMap converts an Event to a map for Lode storage. Lode's
// HiveLayout requires records as map[string]any.
func toEventRecordMap(e Event, cfg Config) map[string]any {
	return map[string]any{
		"record_kind":      RecordKindEvent,
		"event_id":         e.ID,
		"type":             e.Type,
		"event_type":       e.Type, // partition key
		"cloud_source":     e.Source,
		"ts":               e.Time,
		"data":             e.Data,
		"contract_version": e.ContractVersion,
		"host_id":          e.HostID,
		"source":           cfg.Source,
		"category":         cfg.Category,
		"day":              cfg.Day,
		"run_id":           cfg.RunID,
	}
}

// toChunkRecordMap converts a Chunk to a map for Lode storage.
func toChunkRecordMap(c Chunk, cfg Config) map[string]any {
	return map[string]any{
		"record_kind": RecordKindChunk,
		"key":         c.Key,
		"bytes":       c.Bytes,
		"archived_at": c.ArchivedAt.UTC().Format(time.RFC3339),
		"event_type":  "chunk", // partition key
		"source":      cfg.Source,
		"category":    cfg.Category,
		"day":         cfg.Day,
		"run_id":      cfg.RunID,
	}
}

// toMetricsRecordMap converts a metrics snapshot to a map for Lode
// storage, so QueryLatestMetrics can recover the most recent snapshot
// for a run without a separate metrics store.
func toMetricsRecordMap(snap metrics.Snapshot, completedAt time.Time, cfg Config) map[string]any {
	return map[string]any{
		"record_kind":             RecordKindMetrics,
		"instances_started":       snap.InstancesStarted,
		"instances_halted":        snap.InstancesHalted,
		"instances_updated":       snap.InstancesUpdated,
		"instance_update_failure": snap.InstanceUpdateFailure,
		"instance_start_failure":  snap.InstanceStartFailure,
		"invocations_total":       snap.InvocationsTotal,
		"invocations_succeeded":   snap.InvocationsSucceeded,
		"invocations_failed":      snap.InvocationsFailed,
		"decode_errors":           snap.DecodeErrors,
		"chunk_write_success":     snap.ChunkWriteSuccess,
		"chunk_write_failure":     snap.ChunkWriteFailure,
		"dechunk_success":         snap.DechunkSuccess,
		"dechunk_failure":         snap.DechunkFailure,
		"completed_at":            completedAt.UTC().Format(time.RFC3339),
		"event_type":              "metrics", // partition key
		"source":                  cfg.Source,
		"category":                cfg.Category,
		"day":                     cfg.Day,
		"run_id":                  cfg.RunID,
	}
}
