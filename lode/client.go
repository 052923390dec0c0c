package lode

import (
	"context"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/latticerun/actorhost/metrics"
)

// LodeClient is a real Lode-backed implementation of Client, writing
// Hive-partitioned JSONL records with partition keys
// source/category/day/run_id/event_type.
type LodeClient struct {
	dataset lode.Dataset
	config  Config
}

// NewLodeClient creates a new Lode client with filesystem storage.
// The root parameter is the base directory for Hive-partitioned storage.
func NewLodeClient(cfg Config, root string) (*LodeClient, error) {
	return NewLodeClientWithFactory(cfg, lode.NewFSFactory(root))
}

// NewLodeClientWithFactory creates a new Lode client with a custom
// store factory. Use lode.NewMemoryFactory() for testing.
func NewLodeClientWithFactory(cfg Config, factory lode.StoreFactory) (*LodeClient, error) {
	ds, err := lode.NewDataset(
		lode.DatasetID(cfg.Dataset),
		factory,
		lode.WithHiveLayout("source", "category", "day", "run_id", "event_type"),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, WrapInitError(err, cfg.Dataset)
	}
	return newClient(ds, cfg), nil
}

func newClient(ds lode.Dataset, cfg Config) *LodeClient {
	return &LodeClient{dataset: ds, config: cfg}
}

// WriteEvents writes a batch of cloud events to Lode, partitioned by
// event_type (set per record from each event's own Type).
func (c *LodeClient) WriteEvents(ctx context.Context, dataset, runID string, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	records := make([]any, 0, len(events))
	for _, e := range events {
		records = append(records, toEventRecordMap(e, c.config))
	}
	_, err := c.dataset.Write(ctx, records, lode.Metadata{})
	return WrapWriteError(err, c.config.Dataset)
}

// WriteChunks writes a batch of object-store chunk accounting records
// to the event_type=chunk partition.
func (c *LodeClient) WriteChunks(ctx context.Context, dataset, runID string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	records := make([]any, 0, len(chunks))
	for _, chunk := range chunks {
		records = append(records, toChunkRecordMap(chunk, c.config))
	}
	_, err := c.dataset.Write(ctx, records, lode.Metadata{})
	return WrapWriteError(err, c.config.Dataset)
}

// WriteMetrics writes one metrics snapshot to the event_type=metrics
// partition.
func (c *LodeClient) WriteMetrics(ctx context.Context, snap metrics.Snapshot, completedAt time.Time) error {
	record := toMetricsRecordMap(snap, completedAt, c.config)
	_, err := c.dataset.Write(ctx, []any{record}, lode.Metadata{})
	return WrapWriteError(err, c.config.Dataset)
}

// Close releases client resources.
func (c *LodeClient) Close() error {
	// Dataset doesn't require explicit close in current Lode API.
	return nil
}

// Verify LodeClient implements Client.
var _ Client = (*LodeClient)(nil)
