// Package lode archives published cloud events and object-store chunk
// writes into Hive-partitioned Lode storage, so either can be replayed
// or queried independently of the lattice bus and the object store's
// own short-lived chunk buffer.
package lode

import (
	"context"
	"time"

	"github.com/latticerun/actorhost/events"
	"github.com/latticerun/actorhost/metrics"
	"github.com/latticerun/actorhost/types"
)

// DeriveDay computes the partition day from run start time. Format:
// YYYY-MM-DD in UTC.
func DeriveDay(startTime time.Time) string {
	return startTime.UTC().Format("2006-01-02")
}

// DefaultDataset is the default Lode dataset name.
const DefaultDataset = "actorhost"

// Config holds Lode sink configuration. All partition keys are
// required.
type Config struct {
	// Dataset is the Lode dataset ID. NewSink and NewLodeClient use it
	// as given; cmd/actorhost fills in DefaultDataset when the config
	// leaves it empty.
	Dataset string
	// Source is the partition key for the lattice prefix or origin.
	Source string
	// Category is the partition key for logical data type.
	Category string
	// Day is the partition key derived from run start time (YYYY-MM-DD UTC).
	Day string
	// RunID is the partition key for run identifier (e.g. host ID).
	RunID string
}

// Client abstracts the Lode storage client. Real callers use
// LodeClient; stubs are used for testing.
type Client interface {
	// WriteEvents writes a batch of cloud events to Lode. Must preserve
	// ordering within the batch.
	WriteEvents(ctx context.Context, dataset, runID string, events []Event) error

	// WriteChunks writes a batch of object-store chunk accounting
	// records to Lode. Must preserve ordering within the batch.
	WriteChunks(ctx context.Context, dataset, runID string, chunks []Chunk) error

	// WriteMetrics writes a metrics snapshot to Lode.
	WriteMetrics(ctx context.Context, snap metrics.Snapshot, completedAt time.Time) error

	// Close releases client resources.
	Close() error
}

// Sink adapts a Lode Client into events.Sink, so a Publisher can fan
// every lifecycle and invocation-result cloud event it publishes out
// to durable Hive-partitioned storage alongside the lattice bus.
type Sink struct {
	config Config
	client Client
}

// NewSink creates a new Lode sink over client.
func NewSink(config Config, client Client) *Sink {
	return &Sink{
		config: config,
		client: client,
	}
}

// Publish implements events.Sink.
func (s *Sink) Publish(ctx context.Context, evt *types.CloudEvent) error {
	return s.client.WriteEvents(ctx, s.config.Dataset, s.config.RunID, []Event{EventFromCloudEvent(evt)})
}

// Close implements events.Sink.
func (s *Sink) Close() error {
	return s.client.Close()
}

// Verify Sink implements events.Sink.
var _ events.Sink = (*Sink)(nil)

// StubClient is a test client that accepts writes without persisting.
type StubClient struct {
	Events  []StubEventRecord
	Chunks  []StubChunkRecord
	Metrics []StubMetricsRecord
	Closed  bool
}

// StubEventRecord is a recorded event write for testing.
type StubEventRecord struct {
	Dataset string
	RunID   string
	Events  []Event
}

// StubChunkRecord is a recorded chunk write for testing.
type StubChunkRecord struct {
	Dataset string
	RunID   string
	Chunks  []Chunk
}

// StubMetricsRecord is a recorded metrics write for testing.
type StubMetricsRecord struct {
	Snapshot    metrics.Snapshot
	CompletedAt time.Time
}

// NewStubClient creates a new stub client.
func NewStubClient() *StubClient {
	return &StubClient{}
}

// WriteEvents implements Client.
func (c *StubClient) WriteEvents(_ context.Context, dataset, runID string, events []Event) error {
	c.Events = append(c.Events, StubEventRecord{Dataset: dataset, RunID: runID, Events: events})
	return nil
}

// WriteChunks implements Client.
func (c *StubClient) WriteChunks(_ context.Context, dataset, runID string, chunks []Chunk) error {
	c.Chunks = append(c.Chunks, StubChunkRecord{Dataset: dataset, RunID: runID, Chunks: chunks})
	return nil
}

// WriteMetrics implements Client.
func (c *StubClient) WriteMetrics(_ context.Context, snap metrics.Snapshot, completedAt time.Time) error {
	c.Metrics = append(c.Metrics, StubMetricsRecord{Snapshot: snap, CompletedAt: completedAt})
	return nil
}

// Close implements Client.
func (c *StubClient) Close() error {
	c.Closed = true
	return nil
}

// Verify StubClient implements Client.
var _ Client = (*StubClient)(nil)
