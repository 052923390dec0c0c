package objectstore

import (
	"context"
	"time"

	"github.com/latticerun/actorhost/lode"
)

// ArchiveConfig configures the Lode-backed chunk archive.
type ArchiveConfig struct {
	// Dataset is the Lode dataset ID.
	Dataset string
	// LatticePrefix partitions the archive by logical network.
	LatticePrefix string
	// HostID partitions the archive by host.
	HostID string
}

// Archiver mirrors object-store chunk writes into a Lode dataset for a
// durable audit trail, going through the same LodeClient the event
// publisher's Sink writes through. It never stores the payload bytes
// themselves, only accounting metadata, since S3 already owns the
// bytes and Lode's append-only dataset has no point-read path for
// retrieval anyway.
type Archiver struct {
	client lode.Client
	config ArchiveConfig
}

// NewArchiver creates a Lode-backed archiver with filesystem storage
// rooted at root.
func NewArchiver(cfg ArchiveConfig, root string) (*Archiver, error) {
	client, err := lode.NewLodeClient(archiveLodeConfig(cfg), root)
	if err != nil {
		return nil, err
	}
	return &Archiver{client: client, config: cfg}, nil
}

// NewArchiverWithClient creates an archiver over an already-constructed
// Lode client, e.g. lode.NewStubClient() for testing or a client shared
// with the event publisher's Sink.
func NewArchiverWithClient(cfg ArchiveConfig, client lode.Client) *Archiver {
	return &Archiver{client: client, config: cfg}
}

func archiveLodeConfig(cfg ArchiveConfig) lode.Config {
	return lode.Config{
		Dataset:  cfg.Dataset,
		Source:   cfg.LatticePrefix,
		Category: "objectstore",
		RunID:    cfg.HostID,
	}
}

// Archive records a chunk write. Best-effort: callers ignore the
// returned error, matching the object store's own chunk-on-response
// swallow-and-continue policy (spec Open Question (b)).
func (a *Archiver) Archive(ctx context.Context, key string, data []byte) error {
	now := time.Now().UTC()
	chunk := lode.Chunk{
		Key:        key,
		Bytes:      len(data),
		ArchivedAt: now,
	}
	return a.client.WriteChunks(ctx, a.config.Dataset, a.config.HostID, []lode.Chunk{chunk})
}
