// Package objectstore implements the chunked object store consumed by the
// invocation pipeline's dechunk (S5) and chunk-response (S6) steps.
package objectstore

import "context"

// Store is the chunked object store contract: chunk(key, bytes) -> ok|err;
// dechunk(key) -> {ok, bytes}|{err, e}. Request chunks are keyed by
// invocation id; response chunks use "{invocation_id}-r" (see
// types.Invocation.ResponseChunkKey). Implementations must be safe for
// concurrent use across instances on a host.
type Store interface {
	// Chunk persists data under key, replacing any prior value.
	Chunk(ctx context.Context, key string, data []byte) error

	// Dechunk retrieves the bytes stored under key.
	Dechunk(ctx context.Context, key string) ([]byte, error)
}
