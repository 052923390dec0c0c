package lode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/latticerun/actorhost/metrics"
)

// FailingStore is a lode.Store that returns configurable errors.
type FailingStore struct {
	PutErr    error
	GetErr    error
	ExistsErr error
	ListErr   error
	DeleteErr error

	PutCalls    int
	PutPaths    []string
	CloseCalled bool
}

func (s *FailingStore) Put(_ context.Context, path string, _ io.Reader) error {
	s.PutCalls++
	s.PutPaths = append(s.PutPaths, path)
	return s.PutErr
}

func (s *FailingStore) Get(_ context.Context, _ string) (io.ReadCloser, error) {
	return nil, s.GetErr
}

func (s *FailingStore) Exists(_ context.Context, _ string) (bool, error) {
	return false, s.ExistsErr
}

func (s *FailingStore) List(_ context.Context, _ string) ([]string, error) {
	return nil, s.ListErr
}

func (s *FailingStore) Delete(_ context.Context, _ string) error {
	return s.DeleteErr
}

func (s *FailingStore) ReadRange(_ context.Context, _ string, _, _ int64) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (s *FailingStore) ReaderAt(_ context.Context, _ string) (io.ReaderAt, error) {
	return nil, errors.New("not implemented")
}

var _ lode.Store = (*FailingStore)(nil)

// FailingStoreFactory creates a factory that returns store.
func FailingStoreFactory(store *FailingStore) lode.StoreFactory {
	return func() (lode.Store, error) { return store, nil }
}

func testEvents() []Event {
	return []Event{{ID: "evt-1", Type: "actor_started", Data: map[string]any{"key": "value"}}}
}

func testChunks() []Chunk {
	return []Chunk{{Key: "iid-1", Bytes: 4}}
}

// =============================================================================
// FS: Directory Creation Failure Tests
// =============================================================================

func TestLodeClient_FSDirectoryCreationFailure_NonExistentParent(t *testing.T) {
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "does-not-exist", "nested", "path")

	cfg := Config{Dataset: "actorhost", Source: "test", Category: "test", Day: "2026-02-03", RunID: "run-1"}

	client, factoryErr := NewLodeClient(cfg, nonExistentPath)
	if factoryErr != nil {
		errStr := factoryErr.Error()
		if !strings.Contains(errStr, "no such file") &&
			!strings.Contains(errStr, "does not exist") &&
			!strings.Contains(errStr, "not a directory") {
			t.Errorf("factory error should be path-related, got: %v", factoryErr)
		}
		return
	}
	defer func() { _ = client.Close() }()

	writeErr := client.WriteEvents(t.Context(), cfg.Dataset, cfg.RunID, testEvents())
	if writeErr == nil {
		t.Fatal("expected error for non-existent directory, got nil")
	}

	errStr := writeErr.Error()
	if !strings.Contains(errStr, "no such file") &&
		!strings.Contains(errStr, "does not exist") &&
		!strings.Contains(errStr, "not a directory") {
		t.Errorf("write error should be path-related, got: %v", writeErr)
	}
}

func TestLodeClient_FSDirectoryCreationFailure_ReadOnlyParent(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("skipping: test requires non-root user")
	}

	tmpDir := t.TempDir()
	readOnlyDir := filepath.Join(tmpDir, "readonly")
	if err := os.MkdirAll(readOnlyDir, 0o555); err != nil {
		t.Fatalf("failed to create read-only dir: %v", err)
	}

	cfg := Config{Dataset: "actorhost", Source: "test", Category: "test", Day: "2026-02-03", RunID: "run-1"}

	storePath := filepath.Join(readOnlyDir, "data")
	client, factoryErr := NewLodeClient(cfg, storePath)
	if factoryErr != nil {
		errStr := factoryErr.Error()
		if !strings.Contains(errStr, "permission denied") &&
			!strings.Contains(errStr, "read-only") &&
			!strings.Contains(errStr, "EACCES") &&
			!strings.Contains(errStr, "no such file") &&
			!strings.Contains(errStr, "does not exist") {
			t.Errorf("factory error should be path/permission-related, got: %v", factoryErr)
		}
		return
	}
	defer func() { _ = client.Close() }()

	writeErr := client.WriteEvents(t.Context(), cfg.Dataset, cfg.RunID, testEvents())
	if writeErr == nil {
		t.Fatal("expected permission error, got nil")
	}

	errStr := writeErr.Error()
	if !strings.Contains(errStr, "permission denied") &&
		!strings.Contains(errStr, "read-only") &&
		!strings.Contains(errStr, "EACCES") &&
		!strings.Contains(errStr, "no such file") {
		t.Errorf("write error should be path/permission-related, got: %v", writeErr)
	}
}

// =============================================================================
// FS: File Write Failure Tests
// =============================================================================

// DiskFullError simulates ENOSPC.
type DiskFullError struct{ Path string }

func (e *DiskFullError) Error() string {
	return fmt.Sprintf("write %s: no space left on device", e.Path)
}

// PermissionDeniedError simulates EACCES.
type PermissionDeniedError struct{ Path string }

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("write %s: permission denied", e.Path)
}

func TestLodeClient_WriteFailure_DiskFull(t *testing.T) {
	store := &FailingStore{PutErr: &DiskFullError{Path: "/data/actorhost/events.jsonl"}}
	cfg := Config{Dataset: "actorhost", Source: "test", Category: "test", Day: "2026-02-03", RunID: "run-1"}

	client, err := NewLodeClientWithFactory(cfg, FailingStoreFactory(store))
	if err != nil {
		t.Fatalf("NewLodeClientWithFactory failed: %v", err)
	}

	err = client.WriteEvents(t.Context(), cfg.Dataset, cfg.RunID, testEvents())
	if err == nil {
		t.Fatal("expected disk full error, got nil")
	}
	if !strings.Contains(err.Error(), "no space left on device") {
		t.Errorf("expected disk full error, got: %v", err)
	}
	if store.PutCalls != 1 {
		t.Errorf("expected 1 put call, got %d", store.PutCalls)
	}
}

func TestLodeClient_WriteFailure_PermissionDenied(t *testing.T) {
	store := &FailingStore{PutErr: &PermissionDeniedError{Path: "/data/actorhost/events.jsonl"}}
	cfg := Config{Dataset: "actorhost", Source: "test", Category: "test", Day: "2026-02-03", RunID: "run-1"}

	client, err := NewLodeClientWithFactory(cfg, FailingStoreFactory(store))
	if err != nil {
		t.Fatalf("NewLodeClientWithFactory failed: %v", err)
	}

	err = client.WriteEvents(t.Context(), cfg.Dataset, cfg.RunID, testEvents())
	if err == nil {
		t.Fatal("expected permission error, got nil")
	}
	if !strings.Contains(err.Error(), "permission denied") {
		t.Errorf("expected permission denied error, got: %v", err)
	}
}

func TestLodeClient_ChunkWriteFailure_DiskFull(t *testing.T) {
	store := &FailingStore{PutErr: &DiskFullError{Path: "/data/actorhost/chunks.jsonl"}}
	cfg := Config{Dataset: "actorhost", Source: "test", Category: "test", Day: "2026-02-03", RunID: "run-1"}

	client, err := NewLodeClientWithFactory(cfg, FailingStoreFactory(store))
	if err != nil {
		t.Fatalf("NewLodeClientWithFactory failed: %v", err)
	}

	err = client.WriteChunks(t.Context(), cfg.Dataset, cfg.RunID, testChunks())
	if err == nil {
		t.Fatal("expected disk full error, got nil")
	}
	if !strings.Contains(err.Error(), "no space left on device") {
		t.Errorf("expected disk full error, got: %v", err)
	}
}

// =============================================================================
// S3: Auth Failure Tests
// =============================================================================

// S3AuthError simulates AWS authentication failure.
type S3AuthError struct{ Message string }

func (e *S3AuthError) Error() string {
	return fmt.Sprintf("NoCredentialProviders: %s", e.Message)
}

func TestLodeClient_S3AuthFailure(t *testing.T) {
	store := &FailingStore{PutErr: &S3AuthError{Message: "no valid credentials found"}}
	cfg := Config{Dataset: "actorhost", Source: "test", Category: "test", Day: "2026-02-03", RunID: "run-1"}

	client, err := NewLodeClientWithFactory(cfg, FailingStoreFactory(store))
	if err != nil {
		t.Fatalf("NewLodeClientWithFactory failed: %v", err)
	}

	err = client.WriteEvents(t.Context(), cfg.Dataset, cfg.RunID, testEvents())
	if err == nil {
		t.Fatal("expected auth error, got nil")
	}
	if !strings.Contains(err.Error(), "NoCredentialProviders") &&
		!strings.Contains(err.Error(), "credentials") {
		t.Errorf("expected auth-related error, got: %v", err)
	}
}

// =============================================================================
// S3: Access Denied Tests
// =============================================================================

// S3AccessDeniedError simulates AWS access denied.
type S3AccessDeniedError struct {
	Bucket string
	Key    string
}

func (e *S3AccessDeniedError) Error() string {
	return fmt.Sprintf("AccessDenied: Access Denied for s3://%s/%s", e.Bucket, e.Key)
}

func TestLodeClient_S3AccessDenied(t *testing.T) {
	store := &FailingStore{PutErr: &S3AccessDeniedError{Bucket: "my-bucket", Key: "actorhost/data.jsonl"}}
	cfg := Config{Dataset: "actorhost", Source: "test", Category: "test", Day: "2026-02-03", RunID: "run-1"}

	client, err := NewLodeClientWithFactory(cfg, FailingStoreFactory(store))
	if err != nil {
		t.Fatalf("NewLodeClientWithFactory failed: %v", err)
	}

	err = client.WriteEvents(t.Context(), cfg.Dataset, cfg.RunID, testEvents())
	if err == nil {
		t.Fatal("expected access denied error, got nil")
	}
	if !strings.Contains(err.Error(), "AccessDenied") &&
		!strings.Contains(err.Error(), "Access Denied") {
		t.Errorf("expected access denied error, got: %v", err)
	}
}

// =============================================================================
// S3: Network Timeout Tests
// =============================================================================

// S3TimeoutError simulates network timeout.
type S3TimeoutError struct{ Operation string }

func (e *S3TimeoutError) Error() string {
	return fmt.Sprintf("RequestTimeout: %s timed out after 30s", e.Operation)
}

func (e *S3TimeoutError) Timeout() bool { return true }

func TestLodeClient_S3NetworkTimeout(t *testing.T) {
	store := &FailingStore{PutErr: &S3TimeoutError{Operation: "PutObject"}}
	cfg := Config{Dataset: "actorhost", Source: "test", Category: "test", Day: "2026-02-03", RunID: "run-1"}

	client, err := NewLodeClientWithFactory(cfg, FailingStoreFactory(store))
	if err != nil {
		t.Fatalf("NewLodeClientWithFactory failed: %v", err)
	}

	err = client.WriteEvents(t.Context(), cfg.Dataset, cfg.RunID, testEvents())
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !strings.Contains(err.Error(), "Timeout") &&
		!strings.Contains(err.Error(), "timed out") {
		t.Errorf("expected timeout error, got: %v", err)
	}
}

// =============================================================================
// S3: Throttling (429) Tests
// =============================================================================

// S3ThrottlingError simulates rate limiting.
type S3ThrottlingError struct{ RetryAfter int }

func (e *S3ThrottlingError) Error() string {
	return fmt.Sprintf("SlowDown: Rate exceeded, retry after %ds", e.RetryAfter)
}

func TestLodeClient_S3Throttling(t *testing.T) {
	store := &FailingStore{PutErr: &S3ThrottlingError{RetryAfter: 5}}
	cfg := Config{Dataset: "actorhost", Source: "test", Category: "test", Day: "2026-02-03", RunID: "run-1"}

	client, err := NewLodeClientWithFactory(cfg, FailingStoreFactory(store))
	if err != nil {
		t.Fatalf("NewLodeClientWithFactory failed: %v", err)
	}

	err = client.WriteEvents(t.Context(), cfg.Dataset, cfg.RunID, testEvents())
	if err == nil {
		t.Fatal("expected throttling error, got nil")
	}
	if !strings.Contains(err.Error(), "SlowDown") &&
		!strings.Contains(err.Error(), "Rate exceeded") {
		t.Errorf("expected throttling error, got: %v", err)
	}
}

// =============================================================================
// Error Messages Include Storage Context
// =============================================================================

func TestLodeClient_ErrorContainsStorageContext(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantText []string
	}{
		{
			name:     "disk full includes path",
			err:      &DiskFullError{Path: "/var/actorhost/data/events.jsonl"},
			wantText: []string{"/var/actorhost/data", "no space left"},
		},
		{
			name:     "permission denied includes path",
			err:      &PermissionDeniedError{Path: "/var/actorhost/data/events.jsonl"},
			wantText: []string{"/var/actorhost/data", "permission denied"},
		},
		{
			name:     "S3 access denied includes bucket",
			err:      &S3AccessDeniedError{Bucket: "my-bucket", Key: "actorhost/run-1/data.jsonl"},
			wantText: []string{"my-bucket", "AccessDenied"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &FailingStore{PutErr: tt.err}
			cfg := Config{Dataset: "actorhost", Source: "test", Category: "test", Day: "2026-02-03", RunID: "run-1"}

			client, err := NewLodeClientWithFactory(cfg, FailingStoreFactory(store))
			if err != nil {
				t.Fatalf("NewLodeClientWithFactory failed: %v", err)
			}

			err = client.WriteEvents(t.Context(), cfg.Dataset, cfg.RunID, testEvents())
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			errStr := err.Error()
			for _, want := range tt.wantText {
				if !strings.Contains(errStr, want) {
					t.Errorf("error %q should contain %q", errStr, want)
				}
			}
		})
	}
}

// =============================================================================
// Error Propagation (Storage Errors Never Swallowed)
// =============================================================================

func TestLodeClient_ErrorPropagation_EventWrite(t *testing.T) {
	originalErr := errors.New("storage backend unavailable")
	store := &FailingStore{PutErr: originalErr}
	cfg := Config{Dataset: "actorhost", Source: "test", Category: "test", Day: "2026-02-03", RunID: "run-1"}

	client, err := NewLodeClientWithFactory(cfg, FailingStoreFactory(store))
	if err != nil {
		t.Fatalf("NewLodeClientWithFactory failed: %v", err)
	}

	err = client.WriteEvents(t.Context(), cfg.Dataset, cfg.RunID, testEvents())
	if err == nil {
		t.Fatal("error was swallowed, expected propagation")
	}
	if !strings.Contains(err.Error(), "storage backend unavailable") {
		t.Errorf("original error not in chain: %v", err)
	}
}

func TestLodeClient_ErrorPropagation_ChunkWrite(t *testing.T) {
	originalErr := errors.New("storage backend unavailable")
	store := &FailingStore{PutErr: originalErr}
	cfg := Config{Dataset: "actorhost", Source: "test", Category: "test", Day: "2026-02-03", RunID: "run-1"}

	client, err := NewLodeClientWithFactory(cfg, FailingStoreFactory(store))
	if err != nil {
		t.Fatalf("NewLodeClientWithFactory failed: %v", err)
	}

	err = client.WriteChunks(t.Context(), cfg.Dataset, cfg.RunID, testChunks())
	if err == nil {
		t.Fatal("error was swallowed, expected propagation")
	}
	if !strings.Contains(err.Error(), "storage backend unavailable") {
		t.Errorf("original error not in chain: %v", err)
	}
}

func TestLodeClient_ErrorPropagation_MetricsWrite(t *testing.T) {
	originalErr := errors.New("storage backend unavailable")
	store := &FailingStore{PutErr: originalErr}
	cfg := Config{Dataset: "actorhost", Source: "test", Category: "metrics", Day: "2026-02-03", RunID: "run-1"}

	client, err := NewLodeClientWithFactory(cfg, FailingStoreFactory(store))
	if err != nil {
		t.Fatalf("NewLodeClientWithFactory failed: %v", err)
	}

	snap := metrics.Snapshot{InstancesStarted: 1, HostID: "run-1"}
	err = client.WriteMetrics(t.Context(), snap, time.Date(2026, 2, 3, 15, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("error was swallowed, expected propagation")
	}
	if !strings.Contains(err.Error(), "storage backend unavailable") {
		t.Errorf("original error not in chain: %v", err)
	}
}
