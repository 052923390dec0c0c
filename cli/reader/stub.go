package reader

import "errors"

// StubReader returns shape-correct stub data. It is the package's
// default Reader (see GetReader) and serves unit tests of the
// rendering layer.
type StubReader struct{}

// NewStubReader creates a new stub reader.
func NewStubReader() *StubReader {
	return &StubReader{}
}

// InspectInstance returns a not-found error: the stub reader has no
// live instances to report on.
func (r *StubReader) InspectInstance(publicKey string) (*InspectInstanceResponse, error) {
	return nil, errors.New("reader: no host wired; run `actorhost run` first")
}

// InspectHost returns a not-found error for the same reason.
func (r *StubReader) InspectHost(hostID string) (*InspectHostResponse, error) {
	return nil, errors.New("reader: no host wired; run `actorhost run` first")
}

// ListInstances returns an empty list.
func (r *StubReader) ListInstances() []ListInstanceItem {
	return nil
}

// StatsHost returns a zero-value snapshot.
func (r *StubReader) StatsHost() *HostStatsResponse {
	return &HostStatsResponse{}
}

// Verify StubReader implements Reader.
var _ Reader = (*StubReader)(nil)
