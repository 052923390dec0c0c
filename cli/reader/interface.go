// Package reader provides the read-side data access layer for the
// actorhost CLI. It isolates inspect/list/stats commands from runtime
// internals so the CLI commands themselves stay thin rendering glue.
package reader

// Reader abstracts read-only data access for CLI commands.
// Implementations must not mutate host state.
type Reader interface {
	InspectInstance(publicKey string) (*InspectInstanceResponse, error)
	InspectHost(hostID string) (*InspectHostResponse, error)

	ListInstances() []ListInstanceItem

	StatsHost() *HostStatsResponse
}

// defaultReader is the package-level reader instance.
var defaultReader Reader = NewStubReader()

// SetReader sets the package-level reader instance. Neither binary
// under cmd/ calls it, so GetReader returns the default StubReader
// unless a caller installs another Reader here.
func SetReader(r Reader) {
	defaultReader = r
}

// GetReader returns the current package-level reader instance.
func GetReader() Reader {
	return defaultReader
}
