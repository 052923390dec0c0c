// Package reader provides the read-side data access layer for the
// actorhost CLI.
//
// The package uses dependency injection via SetReader() to swap between
// the stub and the live registry-backed reader. Default is StubReader.
package reader

// InspectInstance returns details for one live instance, identified by
// its claims public key. Delegates to the package-level reader.
func InspectInstance(publicKey string) (*InspectInstanceResponse, error) {
	return defaultReader.InspectInstance(publicKey)
}

// InspectHost returns details for the named virtual host. Delegates to
// the package-level reader.
func InspectHost(hostID string) (*InspectHostResponse, error) {
	return defaultReader.InspectHost(hostID)
}

// ListInstances returns every live instance on the host. Delegates to
// the package-level reader.
func ListInstances() []ListInstanceItem {
	return defaultReader.ListInstances()
}

// StatsHost returns the host's accumulated metrics. Delegates to the
// package-level reader.
func StatsHost() *HostStatsResponse {
	return defaultReader.StatsHost()
}
