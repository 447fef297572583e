package connector

import (
	"context"
	"sort"
)

// Driver implements the connector operations for one hosting variant
type Driver interface {
	// Kind returns the variant tag this driver serves
	Kind() Kind

	// DisplayName returns the fixed human label of the variant
	DisplayName() string

	// URL returns the repository's web URL
	URL(c *Connector, repository string) string

	// LatestCommit returns the newest commit id on branch
	LatestCommit(ctx context.Context, c *Connector, repository, branch string) (string, bool)

	// LatestTag returns the first listed tag name
	LatestTag(ctx context.Context, c *Connector, repository string) (string, bool)

	// DownloadReference returns a snapshot archive URL for ref
	DownloadReference(ctx context.Context, c *Connector, repository, ref string) (string, bool)

	// Headers returns the request headers the variant authenticates with
	Headers(c *Connector) map[string]string
}

// drivers is the dispatch table of available variants
var drivers = make(map[Kind]Driver)

// RegisterDriver adds a driver to the dispatch table
func RegisterDriver(d Driver) {
	drivers[d.Kind()] = d
}

// DriverFor returns the driver for a kind
func DriverFor(kind Kind) (Driver, bool) {
	d, ok := drivers[kind]
	return d, ok
}

// Kinds returns all registered kinds in a stable order
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(drivers))
	for k := range drivers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
