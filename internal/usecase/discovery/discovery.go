package discovery

import (
	"context"
	"strings"
)

// Instance is one backend found (or advertised) on the local network.
type Instance struct {
	Name     string
	Address  string
	Metadata map[string]string
}

// Discoverer finds and advertises backends on the local network.
type Discoverer interface {
	// Scan browses for backends and returns what it found.
	Scan(ctx context.Context) ([]Instance, error)
	// Advertise registers this backend under name on port with TXT
	// metadata. Blocks until ctx is cancelled; call it in a goroutine.
	Advertise(ctx context.Context, name string, port int, metadata map[string]string) error
}

// parseTXTRecords converts DNS-SD TXT key=value strings to a map.
// Bare keys map to "".
func parseTXTRecords(txt []string) map[string]string {
	metadata := make(map[string]string, len(txt))
	for _, record := range txt {
		k, v, _ := strings.Cut(record, "=")
		if k != "" {
			metadata[k] = v
		}
	}
	return metadata
}
