package discovery

import "context"

// NoopDiscoverer is used when the binary is built without mDNS support.
type NoopDiscoverer struct{}

// NewNoopDiscoverer creates a discoverer that finds nothing and
// advertises nowhere.
func NewNoopDiscoverer() *NoopDiscoverer {
	return &NoopDiscoverer{}
}

func (*NoopDiscoverer) Scan(context.Context) ([]Instance, error) {
	return nil, nil
}

func (*NoopDiscoverer) Advertise(ctx context.Context, _ string, _ int, _ map[string]string) error {
	<-ctx.Done()
	return nil
}
