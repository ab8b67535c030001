//go:build !mdns

package main

import (
	"log/slog"

	"webrelay/internal/usecase/discovery"
)

func buildDiscoverer(_ *slog.Logger) discovery.Discoverer {
	return discovery.NewNoopDiscoverer()
}
