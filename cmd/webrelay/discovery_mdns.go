//go:build mdns

package main

import (
	"log/slog"

	"webrelay/internal/usecase/discovery"
)

func buildDiscoverer(logger *slog.Logger) discovery.Discoverer {
	return discovery.NewMDNSDiscoverer(logger)
}
