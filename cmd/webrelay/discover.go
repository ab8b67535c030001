package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
)

func runDiscover() error {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	instances, err := buildDiscoverer(log).Scan(context.Background())
	if err != nil {
		return err
	}
	if len(instances) == 0 {
		fmt.Println("no backends found (is the backend running with mdns enabled, and this binary built with -tags mdns?)")
		return nil
	}

	for _, inst := range instances {
		fmt.Printf("%s\t%s\n", inst.Name, inst.Address)
		keys := make([]string, 0, len(inst.Metadata))
		for k := range inst.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("\t%s=%s\n", k, inst.Metadata[k])
		}
	}
	return nil
}
