package main

import (
	"fmt"
	"runtime"
)

// Overridden at build time via -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
)

func runVersion() {
	fmt.Printf("webrelay %s (%s) %s %s/%s\n",
		version, commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
