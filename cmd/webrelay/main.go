package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "--help", "-h", "help":
			showUsage()
			return
		}
	}

	if len(os.Args) < 2 || strings.HasPrefix(os.Args[1], "-") {
		if err := runConsole(); err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
		return
	}

	switch os.Args[1] {
	case "console":
		if err := runConsole(); err != nil {
			fmt.Fprintf(os.Stderr, "console: %v\n", err)
			os.Exit(1)
		}
	case "backend":
		if err := runBackend(); err != nil {
			fmt.Fprintf(os.Stderr, "backend: %v\n", err)
			os.Exit(1)
		}
	case "discover":
		if err := runDiscover(); err != nil {
			fmt.Fprintf(os.Stderr, "discover: %v\n", err)
			os.Exit(1)
		}
	case "version":
		runVersion()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\nRun 'webrelay --help' for usage information.\n", os.Args[1])
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`webrelay - remote browser interaction relay

USAGE:
    webrelay [COMMAND] [FLAGS]

COMMANDS:
    console     Launch the operator console (default)
    backend     Run the companion browser backend
    discover    Browse the local network for backends (requires -tags mdns)
    version     Print version information

FLAGS:
    -h, --help         Show this help message
    --config PATH      Config file path (default: ./config.yaml)
    --endpoint URL     Initial backend endpoint (console only)

CONFIGURATION:
    Config file: ./config.yaml
    Environment: WEBRELAY_* variables override config

EXAMPLES:
    webrelay backend                       # serve a headless browser on :8000
    webrelay                               # drive it from this terminal
    webrelay --endpoint http://host:8000   # drive a remote backend
    webrelay discover                      # find backends on the LAN`)
}

// parseFlags extracts --config and --endpoint from os.Args.
func parseFlags() (configPath, endpoint string) {
	configPath = "config.yaml"
	for i := 1; i < len(os.Args); i++ {
		switch {
		case os.Args[i] == "--config" && i+1 < len(os.Args):
			configPath = os.Args[i+1]
			i++
		case strings.HasPrefix(os.Args[i], "--config="):
			configPath = strings.TrimPrefix(os.Args[i], "--config=")
		case os.Args[i] == "--endpoint" && i+1 < len(os.Args):
			endpoint = os.Args[i+1]
			i++
		case strings.HasPrefix(os.Args[i], "--endpoint="):
			endpoint = strings.TrimPrefix(os.Args[i], "--endpoint=")
		}
	}
	return configPath, endpoint
}
