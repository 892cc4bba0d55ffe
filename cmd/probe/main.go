package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/yetog/spritegen/internal/probe"
)

// Default configuration constants.
const (
	defaultRounds       = 3
	defaultTimeout      = 30 * time.Second
	defaultProbeTimeout = 5 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		rounds  = flag.Int("rounds", defaultRounds, "Enhancement invocations per character")
		workers = flag.Int("workers", runtime.NumCPU(), "Concurrent request limit")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		keep    = flag.Bool("keep", false, "Keep seeded fixtures instead of deleting them")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp()
		return
	}

	// Setup logging
	if err := probe.SetupLogging(*verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultProbeTimeout)
	defer cancel()

	// Create probe configuration
	config := &probe.Config{
		BaseURL: *baseURL,
		Rounds:  *rounds,
		Workers: *workers,
		Timeout: *timeout,
		Verbose: *verbose,
		Cleanup: !*keep,
	}

	// Run the probe
	if err := probe.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Probe failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
