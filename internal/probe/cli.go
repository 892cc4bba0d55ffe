package probe

import (
	"context"
	"fmt"
	"os"

	"github.com/yetog/spritegen/pkg/logger"
)

// SetupLogging initializes the logger, applying debug level when
// verbose output is requested.
func SetupLogging(verbose bool) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	level := "info"
	if verbose {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		return fmt.Errorf("failed to set log level: %w", err)
	}

	logger.Get().Debug(context.Background(), "probe logging ready", logger.String("level", level))
	return nil
}

// ShowHelp prints usage information for the probe tool.
func ShowHelp() {
	os.Stdout.WriteString(`Spritegen Probe Tool
====================

A smoke tool that exercises a running spritegen instance: it seeds
training references, invokes every tool over HTTP, and verifies that
prompt enhancement is deterministic and style recommendations come
back ordered.

Usage:
  go run cmd/probe/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -rounds int
        Enhancement invocations per character (default 3)
  -workers int
        Concurrent request limit (default CPU cores)
  -timeout duration
        HTTP request timeout (default 30s)
  -keep
        Keep seeded fixtures instead of deleting them
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Probe a local instance with default settings
  go run cmd/probe/main.go

  # Probe a remote instance with more rounds
  go run cmd/probe/main.go -url http://staging:9080 -rounds 10

  # Keep the seeded fixtures for inspection
  go run cmd/probe/main.go -keep -verbose
`)
}
