package smoke

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/pitchdash/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging initialises the logger, writing to stdout and, when logFile
// is set, to that file as well. The returned closer releases the file.
func SetupLogging(logFile, level string) (io.Closer, error) {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = io.NopCloser(nil)
	)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out, closer = io.MultiWriter(os.Stdout, f), f
	}
	if err := logger.InitWith(out, logger.FormatText); err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := logger.SetLevelString(level); err != nil {
		_ = closer.Close()
		return nil, err
	}
	return closer, nil
}

// ShowHelp prints usage information for the smoke tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `pitchdash smoke run
===================

Exercises a running server: lists a roster, prefetches each player twice,
waits for the cache to fill, then validates every heat map.

Usage:
  go run ./cmd/smoke [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -type string       pitcher or batter (default "pitcher")
  -players int       Roster players to exercise, 0 for all (default 10)
  -start, -end       Date range, YYYY-MM-DD (default: server season)
  -workers int       Concurrent workers (default CPU cores)
  -timeout duration  HTTP request timeout (default 90s)
  -settle duration   Wait for prefetch jobs to drain (default 3m)
  -report string     Write a JSON report to this file
  -log string        Also write logs to this file
  -verbose           Log every request
  -help              Show this help message

Examples:
  go run ./cmd/smoke -players 5
  go run ./cmd/smoke -type batter -start 2024-06-01 -end 2024-06-30 -report out/smoke.json
`)
}
