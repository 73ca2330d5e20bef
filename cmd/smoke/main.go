package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/pitchdash/internal/smoke"
)

// Default configuration constants.
const (
	defaultPlayers  = 10
	defaultTimeout  = 90 * time.Second
	defaultSettle   = 3 * time.Minute
	defaultDeadline = 15 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		playerType = flag.String("type", "pitcher", "pitcher or batter")
		players    = flag.Int("players", defaultPlayers, "Roster players to exercise, 0 for all")
		start      = flag.String("start", "", "Start date YYYY-MM-DD")
		end        = flag.String("end", "", "End date YYYY-MM-DD")
		workers    = flag.Int("workers", runtime.NumCPU(), "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle     = flag.Duration("settle", defaultSettle, "Wait for prefetch jobs to drain")
		report     = flag.String("report", "", "Write a JSON report to this file")
		logFile    = flag.String("log", "", "Also write logs to this file")
		verbose    = flag.Bool("verbose", false, "Log every request")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		smoke.ShowHelp(os.Stdout)
		return
	}

	level := "info"
	if *verbose {
		level = "debug"
	}
	closer, err := smoke.SetupLogging(*logFile, level)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = closer.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultDeadline)
	defer cancel()

	config := &smoke.Config{
		BaseURL:    *baseURL,
		Type:       *playerType,
		Players:    *players,
		Start:      *start,
		End:        *end,
		Workers:    max(1, *workers),
		Timeout:    *timeout,
		Settle:     *settle,
		ReportFile: *report,
		Verbose:    *verbose,
	}

	if _, err := smoke.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Smoke run failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
