// fitloom runs one batch ingestion pass: it reads a tracker export tree,
// normalizes every enabled metric family, and replaces the Parquet
// snapshots in the output directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/tskov/fitloom/internal/config"
	"github.com/tskov/fitloom/internal/errors"
	"github.com/tskov/fitloom/internal/logging"
	"github.com/tskov/fitloom/internal/pipeline"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfgPath := flag.String("config", "config.yaml", "config file path")
	sourceDir := flag.String("source", "", "export directory (overrides config)")
	outputDir := flag.String("out", "", "snapshot directory (overrides config)")
	families := flag.String("families", "", "comma-separated family filter (overrides config)")
	timezone := flag.String("timezone", "", "IANA zone for naive timestamps (overrides config)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	logJSON := flag.Bool("log-json", false, "force JSON log output")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Printf("fitloom %s\n", Version)
		return
	}

	level := parseLevel(*logLevel)
	if *logJSON {
		logging.Init(level, true)
	} else {
		logging.InitAuto(level)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("no config file found, using defaults", "path", *cfgPath)
			cfg = config.DefaultConfig()
		} else {
			logging.Error("load config", "error", err)
			os.Exit(2)
		}
	}

	// CLI overrides
	if *sourceDir != "" {
		cfg.SourceDir = *sourceDir
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *families != "" {
		cfg.Families = splitFamilies(*families)
	}
	if *timezone != "" {
		cfg.Timezone = *timezone
	}
	if err := cfg.Validate(); err != nil {
		logging.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info("fitloom starting",
		"version", Version,
		"source", cfg.SourceDir,
		"output", cfg.OutputDir)

	sum, err := pipeline.New(cfg).Run(ctx)
	printSummary(sum)
	if err != nil {
		logging.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitFamilies(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// printSummary writes the human-readable run report to stdout. Logs carry
// the same facts; this is the at-a-glance version.
func printSummary(sum *pipeline.Summary) {
	if sum == nil {
		return
	}

	fmt.Printf("\nRun %s (%s)\n", sum.RunID, sum.Elapsed.Round(time.Millisecond))

	fams := make([]string, 0, len(sum.Families))
	for f := range sum.Families {
		fams = append(fams, f)
	}
	sort.Strings(fams)
	for _, f := range fams {
		st := sum.Families[f]
		fmt.Printf("  %-24s %d files", f, st.FilesProcessed)
		if st.FilesSkipped > 0 {
			fmt.Printf(", %d skipped", st.FilesSkipped)
		}
		fmt.Println()
	}

	if len(sum.Written) > 0 {
		fmt.Println("Snapshots:")
		for _, t := range sum.Written {
			fmt.Printf("  %-24s %d rows\n", t, sum.Rows[t])
		}
	}
	for _, t := range sum.Failed {
		fmt.Printf("  %-24s FAILED\n", t)
	}
}
