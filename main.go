package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pthm-cable/natsel/config"
	"github.com/pthm-cable/natsel/environment"
	"github.com/pthm-cable/natsel/i18n"
	"github.com/pthm-cable/natsel/simulation"
	"github.com/pthm-cable/natsel/telemetry"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the simulation and returns the process exit code, so deferred
// cleanup runs before the process exits.
func run(args []string) int {
	// CLI flags
	fs := flag.NewFlagSet("natsel", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := fs.Int64("seed", 0, "RNG seed (0 = time-based)")
	generations := fs.Int("generations", 0, "Generations to run (0 = use config)")
	envName := fs.String("environment", "", "Environment: equator or arctic (empty = use config)")
	agentList := fs.String("agents", "", "Comma-separated selection agents to enable")
	presetName := fs.String("preset", "", "Named preset to apply before running")
	locale := fs.String("locale", "", "Locale for labels (empty = use config)")
	outputDir := fs.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshotPath := fs.String("snapshot", "", "Resume from a snapshot file")
	snapshotDir := fs.String("snapshot-dir", "", "Directory for snapshots taken on bookmarks and at the end of the run")
	logStats := fs.Bool("log-stats", false, "Output generation stats via slog")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	loc := cfg.Locale
	if *locale != "" {
		loc = *locale
	}
	catalog, err := i18n.New(loc)
	if err != nil {
		slog.Error("failed to load locale", "locale", loc, "error", err)
		return 1
	}

	opts := simulation.Options{
		Seed:        rngSeed,
		LogStats:    *logStats,
		OutputDir:   *outputDir,
		SnapshotDir: *snapshotDir,
	}
	if *envName != "" {
		env, err := environment.Parse(*envName)
		if err != nil {
			slog.Error("invalid environment", "error", err)
			return 1
		}
		opts.Environment = env
	}

	sim, err := simulation.New(cfg, catalog, opts)
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		return 1
	}
	defer func() {
		if err := sim.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}()

	if *snapshotPath != "" {
		snap, err := telemetry.LoadSnapshot(*snapshotPath)
		if err != nil {
			slog.Error("failed to load snapshot", "error", err)
			return 1
		}
		if err := sim.Restore(snap); err != nil {
			slog.Error("failed to restore snapshot", "error", err)
			return 1
		}
		slog.Info("snapshot restored", "path", *snapshotPath, "generation", sim.Generation())
	}

	if *presetName != "" {
		if err := sim.ApplyPreset(*presetName); err != nil {
			slog.Error("failed to apply preset", "error", err)
			return 1
		}
	}
	if *agentList != "" {
		if err := sim.EnableAgents(splitList(*agentList)...); err != nil {
			slog.Error("failed to enable agents", "error", err)
			return 1
		}
	}

	maxGenerations := cfg.Simulation.Generations
	if *generations > 0 {
		maxGenerations = *generations
	}

	slog.Info("starting simulation",
		"seed", rngSeed,
		"generations", maxGenerations,
		"environment", sim.EnvironmentLabel(),
		"locale", catalog.Language().String(),
		"population", sim.Population(),
	)

	for i := 0; i < maxGenerations; i++ {
		if _, err := sim.Step(); err != nil {
			slog.Error("step failed", "error", err)
			return 1
		}
		if sim.Extinct() {
			slog.Info("population extinct", "generation", sim.Generation())
			break
		}
	}

	if *snapshotDir != "" {
		if path, err := telemetry.SaveSnapshot(sim.Snapshot(), *snapshotDir); err != nil {
			slog.Error("failed to save snapshot", "error", err)
		} else {
			slog.Info("snapshot saved", "path", path, "generation", sim.Generation())
		}
	}

	for _, share := range sim.Report() {
		slog.Info("allele", "generation", sim.Generation(), "share", share)
	}
	slog.Info("run complete", "generation", sim.Generation(), "population", sim.Population())
	return 0
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
