package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/psyche/config"
	"github.com/pthm-cable/psyche/persistence"
	"github.com/pthm-cable/psyche/population"
	"github.com/pthm-cable/psyche/telemetry"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation",
		Long: `Run a simulation of the configured population.

Examples:
  psyche run                                # 7 days, 50 agents, defaults
  psyche run --days 30 --agents 500 --parallel
  psyche run --output-dir out --db runs.db  # CSV output and SQLite storage`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Cfg()
			if err := applyRunFlags(cmd, cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			return runSimulation(ctx, cfg)
		},
	}

	cmd.Flags().Uint64("seed", 0, "RNG seed (overrides config)")
	cmd.Flags().Int("days", 0, "Days to simulate (overrides config)")
	cmd.Flags().Int("agents", 0, "Population size (overrides config)")
	cmd.Flags().Float64("dt", 0, "Tick size in days (overrides config)")
	cmd.Flags().Bool("parallel", false, "Step agents concurrently")
	cmd.Flags().Bool("log-stats", false, "Log window stats and bookmarks")
	cmd.Flags().String("output-dir", "", "Output directory for CSV logs and config snapshot")
	cmd.Flags().String("snapshot-dir", "", "Directory for snapshot files")
	cmd.Flags().String("db", "", "SQLite database for run storage")

	return cmd
}

// applyRunFlags copies explicitly set flags into cfg.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Simulation.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("days") {
		cfg.Simulation.Days, _ = flags.GetInt("days")
	}
	if flags.Changed("agents") {
		cfg.Simulation.Agents, _ = flags.GetInt("agents")
	}
	if flags.Changed("dt") {
		cfg.Simulation.DT, _ = flags.GetFloat64("dt")
	}
	if flags.Changed("parallel") {
		cfg.Simulation.Parallel, _ = flags.GetBool("parallel")
	}
	if flags.Changed("log-stats") {
		cfg.Telemetry.LogStats, _ = flags.GetBool("log-stats")
	}
	if flags.Changed("output-dir") {
		cfg.Telemetry.OutputDir, _ = flags.GetString("output-dir")
	}
	if flags.Changed("snapshot-dir") {
		cfg.Telemetry.SnapshotDir, _ = flags.GetString("snapshot-dir")
	}
	if flags.Changed("db") {
		cfg.Persistence.Path, _ = flags.GetString("db")
	}
	return cfg.Refresh()
}

func runSimulation(ctx context.Context, cfg *config.Config) error {
	output, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		return err
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		return err
	}

	var db *persistence.DB
	var runID string
	if cfg.Persistence.Path != "" {
		db, err = persistence.Open(cfg.Persistence.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		db.SetBatchSize(cfg.Persistence.BatchSize)

		cfgYAML, err := cfg.YAML()
		if err != nil {
			return err
		}
		run, err := db.CreateRun(cfg.Simulation.Seed, cfg.Simulation.Agents, cfg.Simulation.DT, cfgYAML)
		if err != nil {
			return err
		}
		runID = run.ID
		slog.Info("run created", "id", runID, "db", cfg.Persistence.Path)
	}

	pop, err := population.New(cfg)
	if err != nil {
		return err
	}

	rec := population.NewRecorder(cfg, output, db, runID)
	if err := rec.Start(pop); err != nil {
		return err
	}

	start := time.Now()
	runErr := pop.Run(ctx, int64(cfg.Derived.TotalTicks), cfg.Simulation.DT, rec.Hooks())

	// Keep what was recorded even when the run stopped early.
	if err := rec.Finish(pop); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("run stopped at tick %d: %w", pop.Tick(), runErr)
	}

	slog.Info("simulation complete",
		"ticks", pop.Tick(),
		"days", pop.Day(),
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
		"bookmarks", len(rec.Bookmarks()),
		"output_dir", output.Dir(),
	)
	return nil
}
