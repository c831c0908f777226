// cmd/seed/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/javajoker/querylab/internal/cache"
	"github.com/javajoker/querylab/internal/config"
	"github.com/javajoker/querylab/internal/database"
	"github.com/javajoker/querylab/internal/seeder"
	"github.com/javajoker/querylab/internal/services"
	"github.com/javajoker/querylab/internal/telemetry"
)

type seedFlags struct {
	tier       string
	reset      bool
	runID      string
	batchSize  int
	seed       uint64
	invalidate bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &seedFlags{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a synthetic e-commerce dataset",
		Long: `Generate categories, products, users, orders and order items in one of
three size tiers (small, medium, large). Runs append unless --reset is given.

The server's cached product report is cleared only when redis is enabled for
this command (REDIS_ENABLED=true or --invalidate-cache). Otherwise the fast
report may serve pre-seed totals until REDIS_REPORT_TTL expires.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			applyFlags(cmd, cfg, flags)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runSeed(ctx, cfg, flags.seed)
		},
	}

	cmd.Flags().StringVar(&flags.tier, "tier", "", "dataset tier: small, medium or large (default from SEED_TIER)")
	cmd.Flags().BoolVar(&flags.reset, "reset", false, "drop and recreate all tables before generating")
	cmd.Flags().StringVar(&flags.runID, "run-id", "", "label that keeps unique columns distinct across runs")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", 0, "rows per insert transaction (default from SEED_BATCH_SIZE)")
	cmd.Flags().Uint64Var(&flags.seed, "seed", 0, "random seed for reproducible datasets (0 picks one)")
	cmd.Flags().BoolVar(&flags.invalidate, "invalidate-cache", false, "clear the cached product report in redis after seeding (default from REDIS_ENABLED)")

	return cmd
}

// applyFlags lets explicit flags win over the environment.
func applyFlags(cmd *cobra.Command, cfg *config.Config, flags *seedFlags) {
	if cmd.Flags().Changed("tier") {
		cfg.Seed.Tier = flags.tier
	}
	if cmd.Flags().Changed("reset") {
		cfg.Seed.Reset = flags.reset
	}
	if cmd.Flags().Changed("run-id") {
		cfg.Seed.RunID = flags.runID
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.Seed.BatchSize = flags.batchSize
	}
	if cmd.Flags().Changed("invalidate-cache") {
		cfg.Redis.Enabled = flags.invalidate
	}
}

func runSeed(ctx context.Context, cfg *config.Config, seed uint64) error {
	logger := telemetry.NewLogger(cfg.Log, os.Stderr)
	logrus.SetLevel(logger.GetLevel())

	tier, err := seeder.ParseTier(cfg.Seed.Tier)
	if err != nil {
		return err
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	gen := seeder.NewGenerator(db, telemetry.NewLogrusRecorder(logger, logrus.InfoLevel))
	summary, err := gen.Run(ctx, seeder.Options{
		Tier:      tier,
		Reset:     cfg.Seed.Reset,
		RunID:     cfg.Seed.RunID,
		BatchSize: cfg.Seed.BatchSize,
		Seed:      seed,
	})
	if err != nil {
		if summary != nil {
			renderSummary(summary, nil)
		}
		return fmt.Errorf("seeding failed: %w", err)
	}

	stats, err := services.NewStatsService(db).GetDatasetStats(ctx)
	if err != nil {
		return err
	}

	if cfg.Redis.Enabled {
		invalidateReportCache(ctx, cfg.Redis, logger)
	}

	renderSummary(summary, stats)
	return nil
}

// invalidateReportCache drops the cached product report so the API reflects the new rows.
func invalidateReportCache(ctx context.Context, cfg config.RedisConfig, logger *logrus.Logger) {
	client, err := cache.Connect(ctx, cfg)
	if err != nil {
		logger.WithError(err).Warn("Could not reach redis; cached report may be stale")
		return
	}
	defer client.Close()

	reportCache := cache.NewRedisReportCache(client, time.Duration(cfg.ReportTTL)*time.Second)
	if err := reportCache.InvalidateProductReport(ctx); err != nil {
		logger.WithError(err).Warn("Failed to invalidate cached report")
	}
}

func renderSummary(summary *seeder.Summary, stats *services.DatasetStats) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Seed run %s (%s) in %s", summary.RunID, summary.Tier, summary.Duration.Round(time.Millisecond)))
	t.SetStyle(table.StyleLight)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})

	t.AppendHeader(table.Row{"Entity", "Created", "Total"})
	rows := []struct {
		name    string
		created int64
		total   func(*services.DatasetStats) int64
	}{
		{"categories", summary.Categories, func(s *services.DatasetStats) int64 { return s.Categories }},
		{"products", summary.Products, func(s *services.DatasetStats) int64 { return s.Products }},
		{"users", summary.Users, func(s *services.DatasetStats) int64 { return s.Users }},
		{"orders", summary.Orders, func(s *services.DatasetStats) int64 { return s.Orders }},
		{"order items", summary.OrderItems, func(s *services.DatasetStats) int64 { return s.OrderItems }},
	}
	for _, r := range rows {
		total := "-"
		if stats != nil {
			total = fmt.Sprint(r.total(stats))
		}
		t.AppendRow(table.Row{r.name, r.created, total})
	}
	t.Render()
}
