package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matjmiles/healthcare-job-organizer/internal/ats"
	"github.com/matjmiles/healthcare-job-organizer/internal/collector"
	"github.com/matjmiles/healthcare-job-organizer/internal/report"
	"github.com/matjmiles/healthcare-job-organizer/internal/seen"
	sharedredis "github.com/matjmiles/healthcare-job-organizer/shared/redis"
)

type collectOptions struct {
	employersPath string
	outputDir     string
	concurrency   int
	noSummary     bool
}

func newCollectCmd(a *app) *cobra.Command {
	opts := &collectOptions{}

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run one collection pass and write the output files",
		Long: `Fetches every employer board in the employer directory, classifies each
posting and writes the jobs, employer errors and filtering stats as JSON
into the output directory, followed by a markdown run summary.

Boards that cannot be fetched are listed in errors.json and never abort
the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollect(cmd, a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.employersPath, "employers", "e", "", "Employer directory JSON (overrides config)")
	cmd.Flags().StringVarP(&opts.outputDir, "out", "o", "", "Output directory (overrides config)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "Boards fetched in parallel (overrides config)")
	cmd.Flags().BoolVar(&opts.noSummary, "no-summary", false, "Skip the markdown run summary")

	return cmd
}

func runCollect(cmd *cobra.Command, a *app, opts *collectOptions) error {
	cfg := a.cfg
	if opts.employersPath != "" {
		cfg.Collector.EmployersPath = opts.employersPath
	}
	if opts.outputDir != "" {
		cfg.Collector.OutputDir = opts.outputDir
	}
	if opts.concurrency > 0 {
		cfg.Collector.Concurrency = opts.concurrency
	}
	if err := cfg.ValidateCollectorConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx := cmd.Context()
	log := a.logger.WithAttrs(
		slog.String("command", "collect"),
		slog.String("employers_path", cfg.Collector.EmployersPath),
	).Logger

	employers, err := ats.LoadEmployers(cfg.Collector.EmployersPath)
	if err != nil {
		return err
	}

	pipe, err := cfg.Classifier.NewPipeline(nil)
	if err != nil {
		return err
	}

	cache := seen.Cache(seen.NewMemory(cfg.Redis.SeenTTL))
	if cfg.Redis.URL != "" {
		rdb, err := sharedredis.NewClient(ctx, cfg.Redis.URL, log)
		if err != nil {
			return err
		}
		defer rdb.Close()
		cache = seen.NewRedis(rdb, cfg.Redis.SeenTTL, cfg.Redis.KeyPrefix)
	}

	client := ats.NewClient(ats.ClientConfig{
		UserAgent:         cfg.Collector.UserAgent,
		Timeout:           cfg.Collector.RequestTimeout,
		MaxRetries:        cfg.Collector.MaxRetries,
		RequestsPerSecond: cfg.Collector.RequestsPerSecond,
		Burst:             cfg.Collector.Burst,
	}, log)

	runner, err := collector.New(collector.Config{
		Pipeline:    pipe,
		Fetcher:     ats.NewRegistry(client),
		Seen:        cache,
		Concurrency: cfg.Collector.Concurrency,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	result, err := runner.Run(ctx, employers)
	if err != nil {
		if result != nil {
			if werr := report.WriteJSON(cfg.Collector.OutputDir, result); werr == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Collection interrupted, partial results written to %s\n", cfg.Collector.OutputDir)
			}
		}
		return err
	}

	if err := report.WriteJSON(cfg.Collector.OutputDir, result); err != nil {
		return err
	}
	runner.Commit(ctx, result)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Analyzed %d postings from %d employers\n", result.Stats.TotalJobsAnalyzed, len(employers))
	fmt.Fprintf(out, "Included %d jobs (%d new, %d duplicates removed)\n",
		result.Stats.FinalJobsIncluded, result.Stats.NewPostings, result.Stats.DuplicatesRemoved)
	if n := len(result.Errors); n > 0 {
		fmt.Fprintf(out, "%d employer boards failed, see %s\n", n, filepath.Join(cfg.Collector.OutputDir, report.ErrorsFile))
	}

	if opts.noSummary {
		return nil
	}
	now := time.Now()
	path := filepath.Join(cfg.Collector.OutputDir, report.SummaryFileName(now))
	if err := os.WriteFile(path, []byte(report.Markdown(result.Jobs, &result.Stats, now)), 0o644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	fmt.Fprintf(out, "Summary written to %s\n", path)
	return nil
}
