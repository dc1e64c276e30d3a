package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matjmiles/healthcare-job-organizer/internal/report"
)

func newReportCmd(a *app) *cobra.Command {
	var jobsPath, statsPath, outPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the markdown run summary from existing output files",
		Long: `Reads a jobs file and, when present, its filtering stats and prints the
markdown run summary.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if jobsPath == "" {
				jobsPath = filepath.Join(a.cfg.Collector.OutputDir, report.JobsFile)
			}
			if statsPath == "" {
				statsPath = filepath.Join(filepath.Dir(jobsPath), report.StatsFile)
			}

			jobs, err := report.ReadJobs(jobsPath)
			if err != nil {
				return err
			}

			stats, err := report.ReadStats(statsPath)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			md := report.Markdown(jobs, stats, time.Now())
			if outPath == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			if err := os.WriteFile(outPath, []byte(md), 0o644); err != nil {
				return fmt.Errorf("failed to write summary: %w", err)
			}
			cmd.Printf("Summary written to %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&jobsPath, "jobs", "", "Jobs file (defaults to the configured output dir)")
	cmd.Flags().StringVar(&statsPath, "stats", "", "Stats file (defaults to the jobs file's directory); the summary omits filtering when missing")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the summary to a file instead of stdout")

	return cmd
}
