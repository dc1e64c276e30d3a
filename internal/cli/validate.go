package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/matjmiles/healthcare-job-organizer/internal/ats"
)

func newValidateEmployersCmd(a *app) *cobra.Command {
	var (
		employersPath string
		pause         time.Duration
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "validate-employers",
		Short: "Probe every employer board and report which slugs resolve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if employersPath == "" {
				employersPath = a.cfg.Collector.EmployersPath
			}
			if employersPath == "" {
				return fmt.Errorf("employers path is required")
			}

			employers, err := ats.LoadEmployers(employersPath)
			if err != nil {
				return err
			}

			client := ats.NewClient(ats.ClientConfig{
				UserAgent:         a.cfg.Collector.UserAgent,
				Timeout:           a.cfg.Collector.RequestTimeout,
				MaxRetries:        a.cfg.Collector.MaxRetries,
				RequestsPerSecond: a.cfg.Collector.RequestsPerSecond,
				Burst:             a.cfg.Collector.Burst,
			}, a.logger.Logger)

			results, err := ats.Validate(cmd.Context(), ats.NewRegistry(client), employers, pause)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				printValidation(cmd, results)
			}

			failed := 0
			for _, v := range results {
				if !v.OK {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d employer boards failed validation", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&employersPath, "employers", "e", "", "Employer directory JSON (overrides config)")
	cmd.Flags().DurationVar(&pause, "pause", time.Second, "Delay between board requests")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	return cmd
}

func printValidation(cmd *cobra.Command, results []ats.Validation) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMPANY\tPLATFORM\tSLUG\tSTATUS\tJOBS\tSUGGESTION")
	for _, v := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			v.Employer.Company, v.Employer.Platform, v.Employer.Slug, v.Status, v.JobCount, v.SuggestedSlug)
	}
	w.Flush()
}
