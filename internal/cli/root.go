// Package cli implements the hcjobs command line: one-off classification,
// local collection runs, report rendering and employer board validation.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matjmiles/healthcare-job-organizer/internal/config"
	"github.com/matjmiles/healthcare-job-organizer/shared/logger"
)

var version = "dev"

// app carries the state shared by every subcommand
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *logger.Logger
}

// NewRootCmd builds the hcjobs command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "hcjobs",
		Short:         "Collect and classify healthcare administration job postings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a.logger != nil {
				a.logger.Close()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to configuration file (defaults are used when empty)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the configured log level")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "console", "Log format: console or json")

	root.AddCommand(
		newClassifyCmd(a),
		newCollectCmd(a),
		newReportCmd(a),
		newValidateEmployersCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command tree with ctx
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (a *app) init() error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.Load(a.configPath)
	} else {
		a.cfg, err = config.Default()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := a.cfg.Logging.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	a.logger, err = logger.New(&logger.Config{
		Level:      level,
		Format:     a.logFormat,
		Output:     "stderr",
		TimeFormat: time.Kitchen,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("hcjobs version %s\n", version)
		},
	}
}
