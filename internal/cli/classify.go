package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
)

type classifyOptions struct {
	title     string
	text      string
	file      string
	location  string
	company   string
	sourceURL string
	platform  string
}

type classifyOutput struct {
	RuleSet        string                 `json:"ruleSet"`
	Classification posting.Classification `json:"classification"`
	Record         *posting.Normalized    `json:"record,omitempty"`
}

func newClassifyCmd(a *app) *cobra.Command {
	opts := &classifyOptions{}

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a single posting and print the result as JSON",
		Example: `  hcjobs classify --title "Patient Access Coordinator" \
    --file posting.html --location "Boise, ID"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClassify(cmd, a, opts)
		},
	}

	cmd.Flags().StringVar(&opts.title, "title", "", "Posting title")
	cmd.Flags().StringVar(&opts.text, "text", "", "Posting description, HTML or plain text")
	cmd.Flags().StringVar(&opts.file, "file", "", "Read the description from a file")
	cmd.Flags().StringVar(&opts.location, "location", "", "Posting location")
	cmd.Flags().StringVar(&opts.company, "company", "", "Employer name")
	cmd.Flags().StringVar(&opts.sourceURL, "url", "", "Posting URL")
	cmd.Flags().StringVar(&opts.platform, "platform", "", "Source platform (lever, greenhouse)")
	_ = cmd.MarkFlagRequired("title")
	cmd.MarkFlagsMutuallyExclusive("text", "file")

	return cmd
}

func runClassify(cmd *cobra.Command, a *app, opts *classifyOptions) error {
	raw := posting.Raw{
		Title:       opts.title,
		Description: opts.text,
		Location:    opts.location,
		Company:     opts.company,
		SourceURL:   opts.sourceURL,
	}
	if opts.file != "" {
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return fmt.Errorf("failed to read description: %w", err)
		}
		raw.Description = string(data)
	}
	if opts.platform != "" {
		p, err := posting.ParsePlatform(opts.platform)
		if err != nil {
			return err
		}
		raw.Platform = p
	}

	pipe, err := a.cfg.Classifier.NewPipeline(nil)
	if err != nil {
		return err
	}
	out := pipe.Process(raw)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(classifyOutput{
		RuleSet:        pipe.RuleSetName(),
		Classification: out.Classification,
		Record:         out.Record,
	})
}
