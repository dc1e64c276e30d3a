// Package report writes collection output files and the markdown run summary.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matjmiles/healthcare-job-organizer/internal/collector"
	"github.com/matjmiles/healthcare-job-organizer/internal/pipeline"
	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
)

// Output file names
const (
	JobsFile   = "healthcare_admin_jobs.json"
	ErrorsFile = "errors.json"
	StatsFile  = "filtering_stats.json"
)

// WriteJSON writes the jobs, employer errors and stats of result into dir,
// creating it if needed
func WriteJSON(dir string, result *collector.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	files := []struct {
		name string
		v    any
	}{
		{JobsFile, result.Jobs},
		{ErrorsFile, result.Errors},
		{StatsFile, result.Stats},
	}
	for _, f := range files {
		if err := writeFile(filepath.Join(dir, f.name), f.v); err != nil {
			return err
		}
	}
	return nil
}

// ReadJobs loads a jobs file written by WriteJSON
func ReadJobs(path string) ([]posting.Normalized, error) {
	var jobs []posting.Normalized
	if err := readFile(path, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// ReadStats loads a stats file written by WriteJSON
func ReadStats(path string) (*pipeline.RunStats, error) {
	var stats pipeline.RunStats
	if err := readFile(path, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func writeFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
