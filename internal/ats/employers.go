package ats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
)

// LoadEmployers reads the employer directory, a JSON array of
// {company, platform, slug}. Platform names are trimmed and lower-cased;
// unknown platforms are kept so a run can report them per employer.
func LoadEmployers(path string) ([]Employer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read employers file: %w", err)
	}
	return ParseEmployers(data)
}

// ParseEmployers decodes and normalizes an employer directory
func ParseEmployers(data []byte) ([]Employer, error) {
	var entries []Employer
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse employers file: %w", err)
	}

	var errs []error
	for i := range entries {
		e := &entries[i]
		e.Company = strings.TrimSpace(e.Company)
		e.Slug = strings.TrimSpace(e.Slug)
		e.Platform = posting.Platform(strings.ToLower(strings.TrimSpace(string(e.Platform))))

		var missing []string
		if e.Company == "" {
			missing = append(missing, "company")
		}
		if e.Platform == "" {
			missing = append(missing, "platform")
		}
		if e.Slug == "" {
			missing = append(missing, "slug")
		}
		if len(missing) > 0 {
			errs = append(errs, fmt.Errorf("employer %d: missing %s", i, strings.Join(missing, ", ")))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return entries, nil
}

// Validation is the probe result for one employer board
type Validation struct {
	Employer      Employer `json:"employer"`
	OK            bool     `json:"ok"`
	Status        string   `json:"status"`
	JobCount      int      `json:"jobCount"`
	TestedURL     string   `json:"testedUrl,omitempty"`
	SuggestedSlug string   `json:"suggestedSlug,omitempty"`
}

// Validate probes each employer's board in order, pausing between requests.
// A URL-encoded slug that fails is retried decoded and, when that works,
// reported as SuggestedSlug.
func Validate(ctx context.Context, registry *Registry, employers []Employer, pause time.Duration) ([]Validation, error) {
	results := make([]Validation, 0, len(employers))
	for i, emp := range employers {
		if i > 0 && pause > 0 {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(pause):
			}
		}

		v := probe(ctx, registry, emp)
		if !v.OK && strings.Contains(emp.Slug, "%") {
			if decoded, err := url.PathUnescape(emp.Slug); err == nil && decoded != emp.Slug {
				retry := emp
				retry.Slug = decoded
				if probe(ctx, registry, retry).OK {
					v.SuggestedSlug = decoded
				}
			}
		}
		results = append(results, v)
	}
	return results, nil
}

func probe(ctx context.Context, registry *Registry, emp Employer) Validation {
	v := Validation{Employer: emp}

	f, err := registry.Fetcher(emp.Platform)
	if err != nil {
		v.Status = "Unknown platform"
		return v
	}
	v.TestedURL = f.BoardURL(emp.Slug)

	postings, err := f.Fetch(ctx, emp)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			v.Status = fmt.Sprintf("HTTP %d", statusErr.Code)
		} else {
			v.Status = "Error: " + err.Error()
		}
		return v
	}

	v.OK = true
	v.Status = "HTTP 200"
	v.JobCount = len(postings)
	return v
}
