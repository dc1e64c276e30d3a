package config

import (
	"fmt"
	"time"

	"github.com/matjmiles/healthcare-job-organizer/internal/location"
	"github.com/matjmiles/healthcare-job-organizer/internal/pipeline"
	"github.com/matjmiles/healthcare-job-organizer/internal/qualifications"
	"github.com/matjmiles/healthcare-job-organizer/internal/role"
	"github.com/matjmiles/healthcare-job-organizer/internal/rules"
)

// NewPipeline builds the classification pipeline described by the
// classifier section. A nil now uses the wall clock.
func (c ClassifierConfig) NewPipeline(now func() time.Time) (*pipeline.Pipeline, error) {
	set, err := rules.Lookup(c.RuleSet, c.Weights)
	if err != nil {
		return nil, fmt.Errorf("failed to load rule set: %w", err)
	}

	gate, err := location.NewGate(c.TargetStates, c.RemoteAllowed())
	if err != nil {
		return nil, fmt.Errorf("failed to build location gate: %w", err)
	}

	roles := role.Default()
	if c.Roles != nil {
		roles, err = role.New(*c.Roles)
		if err != nil {
			return nil, fmt.Errorf("failed to build role lexicon: %w", err)
		}
	}

	return pipeline.New(pipeline.Config{
		RuleSet:        set,
		Roles:          roles,
		Gate:           gate,
		Qualifications: qualifications.NewExtractor(c.Headings...),
		Now:            now,
	})
}
