package pipeline

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
)

func TestAggregator_Snapshot(t *testing.T) {
	agg := NewAggregator()
	agg.Record(posting.Classification{Decision: posting.Include, RejectReason: posting.ReasonNone})
	agg.Record(posting.Classification{Decision: posting.Include, RejectReason: posting.ReasonNone})
	agg.Record(posting.Classification{Decision: posting.Include, RejectReason: posting.ReasonNone})
	agg.Record(posting.Rejected(posting.ReasonClinicalRole, ""))
	agg.Record(posting.Rejected(posting.ReasonSoftwareRole, ""))
	agg.Record(posting.Rejected(posting.ReasonNoAdminKeyword, ""))
	agg.Record(posting.Rejected(posting.ReasonEducationRequirement, ""))
	agg.Record(posting.Rejected(posting.ReasonNonTargetLocation, ""))
	agg.AddDuplicates(1)
	agg.AddNewPostings(2)
	agg.AddEmployerFailure()

	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	stats := agg.Snapshot(now)

	assert.Equal(t, 8, stats.TotalJobsAnalyzed)
	assert.Equal(t, 3, stats.PassedFilters)
	assert.Equal(t, 2, stats.FinalJobsIncluded)
	assert.Equal(t, 1, stats.DuplicatesRemoved)
	assert.Equal(t, 5, stats.FilteredOut.Total())
	assert.Equal(t, 2, stats.NewPostings)
	assert.Equal(t, 1, stats.EmployersFailed)
	assert.Equal(t, now, stats.Timestamp)
	for _, reason := range posting.RejectReasons {
		assert.Equal(t, 1, stats.FilteredOut.Count(reason), string(reason))
	}
	assert.Equal(t, stats.TotalJobsAnalyzed, stats.PassedFilters+stats.FilteredOut.Total())
}

func TestAggregator_JSONKeys(t *testing.T) {
	data, err := json.Marshal(NewAggregator().Snapshot(time.Now()))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"total_jobs_analyzed", "final_jobs_included", "duplicates_removed", "filtered_out", "timestamp"} {
		assert.Contains(t, decoded, key)
	}
	filtered, ok := decoded["filtered_out"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"clinical_roles", "software_roles", "no_admin_keywords", "education_requirements", "out_of_scope_states"} {
		assert.Contains(t, filtered, key)
	}
}

func TestAggregator_Concurrent(t *testing.T) {
	agg := NewAggregator()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				agg.Record(posting.Classification{Decision: posting.Include})
			} else {
				agg.Record(posting.Rejected(posting.ReasonClinicalRole, ""))
			}
		}(i)
	}
	wg.Wait()

	stats := agg.Snapshot(time.Now())
	assert.Equal(t, 50, stats.TotalJobsAnalyzed)
	assert.Equal(t, 25, stats.PassedFilters)
	assert.Equal(t, 25, stats.FilteredOut.ClinicalRoles)
}

func TestAggregator_IgnoresNonPositive(t *testing.T) {
	agg := NewAggregator()
	agg.AddDuplicates(-3)
	agg.AddNewPostings(0)

	stats := agg.Snapshot(time.Now())
	assert.Zero(t, stats.DuplicatesRemoved)
	assert.Zero(t, stats.NewPostings)
}
