package pipeline

import (
	"sync"
	"time"

	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
)

// FilteredOut tallies exclusions per reason
type FilteredOut struct {
	ClinicalRoles         int `json:"clinical_roles"`
	SoftwareRoles         int `json:"software_roles"`
	NoAdminKeywords       int `json:"no_admin_keywords"`
	EducationRequirements int `json:"education_requirements"`
	OutOfScopeStates      int `json:"out_of_scope_states"`
}

// Total sums every exclusion
func (f FilteredOut) Total() int {
	return f.ClinicalRoles + f.SoftwareRoles + f.NoAdminKeywords + f.EducationRequirements + f.OutOfScopeStates
}

// Count returns the tally for one reason
func (f FilteredOut) Count(reason posting.RejectReason) int {
	switch reason {
	case posting.ReasonClinicalRole:
		return f.ClinicalRoles
	case posting.ReasonSoftwareRole:
		return f.SoftwareRoles
	case posting.ReasonNoAdminKeyword:
		return f.NoAdminKeywords
	case posting.ReasonEducationRequirement:
		return f.EducationRequirements
	case posting.ReasonNonTargetLocation:
		return f.OutOfScopeStates
	default:
		return 0
	}
}

// RunStats is a point-in-time snapshot of a run's counters
type RunStats struct {
	TotalJobsAnalyzed int         `json:"total_jobs_analyzed"`
	PassedFilters     int         `json:"passed_filters"`
	FinalJobsIncluded int         `json:"final_jobs_included"`
	DuplicatesRemoved int         `json:"duplicates_removed"`
	FilteredOut       FilteredOut `json:"filtered_out"`
	NewPostings       int         `json:"new_postings"`
	EmployersFailed   int         `json:"employers_failed"`
	Timestamp         time.Time   `json:"timestamp"`
}

// Aggregator accumulates run counters. Counters only ever grow; all methods
// are safe for concurrent use.
type Aggregator struct {
	mu              sync.Mutex
	examined        int
	passed          int
	filtered        FilteredOut
	duplicates      int
	newPostings     int
	employersFailed int
}

// NewAggregator returns zeroed counters
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Record counts one classified posting
func (a *Aggregator) Record(c posting.Classification) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.examined++
	if c.Included() {
		a.passed++
		return
	}
	switch c.RejectReason {
	case posting.ReasonClinicalRole:
		a.filtered.ClinicalRoles++
	case posting.ReasonSoftwareRole:
		a.filtered.SoftwareRoles++
	case posting.ReasonNoAdminKeyword:
		a.filtered.NoAdminKeywords++
	case posting.ReasonEducationRequirement:
		a.filtered.EducationRequirements++
	case posting.ReasonNonTargetLocation:
		a.filtered.OutOfScopeStates++
	}
}

// AddDuplicates counts records collapsed by Dedupe
func (a *Aggregator) AddDuplicates(n int) {
	if n <= 0 {
		return
	}
	a.mu.Lock()
	a.duplicates += n
	a.mu.Unlock()
}

// AddNewPostings counts included postings not seen in earlier runs
func (a *Aggregator) AddNewPostings(n int) {
	if n <= 0 {
		return
	}
	a.mu.Lock()
	a.newPostings += n
	a.mu.Unlock()
}

// AddEmployerFailure counts one employer whose feed could not be fetched
func (a *Aggregator) AddEmployerFailure() {
	a.mu.Lock()
	a.employersFailed++
	a.mu.Unlock()
}

// Snapshot returns the current counters stamped with now
func (a *Aggregator) Snapshot(now time.Time) RunStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	final := a.passed - a.duplicates
	if final < 0 {
		final = 0
	}
	return RunStats{
		TotalJobsAnalyzed: a.examined,
		PassedFilters:     a.passed,
		FinalJobsIncluded: final,
		DuplicatesRemoved: a.duplicates,
		FilteredOut:       a.filtered,
		NewPostings:       a.newPostings,
		EmployersFailed:   a.employersFailed,
		Timestamp:         now.UTC(),
	}
}
