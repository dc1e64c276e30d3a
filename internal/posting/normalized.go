package posting

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matjmiles/healthcare-job-organizer/internal/pay"
	"github.com/matjmiles/healthcare-job-organizer/internal/qualifications"
)

// jobNamespace scopes job IDs derived from dedup keys
var jobNamespace = uuid.MustParse("6f1c2a8e-5b0d-4d59-9a3e-2f7c1d4e8b61")

// Normalized is the output record for a posting that passed every gate.
// It is built once and never modified; a later record with the same
// DedupKey replaces it.
type Normalized struct {
	ID       uuid.UUID `json:"id"`
	DedupKey string    `json:"dedupKey"`

	JobTitle       string   `json:"jobTitle"`
	Company        string   `json:"company"`
	Location       string   `json:"location"`
	City           string   `json:"city"`
	State          string   `json:"state"`
	Region         string   `json:"region"`
	RemoteFlag     bool     `json:"remoteFlag"`
	JobDescription string   `json:"jobDescription"`
	SourceFile     string   `json:"sourceFile"`
	SourcePlatform Platform `json:"sourcePlatform"`

	Qualifications     string                `json:"qualifications"`
	QualificationItems []qualifications.Item `json:"qualificationItems"`
	Pay                string                `json:"pay"`
	PayEstimate        pay.Estimate          `json:"payEstimate"`
	CareerTrack        string                `json:"careerTrack"`
	EntryLevelFlag     bool                  `json:"entryLevelFlag"`
	Classification     Classification        `json:"classification"`

	CollectedAt time.Time  `json:"collectedAt"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	FirstSeenAt *time.Time `json:"firstSeenAt,omitempty"`
}

// DedupKey identifies repeat postings: the trimmed source URL when present,
// otherwise company|title|location
func DedupKey(sourceURL, company, title, location string) string {
	if u := strings.TrimSpace(sourceURL); u != "" {
		return u
	}
	return strings.Join([]string{
		strings.TrimSpace(company),
		strings.TrimSpace(title),
		strings.TrimSpace(location),
	}, "|")
}

// JobID derives a stable identifier from a dedup key
func JobID(dedupKey string) uuid.UUID {
	return uuid.NewSHA1(jobNamespace, []byte(dedupKey))
}
