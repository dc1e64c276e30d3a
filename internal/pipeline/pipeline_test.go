package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matjmiles/healthcare-job-organizer/internal/location"
	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
	"github.com/matjmiles/healthcare-job-organizer/internal/track"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestPipeline(t *testing.T, states ...string) *Pipeline {
	t.Helper()
	gate, err := location.NewGate(states, true)
	require.NoError(t, err)
	p, err := New(Config{Gate: gate, Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	return p
}

func TestPipeline_Process(t *testing.T) {
	tests := []struct {
		name     string
		raw      posting.Raw
		included bool
		reason   posting.RejectReason
	}{
		{
			name: "healthcare admin assistant",
			raw: posting.Raw{
				Title:       "Healthcare Admin Assistant",
				Description: "Bachelor's degree in Healthcare Administration required. 0-1 years experience.",
				Location:    "Boise, ID",
			},
			included: true,
			reason:   posting.ReasonNone,
		},
		{
			name: "operations director",
			raw: posting.Raw{
				Title:       "Healthcare Operations Director",
				Description: "Master's degree in Healthcare Administration required. 10+ years experience.",
				Location:    "Boise, ID",
			},
			reason: posting.ReasonEducationRequirement,
		},
		{
			name: "registered nurse",
			raw: posting.Raw{
				Title:       "Registered Nurse",
				Description: "Provide direct patient care.",
				Location:    "Boise, ID",
			},
			reason: posting.ReasonClinicalRole,
		},
		{
			name: "medical office coordinator",
			raw: posting.Raw{
				Title:       "Medical Office Coordinator",
				Description: "High school diploma required. Customer service experience preferred.",
				Location:    "Boise, ID",
			},
			reason: posting.ReasonEducationRequirement,
		},
		{
			name: "software engineer",
			raw: posting.Raw{
				Title:       "Software Engineer",
				Description: "Bachelor's degree required. Build billing systems.",
			},
			reason: posting.ReasonSoftwareRole,
		},
		{
			name: "out of scope state",
			raw: posting.Raw{
				Title:       "Patient Access Coordinator",
				Description: "Bachelor's degree preferred.",
				Location:    "Austin, TX",
			},
			reason: posting.ReasonNonTargetLocation,
		},
		{
			name: "remote passes the gate",
			raw: posting.Raw{
				Title:       "Patient Access Coordinator",
				Description: "Bachelor's degree preferred.",
				Location:    "Remote",
			},
			included: true,
			reason:   posting.ReasonNone,
		},
		{
			name:   "all empty",
			raw:    posting.Raw{},
			reason: posting.ReasonNoAdminKeyword,
		},
	}

	p := newTestPipeline(t, "ID", "WA", "OR")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := p.Process(tt.raw)
			assert.Equal(t, tt.included, out.Included(), out.Classification.Explanation)
			assert.Equal(t, tt.included, out.Classification.Included())
			assert.Equal(t, tt.reason, out.Classification.RejectReason)
		})
	}
}

func TestPipeline_ProcessBuildsRecord(t *testing.T) {
	p := newTestPipeline(t)
	raw := posting.Raw{
		Title: "  Patient&nbsp;Access   Representative ",
		Description: "<p>Join our skilled nursing team.</p>" +
			"<p>Pay: $18.00 - $22.00 per hour</p>" +
			"<h3>Qualifications</h3><ul>" +
			"<li>Bachelor&#39;s degree in health administration preferred</li>" +
			"<li>Customer service experience in a medical office</li></ul>",
		Location:  "Meridian, ID",
		SourceURL: "https://jobs.lever.co/acme/abc",
		Platform:  posting.PlatformLever,
		Company:   "Acme Health",
	}

	out := p.Process(raw)
	require.True(t, out.Included(), out.Classification.Explanation)
	rec := out.Record

	assert.Equal(t, "Patient Access Representative", rec.JobTitle)
	assert.Equal(t, "Acme Health", rec.Company)
	assert.Equal(t, "Meridian", rec.City)
	assert.Equal(t, "ID", rec.State)
	assert.Equal(t, "West", rec.Region)
	assert.False(t, rec.RemoteFlag)
	assert.Equal(t, "https://jobs.lever.co/acme/abc", rec.DedupKey)
	assert.Equal(t, posting.JobID(rec.DedupKey), rec.ID)
	assert.Equal(t, "https://jobs.lever.co/acme/abc", rec.SourceFile)
	assert.Equal(t, posting.PlatformLever, rec.SourcePlatform)
	assert.Equal(t, "$20.00/hr", rec.Pay)
	assert.Equal(t, string(track.LongTermCareAdministration), rec.CareerTrack)
	assert.True(t, rec.EntryLevelFlag)
	assert.Equal(t, fixedNow, rec.CollectedAt)
	assert.NotContains(t, rec.JobDescription, "<")
	assert.NotContains(t, rec.JobDescription, "&#39;")
	assert.True(t, strings.HasPrefix(rec.Qualifications, "• Bachelor's degree in health administration preferred"))
	assert.Len(t, rec.QualificationItems, 2)
}

func TestPipeline_MissingQualificationsAndPay(t *testing.T) {
	p := newTestPipeline(t)
	out := p.Process(posting.Raw{
		Title:       "Scheduling Coordinator",
		Description: "Bachelor's degree. Answer phones.",
		Location:    "Remote",
	})

	require.True(t, out.Included(), out.Classification.Explanation)
	assert.Equal(t, "N/A", out.Record.Pay)
	assert.Equal(t, "N/A", out.Record.Qualifications)
	assert.Nil(t, out.Record.PayEstimate.HourlyMidpoint)
	assert.True(t, out.Record.RemoteFlag)
	assert.Equal(t, "Scheduling Coordinator", out.Record.JobTitle)
}

func TestPipeline_RuleSetName(t *testing.T) {
	assert.Equal(t, "standard", newTestPipeline(t).RuleSetName())
}
