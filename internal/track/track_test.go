package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCareer(t *testing.T) {
	tests := []struct {
		name  string
		title string
		text  string
		want  CareerTrack
	}{
		{name: "ait title", title: "Administrator in Training (AIT)", want: LongTermCareAdministration},
		{name: "skilled nursing text", title: "Business Office Coordinator", text: "Join our skilled nursing facility.", want: LongTermCareAdministration},
		{name: "snf abbreviation", title: "SNF Admissions Coordinator", want: LongTermCareAdministration},
		{name: "long-term care hyphenated", title: "Scheduler", text: "A long-term care community.", want: LongTermCareAdministration},
		{name: "hospital default", title: "Patient Access Representative", text: "Level I trauma center.", want: HospitalAdministration},
		{name: "ait inside a word", title: "Waitlist Coordinator", want: HospitalAdministration},
		{name: "empty", want: HospitalAdministration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Career(tt.title, tt.text))
		})
	}
}

func TestEntryLevel(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		want        bool
	}{
		{name: "coordinator", title: "Patient Access Coordinator", want: true},
		{name: "senior beats entry hint", title: "Senior Billing Specialist", want: false},
		{name: "sr abbreviation", title: "Sr. Scheduler", want: false},
		{name: "director", title: "Director of Revenue Cycle", want: false},
		{name: "vice president hyphen", title: "Vice-President, Operations", want: false},
		{name: "no title hint, entry description", title: "Revenue Cycle Analyst", description: "This is an entry-level role.", want: true},
		{name: "zero to one years", title: "Revenue Cycle Analyst", description: "0-1 years of experience.", want: true},
		{name: "zero to two years", title: "Revenue Cycle Analyst", description: "0 to 2 years of experience.", want: true},
		{name: "no experience required", title: "Patient Liaison", description: "No experience required; we train.", want: true},
		{name: "silent", title: "Revenue Cycle Analyst", description: "Analyze denials.", want: false},
		{name: "whole words only", title: "Assistantship Program", want: false},
		{name: "plural hint", title: "Front Desk Associates", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EntryLevel(tt.title, tt.description))
		})
	}
}
