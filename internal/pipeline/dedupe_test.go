package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
)

func record(url, company, title, loc string, at time.Time) posting.Normalized {
	return posting.Normalized{
		DedupKey:    posting.DedupKey(url, company, title, loc),
		SourceFile:  url,
		Company:     company,
		JobTitle:    title,
		Location:    loc,
		CollectedAt: at,
	}
}

func TestDedupe_LastWriteWins(t *testing.T) {
	earlier := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Hour)

	out, removed := Dedupe([]posting.Normalized{
		record("https://jobs.lever.co/acme/1", "Acme", "Scheduler", "Boise, ID", earlier),
		record("https://jobs.lever.co/acme/1", "Acme", "Scheduler", "Boise, ID", later),
	})

	require.Len(t, out, 1)
	assert.Equal(t, 1, removed)
	assert.Equal(t, later, out[0].CollectedAt)
}

func TestDedupe_CompositeKeyAndOrder(t *testing.T) {
	now := time.Now()
	in := []posting.Normalized{
		record("", "Acme", "Scheduler", "Boise, ID", now),
		record("https://a/2", "Acme", "Biller", "Boise, ID", now),
		record("", "Acme", "Scheduler", "Nampa, ID", now),
		record("", "Acme", "Scheduler", "Boise, ID", now.Add(time.Minute)),
		record("https://a/3", "Acme", "Clerk", "Boise, ID", now),
	}

	out, removed := Dedupe(in)
	assert.Equal(t, 1, removed)

	var keys []string
	for _, r := range out {
		keys = append(keys, r.DedupKey)
	}
	assert.Equal(t, []string{"Acme|Scheduler|Boise, ID", "https://a/2", "Acme|Scheduler|Nampa, ID", "https://a/3"}, keys)
	assert.Equal(t, now.Add(time.Minute), out[0].CollectedAt)
}

func TestDedupe_Idempotent(t *testing.T) {
	now := time.Now()
	in := []posting.Normalized{
		record("https://a/1", "Acme", "A", "X", now),
		record("https://a/2", "Acme", "B", "X", now),
		record("https://a/1", "Acme", "A", "X", now.Add(time.Second)),
		record("", "Beta", "C", "Y", now),
	}

	once, removedOnce := Dedupe(in)
	twice, removedTwice := Dedupe(once)

	assert.Equal(t, 1, removedOnce)
	assert.Equal(t, 0, removedTwice)
	assert.Equal(t, once, twice)
	assert.LessOrEqual(t, len(once), len(in))
}

func TestDedupe_MissingKeyIsDerived(t *testing.T) {
	a := posting.Normalized{SourceFile: "https://a/1", JobTitle: "A"}
	b := posting.Normalized{SourceFile: "https://a/1", JobTitle: "B"}

	out, removed := Dedupe([]posting.Normalized{a, b})
	require.Len(t, out, 1)
	assert.Equal(t, 1, removed)
	assert.Equal(t, "B", out[0].JobTitle)
}

func TestDedupe_Empty(t *testing.T) {
	out, removed := Dedupe(nil)
	assert.Empty(t, out)
	assert.Zero(t, removed)
}
