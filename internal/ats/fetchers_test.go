package ats

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
	"github.com/matjmiles/healthcare-job-organizer/internal/sanitize"
)

const leverFixture = `[
  {
    "text": "Patient Access Representative",
    "hostedUrl": "https://jobs.lever.co/acme/abc-123",
    "description": "<div>Join our front desk team.</div>",
    "additional": "<p>Pay: $18 - $22 per hour</p>",
    "createdAt": 1700000000000,
    "categories": {"location": "Boise, ID", "team": "Operations"},
    "lists": [
      {"text": "Requirements", "content": "<li>Bachelor's degree preferred</li><li>Customer service experience</li>"}
    ]
  },
  {
    "text": "Scheduler",
    "hostedUrl": "https://jobs.lever.co/acme/def-456",
    "description": "",
    "categories": {}
  }
]`

const greenhouseFixture = `{
  "jobs": [
    {
      "title": "Billing Specialist",
      "absolute_url": "https://boards.greenhouse.io/beta/jobs/42",
      "content": "&lt;p&gt;Bachelor&amp;#39;s degree required.&lt;/p&gt;",
      "created_at": "2024-05-01T10:00:00-04:00",
      "updated_at": "2024-05-02T10:00:00Z",
      "location": {"name": "Portland, OR"}
    }
  ]
}`

func TestLever_Fetch(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(leverFixture))
	}))
	defer srv.Close()

	lever := NewLever(testClient(0), srv.URL)
	raws, err := lever.Fetch(context.Background(), Employer{Company: "Acme Health", Platform: posting.PlatformLever, Slug: "acme"})
	require.NoError(t, err)
	require.Len(t, raws, 2)

	assert.Equal(t, "/acme", gotPath)
	assert.Equal(t, "mode=json", gotQuery)

	first := raws[0]
	assert.Equal(t, "Patient Access Representative", first.Title)
	assert.Equal(t, "https://jobs.lever.co/acme/abc-123", first.SourceURL)
	assert.Equal(t, "Boise, ID", first.Location)
	assert.Equal(t, "Acme Health", first.Company)
	assert.Equal(t, posting.PlatformLever, first.Platform)
	require.NotNil(t, first.CreatedAt)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), *first.CreatedAt)

	text := sanitize.Text(first.Description)
	assert.Contains(t, text, "Requirements\n\n• Bachelor's degree preferred\n• Customer service experience")
	assert.Contains(t, text, "Pay: $18 - $22 per hour")

	assert.Nil(t, raws[1].CreatedAt)
	assert.Empty(t, raws[1].Location)
}

func TestGreenhouse_Fetch(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(greenhouseFixture))
	}))
	defer srv.Close()

	gh := NewGreenhouse(testClient(0), srv.URL)
	raws, err := gh.Fetch(context.Background(), Employer{Company: "Beta Clinics", Platform: posting.PlatformGreenhouse, Slug: "beta"})
	require.NoError(t, err)
	require.Len(t, raws, 1)

	assert.Equal(t, "/beta/jobs", gotPath)
	assert.Equal(t, "content=true", gotQuery)

	job := raws[0]
	assert.Equal(t, "Billing Specialist", job.Title)
	assert.Equal(t, "Portland, OR", job.Location)
	assert.Equal(t, posting.PlatformGreenhouse, job.Platform)
	assert.Equal(t, "Bachelor's degree required.", sanitize.Text(job.Description))
	require.NotNil(t, job.CreatedAt)
	assert.Equal(t, time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC), *job.CreatedAt)
	require.NotNil(t, job.UpdatedAt)
}

func TestFetch_BoardNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	client := testClient(2)
	fetchers := []Fetcher{NewLever(client, srv.URL), NewGreenhouse(client, srv.URL)}
	for _, f := range fetchers {
		_, err := f.Fetch(context.Background(), Employer{Company: "Gone", Slug: "gone"})
		assert.ErrorIs(t, err, ErrBoardNotFound)
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry(testClient(0))

	_, err := registry.Fetcher(posting.PlatformLever)
	assert.NoError(t, err)
	_, err = registry.Fetcher(posting.PlatformGreenhouse)
	assert.NoError(t, err)

	_, err = registry.Fetch(context.Background(), Employer{Company: "X", Platform: "workday", Slug: "x"})
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestBoardURL(t *testing.T) {
	client := testClient(0)
	assert.Equal(t, "https://api.lever.co/v0/postings/acme?mode=json", NewLever(client, "").BoardURL("acme"))
	assert.Equal(t, "https://boards-api.greenhouse.io/v1/boards/beta/jobs?content=true", NewGreenhouse(client, "").BoardURL("beta"))
}
