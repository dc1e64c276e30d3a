package ats

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// Greenhouse reads the public Greenhouse job board API
type Greenhouse struct {
	client  *Client
	baseURL string
}

// NewGreenhouse returns a Greenhouse fetcher. An empty baseURL uses the
// public API.
func NewGreenhouse(client *Client, baseURL string) *Greenhouse {
	if baseURL == "" {
		baseURL = greenhouseBaseURL
	}
	return &Greenhouse{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

type greenhouseBoard struct {
	Jobs []struct {
		Title       string `json:"title"`
		AbsoluteURL string `json:"absolute_url"`
		Content     string `json:"content"`
		CreatedAt   string `json:"created_at"`
		UpdatedAt   string `json:"updated_at"`
		Location    struct {
			Name string `json:"name"`
		} `json:"location"`
	} `json:"jobs"`
}

// BoardURL is the jobs endpoint for slug, with content included
func (g *Greenhouse) BoardURL(slug string) string {
	return fmt.Sprintf("%s/%s/jobs?content=true", g.baseURL, url.PathEscape(slug))
}

// Fetch returns every job on the employer's Greenhouse board. Content is
// entity-encoded HTML and is left for the sanitizer to decode.
func (g *Greenhouse) Fetch(ctx context.Context, employer Employer) ([]posting.Raw, error) {
	var board greenhouseBoard
	if err := g.client.GetJSON(ctx, g.BoardURL(employer.Slug), &board); err != nil {
		return nil, fmt.Errorf("greenhouse %s: %w", employer.Slug, err)
	}

	out := make([]posting.Raw, 0, len(board.Jobs))
	for _, j := range board.Jobs {
		out = append(out, posting.Raw{
			Title:       j.Title,
			Description: j.Content,
			Location:    j.Location.Name,
			SourceURL:   j.AbsoluteURL,
			Platform:    posting.PlatformGreenhouse,
			Company:     employer.Company,
			CreatedAt:   parseTimestamp(j.CreatedAt),
			UpdatedAt:   parseTimestamp(j.UpdatedAt),
		})
	}
	return out, nil
}

func parseTimestamp(v string) *time.Time {
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
