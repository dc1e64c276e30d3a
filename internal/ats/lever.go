package ats

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

// Lever reads the public Lever postings API
type Lever struct {
	client  *Client
	baseURL string
}

// NewLever returns a Lever fetcher. An empty baseURL uses the public API.
func NewLever(client *Client, baseURL string) *Lever {
	if baseURL == "" {
		baseURL = leverBaseURL
	}
	return &Lever{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

type leverPosting struct {
	Text        string `json:"text"`
	HostedURL   string `json:"hostedUrl"`
	Description string `json:"description"`
	Additional  string `json:"additional"`
	CreatedAt   int64  `json:"createdAt"`
	Categories  struct {
		Location string `json:"location"`
	} `json:"categories"`
	Lists []struct {
		Text    string `json:"text"`
		Content string `json:"content"`
	} `json:"lists"`
}

// BoardURL is the postings endpoint for slug
func (l *Lever) BoardURL(slug string) string {
	return fmt.Sprintf("%s/%s?mode=json", l.baseURL, url.PathEscape(slug))
}

// Fetch returns every posting on the employer's Lever board
func (l *Lever) Fetch(ctx context.Context, employer Employer) ([]posting.Raw, error) {
	var postings []leverPosting
	if err := l.client.GetJSON(ctx, l.BoardURL(employer.Slug), &postings); err != nil {
		return nil, fmt.Errorf("lever %s: %w", employer.Slug, err)
	}

	out := make([]posting.Raw, 0, len(postings))
	for _, p := range postings {
		raw := posting.Raw{
			Title:       p.Text,
			Description: p.description(),
			Location:    p.Categories.Location,
			SourceURL:   p.HostedURL,
			Platform:    posting.PlatformLever,
			Company:     employer.Company,
		}
		if p.CreatedAt > 0 {
			created := time.UnixMilli(p.CreatedAt).UTC()
			raw.CreatedAt = &created
		}
		out = append(out, raw)
	}
	return out, nil
}

// description renders each list as a heading followed by its items so the
// qualifications extractor can find sections like "Requirements"
func (p leverPosting) description() string {
	var b strings.Builder
	b.WriteString(p.Description)
	for _, list := range p.Lists {
		b.WriteString("\n<h3>")
		b.WriteString(html.EscapeString(list.Text))
		b.WriteString("</h3>\n<ul>")
		b.WriteString(list.Content)
		b.WriteString("</ul>")
	}
	if p.Additional != "" {
		b.WriteString("\n")
		b.WriteString(p.Additional)
	}
	return b.String()
}
