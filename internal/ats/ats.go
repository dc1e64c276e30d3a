// Package ats fetches postings from applicant tracking system job boards.
package ats

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
)

var (
	// ErrBoardNotFound is returned when a board slug does not exist upstream
	ErrBoardNotFound = errors.New("job board not found")

	// ErrUnsupportedPlatform is returned for employers on an unknown ATS
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// Employer is one entry of the employer directory
type Employer struct {
	Company  string           `json:"company"`
	Platform posting.Platform `json:"platform"`
	Slug     string           `json:"slug"`
}

func (e Employer) String() string {
	return fmt.Sprintf("%s (%s: %s)", e.Company, e.Platform, e.Slug)
}

// Fetcher retrieves every open posting on an employer's board
type Fetcher interface {
	Fetch(ctx context.Context, employer Employer) ([]posting.Raw, error)
	BoardURL(slug string) string
}

// StatusError is a non-2xx response from a board. RetryAfter carries the
// server's Retry-After hint when one was sent.
type StatusError struct {
	Code       int
	URL        string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d", e.URL, e.Code)
}

// Is lets a 404 match ErrBoardNotFound
func (e *StatusError) Is(target error) bool {
	return target == ErrBoardNotFound && e.Code == http.StatusNotFound
}

// Retryable reports whether the status is worth another attempt
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// RetryableError wraps transient failures that may succeed on a later attempt
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is marked transient
func IsRetryable(err error) bool {
	var retryable *RetryableError
	return errors.As(err, &retryable)
}

// Registry maps platforms to fetchers
type Registry struct {
	fetchers map[posting.Platform]Fetcher
}

// NewRegistry returns a registry with the Lever and Greenhouse fetchers
// sharing client
func NewRegistry(client *Client) *Registry {
	r := &Registry{fetchers: make(map[posting.Platform]Fetcher)}
	r.Register(posting.PlatformLever, NewLever(client, ""))
	r.Register(posting.PlatformGreenhouse, NewGreenhouse(client, ""))
	return r
}

// Register sets the fetcher for a platform, replacing any previous one
func (r *Registry) Register(platform posting.Platform, f Fetcher) {
	r.fetchers[platform] = f
}

// Fetcher returns the fetcher for platform
func (r *Registry) Fetcher(platform posting.Platform) (Fetcher, error) {
	f, ok := r.fetchers[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, platform)
	}
	return f, nil
}

// Fetch dispatches to the employer's platform fetcher
func (r *Registry) Fetch(ctx context.Context, employer Employer) ([]posting.Raw, error) {
	f, err := r.Fetcher(employer.Platform)
	if err != nil {
		return nil, err
	}
	return f.Fetch(ctx, employer)
}
