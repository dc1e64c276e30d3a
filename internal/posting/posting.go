// Package posting holds the records that flow through the classification
// pipeline: raw ATS postings in, classification results and normalized
// jobs out.
package posting

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies the upstream ATS a posting came from
type Platform string

const (
	PlatformLever      Platform = "lever"
	PlatformGreenhouse Platform = "greenhouse"
)

// ParsePlatform normalizes a platform name from the employer directory
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case PlatformLever, PlatformGreenhouse:
		return p, nil
	default:
		return "", fmt.Errorf("unknown platform %q", s)
	}
}

// Raw is a posting as fetched from an ATS feed. Description may be HTML or
// plain text. Raw values are never modified by the pipeline.
type Raw struct {
	Title       string
	Description string
	Location    string
	SourceURL   string
	Platform    Platform
	Company     string
	CreatedAt   *time.Time
	UpdatedAt   *time.Time
}
