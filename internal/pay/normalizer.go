// Package pay turns free-text compensation language into an hourly estimate.
package pay

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// HoursPerYear converts annual figures to hourly (40 hrs x 52 weeks)
const HoursPerYear = 2080

// NotAvailable is how a missing estimate is rendered
const NotAvailable = "N/A"

// Kind is the shape of the matched pay phrase
type Kind string

const (
	HourlyRange  Kind = "hourly_range"
	HourlySingle Kind = "hourly_single"
	AnnualRange  Kind = "annual_range"
	AnnualSingle Kind = "annual_single"
)

// Annual reports whether values of this kind are yearly amounts
func (k Kind) Annual() bool {
	return k == AnnualRange || k == AnnualSingle
}

// Raw holds the values as written in the posting. Max equals Min for
// single-value kinds.
type Raw struct {
	Kind     Kind    `json:"kind"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Template string  `json:"template"`
}

// Estimate is the normalized result. Both fields are nil when no template
// matched.
type Estimate struct {
	HourlyMidpoint *float64 `json:"hourlyMidpoint"`
	Raw            *Raw     `json:"raw"`
}

// Available reports whether a pay figure was found
func (e Estimate) Available() bool {
	return e.HourlyMidpoint != nil
}

// Format renders the estimate as "$21.63/hr", or "N/A" when unavailable
func (e Estimate) Format() string {
	if !e.Available() {
		return NotAvailable
	}
	return fmt.Sprintf("$%.2f/hr", *e.HourlyMidpoint)
}

const (
	amount      = `\$\s?(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)([kK]\b)?`
	otherAmount = `\$?\s?(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)([kK]\b)?`
	rangeSep    = `\s*(?:-|\x{2013}|\x{2014}|to)\s*`
	perHour     = `\s*(?:per\s*(?:hour|hr)|/\s*(?:hour|hr)|an\s+hour|hourly|hr)\b`
	perYear     = `\s*(?:per\s*(?:year|yr|annum)|/\s*(?:year|yr)|a\s+year|annually|yearly)\b`
)

type template struct {
	name    string
	kind    Kind
	pattern *regexp.Regexp
}

func compile(name string, kind Kind, expr string) template {
	return template{name: name, kind: kind, pattern: regexp.MustCompile(`(?i)` + expr)}
}

// Normalizer applies pay templates in a fixed order; the first match wins
type Normalizer struct {
	templates []template
}

// NewNormalizer builds the standard template set. Specific phrasings are
// tried before the generic range and single shapes.
func NewNormalizer() *Normalizer {
	return &Normalizer{templates: []template{
		compile("between_per_hour", HourlyRange, `between\s+`+amount+`\s+and\s+`+otherAmount+perHour),
		compile("between_per_year", AnnualRange, `between\s+`+amount+`\s+and\s+`+otherAmount+perYear),
		compile("salary_range", AnnualRange, `salary\s+(?:range\s+)?(?:of\s+|is\s+)?:?\s*`+amount+rangeSep+otherAmount+perYear),
		compile("starting_at_hourly", HourlySingle, `starting\s+(?:at\s+|from\s+)?`+amount+perHour),
		compile("up_to_hourly", HourlySingle, `up\s+to\s+`+amount+perHour),
		compile("hourly_range", HourlyRange, amount+rangeSep+otherAmount+perHour),
		compile("hourly_single", HourlySingle, amount+perHour),
		compile("annual_range", AnnualRange, amount+`\s*(?:-|\x{2013}|\x{2014}|to|and)\s*`+otherAmount+perYear),
		compile("annual_single", AnnualSingle, amount+perYear),
	}}
}

// Normalize returns the estimate for the first matching template. Text with
// no recognizable pay yields an empty Estimate, never a zero value.
func (n *Normalizer) Normalize(text string) Estimate {
	if strings.TrimSpace(text) == "" {
		return Estimate{}
	}

	for _, t := range n.templates {
		m := t.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		low, ok := parseAmount(m[1], m[2])
		if !ok {
			continue
		}
		high := low
		if len(m) > 4 {
			if high, ok = parseAmount(m[3], m[4]); !ok {
				continue
			}
		}
		if high < low {
			low, high = high, low
		}

		hourly := (low + high) / 2
		if t.kind.Annual() {
			hourly /= HoursPerYear
		}
		hourly = round2(hourly)

		return Estimate{
			HourlyMidpoint: &hourly,
			Raw:            &Raw{Kind: t.kind, Min: low, Max: high, Template: t.name},
		}
	}
	return Estimate{}
}

func parseAmount(digits, thousands string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(digits, ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	if thousands != "" {
		v *= 1000
	}
	return v, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
