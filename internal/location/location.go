// Package location infers city, state, census region and remote status from
// free-form ATS location strings.
package location

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Region is a US Census region
type Region string

const (
	RegionNone      Region = ""
	RegionNortheast Region = "Northeast"
	RegionMidwest   Region = "Midwest"
	RegionSouth     Region = "South"
	RegionWest      Region = "West"
)

var regionStates = map[Region][]string{
	RegionNortheast: {"ME", "NH", "VT", "MA", "RI", "CT", "NY", "NJ", "PA"},
	RegionMidwest:   {"OH", "IN", "IL", "MI", "WI", "MN", "IA", "MO", "ND", "SD", "NE", "KS"},
	RegionSouth:     {"DE", "MD", "DC", "VA", "WV", "NC", "SC", "GA", "FL", "KY", "TN", "AL", "MS", "AR", "LA", "OK", "TX"},
	RegionWest:      {"MT", "ID", "WY", "CO", "NM", "AZ", "UT", "NV", "WA", "OR", "CA", "AK", "HI"},
}

var stateNames = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR", "california": "CA",
	"colorado": "CO", "connecticut": "CT", "delaware": "DE", "florida": "FL", "georgia": "GA",
	"hawaii": "HI", "idaho": "ID", "illinois": "IL", "indiana": "IN", "iowa": "IA",
	"kansas": "KS", "kentucky": "KY", "louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN", "mississippi": "MS", "missouri": "MO",
	"montana": "MT", "nebraska": "NE", "nevada": "NV", "new hampshire": "NH", "new jersey": "NJ",
	"new mexico": "NM", "new york": "NY", "north carolina": "NC", "north dakota": "ND", "ohio": "OH",
	"oklahoma": "OK", "oregon": "OR", "pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC",
	"south dakota": "SD", "tennessee": "TN", "texas": "TX", "utah": "UT", "vermont": "VT",
	"virginia": "VA", "washington": "WA", "west virginia": "WV", "wisconsin": "WI", "wyoming": "WY",
	"district of columbia": "DC",
}

var (
	stateRegion = make(map[string]Region)
	stateCode   = regexp.MustCompile(`\b[A-Z]{2}\b`)
	stateName   *regexp.Regexp
	remote      = regexp.MustCompile(`(?i)\bremote\b|\bwork\s+from\s+home\b|\bwfh\b|\btelecommute\b`)
	segmentSep  = regexp.MustCompile(`[,;|/]`)
)

func init() {
	for region, states := range regionStates {
		for _, s := range states {
			stateRegion[s] = region
		}
	}

	// longest names first so "west virginia" wins over "virginia"
	names := make([]string, 0, len(stateNames))
	for name := range stateNames {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	for i, name := range names {
		names[i] = strings.ReplaceAll(name, " ", `\s+`)
	}
	stateName = regexp.MustCompile(`(?i)\b(?:` + strings.Join(names, "|") + `)\b`)
}

// Location is the structured form of a posting's location string
type Location struct {
	City   string `json:"city"`
	State  string `json:"state"`
	Region Region `json:"region"`
	Remote bool   `json:"remoteFlag"`
}

// Parse infers the location fields. Unknown parts are left empty.
func Parse(raw string) Location {
	loc := Location{
		State:  InferState(raw),
		Remote: remote.MatchString(raw),
	}
	loc.Region = RegionOf(loc.State)
	loc.City = inferCity(raw, loc.State)
	return loc
}

// InferState returns the first uppercase two-letter state code in raw,
// falling back to a full state name
func InferState(raw string) string {
	for _, token := range stateCode.FindAllString(raw, -1) {
		if IsState(token) {
			return token
		}
	}
	if name := stateName.FindString(raw); name != "" {
		return stateNames[strings.Join(strings.Fields(strings.ToLower(name)), " ")]
	}
	return ""
}

// IsState reports whether code is a US state or DC
func IsState(code string) bool {
	_, ok := stateRegion[code]
	return ok
}

// RegionOf maps a state code to its census region
func RegionOf(code string) Region {
	return stateRegion[code]
}

// AllTargets in a target list opts the gate into every state
const AllTargets = "ALL"

// DefaultTargetStates lists the states collected when none are configured
func DefaultTargetStates() []string {
	return []string{"AZ", "CO", "ID", "MT", "OR", "UT", "WA", "WY"}
}

// ExpandTargets resolves a configured target list: empty means the
// defaults and AllTargets means every state. Codes are upper-cased.
func ExpandTargets(states []string) []string {
	if len(states) == 0 {
		return DefaultTargetStates()
	}
	out := make([]string, 0, len(states))
	for _, s := range states {
		code := strings.ToUpper(strings.TrimSpace(s))
		if code == AllTargets {
			return AllStates()
		}
		out = append(out, code)
	}
	return out
}

// AllStates lists every state code plus DC, sorted
func AllStates() []string {
	out := make([]string, 0, len(stateRegion))
	for s := range stateRegion {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// inferCity skips segments naming the inferred state, so "Washington, DC"
// keeps Washington as the city
func inferCity(raw, state string) string {
	for _, segment := range segmentSep.Split(raw, -1) {
		segment = strings.Join(strings.Fields(segment), " ")
		if segment == "" || remote.MatchString(segment) {
			continue
		}
		if IsState(segment) {
			continue
		}
		if name := stateName.FindString(segment); name == segment && InferState(name) == state {
			continue
		}
		if strings.EqualFold(segment, "united states") || strings.EqualFold(segment, "usa") || strings.EqualFold(segment, "us") {
			continue
		}
		return segment
	}
	return ""
}

// Gate admits postings located in a target state. Remote postings pass
// when AllowRemote is set.
type Gate struct {
	states      map[string]bool
	allowRemote bool
}

// NewGate validates the target states, resolved with ExpandTargets
func NewGate(states []string, allowRemote bool) (*Gate, error) {
	codes := ExpandTargets(states)
	g := &Gate{states: make(map[string]bool, len(codes)), allowRemote: allowRemote}
	for _, code := range codes {
		if !IsState(code) {
			return nil, fmt.Errorf("unknown target state %q", code)
		}
		g.states[code] = true
	}
	return g, nil
}

// Allow reports whether the location is in scope
func (g *Gate) Allow(loc Location) bool {
	if loc.Remote && g.allowRemote {
		return true
	}
	return g.states[loc.State]
}

// States returns the target states, sorted
func (g *Gate) States() []string {
	out := make([]string, 0, len(g.states))
	for s := range g.states {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
