// Package track infers the career track and entry-level flag of an
// administrative posting.
package track

import (
	"regexp"
	"strings"
)

// CareerTrack is the coarse administrative career path of a posting
type CareerTrack string

const (
	HospitalAdministration     CareerTrack = "Hospital Administration"
	LongTermCareAdministration CareerTrack = "Long-Term Care Administration"
)

var longTermCare = regexp.MustCompile(`(?i)\bait\b|\badministrator[\s-]+in[\s-]+training\b|\bassisted[\s-]+living\b|\bskilled[\s-]+nursing\b|\bsnf\b|\bmemory[\s-]+care\b|\blong[\s-]?term[\s-]+care\b`)

// Career returns Long-Term Care Administration when the title or text names
// a long-term care setting, otherwise Hospital Administration
func Career(title, text string) CareerTrack {
	if longTermCare.MatchString(title + "\n" + text) {
		return LongTermCareAdministration
	}
	return HospitalAdministration
}

var (
	seniorTitle = wordsPattern(
		"director", "senior director", "vp", "vice president", "chief", "cfo", "coo", "ceo",
		"senior", "sr", "principal", "physician", "rn", "np", "pa-c",
	)
	entryTitle = wordsPattern(
		"coordinator", "representative", "specialist", "assistant", "associate", "clerk",
		"scheduler", "scheduling", "patient access", "registration", "referral", "prior auth",
		"authorization", "front desk", "unit clerk", "medical receptionist", "office", "admin",
		"administrator in training", "ait",
	)
	entryDescription = regexp.MustCompile(`(?i)\bno\s+(?:prior\s+)?experience\s+(?:is\s+)?required\b|\b0\s*(?:-|\x{2013}|to)\s*[12]\s*years?\b|\bentry[\s-]?level\b`)
)

// EntryLevel reports whether a posting suits someone with 0-2 years of
// experience. Senior title hints win over entry hints; the description is
// only consulted when the title is silent.
func EntryLevel(title, description string) bool {
	if seniorTitle.MatchString(title) {
		return false
	}
	if entryTitle.MatchString(title) {
		return true
	}
	return entryDescription.MatchString(description)
}

func wordsPattern(phrases ...string) *regexp.Regexp {
	alts := make([]string, len(phrases))
	for i, p := range phrases {
		alts[i] = strings.ReplaceAll(regexp.QuoteMeta(p), " ", `[\s-]+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)s?\b`)
}
