package rules

import (
	"fmt"
	"sort"
	"sync"
)

// StandardName is the canonical rule generation
const StandardName = "standard"

const (
	apos      = `[\x{2019}']?`
	bachelor  = `\bbachelor` + apos + `s?\b`
	dash      = `(?:-|\x{2013}|\x{2014}|to)`
	highYears = `(?:[3-9]|[1-9]\d|three|four|five|six|seven|eight|nine|ten|twelve|fifteen)`
	lowYears  = `(?:[0-2]|zero|one|two)`

	// numeral restates a spelled-out count: "three (3)", "five (5+)"
	numeral = `(?:\s*\(\d{1,2}\+?\))?`

	// yearsCount may start with a range; the prefix class keeps "1.5" and
	// "0-3" from reading as a standalone high count
	yearsCount = `(?:^|[^\w.,$\-\x{2013}])(?:(?:\d{1,2}|zero|one|two)` + numeral + `\s*` + dash + `\s*)?` +
		highYears + numeral + `\s*(?:\+|plus|or\s+more)?\s*years?\b`

	lowRangeStart = `^\W*` + lowYears + numeral + `\s*` + dash
)

var generations = map[string]func() *Builder{
	StandardName: standardBuilder,
}

var standard = sync.OnceValue(func() *RuleSet {
	set, err := standardBuilder().Build()
	if err != nil {
		panic(err)
	}
	return set
})

// Standard returns the canonical rule set
func Standard() *RuleSet {
	return standard()
}

// Generations lists the registered rule generation names
func Generations() []string {
	names := make([]string, 0, len(generations))
	for name := range generations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a named generation and applies weight overrides keyed by
// category name. The result is a fresh immutable RuleSet.
func Lookup(name string, overrides map[string]int) (*RuleSet, error) {
	newBuilder, ok := generations[name]
	if !ok {
		return nil, fmt.Errorf("unknown rule set %q (available: %v)", name, Generations())
	}
	if len(overrides) == 0 && name == StandardName {
		return Standard(), nil
	}

	b := newBuilder()
	if len(overrides) > 0 {
		b = b.derive(name + "+overrides")
	}
	for catName, w := range overrides {
		c, err := ParseCategory(catName)
		if err != nil {
			return nil, fmt.Errorf("weight override: %w", err)
		}
		b.Weight(c, w)
	}
	return b.Build()
}

func standardBuilder() *Builder {
	return NewBuilder(StandardName).
		Weight(HealthcareAdminBachelors, 10).
		Weight(BachelorsRequired, 6).
		Weight(BachelorsPreferred, 5).
		Weight(BachelorsMentioned, 4).
		Weight(NoDegreeRequired, -6).
		Weight(HighSchoolOnly, -10).
		Weight(AssociatesOnly, -8).
		Weight(AdvancedDegree, -100).
		Weight(HighExperience, -100).
		ShortCircuit(HighSchoolOnly, "high_school_only.primary_requirement",
			`\b(?:high\s+school(?:\s+(?:diploma|graduate|degree|education))?|h\.?s\.?\s+diploma|ged)`+
				`(?:\s*(?:,|/|or|and)\s*(?:ged|equivalent|high\s+school\s+diploma))*\s+(?:is\s+)?required\b`,
			"High school diploma listed as primary requirement").
		ShortCircuit(AssociatesOnly, "associates_only.primary_requirement",
			`\b(?:associate`+apos+`s?|a\.a\.|a\.s\.|aas)\s+degree(?:\s*(?:,|/|or)\s*(?:equivalent|ged))?\s+(?:is\s+)?required\b`,
			"Associates degree listed as primary requirement").

		// healthcare administration bachelor's
		Rule(HealthcareAdminBachelors, "healthcare_admin_bachelors.degree_in_field",
			`(?:\b(?:bachelor`+apos+`s?|degree|major(?:ing)?)\b|\bb\.[as]\.|\bb[as]\b)[^.;\n]{0,40}?`+
				`\b(?:health\s*care|health(?:\s+services?)?|hospital|medical|public\s+health|long[\s-]term\s+care|nursing\s+home)\s+`+
				`(?:administration|management|information\s+(?:management|administration))\b`).
		Rule(HealthcareAdminBachelors, "healthcare_admin_bachelors.field_degree",
			`\b(?:health\s*care|health|hospital|medical)\s+(?:administration|management)\s+(?:degree|bachelor`+apos+`s?)\b`).
		Rule(HealthcareAdminBachelors, "healthcare_admin_bachelors.abbreviation", `\b(?:bha|bhsa)\b`).
		Rule(HealthcareAdminBachelors, "healthcare_admin_bachelors.business_in_healthcare",
			`\bbusiness\s+administration\b[^.;\n]{0,50}?\bhealth\s*care\b`).

		// overqualification
		Rule(AdvancedDegree, "advanced_degree.masters", `\bmaster`+apos+`s?\s+(?:degree|of|in)\b`).
		Rule(AdvancedDegree, "advanced_degree.graduate", `\b(?:post[\s-]?)?graduate\s+degree\b`).
		Rule(AdvancedDegree, "advanced_degree.abbreviation",
			`\b(?:mba|mha|mph|mhsa|msn|dha|dnp|pharmd)\b|\bph\.?\s?d\b|\bm\.[as]\.`).
		Rule(AdvancedDegree, "advanced_degree.doctorate", `\bdoctor(?:ate|al)\b`).
		Rule(AdvancedDegree, "advanced_degree.juris_doctor", `\bj\.?d\b`).
		Rule(HighExperience, "high_experience.years_then_experience",
			yearsCount+`[^.;\n]{0,40}?\bexperience\b`,
			Unless(`\bof\s+age\b|\byears?\s+old\b|`+lowRangeStart)).
		Rule(HighExperience, "high_experience.experience_then_years",
			`\bexperience\b[^.;\n]{0,30}?`+yearsCount,
			Unless(`(?:^|\W)`+lowYears+numeral+`\s*`+dash+`\s*\w+`+numeral+`\s*years?\b$`)).
		Rule(HighExperience, "high_experience.vague",
			`\b(?:extensive|significant|substantial|considerable)\s+(?:\w+\s+){0,2}?experience\b`).

		// requirement strength
		Rule(BachelorsRequired, "bachelors_required.bachelor_then_required",
			bachelor+`[^.;\n]{0,40}?\brequired\b`,
			Unless(`\bnot\s+required\b|\bpreferred\b|\bdesired\b|\bor\s+equivalent\b`)).
		Rule(BachelorsRequired, "bachelors_required.required_label",
			`\brequired\s*(?::|-|\x{2013})\s*(?:an?\s+)?bachelor`).
		Rule(BachelorsRequired, "bachelors_required.degree_required",
			`\b(?:college|university|four[\s-]year|4[\s-]year|undergraduate)\s+degree\s+(?:is\s+)?required\b`).
		Rule(BachelorsRequired, "bachelors_required.minimum",
			bachelor+`[^.;\n]{0,30}?\bminimum\b|\bminimum\b[^.;\n]{0,30}?\bbachelor`).
		Rule(BachelorsMentioned, "bachelors_mentioned.word", bachelor+`|\bbaccalaureate\b`).
		Rule(BachelorsMentioned, "bachelors_mentioned.abbreviation", `\bb\.[as]\.|\b(?:ba|bs|bba|bsc)\b`).
		Rule(BachelorsMentioned, "bachelors_mentioned.equivalent",
			`\b(?:four|4)[\s-]year\s+(?:degree|college|university)\b|\b(?:college|university|undergraduate)\s+degree\b`).
		Rule(BachelorsPreferred, "bachelors_preferred.bachelor_then_preferred",
			bachelor+`[^.;\n]{0,50}?\b(?:preferred|desired|a\s+plus|plus|advantage|helpful|ideal)\b`).
		Rule(BachelorsPreferred, "bachelors_preferred.preferred_then_bachelor",
			`\b(?:preferred|desired)\b[^.;\n]{0,20}?`+bachelor).

		// sub-bachelor's signals
		Rule(HighSchoolOnly, "high_school_only.high_school",
			`\bhigh\s+school\b|\bh\.?s\.?\s+diploma\b|\bged\b|\bgeneral\s+education(?:al)?\s+development\b`).
		Rule(HighSchoolOnly, "high_school_only.experience_substitute",
			`\b(?:or\s+)?equivalent\s+(?:work\s+)?experience\b|\bexperience\s+(?:in\s+lieu\s+of|may\s+substitute)\b`).
		Rule(HighSchoolOnly, "high_school_only.certificate_program",
			`\b(?:certificate|certification|diploma)\s+program\b`).
		Rule(AssociatesOnly, "associates_only.degree",
			`\bassociate`+apos+`s?\s+degree\b|\b(?:a\.a\.|a\.s\.|aas)\s+degree\b`).
		Rule(AssociatesOnly, "associates_only.two_year",
			`\b(?:two|2)[\s-]year\s+(?:degree|college)\b|\bcommunity\s+college\b`).
		Rule(NoDegreeRequired, "no_degree_required.no_degree",
			`\bno\s+(?:college\s+|formal\s+)?degree\s+(?:is\s+)?(?:required|necessary|needed)\b`).
		Rule(NoDegreeRequired, "no_degree_required.not_required",
			`\b(?:degree|education)\s+(?:is\s+)?not\s+required\b|\bdegree\s+preferred\s+but\s+not\s+required\b`)
}
