package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
)

func TestEngine_Evaluate(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		expect posting.Decision
	}{
		{name: "healthcare admin bachelor's required", text: "Bachelor's degree required in healthcare administration", expect: posting.Include},
		{name: "high school primary with bachelor's preferred", text: "High school diploma required, bachelor's preferred", expect: posting.Exclude},
		{name: "master's overqualified", text: "Master's degree in healthcare management required", expect: posting.Exclude},
		{name: "associates only", text: "Associates degree required", expect: posting.Exclude},
		{name: "bachelor's preferred", text: "Bachelor's degree preferred but not required", expect: posting.Include},
		{name: "entry level with bachelor's required", text: "Entry-level position, bachelor's degree required", expect: posting.Include},
		{name: "bachelor's desired", text: "Bachelor's degree in business administration desired", expect: posting.Include},
		{name: "phd overqualified", text: "PhD in healthcare administration required", expect: posting.Exclude},
		{name: "no degree required", text: "No degree required, experience preferred", expect: posting.Exclude},
		{name: "bachelor's or equivalent", text: "Bachelor's or equivalent experience", expect: posting.Include},
		{name: "graduate degree preferred", text: "Graduate degree preferred, bachelor's minimum", expect: posting.Exclude},
		{name: "associate's or bachelor's required", text: "Associate's or bachelor's degree required.", expect: posting.Include},
		{name: "three to five years", text: "Bachelor's degree required. 3-5 years of patient access experience.", expect: posting.Exclude},
		{name: "vague experience", text: "BA required. Significant revenue cycle experience.", expect: posting.Exclude},
		{name: "nothing mentioned", text: "Greet patients and answer phones.", expect: posting.Exclude},
		{name: "empty", text: "", expect: posting.Exclude},
	}

	engine := NewEngine(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.Evaluate(tt.text)
			assert.Equal(t, tt.expect, result.Decision, "explanation: %s", result.Explanation)
			if tt.expect == posting.Exclude {
				assert.Equal(t, posting.ReasonEducationRequirement, result.RejectReason)
				assert.LessOrEqual(t, result.Score, 0)
			} else {
				assert.Equal(t, posting.ReasonNone, result.RejectReason)
				assert.Greater(t, result.Score, 0)
			}
		})
	}
}

func TestEngine_HealthcareAdminBachelorsRequired(t *testing.T) {
	result := NewEngine(nil).Evaluate("Bachelor's degree in Healthcare Administration required. 0-1 years experience.")

	assert.Equal(t, posting.Include, result.Decision)
	assert.Contains(t, result.MatchedRules, posting.RuleID("healthcare_admin_bachelors.degree_in_field"))
	assert.Contains(t, result.MatchedRules, posting.RuleID("bachelors_required.bachelor_then_required"))
	assert.Equal(t, 20, result.Score)
	assert.True(t, strings.HasPrefix(result.Explanation, "Healthcare administration degree mentioned; "))
	for _, id := range result.MatchedRules {
		assert.False(t, strings.HasPrefix(string(id), "high_experience."), "unexpected %s", id)
	}
}

func TestEngine_AdvancedDegreeOverride(t *testing.T) {
	result := NewEngine(nil).Evaluate("Master's degree in Healthcare Administration required. 10+ years experience.")

	assert.Equal(t, posting.Exclude, result.Decision)
	assert.Equal(t, posting.ReasonEducationRequirement, result.RejectReason)
	assert.Equal(t, -100, result.Score)
	assert.Contains(t, result.MatchedRules, posting.RuleID("advanced_degree.masters"))
	assert.Contains(t, result.MatchedRules, posting.RuleID("high_experience.years_then_experience"))
	assert.Contains(t, result.Explanation, "Advanced degree required (overqualified)")
}

func TestEngine_HighSchoolShortCircuit(t *testing.T) {
	result := NewEngine(nil).Evaluate("High school diploma required. Customer service experience preferred.")

	assert.Equal(t, posting.Exclude, result.Decision)
	assert.Equal(t, posting.ReasonEducationRequirement, result.RejectReason)
	assert.Equal(t, -100, result.Score)
	assert.Equal(t, []posting.RuleID{"high_school_only.primary_requirement"}, result.MatchedRules)
	assert.Equal(t, "High school diploma listed as primary requirement", result.Explanation)
}

func TestEngine_AdvancedDegreeAlwaysExcludes(t *testing.T) {
	positives := []string{
		"Bachelor's degree in healthcare administration required.",
		"Bachelor's degree preferred.",
		"BS or BA in health administration.",
		"Four-year degree required.",
	}
	advanced := []string{
		"MBA preferred.",
		"Master's degree in public health.",
		"Doctoral degree a plus.",
		"PharmD candidates welcome.",
	}

	engine := NewEngine(nil)
	for _, adv := range advanced {
		for n := 1; n <= len(positives); n++ {
			text := strings.Join(positives[:n], " ") + " " + adv
			result := engine.Evaluate(text)
			assert.Equal(t, posting.Exclude, result.Decision, text)
			assert.Equal(t, -100, result.Score, text)
		}
	}
}

func TestEngine_BachelorsDominatesLowerSignals(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "high school mention", text: "High school diploma or equivalent; bachelor's degree preferred."},
		{name: "associate's mention", text: "Associate degree in business or bachelor's degree."},
		{name: "both lower signals", text: "High school diploma, associate degree, or bachelor's degree in any field."},
	}

	engine := NewEngine(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.Evaluate(tt.text)
			assert.Equal(t, posting.Include, result.Decision, result.Explanation)
			assert.GreaterOrEqual(t, result.Score, 5)
		})
	}
}

func TestEngine_HighExperienceBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		fires bool
	}{
		{name: "three plus years", text: "3+ years of experience in scheduling.", fires: true},
		{name: "spelled out", text: "Five years of healthcare experience.", fires: true},
		{name: "experience first", text: "Experience: minimum 4 years in a hospital setting.", fires: true},
		{name: "range from three", text: "3 to 5 years experience.", fires: true},
		{name: "range from one", text: "1 to 3 years experience.", fires: false},
		{name: "range from zero", text: "0-3 years experience.", fires: false},
		{name: "experience then low range", text: "Experience of one to three years.", fires: false},
		{name: "decimal years", text: "1.5 years experience.", fires: false},
		{name: "two years", text: "2 years of experience.", fires: false},
		{name: "age requirement", text: "Must be 18 years of age or older with customer service experience.", fires: false},
		{name: "company history", text: "Serving Idaho for 40 years.", fires: false},
		{name: "extensive", text: "Extensive billing experience.", fires: true},
		{name: "spelled out with numeral", text: "Three (3) years of experience in patient access required.", fires: true},
		{name: "numeral with plus", text: "Five (5)+ years of related experience.", fires: true},
		{name: "plus inside numeral", text: "Four (4+) years of revenue cycle experience.", fires: true},
		{name: "experience then numeral", text: "Experience: minimum of three (3) years.", fires: true},
		{name: "low numeral", text: "Two (2) years of experience.", fires: false},
		{name: "low numeral range", text: "One (1) to three (3) years of experience.", fires: false},
	}

	engine := NewEngine(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.Evaluate(tt.text)
			fired := false
			for _, id := range result.MatchedRules {
				if strings.HasPrefix(string(id), "high_experience.") {
					fired = true
				}
			}
			assert.Equal(t, tt.fires, fired, "matched: %v", result.MatchedRules)
		})
	}
}

func TestEngine_SpelledOutYearsExclude(t *testing.T) {
	engine := NewEngine(nil)

	result := engine.Evaluate("Bachelor's degree required. Three (3) years of experience in patient access required.")
	assert.Equal(t, posting.Exclude, result.Decision)
	assert.Equal(t, posting.ReasonEducationRequirement, result.RejectReason)
	assert.Equal(t, -100, result.Score)
	assert.Contains(t, result.MatchedRules, posting.RuleID("high_experience.years_then_experience"))
}

func TestEngine_WordBoundaries(t *testing.T) {
	engine := NewEngine(nil)

	result := engine.Evaluate("Basic database skills and absolute attention to detail.")
	assert.Empty(t, result.MatchedRules)
	assert.Equal(t, "No clear education requirements found", result.Explanation)

	result = engine.Evaluate("BS in any field.")
	assert.Contains(t, result.MatchedRules, posting.RuleID("bachelors_mentioned.abbreviation"))
}

func TestEngine_ExplanationOrder(t *testing.T) {
	result := NewEngine(nil).Evaluate("High school diploma; bachelor's degree in health administration preferred; MBA a plus.")

	assert.Equal(t,
		"Healthcare administration degree mentioned; Advanced degree required (overqualified); "+
			"Bachelor's degree mentioned; Bachelor's degree preferred but not required; "+
			"High school/Associates degree mentioned",
		result.Explanation)
}

func TestEngine_MatchedRulesAreUnique(t *testing.T) {
	result := NewEngine(nil).Evaluate("Bachelor's degree required. Bachelor's degree required. Bachelor's degree required.")

	seen := make(map[posting.RuleID]bool)
	for _, id := range result.MatchedRules {
		assert.False(t, seen[id], "duplicate rule %s", id)
		seen[id] = true
	}
	assert.Equal(t, 10, result.Score)
}

func TestEngine_PathologicalInput(t *testing.T) {
	engine := NewEngine(nil)
	inputs := []string{
		strings.Repeat("bachelor ", 20000),
		"\xff\xfe bachelor's \xc3",
		strings.Repeat("3", 5000) + " years",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { engine.Evaluate(in) })
	}
}
