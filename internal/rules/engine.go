package rules

import (
	"strings"

	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
)

const (
	// disqualified is the score forced by short-circuits and overrides
	disqualified   = -100
	// bachelorsFloor is the minimum score once any bachelor's rule fires
	bachelorsFloor = 5

	noRequirements = "No clear education requirements found"
)

// Engine evaluates sanitized text against one rule set
type Engine struct {
	set *RuleSet
}

// NewEngine returns an engine over set, or the standard set when nil
func NewEngine(set *RuleSet) *Engine {
	if set == nil {
		set = Standard()
	}
	return &Engine{set: set}
}

// RuleSet returns the rule generation in use
func (e *Engine) RuleSet() *RuleSet {
	return e.set
}

// Evaluate scores text and decides inclusion. It never fails; empty text
// yields an exclusion with no matched rules.
func (e *Engine) Evaluate(text string) posting.Classification {
	for _, sc := range e.set.shortCircuits {
		if sc.rule.Match(text) {
			return posting.Classification{
				Decision:     posting.Exclude,
				RejectReason: posting.ReasonEducationRequirement,
				Score:        disqualified,
				MatchedRules: []posting.RuleID{sc.rule.ID},
				Explanation:  sc.explanation,
			}
		}
	}

	var fired [numCategories]bool
	var matched []posting.RuleID
	for _, rule := range e.set.rules {
		if rule.Match(text) {
			fired[rule.Category] = true
			matched = append(matched, rule.ID)
		}
	}

	score := 0
	hasBachelors := false
	for c := Category(0); c < numCategories; c++ {
		if !fired[c] {
			continue
		}
		score += e.set.weights[c]
		if c.Bachelors() {
			hasBachelors = true
		}
	}

	if hasBachelors && score < bachelorsFloor {
		score = bachelorsFloor
	}
	if fired[HighSchoolOnly] && !hasBachelors {
		score = disqualified
	}
	if fired[AdvancedDegree] {
		score = disqualified
	}
	if fired[HighExperience] {
		score = disqualified
	}

	result := posting.Classification{
		Decision:     posting.Include,
		RejectReason: posting.ReasonNone,
		Score:        score,
		MatchedRules: matched,
		Explanation:  explain(fired),
	}
	if score <= 0 {
		result.Decision = posting.Exclude
		result.RejectReason = posting.ReasonEducationRequirement
	}
	return result
}

func explain(fired [numCategories]bool) string {
	var parts []string
	for c := Category(0); c < numCategories; c++ {
		if fired[c] {
			parts = append(parts, c.Description())
		}
	}
	if len(parts) == 0 {
		return noRequirements
	}
	return strings.Join(parts, "; ")
}
