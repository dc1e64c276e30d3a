package rules

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
)

// Rule is one declarative pattern row
type Rule struct {
	ID       posting.RuleID
	Category Category
	pattern  *regexp.Regexp
	unless   *regexp.Regexp
}

// Pattern returns the compiled expression source
func (r Rule) Pattern() string {
	return r.pattern.String()
}

// Match reports whether any occurrence of the pattern survives the veto.
// The veto is checked against the matched span only.
func (r Rule) Match(text string) bool {
	if r.unless == nil {
		return r.pattern.MatchString(text)
	}
	for _, loc := range r.pattern.FindAllStringIndex(text, -1) {
		if !r.unless.MatchString(text[loc[0]:loc[1]]) {
			return true
		}
	}
	return false
}

// shortCircuit excludes a posting before any scoring takes place
type shortCircuit struct {
	rule        Rule
	explanation string
}

// RuleSet is an immutable, named generation of rules and weights. It is
// safe to share across goroutines.
type RuleSet struct {
	name          string
	weights       [numCategories]int
	rules         []Rule
	shortCircuits []shortCircuit
}

// Name identifies the rule generation
func (s *RuleSet) Name() string {
	return s.name
}

// Weight returns the signed weight for a category
func (s *RuleSet) Weight(c Category) int {
	if !c.valid() {
		return 0
	}
	return s.weights[c]
}

// Rules returns a copy of the scored rule rows in table order
func (s *RuleSet) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// RuleOption tunes a single rule row
type RuleOption func(*ruleSpec)

type ruleSpec struct {
	unless string
}

// Unless vetoes a match whose span also matches pattern
func Unless(pattern string) RuleOption {
	return func(s *ruleSpec) {
		s.unless = pattern
	}
}

type pendingRule struct {
	id       string
	category Category
	pattern  string
	spec     ruleSpec
}

type pendingShortCircuit struct {
	pendingRule
	explanation string
}

// Builder assembles a RuleSet. Errors are collected and reported by Build.
type Builder struct {
	name          string
	weights       [numCategories]int
	weighted      [numCategories]bool
	rules         []pendingRule
	shortCircuits []pendingShortCircuit
	errs          []error
}

// NewBuilder starts an empty rule generation
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// derive copies the rows and weights of an existing builder under a new name
func (b *Builder) derive(name string) *Builder {
	return &Builder{
		name:          name,
		weights:       b.weights,
		weighted:      b.weighted,
		rules:         append([]pendingRule(nil), b.rules...),
		shortCircuits: append([]pendingShortCircuit(nil), b.shortCircuits...),
		errs:          append([]error(nil), b.errs...),
	}
}

// Weight sets the score contribution for a category
func (b *Builder) Weight(c Category, w int) *Builder {
	if !c.valid() {
		b.errs = append(b.errs, fmt.Errorf("weight for invalid category %d", int(c)))
		return b
	}
	b.weights[c] = w
	b.weighted[c] = true
	return b
}

// Rule appends a case-insensitive pattern row to a category
func (b *Builder) Rule(c Category, id, pattern string, opts ...RuleOption) *Builder {
	var spec ruleSpec
	for _, opt := range opts {
		opt(&spec)
	}
	b.rules = append(b.rules, pendingRule{id: id, category: c, pattern: pattern, spec: spec})
	return b
}

// ShortCircuit adds a pattern that excludes the posting outright, with the
// given explanation, before weighted scoring runs
func (b *Builder) ShortCircuit(c Category, id, pattern, explanation string) *Builder {
	b.shortCircuits = append(b.shortCircuits, pendingShortCircuit{
		pendingRule: pendingRule{id: id, category: c, pattern: pattern},
		explanation: explanation,
	})
	return b
}

// Build compiles every row and returns the immutable rule set
func (b *Builder) Build() (*RuleSet, error) {
	errs := append([]error(nil), b.errs...)
	if b.name == "" {
		errs = append(errs, errors.New("rule set name is empty"))
	}

	set := &RuleSet{name: b.name, weights: b.weights}
	seen := make(map[string]bool)

	compileRow := func(p pendingRule) (Rule, bool) {
		if !p.category.valid() {
			errs = append(errs, fmt.Errorf("rule %q: invalid category %d", p.id, int(p.category)))
			return Rule{}, false
		}
		if p.id == "" {
			errs = append(errs, fmt.Errorf("%s rule with empty id", p.category))
			return Rule{}, false
		}
		if seen[p.id] {
			errs = append(errs, fmt.Errorf("duplicate rule id %q", p.id))
			return Rule{}, false
		}
		seen[p.id] = true

		re, err := regexp.Compile(`(?i)` + p.pattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %q: %w", p.id, err))
			return Rule{}, false
		}
		rule := Rule{ID: posting.RuleID(p.id), Category: p.category, pattern: re}
		if p.spec.unless != "" {
			if rule.unless, err = regexp.Compile(`(?i)` + p.spec.unless); err != nil {
				errs = append(errs, fmt.Errorf("rule %q veto: %w", p.id, err))
				return Rule{}, false
			}
		}
		return rule, true
	}

	for _, p := range b.shortCircuits {
		if rule, ok := compileRow(p.pendingRule); ok {
			set.shortCircuits = append(set.shortCircuits, shortCircuit{rule: rule, explanation: p.explanation})
		}
	}
	for _, p := range b.rules {
		if p.category.valid() && !b.weighted[p.category] {
			errs = append(errs, fmt.Errorf("rule %q: category %s has no weight", p.id, p.category))
			continue
		}
		if rule, ok := compileRow(p); ok {
			set.rules = append(set.rules, rule)
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("build rule set %q: %w", b.name, errors.Join(errs...))
	}
	return set, nil
}
