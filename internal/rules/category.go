// Package rules scores education and experience language in a job
// description against a declarative, weighted rule table.
package rules

import "fmt"

// Category is one weighted bucket of patterns. Declaration order is the
// order descriptions appear in an explanation.
type Category int

const (
	HealthcareAdminBachelors Category = iota
	AdvancedDegree
	HighExperience
	BachelorsRequired
	BachelorsMentioned
	BachelorsPreferred
	HighSchoolOnly
	AssociatesOnly
	NoDegreeRequired

	numCategories
)

var categoryInfo = [numCategories]struct {
	name        string
	description string
}{
	HealthcareAdminBachelors: {"healthcare_admin_bachelors", "Healthcare administration degree mentioned"},
	AdvancedDegree:           {"advanced_degree", "Advanced degree required (overqualified)"},
	HighExperience:           {"high_experience", "Extensive experience required (overqualified)"},
	BachelorsRequired:        {"bachelors_required", "Bachelor's degree explicitly required"},
	BachelorsMentioned:       {"bachelors_mentioned", "Bachelor's degree mentioned"},
	BachelorsPreferred:       {"bachelors_preferred", "Bachelor's degree preferred but not required"},
	HighSchoolOnly:           {"high_school_only", "High school/Associates degree mentioned"},
	AssociatesOnly:           {"associates_only", "Associates degree mentioned"},
	NoDegreeRequired:         {"no_degree_required", "No degree required"},
}

// Categories returns every category in explanation order
func Categories() []Category {
	out := make([]Category, 0, numCategories)
	for c := Category(0); c < numCategories; c++ {
		out = append(out, c)
	}
	return out
}

// ParseCategory resolves a category by its snake_case name
func ParseCategory(name string) (Category, error) {
	for c := Category(0); c < numCategories; c++ {
		if categoryInfo[c].name == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown rule category %q", name)
}

func (c Category) valid() bool {
	return c >= 0 && c < numCategories
}

func (c Category) String() string {
	if !c.valid() {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryInfo[c].name
}

// Description is the human-readable phrase used in explanations
func (c Category) Description() string {
	if !c.valid() {
		return ""
	}
	return categoryInfo[c].description
}

// Bachelors reports whether the category counts as a bachelor's signal
func (c Category) Bachelors() bool {
	switch c {
	case HealthcareAdminBachelors, BachelorsRequired, BachelorsMentioned, BachelorsPreferred:
		return true
	default:
		return false
	}
}
