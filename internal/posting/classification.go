package posting

// Decision is the include/exclude verdict for a posting
type Decision string

const (
	Include Decision = "include"
	Exclude Decision = "exclude"
)

// RejectReason names the stage that excluded a posting
type RejectReason string

const (
	ReasonNone                 RejectReason = "none"
	ReasonClinicalRole         RejectReason = "clinical_role"
	ReasonSoftwareRole         RejectReason = "software_role"
	ReasonNoAdminKeyword       RejectReason = "no_admin_keyword"
	ReasonEducationRequirement RejectReason = "education_requirement"
	ReasonNonTargetLocation    RejectReason = "non_target_location"
)

// RejectReasons lists every exclusion reason in reporting order
var RejectReasons = []RejectReason{
	ReasonClinicalRole,
	ReasonSoftwareRole,
	ReasonNoAdminKeyword,
	ReasonEducationRequirement,
	ReasonNonTargetLocation,
}

// RuleID identifies a single pattern row in a rule set
type RuleID string

// Classification is the outcome of evaluating one posting.
// MatchedRules holds each rule ID at most once, in rule-table order.
type Classification struct {
	Decision     Decision     `json:"decision"`
	RejectReason RejectReason `json:"rejectReason"`
	Score        int          `json:"score"`
	MatchedRules []RuleID     `json:"matchedRuleIds"`
	Explanation  string       `json:"explanation"`
}

// Included reports whether the posting survived classification
func (c Classification) Included() bool {
	return c.Decision == Include
}

// Rejected builds an exclusion that carries no rule score
func Rejected(reason RejectReason, explanation string) Classification {
	return Classification{
		Decision:     Exclude,
		RejectReason: reason,
		Explanation:  explanation,
	}
}
