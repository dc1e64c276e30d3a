// Package role gates postings on job identity: clinical and software roles
// are rejected, and anything left must carry an administrative keyword.
package role

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
)

// Lexicon is the set of phrases for each gate. Phrases match whole words,
// case-insensitively, with an optional plural "s"; a space in a phrase also
// matches a hyphen. ClinicalTitle holds words that admin postings use when
// describing the team ("coordinate with nurses"), so they only reject when
// they appear in the title.
type Lexicon struct {
	Clinical      []string `yaml:"clinical"`
	ClinicalTitle []string `yaml:"clinical_title"`
	Software      []string `yaml:"software"`
	Admin         []string `yaml:"admin"`
}

// DefaultLexicon returns a fresh copy of the canonical lexicon
func DefaultLexicon() Lexicon {
	return Lexicon{
		Clinical: []string{
			"registered nurse", "nurse practitioner", "rn", "np",
			"physician", "physician assistant", "pa-c", "surgeon", "anesthesiologist", "crna",
			"pharmacist", "pharmd", "pharmacy technician", "therapist",
			"dentist", "dental hygienist", "radiologic technologist", "sonographer",
			"psychologist", "optometrist", "chiropractor", "midwife",
		},
		ClinicalTitle: []string{
			"nurse", "lpn", "lvn", "cna", "clinician", "medical assistant", "phlebotomist",
			"paramedic", "emt", "dietitian",
		},
		Software: []string{
			"software engineer", "software developer", "web developer", "frontend engineer",
			"frontend developer", "front end developer", "backend engineer", "backend developer",
			"back end developer", "full stack", "fullstack", "devops", "site reliability", "sre",
			"data scientist", "data engineer", "machine learning engineer", "sdet",
			"cloud engineer", "platform engineer", "mobile developer", "ios developer",
			"android developer", "programmer",
		},
		Admin: []string{
			"patient access", "registration", "registrar", "scheduler", "scheduling", "billing",
			"biller", "revenue cycle", "coordinator", "front desk", "health information",
			"admissions", "intake", "referral", "prior auth", "authorization", "unit clerk", "clerk",
			"receptionist", "medical records", "office", "admin", "administrative", "administrator",
			"administration", "practice manager", "case management assistant", "bed management",
			"ait", "administrator in training", "claims", "coder", "insurance verification",
			"patient services", "patient financial", "compliance", "quality assurance",
			"quality improvement",
		},
	}
}

// Verdict is the outcome of the role gate. Term is the phrase that decided
// a clinical or software rejection.
type Verdict struct {
	Accepted bool
	Reason   posting.RejectReason
	Term     string
}

// Explanation renders the verdict for a classification record
func (v Verdict) Explanation() string {
	switch v.Reason {
	case posting.ReasonClinicalRole:
		return fmt.Sprintf("Clinical role: %s", v.Term)
	case posting.ReasonSoftwareRole:
		return fmt.Sprintf("Software/engineering role: %s", v.Term)
	case posting.ReasonNoAdminKeyword:
		return "No administrative keyword found"
	default:
		return "Administrative role"
	}
}

// Classifier holds the compiled lexicon. It is immutable and safe for
// concurrent use.
type Classifier struct {
	clinical      *regexp.Regexp
	clinicalTitle *regexp.Regexp
	software      *regexp.Regexp
	admin         *regexp.Regexp
}

var defaultClassifier = sync.OnceValue(func() *Classifier {
	c, err := New(DefaultLexicon())
	if err != nil {
		panic(err)
	}
	return c
})

// Default returns the classifier built from DefaultLexicon
func Default() *Classifier {
	return defaultClassifier()
}

// New compiles a lexicon. Every gate needs at least one phrase; the
// title-only clinical list may be empty.
func New(lex Lexicon) (*Classifier, error) {
	var errs []error
	build := func(name string, phrases []string) *regexp.Regexp {
		re, err := compilePhrases(phrases)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s lexicon: %w", name, err))
		}
		return re
	}

	c := &Classifier{
		clinical: build("clinical", lex.Clinical),
		software: build("software", lex.Software),
		admin:    build("admin", lex.Admin),
	}
	if len(lex.ClinicalTitle) > 0 {
		c.clinicalTitle = build("clinical title", lex.ClinicalTitle)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

// Classify checks the clinical lexicons, then the software lexicon, then
// the admin gate; the first failing check decides the verdict
func (c *Classifier) Classify(title, text string) Verdict {
	combined := title + "\n" + text

	if term := c.clinical.FindString(combined); term != "" {
		return Verdict{Reason: posting.ReasonClinicalRole, Term: strings.ToLower(term)}
	}
	if c.clinicalTitle != nil {
		if term := c.clinicalTitle.FindString(title); term != "" {
			return Verdict{Reason: posting.ReasonClinicalRole, Term: strings.ToLower(term)}
		}
	}
	if term := c.software.FindString(combined); term != "" {
		return Verdict{Reason: posting.ReasonSoftwareRole, Term: strings.ToLower(term)}
	}
	if !c.admin.MatchString(combined) {
		return Verdict{Reason: posting.ReasonNoAdminKeyword}
	}
	return Verdict{Accepted: true, Reason: posting.ReasonNone}
}

func compilePhrases(phrases []string) (*regexp.Regexp, error) {
	cleaned := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.ToLower(strings.Join(strings.Fields(p), " ")); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return nil, errors.New("no phrases")
	}

	// longest first so alternation reports the most specific phrase
	sort.SliceStable(cleaned, func(i, j int) bool {
		return len(cleaned[i]) > len(cleaned[j])
	})

	alts := make([]string, len(cleaned))
	for i, p := range cleaned {
		words := strings.Split(p, " ")
		for k, w := range words {
			words[k] = regexp.QuoteMeta(w)
		}
		alts[i] = strings.Join(words, `[\s-]+`)
	}
	return regexp.Compile(`(?i)\b(?:` + strings.Join(alts, "|") + `)s?\b`)
}
