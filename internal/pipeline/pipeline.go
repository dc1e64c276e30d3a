// Package pipeline composes the classification and normalization stages
// and provides the batch-level dedup and stats steps.
package pipeline

import (
	"fmt"
	"time"

	"github.com/matjmiles/healthcare-job-organizer/internal/location"
	"github.com/matjmiles/healthcare-job-organizer/internal/pay"
	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
	"github.com/matjmiles/healthcare-job-organizer/internal/qualifications"
	"github.com/matjmiles/healthcare-job-organizer/internal/role"
	"github.com/matjmiles/healthcare-job-organizer/internal/rules"
	"github.com/matjmiles/healthcare-job-organizer/internal/sanitize"
	"github.com/matjmiles/healthcare-job-organizer/internal/track"
)

// Config wires the stage implementations. Nil fields fall back to the
// canonical defaults.
type Config struct {
	RuleSet        *rules.RuleSet
	Roles          *role.Classifier
	Gate           *location.Gate
	Qualifications *qualifications.Extractor
	Pay            *pay.Normalizer
	Now            func() time.Time
}

// Pipeline runs one posting through every stage. It holds only immutable
// configuration and is safe for concurrent use.
type Pipeline struct {
	roles  *role.Classifier
	engine *rules.Engine
	gate   *location.Gate
	quals  *qualifications.Extractor
	pay    *pay.Normalizer
	now    func() time.Time
}

// New builds a pipeline from cfg
func New(cfg Config) (*Pipeline, error) {
	p := &Pipeline{
		roles:  cfg.Roles,
		engine: rules.NewEngine(cfg.RuleSet),
		gate:   cfg.Gate,
		quals:  cfg.Qualifications,
		pay:    cfg.Pay,
		now:    cfg.Now,
	}
	if p.roles == nil {
		p.roles = role.Default()
	}
	if p.gate == nil {
		gate, err := location.NewGate(nil, true)
		if err != nil {
			return nil, fmt.Errorf("default location gate: %w", err)
		}
		p.gate = gate
	}
	if p.quals == nil {
		p.quals = qualifications.NewExtractor()
	}
	if p.pay == nil {
		p.pay = pay.NewNormalizer()
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p, nil
}

// RuleSetName reports the rule generation in use
func (p *Pipeline) RuleSetName() string {
	return p.engine.RuleSet().Name()
}

// Outcome is the result of processing one posting. Record is set only when
// the posting was included.
type Outcome struct {
	Classification posting.Classification
	Record         *posting.Normalized
}

// Included reports whether the posting produced a record
func (o Outcome) Included() bool {
	return o.Record != nil
}

// Process classifies and normalizes raw. Stages short-circuit on the first
// rejection. It never fails for any input text.
func (p *Pipeline) Process(raw posting.Raw) Outcome {
	title := sanitize.Line(raw.Title)
	text := sanitize.Text(raw.Description)

	verdict := p.roles.Classify(title, text)
	if !verdict.Accepted {
		return Outcome{Classification: posting.Rejected(verdict.Reason, verdict.Explanation())}
	}

	cls := p.engine.Evaluate(text)
	if !cls.Included() {
		return Outcome{Classification: cls}
	}

	rawLocation := sanitize.Line(raw.Location)
	loc := location.Parse(rawLocation)
	if !p.gate.Allow(loc) {
		cls.Decision = posting.Exclude
		cls.RejectReason = posting.ReasonNonTargetLocation
		cls.Explanation = fmt.Sprintf("Location %q is outside the target states", rawLocation)
		return Outcome{Classification: cls}
	}

	company := sanitize.Line(raw.Company)
	quals := p.quals.Extract(text)
	estimate := p.pay.Normalize(text)

	qualText := quals.Format()
	if qualText == "" {
		qualText = qualifications.NotAvailable
	}

	key := posting.DedupKey(raw.SourceURL, company, title, rawLocation)
	record := &posting.Normalized{
		ID:                 posting.JobID(key),
		DedupKey:           key,
		JobTitle:           title,
		Company:            company,
		Location:           rawLocation,
		City:               loc.City,
		State:              loc.State,
		Region:             string(loc.Region),
		RemoteFlag:         loc.Remote,
		JobDescription:     text,
		SourceFile:         raw.SourceURL,
		SourcePlatform:     raw.Platform,
		Qualifications:     qualText,
		QualificationItems: quals.Items,
		Pay:                estimate.Format(),
		PayEstimate:        estimate,
		CareerTrack:        string(track.Career(title, text)),
		EntryLevelFlag:     track.EntryLevel(title, text),
		Classification:     cls,
		CollectedAt:        p.now().UTC(),
		CreatedAt:          raw.CreatedAt,
		UpdatedAt:          raw.UpdatedAt,
	}
	return Outcome{Classification: cls, Record: record}
}
