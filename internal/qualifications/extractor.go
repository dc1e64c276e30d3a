package qualifications

import (
	"regexp"
	"strings"
)

const (
	maxSectionSpan    = 2000
	minItemLength     = 10
	minPlainLineLen   = 15
	maxSectionLines   = 10
	maxPatternLines   = 15
	maxSentences      = 10
	minSentenceLength = 20
	maxSentenceLength = 300
)

// DefaultHeadings are the qualification section headings in priority order
var DefaultHeadings = []string{
	"Required Qualifications",
	"Qualifications",
	"Requirements",
	"Minimum Qualifications",
	"Minimum Requirements",
	"Job Requirements",
	"Required Skills",
	"What you'll need",
	"What you need",
	"What you bring",
	"Education and Experience",
	"Education & Experience",
	"Skills and Qualifications",
	"Skills & Qualifications",
	"Desired Qualifications",
	"Preferred Qualifications",
	"Additional Requirements",
	"Experience Required",
	"Must Have",
	"You Have",
	"Candidate Profile",
	"Ideal Candidate",
	"We're Looking For",
}

// otherHeadings end a captured section without starting one
var otherHeadings = []string{
	"About Us", "About the Role", "About the Company", "About You", "Overview",
	"Job Summary", "Summary", "Position Summary", "Responsibilities",
	"Key Responsibilities", "Duties", "Essential Duties", "What You'll Do",
	"What We Offer", "Benefits", "Perks", "Compensation", "Pay", "Salary",
	"Schedule", "Location", "How to Apply", "Equal Opportunity Employer",
	"Physical Requirements", "Working Conditions",
}

var (
	bulletPrefix = regexp.MustCompile(`^(?:[-*\x{2022}\x{00B7}\x{25AA}\x{25AB}\x{25E6}\x{2023}\x{2043}]|\d{1,2}[.)])\s+`)
	cuePrefix    = regexp.MustCompile(`(?i)^(?:required?|must|need|should|minimum|preferred)[\s:]`)
	sentenceEnd  = regexp.MustCompile(`[.!?]+`)
	headingShape = regexp.MustCompile(`^[A-Z][A-Za-z&'/ -]{2,49}$`)

	qualificationKeyword = regexp.MustCompile(`(?i)\b(?:bachelor|degree|master|mba\b|mha\b|mph\b|associate|high school|diploma|ged\b|education|university|college|certif|licens|experience|years?\b|background|history|prior\b|previous|minimum|demonstrated|skill|abilit|competenc|proficien|knowledge|expertise|familiar|understanding|hipaa|healthcare|medical|clinical|hospital|patient|epic\b|cerner|emr\b|ehr\b|icd|cpt\b|billing|coding)`)
	skipLine             = regexp.MustCompile(`(?i)^(?:(?:about|our|we|the company|the role|this position|you will|responsibilities|benefits|salary|compensation|location|apply|contact|send|email|equal opportunity|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b|https?://)`)
	sentenceIndicator    = regexp.MustCompile(`(?i)required|must have|minimum|preferred|desired|bachelor|degree|experience|years|certification|license|skills|knowledge|ability to|proficient|familiar with|understanding of`)
	boilerplateSentence  = regexp.MustCompile(`(?i)^(?:we are|our team|the company)\b`)

	educationCategory  = regexp.MustCompile(`(?i)\b(?:bachelor|degree|master|associate|certif|licens|diploma|education)`)
	experienceCategory = regexp.MustCompile(`(?i)\b(?:experience|years?\b|background|history|previous|prior\b)`)
	skillCategory      = regexp.MustCompile(`(?i)\b(?:skill|abilit|knowledge|proficien|familiar|understanding)`)

	smallWords = map[string]bool{
		"and": true, "or": true, "of": true, "the": true, "to": true,
		"for": true, "in": true, "a": true, "an": true, "&": true, "-": true, "/": true,
	}
)

// Extractor finds qualification items with a three-tier fallback:
// a headed section, then marked or cued lines, then sentences.
type Extractor struct {
	headings []string
	stoppers map[string]bool
}

// NewExtractor builds an extractor for the given section headings, falling
// back to DefaultHeadings when none are given
func NewExtractor(headings ...string) *Extractor {
	if len(headings) == 0 {
		headings = DefaultHeadings
	}

	e := &Extractor{
		headings: make([]string, 0, len(headings)),
		stoppers: make(map[string]bool, len(headings)+len(otherHeadings)),
	}
	for _, h := range headings {
		key := headingKey(h)
		e.headings = append(e.headings, key)
		e.stoppers[key] = true
	}
	for _, h := range otherHeadings {
		e.stoppers[headingKey(h)] = true
	}
	return e
}

// Extract returns the first non-empty tier's items, categorized and ordered
func (e *Extractor) Extract(text string) Block {
	if strings.TrimSpace(text) == "" {
		return Block{}
	}

	lines := strings.Split(text, "\n")

	if items := e.fromSection(lines); len(items) > 0 {
		return newBlock(items, TierSection, categorize)
	}
	if items := fromLines(lines); len(items) > 0 {
		return newBlock(items, TierLines, categorize)
	}
	if items := fromSentences(text); len(items) > 0 {
		return newBlock(items, TierSentences, categorize)
	}
	return Block{}
}

func (e *Extractor) fromSection(lines []string) []string {
	start := -1
	for _, heading := range e.headings {
		for i, line := range lines {
			if headingKey(line) == heading {
				start = i + 1
				break
			}
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return nil
	}

	var section []string
	span := 0
	for _, line := range lines[start:] {
		line = strings.TrimSpace(line)
		if e.isHeading(line) {
			break
		}
		span += len(line) + 1
		if span > maxSectionSpan {
			break
		}
		section = append(section, line)
	}

	return parseSection(section)
}

// parseSection splits a section into bullet items, joining continuation
// lines. Without any bullets, qualifying plain lines are used instead.
func parseSection(section []string) []string {
	var items []string
	var current []string
	hasBullets := false

	flush := func() {
		if len(current) == 0 {
			return
		}
		item := strings.Join(strings.Fields(strings.Join(current, " ")), " ")
		if len(item) > minItemLength {
			items = append(items, item)
		}
		current = nil
	}

	for _, line := range section {
		switch {
		case line == "":
			flush()
		case bulletPrefix.MatchString(line):
			hasBullets = true
			flush()
			current = append(current, bulletPrefix.ReplaceAllString(line, ""))
		case len(current) > 0:
			current = append(current, line)
		}
	}
	flush()

	if hasBullets {
		return items
	}

	items = nil
	considered := 0
	for _, line := range section {
		if line == "" {
			continue
		}
		if considered == maxSectionLines {
			break
		}
		considered++
		if len(line) > minPlainLineLen && isQualificationLine(line) {
			items = append(items, line)
		}
	}
	return items
}

func fromLines(lines []string) []string {
	var items []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if bulletPrefix.MatchString(line) {
			cleaned := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
			if isQualificationLine(cleaned) {
				items = append(items, cleaned)
			}
		} else if cuePrefix.MatchString(line) && isQualificationLine(line) {
			items = append(items, line)
		}

		if len(items) == maxPatternLines {
			break
		}
	}
	return items
}

func fromSentences(text string) []string {
	var items []string
	for _, sentence := range sentenceEnd.Split(text, -1) {
		sentence = strings.Join(strings.Fields(sentence), " ")
		if len(sentence) < minSentenceLength || len(sentence) > maxSentenceLength {
			continue
		}
		if !sentenceIndicator.MatchString(sentence) || boilerplateSentence.MatchString(sentence) {
			continue
		}
		items = append(items, sentence)
		if len(items) == maxSentences {
			break
		}
	}
	return items
}

func isQualificationLine(line string) bool {
	return len(line) > minItemLength &&
		qualificationKeyword.MatchString(line) &&
		!skipLine.MatchString(line)
}

func categorize(text string) Category {
	switch {
	case educationCategory.MatchString(text):
		return Education
	case experienceCategory.MatchString(text):
		return Experience
	case skillCategory.MatchString(text):
		return Skill
	default:
		return Other
	}
}

// isHeading reports whether a line starts a new section
func (e *Extractor) isHeading(line string) bool {
	if line == "" || bulletPrefix.MatchString(line) {
		return false
	}
	if e.stoppers[headingKey(line)] {
		return true
	}
	if strings.HasSuffix(line, ":") && len(line) <= 60 && len(strings.Fields(line)) <= 8 {
		return true
	}
	return isTitleCase(line)
}

// isTitleCase matches short lines like "Benefits & Perks" with every
// significant word capitalized and no terminal punctuation
func isTitleCase(line string) bool {
	if !headingShape.MatchString(line) {
		return false
	}
	words := strings.Fields(line)
	if len(words) > 6 {
		return false
	}
	for _, w := range words {
		if smallWords[strings.ToLower(w)] {
			continue
		}
		if w[0] < 'A' || w[0] > 'Z' {
			return false
		}
	}
	return true
}

func headingKey(line string) string {
	key := strings.TrimSpace(line)
	key = strings.TrimRight(key, ": ")
	key = strings.Join(strings.Fields(key), " ")
	key = strings.ReplaceAll(key, "\u2019", "'")
	return strings.ToLower(key)
}
