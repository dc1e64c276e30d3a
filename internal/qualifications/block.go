// Package qualifications pulls a categorized qualifications list out of a
// sanitized job description.
package qualifications

import (
	"fmt"
	"strings"
)

// NotAvailable is how callers render an empty block
const NotAvailable = "N/A"

// Category groups qualification items for ordering
type Category int

const (
	Education Category = iota
	Experience
	Skill
	Other
)

var categoryNames = map[Category]string{
	Education:  "education",
	Experience: "experience",
	Skill:      "skill",
	Other:      "other",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// MarshalText renders the category name in JSON output
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses a category name
func (c *Category) UnmarshalText(text []byte) error {
	for cat, name := range categoryNames {
		if name == string(text) {
			*c = cat
			return nil
		}
	}
	return fmt.Errorf("unknown qualification category %q", string(text))
}

// Tier records which extraction strategy produced a block
type Tier string

const (
	TierNone      Tier = ""
	TierSection   Tier = "section"
	TierLines     Tier = "lines"
	TierSentences Tier = "sentences"
)

// Item is one qualification line
type Item struct {
	Text     string   `json:"text"`
	Category Category `json:"category"`
}

// Block is an ordered qualification list. Education items come first, then
// Experience, Skill and Other; discovery order holds within a category.
type Block struct {
	Items []Item `json:"items"`
	Tier  Tier   `json:"tier,omitempty"`
}

// Empty reports whether no tier produced anything
func (b Block) Empty() bool {
	return len(b.Items) == 0
}

// Format renders the block as bullet lines, or "" when empty
func (b Block) Format() string {
	if b.Empty() {
		return ""
	}
	lines := make([]string, len(b.Items))
	for i, item := range b.Items {
		lines[i] = "• " + item.Text
	}
	return strings.Join(lines, "\n")
}

// newBlock categorizes raw items and orders them by category
func newBlock(texts []string, tier Tier, categorize func(string) Category) Block {
	if len(texts) == 0 {
		return Block{}
	}

	buckets := make([][]Item, Other+1)
	for _, text := range texts {
		cat := categorize(text)
		buckets[cat] = append(buckets[cat], Item{Text: text, Category: cat})
	}

	items := make([]Item, 0, len(texts))
	for _, bucket := range buckets {
		items = append(items, bucket...)
	}
	return Block{Items: items, Tier: tier}
}
