package qualifications

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sectionPosting = `Responsibilities:
- Manage patient intake process
- Coordinate with healthcare teams

Qualifications:
• Bachelor's degree in Healthcare Administration or related field
• 2+ years of experience in healthcare administration
• Knowledge of HIPAA regulations
• Proficient in Epic or similar EHR systems
• Strong communication skills
• Ability to work in fast-paced environment

Benefits:
- Health insurance
- 401k matching`

func TestExtractor_Section(t *testing.T) {
	block := NewExtractor().Extract(sectionPosting)

	require.False(t, block.Empty())
	assert.Equal(t, TierSection, block.Tier)
	require.Len(t, block.Items, 6)

	assert.Equal(t, Item{Text: "Bachelor's degree in Healthcare Administration or related field", Category: Education}, block.Items[0])
	assert.Equal(t, Item{Text: "2+ years of experience in healthcare administration", Category: Experience}, block.Items[1])
	assert.Equal(t, Skill, block.Items[2].Category)
	assert.Equal(t, "Ability to work in fast-paced environment", block.Items[5].Text)

	for _, item := range block.Items {
		assert.NotContains(t, item.Text, "insurance", "section capture must stop at the next heading")
	}
}

func TestExtractor_SectionOrdering(t *testing.T) {
	text := "Requirements\n\n" +
		"• Strong communication skills required\n" +
		"• Three years of experience in a clinic setting\n" +
		"• Comfortable with phones and visitors all day\n" +
		"• High school diploma; bachelor's degree preferred\n"

	block := NewExtractor().Extract(text)
	require.Len(t, block.Items, 4)

	var categories []Category
	for _, item := range block.Items {
		categories = append(categories, item.Category)
	}
	assert.Equal(t, []Category{Education, Experience, Skill, Other}, categories)
	assert.Equal(t, "High school diploma; bachelor's degree preferred", block.Items[0].Text)
}

func TestExtractor_SectionContinuationLines(t *testing.T) {
	text := "What you'll need:\n" +
		"- Associate's or bachelor's degree in business\n" +
		"  or healthcare administration\n" +
		"- Familiarity with insurance verification\n" +
		"\n" +
		"Equal Opportunity Employer\n" +
		"We welcome everyone."

	block := NewExtractor().Extract(text)
	require.Len(t, block.Items, 2)
	assert.Equal(t, "Associate's or bachelor's degree in business or healthcare administration", block.Items[0].Text)
	assert.Equal(t, "Familiarity with insurance verification", block.Items[1].Text)
}

func TestExtractor_SectionWithoutBullets(t *testing.T) {
	text := "Qualifications\n" +
		"Bachelor's degree in health administration required.\n" +
		"Short line\n" +
		"Prior experience in patient registration is helpful."

	block := NewExtractor().Extract(text)
	require.Len(t, block.Items, 2)
	assert.Equal(t, TierSection, block.Tier)
	assert.Equal(t, Education, block.Items[0].Category)
	assert.Equal(t, Experience, block.Items[1].Category)
}

func TestExtractor_SectionBoundedSpan(t *testing.T) {
	var b strings.Builder
	b.WriteString("Qualifications\n")
	for i := 0; i < 200; i++ {
		b.WriteString("- Experience with scheduling systems and billing\n")
	}

	block := NewExtractor().Extract(b.String())
	assert.Less(t, len(block.Items), 200)
	assert.NotEmpty(t, block.Items)
}

func TestExtractor_PatternLines(t *testing.T) {
	text := "Join our growing team in Boise.\n" +
		"- Must be comfortable with Epic scheduling\n" +
		"- Free parking\n" +
		"Required: 1 year of customer service experience\n" +
		"Minimum age 18\n" +
		"- Benefits include medical coverage"

	block := NewExtractor().Extract(text)
	assert.Equal(t, TierLines, block.Tier)

	var texts []string
	for _, item := range block.Items {
		texts = append(texts, item.Text)
	}
	assert.Equal(t, []string{
		"Required: 1 year of customer service experience",
		"Must be comfortable with Epic scheduling",
		"Minimum age 18",
	}, texts)
}

func TestExtractor_PatternLinesCapped(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("* Knowledge of medical terminology\n")
	}

	block := NewExtractor().Extract(b.String())
	assert.Len(t, block.Items, maxPatternLines)
}

func TestExtractor_Sentences(t *testing.T) {
	text := "We are a regional health system. " +
		"Candidates should hold a bachelor's degree in a related field. " +
		"Familiarity with insurance verification is preferred! " +
		"Great place. " +
		"Our team values kindness and requires punctuality."

	block := NewExtractor().Extract(text)
	assert.Equal(t, TierSentences, block.Tier)

	var texts []string
	for _, item := range block.Items {
		texts = append(texts, item.Text)
	}
	assert.Equal(t, []string{
		"Candidates should hold a bachelor's degree in a related field",
		"Familiarity with insurance verification is preferred",
	}, texts)
}

func TestExtractor_Empty(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "whitespace", text: "  \n\n "},
		{name: "no qualification language", text: "Come work with us. Great snacks and a lovely view."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := NewExtractor().Extract(tt.text)
			assert.True(t, block.Empty())
			assert.Equal(t, "", block.Format())
		})
	}
}

func TestExtractor_CustomHeadings(t *testing.T) {
	text := "Qualifications\n- Bachelor's degree required\n\nYour Toolkit\n- Experience with Cerner scheduling"

	block := NewExtractor("Your Toolkit").Extract(text)
	require.Len(t, block.Items, 1)
	assert.Equal(t, "Experience with Cerner scheduling", block.Items[0].Text)
}

func TestBlock_Format(t *testing.T) {
	block := Block{Items: []Item{
		{Text: "Bachelor's degree", Category: Education},
		{Text: "2 years experience", Category: Experience},
	}}

	assert.Equal(t, "• Bachelor's degree\n• 2 years experience", block.Format())
}

func TestCategory_Text(t *testing.T) {
	for _, cat := range []Category{Education, Experience, Skill, Other} {
		text, err := cat.MarshalText()
		require.NoError(t, err)

		var parsed Category
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, cat, parsed)
	}

	var c Category
	assert.Error(t, c.UnmarshalText([]byte("hobbies")))
}
