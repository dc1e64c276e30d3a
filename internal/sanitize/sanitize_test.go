package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "plain text unchanged",
			input:    "Bachelor's degree required.",
			expected: "Bachelor's degree required.",
		},
		{
			name:     "paragraphs become blank-line separated",
			input:    "<p>Hello</p><p>World</p>",
			expected: "Hello\n\nWorld",
		},
		{
			name:     "list items become bullets",
			input:    "<h3>Qualifications</h3><ul><li>One thing</li><li>Two things</li></ul>",
			expected: "Qualifications\n\n• One thing\n• Two things",
		},
		{
			name:     "br becomes newline",
			input:    "Line one<br/>Line two<br>Line three",
			expected: "Line one\nLine two\nLine three",
		},
		{
			name:     "script and style removed",
			input:    "<style>.x{color:red}</style><script>alert('x')</script><div>Visible</div>",
			expected: "Visible",
		},
		{
			name:     "comments removed",
			input:    "Before<!-- hidden -->After",
			expected: "BeforeAfter",
		},
		{
			name:     "common entities decoded",
			input:    "Salary &amp; benefits &quot;great&quot; &#39;now&#39; 5 &lt; 10",
			expected: "Salary & benefits \"great\" 'now' 5 < 10",
		},
		{
			name:     "entity encoded markup decoded then stripped",
			input:    "&lt;p&gt;Bachelor&amp;#39;s degree required&lt;/p&gt;",
			expected: "Bachelor's degree required",
		},
		{
			name:     "non-breaking spaces folded and collapsed",
			input:    "Patient&nbsp;&nbsp;&nbsp;Access",
			expected: "Patient Access",
		},
		{
			name:     "zero-width and BOM removed",
			input:    "\ufeffPatient\u200b Access\u200d Rep",
			expected: "Patient Access Rep",
		},
		{
			name:     "runs of spaces and tabs collapse",
			input:    "a   b\t\tc",
			expected: "a b c",
		},
		{
			name:     "three or more newlines collapse to one blank line",
			input:    "first\n\n\n\n\nsecond",
			expected: "first\n\nsecond",
		},
		{
			name:     "whitespace-only lines count as blank",
			input:    "first\n   \n \t \n\nsecond",
			expected: "first\n\nsecond",
		},
		{
			name:     "carriage returns normalized",
			input:    "first\r\nsecond\rthird",
			expected: "first\nsecond\nthird",
		},
		{
			name:     "malformed utf-8 dropped",
			input:    "bad\xff\xfe text",
			expected: "bad text",
		},
		{
			name:     "bare angle brackets kept",
			input:    "Lift < 25 lbs and > 10 lbs",
			expected: "Lift < 25 lbs and > 10 lbs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Text(tt.input))
		})
	}
}

func TestText_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"<p>Hello</p><p>World</p>",
		"&amp;amp;amp;lt;b&amp;amp;gt;",
		"&lt;ul&gt;&lt;li&gt;Item&lt;/li&gt;&lt;/ul&gt;",
		"a\u00a0\u00a0b\u200b\n\n\n\nc",
		"<div>  spaced   out  </div>\t\t<br><br><br><br>end",
		"bad\xff\xfe<b>bold</b>",
		"&#8203;&#xFEFF;hidden",
		"x<y and z>w",
		"&" + strings.Repeat("amp;", 20) + "lt;b&gt;",
		strings.Repeat("&lt;div&gt;", 40) + "deep",
	}

	for _, in := range inputs {
		once := Text(in)
		assert.Equal(t, once, Text(once), "input %q", in)
	}
}

func TestText_DeeplyEncoded(t *testing.T) {
	in := "&" + strings.Repeat("amp;", 30) + "lt;p&" + strings.Repeat("amp;", 30) + "gt;Billing Specialist"
	assert.Equal(t, "Billing Specialist", Text(in))
}

func TestLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "collapses newlines",
			input:    "  Patient\n Access   Rep ",
			expected: "Patient Access Rep",
		},
		{
			name:     "strips markup",
			input:    "<b>Boise</b>, ID",
			expected: "Boise, ID",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Line(tt.input))
		})
	}
}
