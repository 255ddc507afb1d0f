package ai

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestExtractScore(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"slash form", "Overall I would give this 87/100.", 87},
		{"slash with spaces", "Quality: 72 / 100 overall", 72},
		{"out of", "I rate it 64 out of 100", 64},
		{"score colon", "Score: 55", 55},
		{"score no colon", "final score 91", 91},
		{"rating", "Rating 40", 40},
		{"quality", "code quality: 33", 33},
		{"case insensitive", "SCORE: 12", 12},
		{"zero is valid", "0/100", 0},
		{"slash beats score", "score: 10, really 80/100", 80},
		{"out of range falls through", "score: 150 and rating: 70", 70},
		{"out of range alone", "score: 150", 0},
		{"first match only per pattern", "score: 150, score: 20", 0},
		{"no score", "nothing numeric here", 0},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractScore(tt.text))
		})
	}
}

func TestExtractRecommendations(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "numbered",
			text: "1. Add tests\n2. Improve docs",
			want: []string{"Add tests", "Improve docs"},
		},
		{
			name: "bullets",
			text: "• Use CI\n* Pin versions\n- Add a linter",
			want: []string{"Use CI", "Pin versions", "Add a linter"},
		},
		{
			name: "blank line ends item",
			text: "1. Split the handler\n\nSome closing words",
			want: []string{"Split the handler"},
		},
		{
			name: "item spans lines",
			text: "1. Refactor the\nservice layer\n2. Cache results",
			want: []string{"Refactor the\nservice layer", "Cache results"},
		},
		{
			name: "hyphen inside numbered item also yields a bullet",
			text: "1. Add tests\n2. Use go-vet\n",
			want: []string{"Add tests", "Use go-vet", "vet"},
		},
		{
			name: "empty segments dropped",
			text: "1.\n2.   \n3. Real one",
			want: []string{"Real one"},
		},
		{
			name: "plain prose",
			text: "This repository looks fine overall",
			want: []string{},
		},
		{
			name: "empty",
			text: "",
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractRecommendations(tt.text))
		})
	}
}

func TestExtractRecommendationsCap(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 30; i++ {
		fmt.Fprintf(&b, "%d. Item %d\n", i, i)
	}
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "- Bullet %d\n", i)
	}

	got := ExtractRecommendations(b.String())
	require.Len(t, got, MaxRecommendations)
	assert.Equal(t, "Item 1", got[0])
	assert.Equal(t, "Item 10", got[9])
}

func TestExtractSection(t *testing.T) {
	text := "Security is weak. We found SQL injection risk. Fix immediately. Also check logs."
	got := ExtractSection(text, Security.Keywords)
	assert.Contains(t, got, "Security is weak.")
	assert.Contains(t, got, "We found SQL injection risk.")
	assert.Contains(t, got, "Fix immediately.")
	assert.Equal(t, text, got)
}

func TestExtractSectionWindow(t *testing.T) {
	text := "Intro. The architecture is layered. A. B. C. D. E."
	assert.Equal(t, "The architecture is layered. A. B. C.", ExtractSection(text, Architecture.Keywords))
}

func TestExtractSectionMultipleOccurrences(t *testing.T) {
	text := "Performance is fine. x. y. z. w. Performance under load drops!"
	assert.Equal(t, "Performance is fine. x. y. z. Performance under load drops!",
		ExtractSection(text, Performance.Keywords))
}

func TestExtractSectionKeywordPriority(t *testing.T) {
	text := "The design is clean. The structure is flat."
	// "structure" precedes "design" in the keyword list.
	assert.Equal(t, "The structure is flat.", ExtractSection(text, Architecture.Keywords))
}

func TestExtractSectionNoMatch(t *testing.T) {
	assert.Empty(t, ExtractSection("Nothing relevant here.", Security.Keywords))
	assert.Empty(t, ExtractSection("security without terminator", Security.Keywords))
	assert.Empty(t, ExtractSection("", Security.Keywords))
}

func TestExtractSectionCaseInsensitive(t *testing.T) {
	text := "Follow BEST PRACTICES for naming."
	assert.Equal(t, text, ExtractSection(text, BestPractices.Keywords))
}

func TestParse(t *testing.T) {
	raw := `Overall score: 78 out of 100

Recommendations:
1. Add integration tests
2. Document the public API

The architecture is a classic layered design. Handlers are thin.
Performance could improve with caching. Security looks reasonable, no secrets found.
The code follows Go conventions.`

	got := Parse(raw)
	assert.Equal(t, 78, got.OverallScore)
	assert.Equal(t, []string{"Add integration tests", "Document the public API"}, got.Recommendations)
	assert.Contains(t, got.ArchitectureNotes, "The architecture is a classic layered design. Handlers are thin.")
	assert.True(t, strings.HasPrefix(got.PerformanceNotes, "Performance could improve with caching."))
	assert.True(t, strings.HasPrefix(got.SecurityNotes, "Security looks reasonable, no secrets found."))
	assert.Equal(t, "The code follows Go conventions.", got.BestPracticesNotes)
	assert.Equal(t, raw, got.RawText)
	assert.Empty(t, got.ParseError)
	assert.False(t, got.Degraded())
}

func TestParseEmpty(t *testing.T) {
	got := Parse("")
	if diff := cmp.Diff(ParsedAnalysis{Recommendations: []string{}}, got); diff != "" {
		t.Errorf("Parse(\"\") mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIdempotent(t *testing.T) {
	raw := "Rating: 61. - tighten errors\n- add context. Security risk is low."
	assert.Equal(t, Parse(raw), Parse(raw))
}

func TestParseDegrades(t *testing.T) {
	tests := []struct {
		name   string
		parser Parser
		raw    string
	}{
		{"too large", Parser{MaxInputBytes: 16}, "score: 90 and a lot more text"},
		{"invalid utf8", Parser{}, "score: 90 \xff\xfe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.parser.Parse(tt.raw)
			assert.True(t, got.Degraded())
			assert.Equal(t, 0, got.OverallScore)
			assert.Empty(t, got.Recommendations)
			assert.NotNil(t, got.Recommendations)
			assert.Empty(t, got.SecurityNotes)
			assert.Equal(t, tt.raw, got.RawText)
		})
	}
}

func TestParseAdversarial(t *testing.T) {
	inputs := []string{
		strings.Repeat("1.", 50000),
		strings.Repeat("-", 100000),
		strings.Repeat("9", 200000) + ".",
		strings.Repeat("security. ", 20000),
		strings.Repeat("\n\n", 50000),
		strings.Repeat("•*-", 30000),
	}
	for _, in := range inputs {
		require.NotPanics(t, func() {
			got := Parse(in)
			assert.Equal(t, in, got.RawText)
			assert.LessOrEqual(t, len(got.Recommendations), MaxRecommendations)
		})
	}

	huge := strings.Repeat("x", DefaultMaxInputBytes+1)
	got := Parse(huge)
	assert.True(t, got.Degraded())
}

func TestParseConcurrent(t *testing.T) {
	raw := "Score: 42\n1. One\n2. Two\nSecurity is fine."
	want := Parse(raw)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, Parse(raw))
		}()
	}
	wg.Wait()
}
