package ai

import "strings"

// sentenceWindow is how many sentences follow the one holding a keyword.
const sentenceWindow = 3

// Category is a named analysis section and its keywords in priority order.
type Category struct {
	Name     string
	Keywords []string
}

var (
	Architecture  = Category{Name: "architecture", Keywords: []string{"architecture", "structure", "organization", "design"}}
	Performance   = Category{Name: "performance", Keywords: []string{"performance", "optimization", "speed", "efficiency"}}
	Security      = Category{Name: "security", Keywords: []string{"security", "vulnerability", "risk", "protection"}}
	BestPractices = Category{Name: "best_practices", Keywords: []string{"best practice", "convention", "standard", "pattern"}}
)

// Categories lists every section extracted by Parse.
var Categories = []Category{Architecture, Performance, Security, BestPractices}

// span is a sentence as byte offsets into the source text, terminator included.
type span struct{ start, end int }

// splitSentences tokenizes on '.', '!' and '?'. Text after the last
// terminator is not a sentence.
func splitSentences(text string) []span {
	var out []span
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			out = append(out, span{start, i + 1})
			start = i + 1
		}
	}
	return out
}

// ExtractSection returns the excerpts for the first keyword that occurs in
// any sentence of text. Each excerpt is the matching sentence plus up to
// sentenceWindow following ones; excerpts never overlap.
func ExtractSection(text string, keywords []string) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return ""
	}
	lowered := make([]string, len(sentences))
	for i, s := range sentences {
		lowered[i] = strings.ToLower(text[s.start:s.end])
	}

	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		var excerpts []string
		for i := 0; i < len(sentences); i++ {
			if !strings.Contains(lowered[i], kw) {
				continue
			}
			last := min(i+sentenceWindow, len(sentences)-1)
			excerpts = append(excerpts, strings.TrimSpace(text[sentences[i].start:sentences[last].end]))
			i = last
		}
		if len(excerpts) > 0 {
			return strings.Join(excerpts, " ")
		}
	}
	return ""
}

// Extract runs ExtractSection with the category's keywords.
func (c Category) Extract(text string) string {
	return ExtractSection(text, c.Keywords)
}
