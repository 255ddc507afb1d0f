package ai

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxRecommendations caps the combined recommendation list.
const MaxRecommendations = 10

// segmentRule describes one list strategy: where a segment starts (returning
// the marker length) and where it ends.
type segmentRule struct {
	marker func(s string, i int) int
}

var (
	numberedRule = segmentRule{marker: numberMarkerAt}
	bulletRule   = segmentRule{marker: bulletMarkerAt}
)

// ExtractRecommendations collects numbered-list items followed by bullet
// items, trimmed, without dedup, capped at MaxRecommendations.
func ExtractRecommendations(text string) []string {
	out := make([]string, 0, MaxRecommendations)
	out = append(out, numberedRule.segments(text)...)
	out = append(out, bulletRule.segments(text)...)
	if len(out) > MaxRecommendations {
		out = out[:MaxRecommendations]
	}
	return out
}

func (r segmentRule) segments(text string) []string {
	var out []string
	i := 0
	for i < len(text) {
		n := r.marker(text, i)
		if n == 0 {
			i = step(text, i)
			continue
		}
		start := skipSpace(text, i+n)
		end := r.segmentEnd(text, start)
		if seg := strings.TrimSpace(text[start:end]); seg != "" {
			out = append(out, seg)
		}
		i = end
	}
	return out
}

// segmentEnd finds the nearest next marker, blank line or end of text.
func (r segmentRule) segmentEnd(text string, from int) int {
	for j := from; j < len(text); {
		if r.marker(text, j) > 0 || strings.HasPrefix(text[j:], "\n\n") {
			return j
		}
		j = step(text, j)
	}
	return len(text)
}

// numberMarkerAt matches `<digits>.` starting at i.
func numberMarkerAt(s string, i int) int {
	j := i
	for j < len(s) && isDigit(s[j]) {
		j++
	}
	if j == i || j >= len(s) || s[j] != '.' {
		return 0
	}
	return j - i + 1
}

// bulletMarkerAt matches one of •, -, * starting at i.
func bulletMarkerAt(s string, i int) int {
	switch {
	case s[i] == '-' || s[i] == '*':
		return 1
	case strings.HasPrefix(s[i:], "•"):
		return len("•")
	}
	return 0
}

// step advances past one rune, or past a whole digit run: a number marker
// that fails at the start of a run fails at every position inside it.
func step(s string, i int) int {
	if isDigit(s[i]) {
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		return i
	}
	_, w := utf8.DecodeRuneInString(s[i:])
	return i + w
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func skipSpace(s string, i int) int {
	for i < len(s) {
		r, w := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += w
	}
	return i
}
