package ai

import (
	"regexp"
	"strconv"
)

// scorePattern pairs a pattern with the range check applied to its capture.
type scorePattern struct {
	re    *regexp.Regexp
	valid func(n int) bool
}

func inPercentRange(n int) bool { return n >= 0 && n <= 100 }

// Order is priority: the first pattern whose first match validates wins.
var scorePatterns = []scorePattern{
	{regexp.MustCompile(`(?i)(\d{1,3})\s*/\s*100`), inPercentRange},
	{regexp.MustCompile(`(?i)(\d{1,3})\s*out of\s*100`), inPercentRange},
	{regexp.MustCompile(`(?i)score:?\s*(\d{1,3})`), inPercentRange},
	{regexp.MustCompile(`(?i)rating:?\s*(\d{1,3})`), inPercentRange},
	{regexp.MustCompile(`(?i)quality:?\s*(\d{1,3})`), inPercentRange},
}

// ExtractScore returns the first valid 0-100 score found in text, or 0.
func ExtractScore(text string) int {
	for _, p := range scorePatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || !p.valid(n) {
			continue
		}
		return n
	}
	return 0
}
