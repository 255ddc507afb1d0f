package ai

import (
	"fmt"
	"unicode/utf8"
)

// DefaultMaxInputBytes bounds the text Parse is willing to scan.
const DefaultMaxInputBytes = 1 << 20

// ParsedAnalysis is the structured view of a free-text model answer.
type ParsedAnalysis struct {
	OverallScore       int      `json:"overall_score"`
	Recommendations    []string `json:"recommendations"`
	ArchitectureNotes  string   `json:"architecture_analysis"`
	PerformanceNotes   string   `json:"performance_analysis"`
	SecurityNotes      string   `json:"security_analysis"`
	BestPracticesNotes string   `json:"best_practices_analysis"`
	RawText            string   `json:"raw_response"`
	ParseError         string   `json:"parse_error,omitempty"`
}

// Degraded reports whether parsing fell back to defaults.
func (p ParsedAnalysis) Degraded() bool { return p.ParseError != "" }

// Parser turns raw model text into a ParsedAnalysis. The zero value is
// ready to use. It holds no state and is safe for concurrent use.
type Parser struct {
	// MaxInputBytes limits input size; <= 0 means DefaultMaxInputBytes.
	MaxInputBytes int
}

// Parse never fails outward: any problem yields an all-default result with
// RawText kept and ParseError set. Partial results are discarded.
func (p Parser) Parse(raw string) (out ParsedAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			out = degraded(raw, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := p.check(raw); err != nil {
		return degraded(raw, err)
	}

	return ParsedAnalysis{
		OverallScore:       ExtractScore(raw),
		Recommendations:    ExtractRecommendations(raw),
		ArchitectureNotes:  Architecture.Extract(raw),
		PerformanceNotes:   Performance.Extract(raw),
		SecurityNotes:      Security.Extract(raw),
		BestPracticesNotes: BestPractices.Extract(raw),
		RawText:            raw,
	}
}

func (p Parser) check(raw string) error {
	limit := p.MaxInputBytes
	if limit <= 0 {
		limit = DefaultMaxInputBytes
	}
	if len(raw) > limit {
		return fmt.Errorf("input is %d bytes, limit is %d", len(raw), limit)
	}
	if !utf8.ValidString(raw) {
		return fmt.Errorf("input is not valid UTF-8")
	}
	return nil
}

func degraded(raw string, err error) ParsedAnalysis {
	return ParsedAnalysis{
		Recommendations: []string{},
		RawText:         raw,
		ParseError:      "error parsing AI response: " + err.Error(),
	}
}

// Parse uses a zero-value Parser.
func Parse(raw string) ParsedAnalysis {
	return Parser{}.Parse(raw)
}
