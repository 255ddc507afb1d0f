package formatter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/repo-analyzer/internal/domain/reports"
)

// Formats accepted by the --output flag.
const (
	FormatHuman = "human"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// DisplayAnalysis writes a report in the requested format.
func DisplayAnalysis(w io.Writer, a *reports.Analysis, format string) error {
	switch format {
	case FormatJSON:
		return displayJSON(w, a)
	case FormatYAML:
		return displayYAML(w, a)
	case FormatHuman:
		fallthrough
	default:
		displayHumanAnalysis(w, a)
	}
	return nil
}

// DisplayParsed writes a parsed model response in the requested format.
func DisplayParsed(w io.Writer, p ai.ParsedAnalysis, format string) error {
	switch format {
	case FormatJSON:
		return displayJSON(w, p)
	case FormatYAML:
		return displayYAML(w, p)
	case FormatHuman:
		fallthrough
	default:
		displayHumanParsed(w, p)
	}
	return nil
}

func displayJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(output))
	return nil
}

func displayYAML(w io.Writer, v any) error {
	// round-trip through JSON so YAML keys match the API field names
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	output, err := yaml.Marshal(generic)
	if err != nil {
		return err
	}
	fmt.Fprint(w, string(output))
	return nil
}

func displayHumanAnalysis(w io.Writer, a *reports.Analysis) {
	cyan := color.New(color.FgCyan, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	green := color.New(color.FgGreen, color.Bold)

	fmt.Fprintln(w)
	cyan.Fprintf(w, "REPOSITORY: %s\n", a.RepositoryURL)
	fmt.Fprintf(w, "   id: %s\n\n", a.ID)

	scoreColor(a.CodeQuality).Fprintf(w, "CODE QUALITY: %d/100\n", a.CodeQuality)
	fmt.Fprintf(w, "   bugs found: %d\n\n", a.BugsFound)

	if len(a.Recommendations) > 0 {
		yellow.Fprintln(w, "RECOMMENDATIONS:")
		for i, r := range a.Recommendations {
			fmt.Fprintf(w, "   %d. %s\n", i+1, r)
		}
		fmt.Fprintln(w)
	}

	green.Fprintln(w, "DETAILS:")
	section(w, "Code structure", a.Details.CodeStructure)
	section(w, "Performance", a.Details.Performance)
	section(w, "Security", a.Details.Security)
	section(w, "Best practices", a.Details.BestPractices)

	if a.AIError != "" {
		fmt.Fprintf(w, "%s %s\n", color.RedString("model review unavailable:"), a.AIError)
	}
	if a.ReportURL != "" {
		fmt.Fprintf(w, "report: %s\n", a.ReportURL)
	}
}

func displayHumanParsed(w io.Writer, p ai.ParsedAnalysis) {
	yellow := color.New(color.FgYellow, color.Bold)
	green := color.New(color.FgGreen, color.Bold)

	fmt.Fprintln(w)
	if p.Degraded() {
		fmt.Fprintln(w, color.RedString(p.ParseError))
		return
	}
	scoreColor(p.OverallScore).Fprintf(w, "SCORE: %d/100\n\n", p.OverallScore)

	if len(p.Recommendations) > 0 {
		yellow.Fprintln(w, "RECOMMENDATIONS:")
		for i, r := range p.Recommendations {
			fmt.Fprintf(w, "   %d. %s\n", i+1, r)
		}
		fmt.Fprintln(w)
	}

	green.Fprintln(w, "SECTIONS:")
	section(w, "Architecture", p.ArchitectureNotes)
	section(w, "Performance", p.PerformanceNotes)
	section(w, "Security", p.SecurityNotes)
	section(w, "Best practices", p.BestPracticesNotes)
}

func section(w io.Writer, title, body string) {
	if body == "" {
		body = color.HiBlackString("(none)")
	}
	fmt.Fprintf(w, "   %s\n      %s\n", color.New(color.Bold).Sprint(title+":"), body)
}

func scoreColor(score int) *color.Color {
	switch {
	case score >= 80:
		return color.New(color.FgGreen, color.Bold)
	case score >= 60:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}
