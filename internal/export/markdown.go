package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/darkscan/internal"
)

// MarkdownExporter exports analyses as a readable report
type MarkdownExporter struct{}

// Export writes one analysis report
func (e *MarkdownExporter) Export(analysis *internal.Analysis, w io.Writer) error {
	c := internal.Classify(analysis.DPIScore)

	_, _ = fmt.Fprintf(w, "# Analysis %s\n\n", analysis.ID)
	_, _ = fmt.Fprintf(w, "**Dark Pattern Index:** %d/100  \n", internal.ClampScore(analysis.DPIScore))
	_, _ = fmt.Fprintf(w, "**Risk:** %s (%s)  \n", analysis.RiskLevel, c.Tier)
	_, _ = fmt.Fprintf(w, "**Language:** %s  \n", analysis.Language)
	_, _ = fmt.Fprintf(w, "**Analyzed:** %s\n\n", analysis.Timestamp)

	if rc := internal.CheckRiskConsistency(analysis); !rc.Consistent {
		_, _ = fmt.Fprintf(w, "> Note: service risk level %q does not match the score tier %s.\n\n", analysis.RiskLevel, rc.ScoreTier)
	}

	if analysis.SimpleSummary != "" {
		_, _ = fmt.Fprintf(w, "## Summary\n\n%s\n\n", escapeMarkdown(analysis.SimpleSummary))
	}

	_, _ = fmt.Fprintf(w, "## Detected Issues\n\n")
	if len(analysis.DetectedIssues) == 0 {
		_, _ = fmt.Fprintf(w, "No issues detected.\n\n")
	}
	for i, issue := range analysis.DetectedIssues {
		_, _ = fmt.Fprintf(w, "%d. **%s**: %s\n", i+1, escapeMarkdown(issue.Issue), escapeMarkdown(issue.Description))
	}
	if len(analysis.DetectedIssues) > 0 {
		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintf(w, "## Signal Breakdown\n\n")
	_, _ = fmt.Fprintf(w, "| Signal | Strength | Share |\n|---|---|---|\n")
	for _, s := range analysis.SignalBreakdown.Shares() {
		_, _ = fmt.Fprintf(w, "| %s | %.0f%% | %.0f%% |\n", s.Label, s.Value*100, s.Proportion*100)
	}

	if analysis.Screenshot != "" && !strings.HasPrefix(analysis.Screenshot, "data:") {
		_, _ = fmt.Fprintf(w, "\n**Screenshot:** `%s`\n", analysis.Screenshot)
	}

	return nil
}

// ExportAll writes reports separated by horizontal rules
func (e *MarkdownExporter) ExportAll(analyses []internal.Analysis, w io.Writer) error {
	for i := range analyses {
		if i > 0 {
			_, _ = fmt.Fprintf(w, "\n---\n\n")
		}
		if err := e.Export(&analyses[i], w); err != nil {
			return err
		}
	}
	return nil
}

// escapeMarkdown escapes emphasis markers the service may echo back
func escapeMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "\\*\\*")
	text = strings.ReplaceAll(text, "__", "\\_\\_")
	text = strings.ReplaceAll(text, "|", "\\|")
	return text
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
