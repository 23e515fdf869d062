package cmd

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/darkscan/internal"
	"github.com/iksnae/darkscan/internal/export"
)

const (
	barWidth      = 20
	textFormat    = "text"
	summaryLength = 60
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)

	issueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

// tierStyle colours text with the classifier's hex colour
func tierStyle(c internal.Classification) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Bold(true)
}

var tierIcons = map[string]string{
	"alert-circle":     "⛔",
	"warning":          "⚠️",
	"checkmark-circle": "✅",
}

// writeAnalysis prints a in the requested format: text or any exporter format
func writeAnalysis(w io.Writer, a *internal.Analysis, format string, lang internal.Language) error {
	if format == "" || format == textFormat {
		renderAnalysis(w, a, lang)
		return nil
	}
	exporter, err := export.NewExporter(format)
	if err != nil {
		return err
	}
	return exporter.Export(a, w)
}

// writeHistory prints a list in the requested format
func writeHistory(w io.Writer, list []internal.Analysis, format string) error {
	if format == "" || format == textFormat {
		renderHistory(w, list)
		return nil
	}
	exporter, err := export.NewExporter(format)
	if err != nil {
		return err
	}
	return export.ExportAll(exporter, list, w)
}

func renderAnalysis(w io.Writer, a *internal.Analysis, lang internal.Language) {
	c := a.Classification()
	style := tierStyle(c)

	fmt.Fprintln(w, headerStyle.Render("🔍 Dark Pattern Analysis"))
	fmt.Fprintln(w, idStyle.Render(a.ID))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s %s\n", titleStyle.Render("DPI Score:"), style.Render(fmt.Sprintf("%d / %d", internal.ClampScore(a.DPIScore), internal.MaxScore)))
	fmt.Fprintf(w, "%s %s %s\n", titleStyle.Render("Risk:"), tierIcons[c.Icon], style.Render(fmt.Sprintf("%s (%s)", a.RiskLevel, c.Tier.Label(lang))))

	if rc := internal.CheckRiskConsistency(a); rc.Recognized && !rc.Consistent {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("⚠️  Service label %q suggests %s risk, but the score is in the %s tier", a.RiskLevel, rc.LabelTier, rc.ScoreTier)))
	}
	fmt.Fprintln(w)

	if a.SimpleSummary != "" {
		fmt.Fprintln(w, sectionStyle.Render("Summary"))
		fmt.Fprintln(w, a.SimpleSummary)
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Detected Issues (%d)", len(a.DetectedIssues))))
	if len(a.DetectedIssues) == 0 {
		fmt.Fprintln(w, metaStyle.Render("No manipulation tactics detected"))
	}
	for i, issue := range a.DetectedIssues {
		fmt.Fprintf(w, "%d. %s\n", i+1, issueStyle.Render(issue.Issue))
		if issue.Description != "" {
			fmt.Fprintf(w, "   %s\n", issue.Description)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, sectionStyle.Render("Signals"))
	renderSignals(w, a.SignalBreakdown)
	fmt.Fprintln(w)

	meta := []string{"Language: " + a.Language.DisplayName()}
	if a.Timestamp != "" {
		meta = append(meta, "Analyzed: "+formatTimestamp(a))
	}
	if a.Screenshot != "" {
		meta = append(meta, "Screenshot: "+internal.ImageRef(a.Screenshot).Label())
	}
	fmt.Fprintln(w, metaStyle.Render(strings.Join(meta, " • ")))
}

func renderSignals(w io.Writer, s internal.SignalBreakdown) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, share := range s.Shares() {
		filled := int(math.Round(share.Value * barWidth))
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(share.Color)).Render(strings.Repeat("█", filled)) +
			metaStyle.Render(strings.Repeat("░", barWidth-filled))
		fmt.Fprintf(tw, "%s\t%s\t%3.0f%%\n", share.Label, bar, share.Proportion*100)
	}
	_ = tw.Flush()
}

func renderHistory(w io.Writer, list []internal.Analysis) {
	if len(list) == 0 {
		fmt.Fprintln(w, headerStyle.Render("📋 No analyses yet"))
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("📋 %d analysis(es)", len(list))))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tDPI\tRisk\tLang\tIssues\tAnalyzed\tSummary")
	for i := range list {
		a := &list[i]
		c := a.Classification()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			a.ID,
			tierStyle(c).Render(strconv.Itoa(internal.ClampScore(a.DPIScore))),
			a.RiskLevel,
			a.Language,
			len(a.DetectedIssues),
			formatTimestamp(a),
			truncate(a.SimpleSummary, summaryLength),
		)
	}
	_ = tw.Flush()
}

func renderClassification(w io.Writer, score int, lang internal.Language) {
	c := internal.Classify(score)
	style := tierStyle(c)
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render("Score:"), style.Render(strconv.Itoa(internal.ClampScore(score))))
	fmt.Fprintf(w, "%s %s %s\n", titleStyle.Render("Tier:"), tierIcons[c.Icon], style.Render(fmt.Sprintf("%s (%s)", c.Tier, c.Tier.Label(lang))))
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render("Color:"), c.Color)
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render("Icon:"), c.Icon)
}

// formatTimestamp renders a relative date, or the raw value when unparseable
func formatTimestamp(a *internal.Analysis) string {
	t, err := a.ParsedTime()
	if err != nil {
		return a.Timestamp
	}
	t = t.Local()
	diff := time.Since(t)
	switch {
	case diff < 24*time.Hour && diff >= 0:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour && diff >= 0:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour && diff >= 0:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
