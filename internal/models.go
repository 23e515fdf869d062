package internal

import (
	"fmt"
	"strings"
	"time"
)

// Language is the language an analysis is requested in
type Language string

const (
	LanguageEnglish  Language = "en"
	LanguageHindi    Language = "hi"
	LanguageHinglish Language = "hinglish"
)

// DefaultLanguage is used when no preference has been set
const DefaultLanguage = LanguageEnglish

// SupportedLanguages lists the language codes the service understands
var SupportedLanguages = []Language{LanguageEnglish, LanguageHindi, LanguageHinglish}

// ParseLanguage validates a language code
func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	if l.IsValid() {
		return l, nil
	}
	return "", fmt.Errorf("unsupported language: %q (supported: en, hi, hinglish)", s)
}

// IsValid reports whether l is one of the supported codes
func (l Language) IsValid() bool {
	for _, s := range SupportedLanguages {
		if l == s {
			return true
		}
	}
	return false
}

// DisplayName returns the name shown in the language picker
func (l Language) DisplayName() string {
	switch l {
	case LanguageHindi:
		return "हिंदी"
	case LanguageHinglish:
		return "Hinglish"
	default:
		return "English"
	}
}

// DetectedIssue is one manipulation finding, in service priority order
type DetectedIssue struct {
	Issue       string `json:"issue" yaml:"issue"`
	Description string `json:"description" yaml:"description"`
}

// SignalBreakdown decomposes the DPI into five manipulation categories
type SignalBreakdown struct {
	Visual   float64 `json:"visual" yaml:"visual"`
	Semantic float64 `json:"semantic" yaml:"semantic"`
	Effort   float64 `json:"effort" yaml:"effort"`
	Default  float64 `json:"default" yaml:"default"`
	Pressure float64 `json:"pressure" yaml:"pressure"`
}

// Analysis is a risk assessment produced by the remote service
type Analysis struct {
	ID              string          `json:"id" yaml:"id"`
	DPIScore        int             `json:"dpi_score" yaml:"dpi_score"`
	RiskLevel       string          `json:"risk_level" yaml:"risk_level"`
	SimpleSummary   string          `json:"simple_summary" yaml:"simple_summary"`
	DetectedIssues  []DetectedIssue `json:"detected_issues" yaml:"detected_issues"`
	SignalBreakdown SignalBreakdown `json:"signal_breakdown" yaml:"signal_breakdown"`
	Timestamp       string          `json:"timestamp" yaml:"timestamp"`
	Language        Language        `json:"language" yaml:"language"`

	// Screenshot is the local image reference. Client-only.
	Screenshot string `json:"-" yaml:"screenshot,omitempty"`
}

// Validate checks the Analysis invariants
func (a *Analysis) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if a.DPIScore < MinScore || a.DPIScore > MaxScore {
		return fmt.Errorf("dpi_score %d out of range [%d,%d]", a.DPIScore, MinScore, MaxScore)
	}
	for i, v := range a.SignalBreakdown.values() {
		if v < 0 || v > 1 {
			return fmt.Errorf("signal %s=%v out of range [0,1]", signalNames[i], v)
		}
	}
	if _, err := a.ParsedTime(); err != nil {
		return err
	}
	if !a.Language.IsValid() {
		return fmt.Errorf("unsupported language %q", a.Language)
	}
	return nil
}

// Clone returns a deep copy
func (a Analysis) Clone() Analysis {
	if a.DetectedIssues != nil {
		issues := make([]DetectedIssue, len(a.DetectedIssues))
		copy(issues, a.DetectedIssues)
		a.DetectedIssues = issues
	}
	return a
}

// Classification derives the display tier from the score
func (a *Analysis) Classification() Classification {
	return Classify(a.DPIScore)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
}

// ParsedTime parses the ISO-8601 timestamp. Offset-less values are read as UTC.
func (a *Analysis) ParsedTime() (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, a.Timestamp); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp: %q", a.Timestamp)
}

func cloneAnalyses(list []Analysis) []Analysis {
	out := make([]Analysis, len(list))
	for i := range list {
		out[i] = list[i].Clone()
	}
	return out
}
