package internal

import (
	"testing"
	"time"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in      string
		want    Language
		wantErr bool
	}{
		{"en", LanguageEnglish, false},
		{"HI", LanguageHindi, false},
		{" hinglish ", LanguageHinglish, false},
		{"fr", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseLanguage(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLanguage(%q) = %q, %v; want %q, err %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestLanguageDisplayName(t *testing.T) {
	if LanguageHindi.DisplayName() != "हिंदी" {
		t.Errorf("DisplayName(hi) = %q", LanguageHindi.DisplayName())
	}
	if Language("xx").DisplayName() != "English" {
		t.Errorf("DisplayName(xx) = %q", Language("xx").DisplayName())
	}
}

func TestAnalysisValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(a *Analysis)
		wantErr bool
	}{
		{"valid", func(a *Analysis) {}, false},
		{"score 0", func(a *Analysis) { a.DPIScore = 0 }, false},
		{"score 100", func(a *Analysis) { a.DPIScore = 100 }, false},
		{"score 145", func(a *Analysis) { a.DPIScore = 145 }, true},
		{"negative score", func(a *Analysis) { a.DPIScore = -1 }, true},
		{"signal above 1", func(a *Analysis) { a.SignalBreakdown.Effort = 1.01 }, true},
		{"signal below 0", func(a *Analysis) { a.SignalBreakdown.Pressure = -0.1 }, true},
		{"blank id", func(a *Analysis) { a.ID = "  " }, true},
		{"no issues", func(a *Analysis) { a.DetectedIssues = nil }, false},
		{"python timestamp", func(a *Analysis) { a.Timestamp = "2024-05-02T10:15:30.123456" }, false},
		{"bad timestamp", func(a *Analysis) { a.Timestamp = "yesterday" }, true},
		{"empty timestamp", func(a *Analysis) { a.Timestamp = "" }, true},
		{"hinglish", func(a *Analysis) { a.Language = LanguageHinglish }, false},
		{"unsupported language", func(a *Analysis) { a.Language = "fr" }, true},
		{"empty language", func(a *Analysis) { a.Language = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := CreateTestAnalysis("a1", 50)
			tt.mutate(&a)
			if err := a.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAnalysisParsedTime(t *testing.T) {
	want := time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)
	tests := []string{
		"2024-01-01T12:30:00Z",
		"2024-01-01T12:30:00+00:00",
		"2024-01-01T12:30:00",
		"2024-01-01T12:30:00.000000",
	}
	for _, ts := range tests {
		a := Analysis{Timestamp: ts}
		got, err := a.ParsedTime()
		if err != nil {
			t.Errorf("ParsedTime(%q) error = %v", ts, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParsedTime(%q) = %v, want %v", ts, got, want)
		}
	}

	if _, err := (&Analysis{Timestamp: "yesterday"}).ParsedTime(); err == nil {
		t.Error("ParsedTime(yesterday) expected error")
	}
}

func TestAnalysisClone(t *testing.T) {
	a := CreateTestAnalysis("a1", 50)
	c := a.Clone()
	c.DetectedIssues[0].Issue = "changed"
	if a.DetectedIssues[0].Issue == "changed" {
		t.Error("Clone() shares DetectedIssues")
	}
}

func TestAnalysisClassification(t *testing.T) {
	a := CreateTestAnalysis("a1", 82)
	if a.Classification().Tier != TierHigh {
		t.Errorf("Classification() = %+v", a.Classification())
	}
}
