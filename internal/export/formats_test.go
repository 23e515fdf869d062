package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iksnae/darkscan/internal"
	"gopkg.in/yaml.v3"
)

func TestJSONExporterOmitsScreenshot(t *testing.T) {
	a := internal.CreateTestAnalysis("a1", 82)
	a.Screenshot = "/tmp/shot.png"

	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(&a, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &fields); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := fields["screenshot"]; ok {
		t.Error("JSON export should use the wire shape without screenshot")
	}
	if fields["dpi_score"].(float64) != 82 {
		t.Errorf("dpi_score = %v", fields["dpi_score"])
	}
	if !strings.Contains(buf.String(), "\n  \"id\"") {
		t.Error("JSON export should be indented")
	}
}

func TestYAMLExporter(t *testing.T) {
	a := internal.CreateTestAnalysis("a1", 45)
	a.Screenshot = "/tmp/shot.png"

	var buf bytes.Buffer
	if err := (&YAMLExporter{}).Export(&a, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var decoded internal.Analysis
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if decoded.ID != "a1" || decoded.DPIScore != 45 || decoded.Screenshot != "/tmp/shot.png" {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.SignalBreakdown.Visual != 0.9 {
		t.Errorf("signal_breakdown.visual = %v", decoded.SignalBreakdown.Visual)
	}
}

func TestMarkdownExporter(t *testing.T) {
	tests := []struct {
		name     string
		analysis internal.Analysis
		want     []string
		notWant  []string
	}{
		{
			name:     "high risk",
			analysis: internal.CreateTestAnalysis("a1", 82),
			want: []string{
				"# Analysis a1",
				"**Dark Pattern Index:** 82/100",
				"**Risk:** High (High)",
				"1. **Hidden cost**: Fee revealed at final step",
				"| Visual Tricks | 90% | 32% |",
				"| Pressure Tactics | 60% | 21% |",
			},
			notWant: []string{"does not match"},
		},
		{
			name: "no issues and inconsistent label",
			analysis: func() internal.Analysis {
				a := internal.CreateTestAnalysis("a2", 58)
				a.RiskLevel = "High"
				a.DetectedIssues = []internal.DetectedIssue{}
				return a
			}(),
			want: []string{
				"No issues detected.",
				"does not match the score tier Medium",
			},
		},
		{
			name: "escapes emphasis",
			analysis: func() internal.Analysis {
				a := internal.CreateTestAnalysis("a3", 10)
				a.SimpleSummary = "Uses **bold** claims"
				return a
			}(),
			want: []string{"Uses \\*\\*bold\\*\\* claims"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&MarkdownExporter{}).Export(&tt.analysis, &buf); err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(out, nw) {
					t.Errorf("output should not contain %q", nw)
				}
			}
		})
	}
}

func TestMarkdownExportAllSeparates(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportAll(&MarkdownExporter{}, internal.CreateTestHistory(3), &buf); err != nil {
		t.Fatalf("ExportAll() error = %v", err)
	}
	if n := strings.Count(buf.String(), "\n---\n"); n != 2 {
		t.Errorf("separators = %d, want 2", n)
	}
	if n := strings.Count(buf.String(), "# Analysis "); n != 3 {
		t.Errorf("reports = %d, want 3", n)
	}
}
