package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/darkscan/internal"
)

func TestNewExporter(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantExt string
		wantErr bool
	}{
		{name: "jsonl format", format: "jsonl", wantExt: "jsonl"},
		{name: "markdown format", format: "md", wantExt: "md"},
		{name: "markdown format long", format: "markdown", wantExt: "md"},
		{name: "yaml format", format: "yaml", wantExt: "yaml"},
		{name: "yml alias", format: "yml", wantExt: "yaml"},
		{name: "json format", format: "json", wantExt: "json"},
		{name: "unsupported format", format: "xml", wantErr: true},
		{name: "empty format", format: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter, err := NewExporter(tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewExporter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if exporter != nil {
					t.Errorf("NewExporter() returned exporter %T, want nil", exporter)
				}
				if !strings.Contains(err.Error(), "supported: json, yaml, md, jsonl") {
					t.Errorf("error should list supported formats: %v", err)
				}
				return
			}
			if got := exporter.Extension(); got != tt.wantExt {
				t.Errorf("Exporter.Extension() = %v, want %v", got, tt.wantExt)
			}
		})
	}
}

func TestExportAllJSONL(t *testing.T) {
	exporter, _ := NewExporter("jsonl")
	var buf bytes.Buffer
	if err := ExportAll(exporter, internal.CreateTestHistory(3), &buf); err != nil {
		t.Fatalf("ExportAll() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	for i, line := range lines {
		a, err := internal.ValidateAnalysisResponse([]byte(line), "")
		if err != nil {
			t.Errorf("line %d is not a valid analysis: %v", i, err)
			continue
		}
		if want := []string{"h1", "h2", "h3"}[i]; a.ID != want {
			t.Errorf("line %d id = %s, want %s", i, a.ID, want)
		}
	}
}

func TestExportAllJSONIsHistoryDocument(t *testing.T) {
	exporter, _ := NewExporter("json")
	var buf bytes.Buffer
	if err := ExportAll(exporter, internal.CreateTestHistory(2), &buf); err != nil {
		t.Fatalf("ExportAll() error = %v", err)
	}
	list, err := internal.ValidateHistoryResponse(buf.Bytes(), "application/json")
	if err != nil {
		t.Fatalf("exported JSON is not a valid history body: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("len = %d, want 2", len(list))
	}

	buf.Reset()
	if err := ExportAll(exporter, nil, &buf); err != nil {
		t.Fatalf("ExportAll(nil) error = %v", err)
	}
	if !strings.Contains(buf.String(), `"analyses": []`) {
		t.Errorf("empty export = %q", buf.String())
	}
}
