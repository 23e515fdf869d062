package export

import (
	"fmt"
	"io"

	"github.com/iksnae/darkscan/internal"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(analysis *internal.Analysis, w io.Writer) error
	Extension() string
}

// batchExporter is implemented by formats with their own sequence encoding
type batchExporter interface {
	ExportAll(analyses []internal.Analysis, w io.Writer) error
}

// SupportedFormats lists the accepted format names
var SupportedFormats = []string{"json", "yaml", "md", "jsonl"}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: json, yaml, md, jsonl)", format)
	}
}

// ExportAll writes a sequence of analyses in the exporter's format
func ExportAll(e Exporter, analyses []internal.Analysis, w io.Writer) error {
	if b, ok := e.(batchExporter); ok {
		return b.ExportAll(analyses, w)
	}
	for i := range analyses {
		if err := e.Export(&analyses[i], w); err != nil {
			return fmt.Errorf("failed to export analysis %s: %w", analyses[i].ID, err)
		}
	}
	return nil
}
