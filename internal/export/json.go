package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/darkscan/internal"
)

// JSONExporter exports analyses in JSON format (pretty-printed)
type JSONExporter struct{}

// Export exports an analysis in the service's wire shape
func (e *JSONExporter) Export(analysis *internal.Analysis, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(analysis)
}

// ExportAll exports analyses as a history document
func (e *JSONExporter) ExportAll(analyses []internal.Analysis, w io.Writer) error {
	if analyses == nil {
		analyses = []internal.Analysis{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(map[string][]internal.Analysis{"analyses": analyses})
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
