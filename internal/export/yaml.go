package export

import (
	"io"

	"github.com/iksnae/darkscan/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports analyses in YAML format
type YAMLExporter struct{}

// Export exports an analysis, including its local screenshot reference
func (e *YAMLExporter) Export(analysis *internal.Analysis, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()

	return enc.Encode(analysis)
}

// ExportAll exports analyses as a single YAML sequence
func (e *YAMLExporter) ExportAll(analyses []internal.Analysis, w io.Writer) error {
	if analyses == nil {
		analyses = []internal.Analysis{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()

	return enc.Encode(map[string][]internal.Analysis{"analyses": analyses})
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
