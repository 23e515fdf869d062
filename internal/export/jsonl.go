package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/darkscan/internal"
)

// JSONLExporter exports analyses in JSONL format (one analysis per line)
type JSONLExporter struct{}

// Export writes one analysis as a single line
func (e *JSONLExporter) Export(analysis *internal.Analysis, w io.Writer) error {
	if err := json.NewEncoder(w).Encode(analysis); err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}
	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
