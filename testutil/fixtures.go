package testutil

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
)

// PNGBytes is a minimal PNG signature plus IHDR tag, enough for MIME sniffing
var PNGBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

// JPEGBytes is a minimal JPEG SOI/APP0 header
var JPEGBytes = []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F', 'I', 'F', 0}

// AnalysisJSON is a complete analysis body as the service returns it
const AnalysisJSON = `{
	"id": "a1",
	"dpi_score": 82,
	"risk_level": "High",
	"simple_summary": "The checkout hides a fee until the last step",
	"detected_issues": [{"issue": "Hidden cost", "description": "Fee revealed at final step"}],
	"signal_breakdown": {"visual": 0.9, "semantic": 0.4, "effort": 0.7, "default": 0.2, "pressure": 0.6},
	"timestamp": "2024-01-01T00:00:00Z",
	"language": "en"
}`

// CreateImageFixture writes an image file and returns its path
func CreateImageFixture(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write image fixture: %v", err)
	}
	return path
}

// CreatePNGFixture writes a PNG named shot.png into a fresh temp dir
func CreatePNGFixture(t *testing.T) string {
	t.Helper()
	return CreateImageFixture(t, CreateTempDir(t), "shot.png", PNGBytes)
}

// DataURI returns data as a base64 data: URI
func DataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
