package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"strings"
)

// RequiredAnalysisFields are the keys every analysis object must carry
var RequiredAnalysisFields = []string{
	"id",
	"dpi_score",
	"risk_level",
	"simple_summary",
	"detected_issues",
	"signal_breakdown",
	"timestamp",
	"language",
}

var requiredSignals = []string{"visual", "semantic", "effort", "default", "pressure"}

// ValidateAnalysisResponse checks a single-analysis body and decodes it
func ValidateAnalysisResponse(body []byte, contentType string) (*Analysis, error) {
	if err := checkPayload(body, contentType); err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, malformed("not a JSON object", err)
	}
	return decodeAnalysis(fields)
}

// ValidateHistoryResponse checks a history body. A missing, null or
// non-array analyses field yields an empty list. Any invalid item
// rejects the whole body.
func ValidateHistoryResponse(body []byte, contentType string) ([]Analysis, error) {
	if err := checkPayload(body, contentType); err != nil {
		return nil, err
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, malformed("not a JSON object", err)
	}
	if envelope == nil {
		return nil, malformed("not a JSON object", nil)
	}

	raw, ok := envelope["analyses"]
	if !ok {
		LogDebug("History response has no analyses field")
		return []Analysis{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		LogDebug("History analyses field is not an array, treating as empty")
		return []Analysis{}, nil
	}

	list := make([]Analysis, 0, len(items))
	for i, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			return nil, malformed(fmt.Sprintf("history item %d is not an object", i), err)
		}
		a, err := decodeAnalysis(fields)
		if err != nil {
			return nil, fmt.Errorf("history item %d: %w", i, err)
		}
		list = append(list, *a)
	}
	return list, nil
}

// checkPayload runs the pre-decode guards shared by every endpoint
func checkPayload(body []byte, contentType string) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return malformed("empty body", nil)
	}
	if trimmed[0] == '<' {
		return malformed("body looks like markup", nil)
	}
	if isHTMLContentType(contentType) {
		return malformed("content type is "+contentType, nil)
	}
	return nil
}

func isHTMLContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// isAbsent reports whether key is missing or explicitly null
func isAbsent(fields map[string]json.RawMessage, key string) bool {
	raw, ok := fields[key]
	return !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeAnalysis(fields map[string]json.RawMessage) (*Analysis, error) {
	if fields == nil {
		return nil, malformed("not a JSON object", nil)
	}

	var missing []string
	for _, key := range RequiredAnalysisFields {
		// detected_issues may be null; it decodes as an empty list.
		if key == "detected_issues" {
			if _, ok := fields[key]; ok {
				continue
			}
		}
		if isAbsent(fields, key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, malformed("missing fields: "+strings.Join(missing, ", "), nil)
	}

	var signals map[string]json.RawMessage
	if err := json.Unmarshal(fields["signal_breakdown"], &signals); err != nil || signals == nil {
		return nil, malformed("signal_breakdown is not an object", err)
	}
	for _, key := range requiredSignals {
		if isAbsent(signals, key) {
			return nil, malformed("signal_breakdown missing "+key, nil)
		}
	}

	// Re-encoding the map keeps one decode path for the typed shape.
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, malformed("re-encode failed", err)
	}
	var a Analysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, malformed("unexpected field types", err)
	}
	if a.DetectedIssues == nil {
		a.DetectedIssues = []DetectedIssue{}
	}
	if err := a.Validate(); err != nil {
		return nil, malformed("invariant violated", err)
	}
	return &a, nil
}
