package internal

import (
	"encoding/json"
	"fmt"
	"time"
)

// CreateTestAnalysis creates a valid analysis with sample data
func CreateTestAnalysis(id string, score int) Analysis {
	return Analysis{
		ID:            id,
		DPIScore:      score,
		RiskLevel:     string(Classify(score).Tier),
		SimpleSummary: "Checkout pre-selects paid add-ons",
		DetectedIssues: []DetectedIssue{
			{Issue: "Hidden cost", Description: "Fee revealed at final step"},
		},
		SignalBreakdown: SignalBreakdown{Visual: 0.9, Semantic: 0.4, Effort: 0.7, Default: 0.2, Pressure: 0.6},
		Timestamp:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
		Language:        LanguageEnglish,
	}
}

// CreateTestHistory creates n analyses with ids h1..hn
func CreateTestHistory(n int) []Analysis {
	list := make([]Analysis, 0, n)
	for i := 1; i <= n; i++ {
		list = append(list, CreateTestAnalysis(fmt.Sprintf("h%d", i), (i*17)%101))
	}
	return list
}

// MarshalHistoryBody encodes analyses as a history response body
func MarshalHistoryBody(list []Analysis) []byte {
	data, _ := json.Marshal(map[string][]Analysis{"analyses": list})
	return data
}

