package internal

import (
	"strings"
)

// Score bounds of the Dark Pattern Index
const (
	MinScore = 0
	MaxScore = 100

	// MediumThreshold and HighThreshold are closed lower bounds
	MediumThreshold = 30
	HighThreshold   = 60
)

// RiskTier is the display classification derived from a score
type RiskTier string

const (
	TierLow    RiskTier = "Low"
	TierMedium RiskTier = "Medium"
	TierHigh   RiskTier = "High"
)

// Severity orders tiers: Low < Medium < High
func (t RiskTier) Severity() int {
	switch t {
	case TierHigh:
		return 2
	case TierMedium:
		return 1
	default:
		return 0
	}
}

// Label returns the tier name in the given language
func (t RiskTier) Label(lang Language) string {
	labels, ok := riskLabels[lang]
	if !ok {
		labels = riskLabels[LanguageEnglish]
	}
	return labels[t]
}

var riskLabels = map[Language]map[RiskTier]string{
	LanguageEnglish:  {TierLow: "Low", TierMedium: "Moderate", TierHigh: "High"},
	LanguageHindi:    {TierLow: "कम", TierMedium: "मध्यम", TierHigh: "उच्च"},
	LanguageHinglish: {TierLow: "Kam", TierMedium: "Medium", TierHigh: "Zyada"},
}

// Classification is the tier plus its display colour and icon
type Classification struct {
	Tier  RiskTier
	Color string
	Icon  string
}

var classifications = map[RiskTier]Classification{
	TierHigh:   {Tier: TierHigh, Color: "#EF4444", Icon: "alert-circle"},
	TierMedium: {Tier: TierMedium, Color: "#F59E0B", Icon: "warning"},
	TierLow:    {Tier: TierLow, Color: "#10B981", Icon: "checkmark-circle"},
}

// ClampScore pulls a score into [MinScore, MaxScore]
func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Classify maps a score to its tier, colour and icon. Out-of-range scores are clamped.
func Classify(score int) Classification {
	score = ClampScore(score)
	switch {
	case score >= HighThreshold:
		return classifications[TierHigh]
	case score >= MediumThreshold:
		return classifications[TierMedium]
	default:
		return classifications[TierLow]
	}
}

// TierForRiskLabel maps a service risk_level label to a tier.
// ok is false for labels that are not recognised in any supported language.
func TierForRiskLabel(label string) (RiskTier, bool) {
	l := strings.TrimSpace(label)
	for _, labels := range riskLabels {
		for tier, name := range labels {
			if strings.EqualFold(l, name) {
				return tier, true
			}
		}
	}
	if strings.EqualFold(l, string(TierMedium)) {
		return TierMedium, true
	}
	return "", false
}

// RiskConsistency compares the service label with the score-derived tier
type RiskConsistency struct {
	LabelTier  RiskTier
	ScoreTier  RiskTier
	Recognized bool
	Consistent bool
}

// CheckRiskConsistency reports whether risk_level agrees with dpi_score.
// Unrecognised labels are reported as inconsistent.
func CheckRiskConsistency(a *Analysis) RiskConsistency {
	rc := RiskConsistency{ScoreTier: Classify(a.DPIScore).Tier}
	rc.LabelTier, rc.Recognized = TierForRiskLabel(a.RiskLevel)
	rc.Consistent = rc.Recognized && rc.LabelTier == rc.ScoreTier
	return rc
}

var signalNames = [5]string{"visual", "semantic", "effort", "default", "pressure"}

var signalLabels = [5]string{"Visual Tricks", "Confusing Language", "Effort Barriers", "Sneaky Defaults", "Pressure Tactics"}

var signalColors = [5]string{"#EF4444", "#F59E0B", "#8B5CF6", "#3B82F6", "#EC4899"}

// SignalShare is one signal's display row
type SignalShare struct {
	Name       string
	Label      string
	Color      string
	Value      float64 // clamped to [0,1]
	Proportion float64 // share of the total, 0 when the total is 0
}

func (s SignalBreakdown) values() [5]float64 {
	return [5]float64{s.Visual, s.Semantic, s.Effort, s.Default, s.Pressure}
}

func clampUnit(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Shares returns the five signals in fixed order with their proportions
func (s SignalBreakdown) Shares() []SignalShare {
	vals := s.values()
	total := 0.0
	for i := range vals {
		vals[i] = clampUnit(vals[i])
		total += vals[i]
	}

	shares := make([]SignalShare, len(vals))
	for i, v := range vals {
		shares[i] = SignalShare{
			Name:  signalNames[i],
			Label: signalLabels[i],
			Color: signalColors[i],
			Value: v,
		}
		if total > 0 {
			shares[i].Proportion = v / total
		}
	}
	return shares
}

// Dominant returns the strongest signal; ties go to the earlier one
func (s SignalBreakdown) Dominant() SignalShare {
	shares := s.Shares()
	best := shares[0]
	for _, sh := range shares[1:] {
		if sh.Value > best.Value {
			best = sh
		}
	}
	return best
}
