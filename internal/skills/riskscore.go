// Package skills holds the deterministic sidecars consulted by the agents:
// a tech-stack extractor, a financial table parser, and the bid-viability
// risk scorer. None of them call the LLM.
package skills

import (
	"fmt"
	"log/slog"
)

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// ParseSeverity coerces raw into a Severity, defaulting to MEDIUM.
func ParseSeverity(raw string) Severity {
	switch Severity(raw) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return Severity(raw)
	}
	return SeverityMedium
}

type RiskCategory string

const (
	RiskFinancial    RiskCategory = "financial"
	RiskLegal        RiskCategory = "legal"
	RiskTechnical    RiskCategory = "technical"
	RiskTimeline     RiskCategory = "timeline"
	RiskRequirements RiskCategory = "requirements"
	RiskReputation   RiskCategory = "reputation"
)

var riskCategories = []RiskCategory{
	RiskFinancial, RiskLegal, RiskTechnical,
	RiskTimeline, RiskRequirements, RiskReputation,
}

// ParseRiskCategory coerces raw into a RiskCategory, defaulting to financial.
func ParseRiskCategory(raw string) RiskCategory {
	for _, c := range riskCategories {
		if RiskCategory(raw) == c {
			return c
		}
	}
	return RiskFinancial
}

type Recommendation string

const (
	RecommendGo     Recommendation = "GO"
	RecommendReview Recommendation = "REVIEW"
	RecommendNoGo   Recommendation = "NO_GO"
)

// RiskFactor is one qualitative finding to be scored.
type RiskFactor struct {
	Description string
	Category    RiskCategory
	Severity    Severity
	Probability float64 // 0.0..1.0
	SourceAgent string
}

// CategoryBreakdown is the per-category slice of the total score.
type CategoryBreakdown struct {
	Score        float64
	RiskCount    int
	TotalPenalty float64
}

// RiskAssessment is the scorer's verdict.
type RiskAssessment struct {
	TotalScore           float64
	Recommendation       Recommendation
	RecommendationReason string
	CriticalFlags        []string
	KillSwitchActivated  bool
	Breakdown            map[RiskCategory]CategoryBreakdown
	TotalRisks           int
	HighRiskCount        int
}

// Severity weights applied per unit of probability.
var severityWeights = map[Severity]float64{
	SeverityLow:      2.0,
	SeverityMedium:   5.0,
	SeverityHigh:     15.0,
	SeverityCritical: 100.0, // kill switch fires before this matters
}

const baseScore = 100.0

// RiskScorer converts qualitative risk findings into a 0-100 viability score
// with a GO/REVIEW/NO_GO recommendation. Any CRITICAL factor activates the
// kill switch and forces NO_GO regardless of the arithmetic.
type RiskScorer struct {
	GoThreshold     float64
	ReviewThreshold float64
}

func NewRiskScorer() *RiskScorer {
	return &RiskScorer{GoThreshold: 70.0, ReviewThreshold: 40.0}
}

// Calculate scores the given factors. An empty list yields a perfect score.
func (s *RiskScorer) Calculate(factors []RiskFactor) RiskAssessment {
	if len(factors) == 0 {
		return RiskAssessment{
			TotalScore:           100.0,
			Recommendation:       RecommendGo,
			RecommendationReason: "No se detectaron riesgos.",
			Breakdown:            emptyBreakdown(),
		}
	}

	var criticalFlags []string
	for _, f := range factors {
		if f.Severity == SeverityCritical {
			criticalFlags = append(criticalFlags, f.Description)
		}
	}
	if len(criticalFlags) > 0 {
		return s.killSwitch(criticalFlags, factors)
	}

	totalPenalty := 0.0
	penalties := map[RiskCategory]float64{}
	counts := map[RiskCategory]int{}
	highCount := 0

	for _, f := range factors {
		penalty := severityWeights[f.Severity] * clampProbability(f.Probability)
		totalPenalty += penalty
		penalties[f.Category] += penalty
		counts[f.Category]++
		if f.Severity == SeverityHigh {
			highCount++
		}
	}

	score := baseScore - totalPenalty
	if score < 0 {
		score = 0
	}

	breakdown := make(map[RiskCategory]CategoryBreakdown, len(riskCategories))
	for _, cat := range riskCategories {
		catScore := baseScore - penalties[cat]
		if catScore < 0 {
			catScore = 0
		}
		breakdown[cat] = CategoryBreakdown{
			Score:        catScore,
			RiskCount:    counts[cat],
			TotalPenalty: penalties[cat],
		}
	}

	recommendation, reason := s.recommend(score, highCount)
	slog.Debug("risk score calculated",
		"score", score, "recommendation", recommendation, "risks", len(factors))

	return RiskAssessment{
		TotalScore:           score,
		Recommendation:       recommendation,
		RecommendationReason: reason,
		Breakdown:            breakdown,
		TotalRisks:           len(factors),
		HighRiskCount:        highCount,
	}
}

func (s *RiskScorer) killSwitch(flags []string, all []RiskFactor) RiskAssessment {
	counts := map[RiskCategory]int{}
	highCount := 0
	for _, f := range all {
		counts[f.Category]++
		if f.Severity == SeverityHigh {
			highCount++
		}
	}

	breakdown := make(map[RiskCategory]CategoryBreakdown, len(riskCategories))
	for _, cat := range riskCategories {
		b := CategoryBreakdown{Score: 100.0, RiskCount: counts[cat]}
		if counts[cat] > 0 {
			b.Score = 0.0
			b.TotalPenalty = 100.0
		}
		breakdown[cat] = b
	}

	slog.Warn("risk kill switch activated", "critical_flags", len(flags))
	return RiskAssessment{
		TotalScore:     0.0,
		Recommendation: RecommendNoGo,
		RecommendationReason: fmt.Sprintf(
			"Kill Switch activado: %d riesgo(s) CRÍTICO(s) detectado(s). La propuesta no es viable.",
			len(flags)),
		CriticalFlags:       flags,
		KillSwitchActivated: true,
		Breakdown:           breakdown,
		TotalRisks:          len(all),
		HighRiskCount:       highCount,
	}
}

func (s *RiskScorer) recommend(score float64, highCount int) (Recommendation, string) {
	switch {
	case score >= s.GoThreshold && highCount > 0:
		return RecommendGo, fmt.Sprintf(
			"Score favorable (%.1f), pero revisar %d riesgo(s) alto(s).", score, highCount)
	case score >= s.GoThreshold:
		return RecommendGo, fmt.Sprintf("Propuesta viable con score de %.1f/100.", score)
	case score >= s.ReviewThreshold:
		return RecommendReview, fmt.Sprintf(
			"Score moderado (%.1f). Se requiere revisión manual antes de decidir.", score)
	default:
		return RecommendNoGo, fmt.Sprintf(
			"Score insuficiente (%.1f). La acumulación de riesgos desaconseja presentarse.", score)
	}
}

func emptyBreakdown() map[RiskCategory]CategoryBreakdown {
	out := make(map[RiskCategory]CategoryBreakdown, len(riskCategories))
	for _, cat := range riskCategories {
		out[cat] = CategoryBreakdown{Score: 100.0}
	}
	return out
}

func clampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
