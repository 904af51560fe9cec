// Package risk implements the compliance gate of the pipeline. The sentinel
// is the only agent allowed to say "no": it audits the generated answer
// against the document context and decides whether the gate passes.
package risk

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tendercortex.app/cortex/common/llm"
	"tendercortex.app/cortex/common/logger"
	"tendercortex.app/cortex/core/config"
	"tendercortex.app/cortex/internal/agents"
	"tendercortex.app/cortex/internal/model"
	"tendercortex.app/cortex/internal/skills"
)

// Risk levels and compliance statuses exposed to the HTTP surface.
const (
	LevelLow      = "low"
	LevelMedium   = "medium"
	LevelHigh     = "high"
	LevelCritical = "critical"

	ComplianceApproved = "approved"
	CompliancePending  = "pending"
	ComplianceRejected = "rejected"
)

// auditDocLimit caps how many context documents the audit prompt sees.
const auditDocLimit = 5

// Verdict is the sentinel's decision for one answer.
type Verdict struct {
	RiskLevel  string
	Compliance string
	Issues     []string
	GatePassed bool
}

// AuditResult maps the verdict onto the graph's pass/fail edge: only a
// rejected compliance status sends the pipeline into the refine loop.
func (v Verdict) AuditResult() string {
	if v.Compliance == ComplianceRejected {
		return "fail"
	}
	return "pass"
}

func autoApproved() Verdict {
	return Verdict{RiskLevel: LevelLow, Compliance: ComplianceApproved, Issues: []string{}, GatePassed: true}
}

func parseFallback() Verdict {
	return Verdict{RiskLevel: LevelMedium, Compliance: ComplianceApproved, Issues: []string{}, GatePassed: true}
}

// auditResponse is the JSON contract of the unified audit prompt.
type auditResponse struct {
	RiskFactors []struct {
		Description string   `json:"description"`
		Category    string   `json:"category"`
		Severity    string   `json:"severity"`
		Probability *float64 `json:"probability"`
	} `json:"risk_factors"`
	ComplianceStatus string   `json:"compliance_status"`
	GatePassed       *bool    `json:"gate_passed"`
	Issues           []string `json:"issues"`
	RiskLevel        string   `json:"risk_level"`
}

// Sentinel audits answers with a single LLM call plus the deterministic risk
// scorer.
type Sentinel struct {
	pool   llm.ClientPool
	scorer *skills.RiskScorer
	cfg    config.PipelineConfig
}

func NewSentinel(pool llm.ClientPool, cfg config.PipelineConfig) *Sentinel {
	return &Sentinel{pool: pool, scorer: skills.NewRiskScorer(), cfg: cfg}
}

// Audit evaluates answer against the context. It never returns an error: any
// failure degrades to a permissive verdict so the pipeline can terminate.
func (s *Sentinel) Audit(ctx context.Context, answer string, docs []model.Document, question string) Verdict {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Node: logger.Ptr("risk_sentinel")})

	// Short answers and error messages carry nothing worth auditing.
	if len([]rune(answer)) < 50 || strings.Contains(strings.ToLower(answer), "error") {
		slog.InfoContext(ctx, "short or error answer auto-approved")
		return autoApproved()
	}
	if strings.Contains(strings.ToLower(answer), "no hay documentos") {
		slog.InfoContext(ctx, "no-documents answer auto-approved")
		return autoApproved()
	}

	if len(docs) > auditDocLimit {
		docs = docs[:auditDocLimit]
	}
	contextText := agents.FormatContext(docs, s.cfg.ContextMaxChars)
	if runes := []rune(answer); len(runes) > s.cfg.AnswerMaxChars {
		answer = string(runes[:s.cfg.AnswerMaxChars])
	}

	client, err := s.pool.Client(s.cfg.RiskTemperature)
	if err != nil {
		slog.WarnContext(ctx, "risk audit skipped, no LLM client", "error", err)
		return parseFallback()
	}

	prompt := auditPrompt(answer, contextText, question)
	completion, err := client.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		slog.WarnContext(ctx, "risk audit LLM call failed", "error", err)
		v := parseFallback()
		v.Issues = append(v.Issues, "Error en auditoría: "+err.Error())
		return v
	}

	var parsed auditResponse
	if !llm.ParseJSON(completion.Content, &parsed) {
		slog.DebugContext(ctx, "risk audit returned unparseable JSON")
		return parseFallback()
	}

	verdict := Verdict{
		RiskLevel:  parsed.RiskLevel,
		Compliance: parsed.ComplianceStatus,
		Issues:     parsed.Issues,
		GatePassed: true,
	}
	if parsed.GatePassed != nil {
		verdict.GatePassed = *parsed.GatePassed
	}

	if factors := s.buildFactors(parsed); len(factors) > 0 {
		verdict = s.applyScore(ctx, verdict, factors)
	}

	verdict = sanitize(verdict)
	slog.InfoContext(ctx, "risk audit finished",
		"risk_level", verdict.RiskLevel,
		"compliance", verdict.Compliance,
		"issues", len(verdict.Issues),
		"gate_passed", verdict.GatePassed)
	return verdict
}

func (s *Sentinel) buildFactors(parsed auditResponse) []skills.RiskFactor {
	factors := make([]skills.RiskFactor, 0, len(parsed.RiskFactors))
	for _, rf := range parsed.RiskFactors {
		description := rf.Description
		if description == "" {
			description = "Unknown risk"
		}
		probability := 0.5
		if rf.Probability != nil {
			probability = *rf.Probability
		}
		factors = append(factors, skills.RiskFactor{
			Description: description,
			Category:    skills.ParseRiskCategory(strings.ToLower(rf.Category)),
			Severity:    skills.ParseSeverity(strings.ToUpper(rf.Severity)),
			Probability: probability,
			SourceAgent: "RiskSentinel",
		})
	}
	return factors
}

// applyScore overrides the LLM's self-assessment with the deterministic
// scorer's verdict. REVIEW keeps the gate open: a pending status surfaces to
// the caller without another refine round.
func (s *Sentinel) applyScore(ctx context.Context, verdict Verdict, factors []skills.RiskFactor) Verdict {
	assessment := s.scorer.Calculate(factors)
	slog.InfoContext(ctx, "risk score calculated",
		"score", assessment.TotalScore, "recommendation", assessment.Recommendation)

	switch assessment.Recommendation {
	case skills.RecommendGo:
		verdict.Compliance = ComplianceApproved
		verdict.RiskLevel = LevelLow
		verdict.GatePassed = true
	case skills.RecommendReview:
		verdict.Compliance = CompliancePending
		verdict.RiskLevel = LevelMedium
		verdict.GatePassed = true
	case skills.RecommendNoGo:
		verdict.Compliance = ComplianceRejected
		verdict.RiskLevel = LevelCritical
		verdict.GatePassed = false
	}

	if assessment.TotalScore < 70 {
		verdict.RiskLevel = LevelHigh
	}
	if assessment.TotalScore < 40 {
		verdict.RiskLevel = LevelCritical
	}

	verdict.Issues = append(verdict.Issues, fmt.Sprintf(
		"[RiskScore] Score: %.1f/100. Rec: %s", assessment.TotalScore, assessment.Recommendation))
	if assessment.KillSwitchActivated {
		verdict.Issues = append(verdict.Issues,
			"[RiskScore] KILL SWITCH ACTIVATED: "+assessment.RecommendationReason)
	}
	return verdict
}

// sanitize enforces the enumerations and drops placeholder issues echoed
// back from the prompt.
func sanitize(v Verdict) Verdict {
	switch v.RiskLevel {
	case LevelLow, LevelMedium, LevelHigh, LevelCritical:
	default:
		v.RiskLevel = LevelMedium
	}
	switch v.Compliance {
	case ComplianceApproved, CompliancePending, ComplianceRejected:
	default:
		v.Compliance = ComplianceApproved
	}

	issues := make([]string, 0, len(v.Issues))
	for _, issue := range v.Issues {
		if issue == "" || strings.HasPrefix(issue, "Lista de observaciones textuales") {
			continue
		}
		issues = append(issues, issue)
	}
	v.Issues = issues
	return v
}

func auditPrompt(answer, contextText, question string) string {
	return fmt.Sprintf(`Eres un auditor de compliance y riesgos para licitaciones. Analiza la respuesta generada contra el contexto del documento.

RESPUESTA A AUDITAR:
%s

CONTEXTO DEL DOCUMENTO:
%s

PREGUNTA ORIGINAL:
%s

TAREA:
1. Verifica si las afirmaciones de la respuesta están respaldadas por el contexto.
2. Identifica riesgos específicos (factores de riesgo) para la viabilidad de la oferta.
3. Evalúa la severidad y probabilidad de cada riesgo.

CRITERIOS DE RIESGO:
- low: Riesgo menor, gestionable.
- medium: Riesgo moderado, requiere mitigación.
- high: Riesgo alto, puede comprometer la oferta.
- critical: Riesgo crítico, "Showstopper" (ej: inhabilitación, incumplimiento legal grave).

RESPONDE SOLO EN JSON:
{
    "risk_factors": [
        {
            "description": "Descripción del riesgo detectado",
            "category": "%s",
            "severity": "low|medium|high|critical",
            "probability": 0.1-1.0 (float)
        }
    ],
    "compliance_status": "approved|pending|rejected",
    "gate_passed": true/false,
    "issues": ["Lista de observaciones textuales (resumen)"]
}`, answer, contextText, question,
		strings.Join([]string{
			string(skills.RiskFinancial), string(skills.RiskLegal), string(skills.RiskTechnical),
			string(skills.RiskTimeline), string(skills.RiskRequirements), string(skills.RiskReputation),
		}, "|"))
}
