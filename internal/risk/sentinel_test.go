package risk_test

import (
	"context"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tendercortex.app/cortex/core/config"
	"tendercortex.app/cortex/internal/model"
	"tendercortex.app/cortex/internal/risk"
)

const longAnswer = "El plazo de presentación de ofertas vence el 15 de marzo de 2025 a las 12:00, " +
	"según la cláusula 4.2 del pliego de bases y condiciones particulares."

func riskConfig() config.PipelineConfig {
	return config.PipelineConfig{
		ContextMaxChars: 8000,
		AnswerMaxChars:  4000,
		RiskTemperature: 0.1,
	}
}

func auditDocs() []model.Document {
	return []model.Document{{
		Content:  "Cláusula 4.2: las ofertas se reciben hasta el 15/03/2025 a las 12:00 hs.",
		Metadata: model.Metadata{Source: "pliego.pdf", Page: 12},
	}}
}

var _ = Describe("Sentinel", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	audit := func(client *scriptedClient, answer string) risk.Verdict {
		sentinel := risk.NewSentinel(&scriptedPool{client: client}, riskConfig())
		return sentinel.Audit(ctx, answer, auditDocs(), "¿Cuándo vence el plazo?")
	}

	Describe("short circuits", func() {
		It("auto-approves short answers without calling the LLM", func() {
			client := &scriptedClient{}
			verdict := audit(client, "No disponible.")
			Expect(verdict.Compliance).To(Equal(risk.ComplianceApproved))
			Expect(verdict.RiskLevel).To(Equal(risk.LevelLow))
			Expect(verdict.GatePassed).To(BeTrue())
			Expect(verdict.Issues).To(BeEmpty())
			Expect(client.calls).To(Equal(0))
		})

		It("counts characters, not bytes, for the short-answer threshold", func() {
			client := &scriptedClient{}
			// 49 characters, 98 bytes.
			verdict := audit(client, strings.Repeat("ñ", 49))
			Expect(verdict.Compliance).To(Equal(risk.ComplianceApproved))
			Expect(client.calls).To(Equal(0))
		})

		It("auto-approves answers that already report an error", func() {
			client := &scriptedClient{}
			verdict := audit(client, "Se produjo un ERROR al consultar el modelo de lenguaje, intente nuevamente más tarde.")
			Expect(verdict.GatePassed).To(BeTrue())
			Expect(client.calls).To(Equal(0))
		})

		It("auto-approves the no-documents message", func() {
			client := &scriptedClient{}
			verdict := audit(client, "No hay documentos cargados. Por favor, suba un documento PDF antes de realizar consultas.")
			Expect(verdict.Compliance).To(Equal(risk.ComplianceApproved))
			Expect(client.calls).To(Equal(0))
		})
	})

	It("sends answer, context, and question to the audit prompt", func() {
		client := &scriptedClient{responses: []string{
			`{"risk_factors": [], "compliance_status": "approved", "gate_passed": true, "issues": [], "risk_level": "low"}`,
		}}
		audit(client, longAnswer)
		Expect(client.calls).To(Equal(1))
		Expect(client.prompts[0]).To(ContainSubstring(longAnswer))
		Expect(client.prompts[0]).To(ContainSubstring("pliego.pdf"))
		Expect(client.prompts[0]).To(ContainSubstring("¿Cuándo vence el plazo?"))
	})

	It("defaults to a permissive verdict on unparseable output", func() {
		client := &scriptedClient{responses: []string{"no es JSON"}}
		verdict := audit(client, longAnswer)
		Expect(verdict.RiskLevel).To(Equal(risk.LevelMedium))
		Expect(verdict.Compliance).To(Equal(risk.ComplianceApproved))
		Expect(verdict.GatePassed).To(BeTrue())
		Expect(verdict.Issues).To(BeEmpty())
	})

	It("defaults to a permissive verdict when the LLM call fails", func() {
		client := &scriptedClient{responses: []string{""}, errs: []error{context.DeadlineExceeded}}
		verdict := audit(client, longAnswer)
		Expect(verdict.Compliance).To(Equal(risk.ComplianceApproved))
		Expect(verdict.GatePassed).To(BeTrue())
	})

	Describe("deterministic scoring", func() {
		It("keeps the gate open on a GO score and records it as an issue", func() {
			client := &scriptedClient{responses: []string{`{
				"risk_factors": [
					{"description": "plazo ajustado", "category": "timeline", "severity": "low", "probability": 0.2}
				],
				"compliance_status": "rejected",
				"gate_passed": false,
				"issues": ["Plazo corto"],
				"risk_level": "high"
			}`}}

			verdict := audit(client, longAnswer)
			Expect(verdict.Compliance).To(Equal(risk.ComplianceApproved))
			Expect(verdict.RiskLevel).To(Equal(risk.LevelLow))
			Expect(verdict.GatePassed).To(BeTrue())
			Expect(verdict.Issues).To(ConsistOf("Plazo corto", "[RiskScore] Score: 99.6/100. Rec: GO"))
			Expect(verdict.AuditResult()).To(Equal("pass"))
		})

		It("marks REVIEW scores pending but still passes the gate", func() {
			client := &scriptedClient{responses: []string{`{
				"risk_factors": [
					{"description": "r1", "category": "legal", "severity": "high", "probability": 1.0},
					{"description": "r2", "category": "legal", "severity": "high", "probability": 1.0},
					{"description": "r3", "category": "legal", "severity": "high", "probability": 1.0}
				],
				"compliance_status": "approved",
				"gate_passed": true,
				"issues": [],
				"risk_level": "low"
			}`}}

			verdict := audit(client, longAnswer)
			Expect(verdict.Compliance).To(Equal(risk.CompliancePending))
			// Score 55 demotes the level below the medium REVIEW default.
			Expect(verdict.RiskLevel).To(Equal(risk.LevelHigh))
			Expect(verdict.GatePassed).To(BeTrue())
			Expect(verdict.AuditResult()).To(Equal("pass"))
		})

		It("rejects on the kill switch and fails the audit", func() {
			client := &scriptedClient{responses: []string{`{
				"risk_factors": [
					{"description": "inhabilitación del oferente", "category": "legal", "severity": "critical", "probability": 0.3}
				],
				"compliance_status": "approved",
				"gate_passed": true,
				"issues": [],
				"risk_level": "low"
			}`}}

			verdict := audit(client, longAnswer)
			Expect(verdict.Compliance).To(Equal(risk.ComplianceRejected))
			Expect(verdict.RiskLevel).To(Equal(risk.LevelCritical))
			Expect(verdict.GatePassed).To(BeFalse())
			Expect(verdict.Issues).To(ContainElement(ContainSubstring("KILL SWITCH ACTIVATED")))
			Expect(verdict.AuditResult()).To(Equal("fail"))
		})

		It("defaults missing probabilities to 0.5", func() {
			client := &scriptedClient{responses: []string{`{
				"risk_factors": [
					{"description": "garantía incierta", "category": "financial", "severity": "medium"}
				],
				"compliance_status": "approved",
				"gate_passed": true,
				"issues": [],
				"risk_level": "low"
			}`}}

			verdict := audit(client, longAnswer)
			// 100 - 5*0.5 = 97.5
			Expect(verdict.Issues).To(ContainElement("[RiskScore] Score: 97.5/100. Rec: GO"))
		})

		It("coerces malformed severities and categories", func() {
			client := &scriptedClient{responses: []string{`{
				"risk_factors": [
					{"description": "riesgo raro", "category": "weather", "severity": "extreme", "probability": 1.0}
				],
				"compliance_status": "approved",
				"gate_passed": true,
				"issues": [],
				"risk_level": "low"
			}`}}

			verdict := audit(client, longAnswer)
			// Unknown severity scores as MEDIUM: 100 - 5*1.0 = 95.
			Expect(verdict.Issues).To(ContainElement("[RiskScore] Score: 95.0/100. Rec: GO"))
		})
	})

	Describe("sanitization", func() {
		It("coerces out-of-set enums when no factors were reported", func() {
			client := &scriptedClient{responses: []string{`{
				"risk_factors": [],
				"compliance_status": "maybe",
				"gate_passed": true,
				"issues": [],
				"risk_level": "severe"
			}`}}

			verdict := audit(client, longAnswer)
			Expect(verdict.RiskLevel).To(Equal(risk.LevelMedium))
			Expect(verdict.Compliance).To(Equal(risk.ComplianceApproved))
		})

		It("drops empty and placeholder issues but keeps real ones starting with Lista", func() {
			client := &scriptedClient{responses: []string{`{
				"risk_factors": [],
				"compliance_status": "approved",
				"gate_passed": true,
				"issues": ["", "Lista de observaciones textuales (resumen)", "Lista de incumplimientos detectados", "Observación real"],
				"risk_level": "low"
			}`}}

			verdict := audit(client, longAnswer)
			Expect(verdict.Issues).To(ConsistOf("Lista de incumplimientos detectados", "Observación real"))
		})
	})
})

var _ = Describe("Verdict", func() {
	It("fails the audit only for rejected compliance", func() {
		Expect(risk.Verdict{Compliance: risk.ComplianceRejected}.AuditResult()).To(Equal("fail"))
		Expect(risk.Verdict{Compliance: risk.CompliancePending}.AuditResult()).To(Equal("pass"))
		Expect(risk.Verdict{Compliance: risk.ComplianceApproved}.AuditResult()).To(Equal("pass"))
	})
})
