package prompts_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tendercortex.app/cortex/internal/prompts"
)

var _ = Describe("Domain registry", func() {
	It("accepts every registered domain", func() {
		for _, domain := range prompts.Domains {
			Expect(prompts.IsValid(domain)).To(BeTrue(), domain)
		}
	})

	It("rejects unknown domains and the none marker", func() {
		Expect(prompts.IsValid("marketing")).To(BeFalse())
		Expect(prompts.IsValid("")).To(BeFalse())
		Expect(prompts.IsValid(prompts.DomainNone)).To(BeFalse())
	})

	It("has a distinct prompt per domain", func() {
		seen := map[string]string{}
		for _, domain := range prompts.Domains {
			p := prompts.Prompt(domain)
			Expect(p).NotTo(BeEmpty(), domain)
			for other, existing := range seen {
				Expect(p).NotTo(Equal(existing), domain+" vs "+other)
			}
			seen[domain] = p
		}
	})

	It("falls back to the general prompt for unknown domains", func() {
		Expect(prompts.Prompt("does-not-exist")).To(Equal(prompts.Prompt(prompts.DomainGeneral)))
	})
})

var _ = Describe("FullPrompt", func() {
	It("appends the response-format clause by default", func() {
		full := prompts.FullPrompt(prompts.DomainLegal, true)
		Expect(full).To(HavePrefix(prompts.Prompt(prompts.DomainLegal)))
		Expect(full).To(HaveSuffix(prompts.ResponseFormat))
	})

	It("can suppress the format clause", func() {
		bare := prompts.FullPrompt(prompts.DomainLegal, false)
		Expect(bare).To(Equal(prompts.Prompt(prompts.DomainLegal)))
		Expect(bare).NotTo(ContainSubstring("FORMATO DE RESPUESTA"))
	})
})

var _ = Describe("Prompt builders", func() {
	It("embeds the question in the router prompt", func() {
		p := prompts.RouterPrompt("¿Cuál es el presupuesto oficial?")
		Expect(p).To(ContainSubstring("Pregunta: ¿Cuál es el presupuesto oficial?"))
		Expect(p).To(ContainSubstring("quantitative"))
	})

	It("builds the grader prompt with count, block and question", func() {
		block := "Documento 1:\ntabla de fechas\n---\nDocumento 2:\npresupuesto"
		p := prompts.GraderPrompt(2, block, "¿cronograma?")
		Expect(p).To(ContainSubstring("2 documentos numerados"))
		Expect(p).To(ContainSubstring(block))
		Expect(p).To(ContainSubstring("¿cronograma?"))
		Expect(strings.Count(p, "%")).To(BeNumerically(">", 0))
	})

	It("builds the refine prompt with all four slots", func() {
		p := prompts.RefinePrompt("financial", "ctx", "q", "prev")
		Expect(p).To(ContainSubstring("dominio: financial"))
		Expect(p).To(ContainSubstring("Contexto completo:\nctx"))
		Expect(p).To(ContainSubstring("Pregunta del usuario:\nq"))
		Expect(p).To(ContainSubstring("Respuesta anterior (insuficiente):\nprev"))
	})
})
