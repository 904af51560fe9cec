package skills_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tendercortex.app/cortex/internal/skills"
)

var _ = Describe("CleanAmount", func() {
	DescribeTable("coerces currency strings",
		func(input string, want float64) {
			got, ok := skills.CleanAmount(input)
			Expect(ok).To(BeTrue(), input)
			Expect(got).To(BeNumerically("~", want, 0.001))
		},
		Entry("plain integer", "1500", 1500.0),
		Entry("US decimal", "1500.50", 1500.5),
		Entry("European decimal", "1500,50", 1500.5),
		Entry("dot as thousand separator", "1.500", 1500.0),
		Entry("comma as thousand separator", "1,500", 1500.0),
		Entry("European full format", "$ 1.234,56", 1234.56),
		Entry("US full format", "1,234.56 USD", 1234.56),
		Entry("multiple thousand separators", "1,234,567.89", 1234567.89),
		Entry("Swiss apostrophes", "1'234'567.89", 1234567.89),
		Entry("parenthesized negative", "(500)", -500.0),
		Entry("negative with symbol", "-$1,234.56", -1234.56),
		Entry("euro symbol", "€ 2.345,67", 2345.67),
	)

	DescribeTable("rejects placeholders",
		func(input string) {
			_, ok := skills.CleanAmount(input)
			Expect(ok).To(BeFalse(), input)
		},
		Entry("empty", ""),
		Entry("dash", "-"),
		Entry("not available", "N/A"),
		Entry("sin dato", "s/d"),
		Entry("text only", "pendiente"),
	)
})

var _ = Describe("TableParser", func() {
	var parser *skills.TableParser

	BeforeEach(func() {
		parser = skills.NewTableParser()
	})

	It("extracts a pipe-delimited financial table", func() {
		text := "Detalle de hitos de pago:\n" +
			"| Concepto | Cantidad | Monto Total |\n" +
			"| Anticipo | 1 | USD 1.500.000 |\n" +
			"| Hito 1 | 1 | USD 2.000.000 |\n" +
			"Fin de la sección."

		tables := parser.Parse(text)
		Expect(tables).To(HaveLen(1))
		Expect(tables[0].Headers).To(Equal([]string{"Concepto", "Cantidad", "Monto Total"}))
		Expect(tables[0].Rows).To(HaveLen(2))
		Expect(tables[0].TotalDetected).To(BeNumerically("~", 3500000.0, 0.001))
	})

	It("extracts whitespace-aligned tables", func() {
		text := "Concepto        Monto\n" +
			"Garantía        $ 250.000\n" +
			"IVA             $ 52.500\n"

		tables := parser.Parse(text)
		Expect(tables).To(HaveLen(1))
		Expect(tables[0].TotalDetected).To(BeNumerically("~", 302500.0, 0.001))
	})

	It("ignores blocks that do not look financial", func() {
		text := "Nombre  Apellido\nJuan  Pérez\nAna  García\n"
		Expect(parser.Parse(text)).To(BeEmpty())
	})

	It("renders Markdown with padded short rows", func() {
		table := skills.FinancialTable{
			Headers: []string{"Concepto", "Monto"},
			Rows:    [][]string{{"Anticipo", "100"}, {"Sin monto"}},
		}
		md := table.Markdown()
		Expect(md).To(ContainSubstring("| Concepto | Monto |"))
		Expect(md).To(ContainSubstring("| --- | --- |"))
		Expect(md).To(ContainSubstring("| Anticipo | 100 |"))
		Expect(md).To(ContainSubstring("| Sin monto |  |"))
	})
})
