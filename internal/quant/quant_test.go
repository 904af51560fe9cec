package quant_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tendercortex.app/cortex/core/config"
	"tendercortex.app/cortex/internal/model"
	"tendercortex.app/cortex/internal/quant"
)

func quantConfig() config.PipelineConfig {
	return config.PipelineConfig{
		QuantExtractTemperature:  0.0,
		QuantStrategyTemperature: 0.0,
		QuantInsightTemperature:  0.1,
	}
}

func contextDocs() []model.Document {
	return []model.Document{{
		Content:  "Presupuesto total: USD 5,000,000; anticipo 30%; hitos 70%",
		Metadata: model.Metadata{Source: "pliego.pdf", Page: 3},
	}}
}

const comparisonJSON = `{
	"data_found": true,
	"data_type": "comparison",
	"categories": ["Anticipo", "Hitos"],
	"values": [1500000, 3500000],
	"unit": "USD",
	"data_quality": "clean",
	"notes": ""
}`

var _ = Describe("Analyzer", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	analyze := func(client *scriptedClient, docs []model.Document) quant.Analysis {
		analyzer := quant.NewAnalyzer(&scriptedPool{client: client}, quantConfig())
		return analyzer.Analyze(ctx, "Compara los montos del presupuesto", docs)
	}

	It("runs the full bar-chart flow", func() {
		client := &scriptedClient{responses: []string{
			"```json\n" + comparisonJSON + "\n```",
			"bar",
			"El anticipo representa el **30%** del presupuesto total.",
		}}

		analysis := analyze(client, contextDocs())
		Expect(analysis.ChartType).To(Equal(quant.ChartBar))
		Expect(analysis.ChartBase64).NotTo(BeEmpty())
		Expect(analysis.Insights).To(ContainSubstring("anticipo"))
		Expect(analysis.DataQuality).To(Equal("clean"))
		Expect(client.calls).To(Equal(3))
	})

	It("embeds the extraction schema in the first prompt", func() {
		client := &scriptedClient{responses: []string{
			`{"data_found": false, "data_type": "none", "categories": [], "values": [], "unit": "", "data_quality": "incomplete", "notes": ""}`,
			"insight final",
		}}

		analyze(client, contextDocs())
		Expect(client.prompts[0]).To(ContainSubstring(`"data_found"`))
		Expect(client.prompts[0]).To(ContainSubstring("Compara los montos"))
	})

	It("skips strategy and chart when no data is found", func() {
		client := &scriptedClient{responses: []string{
			`{"data_found": false, "data_type": "none", "categories": [], "values": [], "unit": "", "data_quality": "incomplete", "notes": "nada"}`,
			"No se encontraron datos numericos relevantes.",
		}}

		analysis := analyze(client, contextDocs())
		Expect(analysis.ChartType).To(Equal(quant.ChartNone))
		Expect(analysis.ChartBase64).To(BeEmpty())
		// extract + insight only
		Expect(client.calls).To(Equal(2))
	})

	It("treats unparseable extraction output as no data", func() {
		client := &scriptedClient{responses: []string{
			"esto no es JSON",
			"insight",
		}}

		analysis := analyze(client, contextDocs())
		Expect(analysis.ChartType).To(Equal(quant.ChartNone))
		Expect(analysis.DataQuality).To(Equal("incomplete"))
	})

	It("falls back by data type when the strategy output is invalid", func() {
		timelineJSON := `{
			"data_found": true, "data_type": "timeline",
			"categories": ["2024", "2025"], "values": [10, 20],
			"unit": "USD", "data_quality": "clean", "notes": ""
		}`
		client := &scriptedClient{responses: []string{
			timelineJSON,
			"scatter",
			"insight",
		}}

		analysis := analyze(client, contextDocs())
		Expect(analysis.ChartType).To(Equal(quant.ChartLine))
	})

	It("keeps the insight when value coercion fails", func() {
		dirtyJSON := `{
			"data_found": true, "data_type": "comparison",
			"categories": ["A", "B"], "values": ["N/A", "100"],
			"unit": "USD", "data_quality": "sanitized", "notes": ""
		}`
		client := &scriptedClient{responses: []string{
			dirtyJSON,
			"bar",
			"insight con datos sucios",
		}}

		analysis := analyze(client, contextDocs())
		Expect(analysis.ChartType).To(Equal(quant.ChartBar))
		Expect(analysis.ChartBase64).To(BeEmpty())
		Expect(analysis.Insights).To(Equal("insight con datos sucios"))
	})

	It("coerces currency strings with thousand separators", func() {
		stringValuesJSON := `{
			"data_found": true, "data_type": "comparison",
			"categories": ["Anticipo", "Hitos"], "values": ["USD 1.500.000", "2,000,000"],
			"unit": "USD", "data_quality": "sanitized", "notes": ""
		}`
		client := &scriptedClient{responses: []string{
			stringValuesJSON,
			"bar",
			"insight",
		}}

		analysis := analyze(client, contextDocs())
		Expect(analysis.ChartBase64).NotTo(BeEmpty())
	})

	It("uses the deterministic fallback when the insight LLM fails", func() {
		client := &scriptedClient{
			responses: []string{comparisonJSON, "bar", ""},
			errs:      []error{nil, nil, errors.New("insight down")},
		}

		analysis := analyze(client, contextDocs())
		Expect(analysis.Insights).To(Equal("Se encontraron 2 valores: 1500000, 3500000 (USD)."))
	})

	It("handles empty context without calling the extraction LLM", func() {
		client := &scriptedClient{responses: []string{
			"No se encontraron datos numericos relevantes.",
		}}

		analysis := analyze(client, nil)
		Expect(analysis.ChartType).To(Equal(quant.ChartNone))
		// only the insight call happens
		Expect(client.calls).To(Equal(1))
	})
})
