// Package quant is the quantitative analyst branch of the pipeline: it
// extracts verified numerical data from the context, picks a visualization,
// renders it, and produces a short textual insight. Every stage degrades
// instead of failing the request.
package quant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"tendercortex.app/cortex/common/llm"
	"tendercortex.app/cortex/common/logger"
	"tendercortex.app/cortex/core/config"
	"tendercortex.app/cortex/internal/agents"
	"tendercortex.app/cortex/internal/model"
)

// Chart types the strategy stage may select.
const (
	ChartBar   = "bar"
	ChartLine  = "line"
	ChartPie   = "pie"
	ChartTable = "table"
	ChartNone  = "none"
)

// extractContextMax caps how much flattened context the extraction prompt
// receives.
const extractContextMax = 6000

// Extraction is the strict JSON contract of the extraction stage. Values may
// arrive as numbers or as currency strings; coercion happens at render time.
type Extraction struct {
	DataFound   bool     `json:"data_found"`
	DataType    string   `json:"data_type" jsonschema:"enum=comparison,enum=timeline,enum=distribution,enum=single_value,enum=table,enum=none"`
	Categories  []string `json:"categories"`
	Values      []any    `json:"values"`
	Unit        string   `json:"unit"`
	DataQuality string   `json:"data_quality" jsonschema:"enum=clean,enum=sanitized,enum=incomplete"`
	Notes       string   `json:"notes"`
}

// Analysis is the analyzer's final output. ChartBase64 is empty when no
// chart was rendered; Insights doubles as the pipeline answer.
type Analysis struct {
	ChartBase64 string
	ChartType   string
	Insights    string
	DataQuality string
}

// Analyzer runs the three-stage quantitative pipeline.
type Analyzer struct {
	pool llm.ClientPool
	cfg  config.PipelineConfig
}

func NewAnalyzer(pool llm.ClientPool, cfg config.PipelineConfig) *Analyzer {
	return &Analyzer{pool: pool, cfg: cfg}
}

// Analyze runs extract, strategy, chart render, and insight in sequence.
// It never returns an error: stage failures degrade to the no-data path.
func (a *Analyzer) Analyze(ctx context.Context, question string, docs []model.Document) Analysis {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Node: logger.Ptr("quant")})

	extraction := a.extract(ctx, question, docs)
	chartType := a.selectStrategy(ctx, extraction, question)

	var chartBase64 string
	if chartType == ChartBar || chartType == ChartLine || chartType == ChartPie {
		chartBase64 = renderChart(ctx, chartType, extraction)
	}

	insights := a.insight(ctx, chartType, extraction, question)

	quality := extraction.DataQuality
	if quality == "" {
		quality = "incomplete"
	}

	slog.InfoContext(ctx, "quant analysis finished",
		"chart_type", chartType, "data_quality", quality, "chart_rendered", chartBase64 != "")
	return Analysis{
		ChartBase64: chartBase64,
		ChartType:   chartType,
		Insights:    insights,
		DataQuality: quality,
	}
}

func noData(notes string) Extraction {
	return Extraction{
		DataFound:   false,
		DataType:    "none",
		Categories:  []string{},
		Values:      []any{},
		DataQuality: "incomplete",
		Notes:       notes,
	}
}

func (a *Analyzer) extract(ctx context.Context, question string, docs []model.Document) Extraction {
	contextText := agents.FormatContext(docs, extractContextMax)
	if strings.TrimSpace(contextText) == "" {
		return noData("Sin contexto disponible")
	}

	client, err := a.pool.Client(a.cfg.QuantExtractTemperature)
	if err != nil {
		return noData("Error: " + err.Error())
	}

	prompt := extractionPrompt(contextText, question)
	completion, err := client.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		slog.WarnContext(ctx, "quant extraction failed", "error", err)
		return noData("Error: " + err.Error())
	}

	var extraction Extraction
	if !llm.ParseJSON(completion.Content, &extraction) {
		slog.DebugContext(ctx, "quant extraction returned unparseable JSON")
		return noData("Error parsing data extraction response")
	}
	slog.DebugContext(ctx, "quant extraction done",
		"values", len(extraction.Values), "data_type", extraction.DataType)
	return extraction
}

func (a *Analyzer) selectStrategy(ctx context.Context, extraction Extraction, question string) string {
	if !extraction.DataFound || len(extraction.Values) == 0 {
		return ChartNone
	}

	client, err := a.pool.Client(a.cfg.QuantStrategyTemperature)
	if err != nil {
		return ChartNone
	}

	payload, _ := json.Marshal(extraction)
	prompt := strategyPrompt(string(payload), question)
	completion, err := client.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		slog.WarnContext(ctx, "quant strategy failed", "error", err)
		return ChartNone
	}

	chartType := strings.ToLower(strings.TrimSpace(completion.Content))
	switch chartType {
	case ChartBar, ChartLine, ChartPie, ChartTable, ChartNone:
		return chartType
	}

	// Invalid LLM output: fall back by data type.
	switch extraction.DataType {
	case "comparison":
		return ChartBar
	case "timeline":
		return ChartLine
	case "distribution":
		return ChartPie
	default:
		return ChartBar
	}
}

func (a *Analyzer) insight(ctx context.Context, chartType string, extraction Extraction, question string) string {
	client, err := a.pool.Client(a.cfg.QuantInsightTemperature)
	if err != nil {
		return fallbackInsight(extraction)
	}

	payload, _ := json.Marshal(extraction)
	chartLabel := chartType
	if chartType == ChartNone {
		chartLabel = "sin grafico (solo texto)"
	}

	completion, err := client.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: "Eres QuanT, un analista cuantitativo preciso y conciso."},
		{Role: llm.RoleUser, Content: insightPrompt(chartLabel, string(payload), question)},
	})
	if err != nil {
		slog.WarnContext(ctx, "quant insight failed, using deterministic fallback", "error", err)
		return fallbackInsight(extraction)
	}
	return strings.TrimSpace(completion.Content)
}

// fallbackInsight builds a basic textual summary without the LLM.
func fallbackInsight(extraction Extraction) string {
	if !extraction.DataFound || len(extraction.Values) == 0 {
		return "No se encontraron datos numericos relevantes para analizar."
	}
	if len(extraction.Values) == 1 {
		return fmt.Sprintf("El valor encontrado es **%s %s**.",
			formatValue(extraction.Values[0]), extraction.Unit)
	}
	parts := make([]string, 0, len(extraction.Values))
	for _, v := range extraction.Values {
		parts = append(parts, formatValue(v))
	}
	return fmt.Sprintf("Se encontraron %d valores: %s (%s).",
		len(extraction.Values), strings.Join(parts, ", "), extraction.Unit)
}

// formatValue avoids exponent notation for the float64 values JSON decoding
// produces.
func formatValue(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}
