package quant

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	chart "github.com/wcharczuk/go-chart/v2"

	"tendercortex.app/cortex/internal/skills"
)

// renderRetries bounds the render loop; go-chart panics on some degenerate
// inputs (all-zero pies, single-point lines), so each attempt is recovered.
const renderRetries = 2

// renderChart produces a base64-encoded PNG for bar/line/pie, or "" when the
// data cannot be rendered. Rendering is best effort: the insight text is the
// primary output and must survive a failed chart.
func renderChart(ctx context.Context, chartType string, extraction Extraction) string {
	values, ok := coerceValues(extraction.Values)
	if !ok || len(extraction.Categories) == 0 || len(extraction.Categories) != len(values) {
		slog.DebugContext(ctx, "chart skipped: invalid data dimensions",
			"categories", len(extraction.Categories), "values", len(extraction.Values))
		return ""
	}

	var lastErr error
	for attempt := 0; attempt < renderRetries; attempt++ {
		png, err := renderOnce(chartType, extraction.Categories, values, extraction.Unit)
		if err == nil {
			slog.DebugContext(ctx, "chart rendered", "chart_type", chartType, "bytes", len(png))
			return base64.StdEncoding.EncodeToString(png)
		}
		lastErr = err
	}
	slog.WarnContext(ctx, "chart rendering failed", "chart_type", chartType, "error", lastErr)
	return ""
}

func renderOnce(chartType string, categories []string, values []float64, unit string) (png []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chart render panic: %v", r)
		}
	}()

	title := "Analisis Cuantitativo"
	if unit != "" {
		title = "Analisis: " + unit
	}

	var buf bytes.Buffer
	switch chartType {
	case ChartBar:
		bars := make([]chart.Value, 0, len(values))
		for i, v := range values {
			bars = append(bars, chart.Value{Label: categories[i], Value: v})
		}
		graph := chart.BarChart{
			Title:    title,
			Width:    1000,
			Height:   600,
			BarWidth: 60,
			Bars:     bars,
		}
		err = graph.Render(chart.PNG, &buf)

	case ChartLine:
		xs := make([]float64, len(values))
		ticks := make([]chart.Tick, 0, len(values))
		for i := range values {
			xs[i] = float64(i)
			ticks = append(ticks, chart.Tick{Value: float64(i), Label: categories[i]})
		}
		graph := chart.Chart{
			Title:  title,
			Width:  1000,
			Height: 600,
			XAxis:  chart.XAxis{Ticks: ticks},
			Series: []chart.Series{
				chart.ContinuousSeries{XValues: xs, YValues: values},
			},
		}
		err = graph.Render(chart.PNG, &buf)

	case ChartPie:
		slices := make([]chart.Value, 0, len(values))
		for i, v := range values {
			slices = append(slices, chart.Value{Label: categories[i], Value: v})
		}
		graph := chart.PieChart{
			Title:  title,
			Width:  800,
			Height: 800,
			Values: slices,
		}
		err = graph.Render(chart.PNG, &buf)

	default:
		return nil, fmt.Errorf("unsupported chart type %q", chartType)
	}

	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// coerceValues converts the extraction's mixed values to floats, tolerating
// currency strings with thousand separators.
func coerceValues(raw []any) ([]float64, bool) {
	out := make([]float64, 0, len(raw))
	for _, v := range raw {
		switch value := v.(type) {
		case float64:
			out = append(out, value)
		case int:
			out = append(out, float64(value))
		case string:
			f, ok := skills.CleanAmount(value)
			if !ok {
				return nil, false
			}
			out = append(out, f)
		default:
			return nil, false
		}
	}
	return out, true
}
