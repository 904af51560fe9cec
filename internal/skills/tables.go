package skills

import (
	"regexp"
	"strconv"
	"strings"
)

// Financial keywords used to decide whether a detected table carries monetary
// data. Mixed Spanish/English because RFPs in the region mix both.
var financialKeywords = []string{
	"precio", "precios", "monto", "montos", "total", "totales",
	"subtotal", "costo", "costos", "valor", "valores", "importe",
	"importes", "unitario", "cantidad", "iva", "impuesto",
	"descuento", "neto", "bruto", "garantia", "garantía", "hito",
	"price", "amount", "cost", "value", "quantity", "tax", "fee",
	"$", "€", "usd", "eur", "ars",
}

// FinancialTable is one table extracted from document text.
type FinancialTable struct {
	Headers    []string
	Rows       [][]string
	Confidence float64
	// TotalDetected sums the last numeric column across rows.
	TotalDetected float64
}

// Markdown renders the table as a GitHub-style Markdown table.
func (t FinancialTable) Markdown() string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(t.Headers, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(t.Headers)) + "\n")
	for _, row := range t.Rows {
		cells := make([]string, len(t.Headers))
		for i := range cells {
			if i < len(row) {
				cells[i] = row[i]
			}
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return b.String()
}

var columnSplitter = regexp.MustCompile(`\t+| {2,}|\s*\|\s*`)

// TableParser detects column-aligned financial tables in plain text. PDF text
// extraction flattens table grids to whitespace-aligned lines; the parser
// recovers rows by splitting on tabs, pipes, or runs of spaces.
type TableParser struct {
	// ConfidenceThreshold filters out tables that do not look financial.
	ConfidenceThreshold float64
}

func NewTableParser() *TableParser {
	return &TableParser{ConfidenceThreshold: 0.5}
}

// Parse extracts the financial tables present in text. Returns nil when no
// table clears the confidence threshold.
func (p *TableParser) Parse(text string) []FinancialTable {
	var tables []FinancialTable
	var block [][]string

	flush := func() {
		if len(block) >= 2 {
			if table, ok := p.buildTable(block); ok {
				tables = append(tables, table)
			}
		}
		block = nil
	}

	for _, line := range strings.Split(text, "\n") {
		cells := splitRow(line)
		if len(cells) >= 2 {
			block = append(block, cells)
			continue
		}
		flush()
	}
	flush()

	return tables
}

func splitRow(line string) []string {
	line = strings.Trim(strings.TrimSpace(line), "|")
	if line == "" {
		return nil
	}
	parts := columnSplitter.Split(line, -1)
	var cells []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			cells = append(cells, part)
		}
	}
	return cells
}

func (p *TableParser) buildTable(block [][]string) (FinancialTable, bool) {
	table := FinancialTable{
		Headers: block[0],
		Rows:    block[1:],
	}
	table.Confidence = p.confidence(table)
	if table.Confidence < p.ConfidenceThreshold {
		return FinancialTable{}, false
	}

	for _, row := range table.Rows {
		for i := len(row) - 1; i >= 0; i-- {
			if v, ok := CleanAmount(row[i]); ok {
				table.TotalDetected += v
				break
			}
		}
	}
	return table, true
}

func (p *TableParser) confidence(table FinancialTable) float64 {
	score := 0.0

	headerText := strings.ToLower(strings.Join(table.Headers, " "))
	for _, kw := range financialKeywords {
		if strings.Contains(headerText, kw) {
			score += 0.15
		}
	}

	var sample []string
	for i, row := range table.Rows {
		if i >= 4 {
			break
		}
		sample = append(sample, row...)
	}
	content := strings.ToLower(strings.Join(sample, " "))

	if strings.ContainsAny(content, "$€") ||
		strings.Contains(content, "usd") || strings.Contains(content, "ars") || strings.Contains(content, "eur") {
		score += 0.2
	}
	numeric := 0
	for _, cell := range sample {
		if _, ok := CleanAmount(cell); ok {
			numeric++
		}
	}
	if numeric > 0 {
		score += 0.2
	}
	if len(table.Headers) >= 3 && len(table.Headers) <= 10 {
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

var (
	currencySymbols = regexp.MustCompile(`[$€£¥₹₽]`)
	currencyCodes   = regexp.MustCompile(`(?i)\b(USD|EUR|ARS|BRL|MXN|CLP|COP|PEN)\b`)
	letters         = regexp.MustCompile(`[a-zA-Z]`)
	nonNumeric      = regexp.MustCompile(`[^\d.,']`)
)

// CleanAmount converts a currency string to a float, tolerating the common
// formats: "$ 1.500,00", "1,500.00 USD", "(500)", "1'234'567.89", "-$1,234.56".
// Empty and placeholder values ("N/A", "-", "s/d") report ok=false.
func CleanAmount(value string) (float64, bool) {
	text := strings.TrimSpace(value)
	switch strings.ToLower(text) {
	case "", "n/a", "-", "n.a.", "na", "s/d", "---":
		return 0, false
	}

	negative := false
	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		negative = true
		text = text[1 : len(text)-1]
	}
	if strings.HasPrefix(text, "-") || strings.HasPrefix(text, "−") {
		negative = true
		text = strings.TrimPrefix(strings.TrimPrefix(text, "-"), "−")
	}

	text = currencySymbols.ReplaceAllString(text, "")
	text = currencyCodes.ReplaceAllString(text, "")
	text = letters.ReplaceAllString(text, "")
	text = nonNumeric.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "'", "")
	if text == "" {
		return 0, false
	}

	dots := strings.Count(text, ".")
	commas := strings.Count(text, ",")

	var normalized string
	switch {
	case dots == 0 && commas == 0:
		normalized = text
	case dots == 1 && commas == 0:
		parts := strings.SplitN(text, ".", 2)
		if len(parts[1]) == 3 && len(parts[0]) <= 3 {
			normalized = strings.ReplaceAll(text, ".", "") // "1.500" is a thousand separator
		} else {
			normalized = text
		}
	case commas == 1 && dots == 0:
		parts := strings.SplitN(text, ",", 2)
		if len(parts[1]) == 3 && len(parts[0]) <= 3 {
			normalized = strings.ReplaceAll(text, ",", "")
		} else {
			normalized = strings.ReplaceAll(text, ",", ".") // European decimal
		}
	case dots >= 1 && commas >= 1:
		if strings.LastIndex(text, ",") > strings.LastIndex(text, ".") {
			// European: "1.234,56"
			normalized = strings.ReplaceAll(strings.ReplaceAll(text, ".", ""), ",", ".")
		} else {
			// US: "1,234.56"
			normalized = strings.ReplaceAll(text, ",", "")
		}
	case commas > 1:
		normalized = strings.ReplaceAll(text, ",", "")
	default: // dots > 1
		normalized = strings.ReplaceAll(text, ".", "")
	}

	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}
