package retrieval

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"tendercortex.app/cortex/common/id"
)

// Chunk is one indexable slice of an ingested document.
type Chunk struct {
	ID   string
	Text string
	Page int
}

// ExtractPDF reads the PDF at path and returns its plain text per page.
// Pages that yield no text are skipped. Page numbers are 1-based.
func ExtractPDF(path string) (map[int]string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	pages := make(map[int]string)
	for n := 1; n <= reader.NumPage(); n++ {
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Individual pages can have broken content streams. Keep going.
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages[n] = text
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("pdf %q contains no extractable text", path)
	}
	return pages, nil
}

// ChunkPages splits every page's text into fixed-size chunks with overlap and
// assigns each chunk a fresh snowflake id. Overlap must be smaller than size.
func ChunkPages(pages map[int]string, size, overlap int) []Chunk {
	var chunks []Chunk
	for _, page := range sortedPageNumbers(pages) {
		for _, text := range SplitText(pages[page], size, overlap) {
			chunks = append(chunks, Chunk{
				ID:   strconv.FormatInt(id.New(), 10),
				Text: text,
				Page: page,
			})
		}
	}
	return chunks
}

// SplitText slices text into windows of at most size runes, each window
// starting size-overlap runes after the previous one. Whitespace-only windows
// are dropped.
func SplitText(text string, size, overlap int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []string{text}
	}

	step := size - overlap
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		window := strings.TrimSpace(string(runes[start:end]))
		if window != "" {
			out = append(out, window)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}

func sortedPageNumbers(pages map[int]string) []int {
	nums := make([]int, 0, len(pages))
	for n := range pages {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}
