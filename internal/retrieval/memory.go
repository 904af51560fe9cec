package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"unicode"

	"tendercortex.app/cortex/internal/model"
)

// Memory is a process-local retrieval backend. It scores chunks by lexical
// overlap with the query, which is enough for single-node deployments and for
// tests. Safe for concurrent use.
type Memory struct {
	mu           sync.RWMutex
	chunkSize    int
	chunkOverlap int
	sources      []string           // ingestion order
	chunks       map[string][]Chunk // source -> chunks
}

var _ Service = (*Memory)(nil)

func NewMemory(chunkSize, chunkOverlap int) *Memory {
	return &Memory{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		chunks:       make(map[string][]Chunk),
	}
}

func (m *Memory) SimilaritySearch(ctx context.Context, query string, k int) ([]model.Document, error) {
	terms := tokenize(query)

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		doc   model.Document
		score float64
		order int
	}

	var hits []scored
	order := 0
	for _, source := range m.sources {
		for _, chunk := range m.chunks[source] {
			score := overlapScore(terms, chunk.Text)
			if score > 0 {
				hits = append(hits, scored{
					doc: model.Document{
						Content: chunk.Text,
						Metadata: model.Metadata{
							Source: source,
							Page:   chunk.Page,
							Score:  score,
						},
					},
					score: score,
					order: order,
				})
			}
			order++
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].order < hits[j].order
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	docs := make([]model.Document, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, h.doc)
	}

	slog.DebugContext(ctx, "memory similarity search",
		"query_terms", len(terms), "hits", len(docs), "k", k)
	return docs, nil
}

func (m *Memory) IngestDocument(ctx context.Context, path, originalFilename string) (int, error) {
	pages, err := ExtractPDF(path)
	if err != nil {
		return 0, err
	}
	chunks := ChunkPages(pages, m.chunkSize, m.chunkOverlap)
	m.store(originalFilename, chunks)

	slog.InfoContext(ctx, "document ingested",
		"filename", originalFilename, "pages", len(pages), "chunks", len(chunks))
	return len(chunks), nil
}

// IndexText indexes raw text under name, bypassing PDF extraction. The text is
// chunked as a single page. Used for seeding and tests.
func (m *Memory) IndexText(ctx context.Context, name, text string) int {
	chunks := ChunkPages(map[int]string{1: text}, m.chunkSize, m.chunkOverlap)
	m.store(name, chunks)
	return len(chunks)
}

func (m *Memory) store(name string, chunks []Chunk) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.chunks[name]; !exists {
		m.sources = append(m.sources, name)
	}
	m.chunks[name] = chunks
}

func (m *Memory) ClearIndex(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = nil
	m.chunks = make(map[string][]Chunk)
	return nil
}

func (m *Memory) Stats(ctx context.Context) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, chunks := range m.chunks {
		total += len(chunks)
	}
	return map[string]any{
		"backend":     "memory",
		"documents":   len(m.sources),
		"total_chunks": total,
	}, nil
}

func (m *Memory) IndexedDocuments(ctx context.Context) ([]model.IndexedDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.IndexedDocument, 0, len(m.sources))
	for _, source := range m.sources {
		out = append(out, model.IndexedDocument{Name: source, Chunks: len(m.chunks[source])})
	}
	return out, nil
}

func (m *Memory) HealthCheck(ctx context.Context) error {
	return nil
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r == '%' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r))
	})
	var out []string
	for _, f := range fields {
		if len(f) > 2 || f == "%" || f == "$" {
			out = append(out, f)
		}
	}
	return out
}

// overlapScore is the fraction of query terms present in the chunk text.
func overlapScore(terms []string, text string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matched := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
