package model

// Document is an opaque evidence unit produced by the retrieval port: textual
// content plus metadata. The pipeline treats documents as immutable values.
type Document struct {
	Content  string
	Metadata Metadata
}

// Metadata carries at least the source filename and page; Score is the
// retrieval similarity score when the backend provides one.
type Metadata struct {
	Source string
	Page   int
	Score  float64
}

// IndexedDocument describes one ingested file as reported by the retrieval
// port's document listing.
type IndexedDocument struct {
	Name   string `json:"name"`
	Chunks int    `json:"chunks"`
}

// Sources returns the unique source filenames of docs, preserving first-seen
// order. Empty sources are skipped.
func Sources(docs []Document) []string {
	seen := make(map[string]struct{}, len(docs))
	var out []string
	for _, doc := range docs {
		src := doc.Metadata.Source
		if src == "" {
			continue
		}
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		out = append(out, src)
	}
	return out
}
