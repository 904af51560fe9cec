// Package retrieval defines the document retrieval port consumed by the agent
// pipeline and the HTTP surface, plus its in-memory and Typesense backends.
package retrieval

import (
	"context"

	"tendercortex.app/cortex/internal/model"
)

// Service is the retrieval port. The pipeline never depends on the backing
// store: an empty search result means "no documents", not an error.
type Service interface {
	// SimilaritySearch returns up to k documents ordered best-first.
	SimilaritySearch(ctx context.Context, query string, k int) ([]model.Document, error)

	// IngestDocument extracts, chunks and indexes the PDF at path under
	// originalFilename, returning the number of chunks stored. Re-ingesting
	// the same filename replaces the previous chunks.
	IngestDocument(ctx context.Context, path, originalFilename string) (int, error)

	// ClearIndex removes every indexed document.
	ClearIndex(ctx context.Context) error

	// Stats describes the backend and its current index size.
	Stats(ctx context.Context) (map[string]any, error)

	// IndexedDocuments lists ingested files with their chunk counts.
	IndexedDocuments(ctx context.Context) ([]model.IndexedDocument, error)

	// HealthCheck reports whether the backend is reachable.
	HealthCheck(ctx context.Context) error
}
