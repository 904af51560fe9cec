package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/typesense/typesense-go/v4/typesense"
	"github.com/typesense/typesense-go/v4/typesense/api"
	"github.com/typesense/typesense-go/v4/typesense/api/pointer"

	"tendercortex.app/cortex/core/config"
	"tendercortex.app/cortex/internal/model"
)

// Typesense is the retrieval backend for multi-node deployments. Chunks live
// in a single collection keyed by source filename; search is full-text over
// the chunk content, best match first.
type Typesense struct {
	client       *typesense.Client
	collection   string
	chunkSize    int
	chunkOverlap int
}

var _ Service = (*Typesense)(nil)

func NewTypesense(cfg config.TypesenseConfig, ingest config.IngestConfig) *Typesense {
	return &Typesense{
		client: typesense.NewClient(
			typesense.WithServer(cfg.URL),
			typesense.WithAPIKey(cfg.APIKey),
			typesense.WithConnectionTimeout(10*time.Second),
		),
		collection:   cfg.Collection,
		chunkSize:    ingest.ChunkSize,
		chunkOverlap: ingest.ChunkOverlap,
	}
}

type tsChunk struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Source  string `json:"source"`
	Page    int32  `json:"page"`
	Seq     int32  `json:"seq"`
}

// EnsureCollection creates the chunk collection if it does not exist yet.
func (t *Typesense) EnsureCollection(ctx context.Context) error {
	_, err := t.client.Collection(t.collection).Retrieve(ctx)
	if err == nil {
		return nil
	}

	schema := &api.CollectionSchema{
		Name: t.collection,
		Fields: []api.Field{
			{Name: "content", Type: "string"},
			{Name: "source", Type: "string", Facet: pointer.True()},
			{Name: "page", Type: "int32"},
			{Name: "seq", Type: "int32"},
		},
		DefaultSortingField: pointer.String("seq"),
	}
	if _, err := t.client.Collections().Create(ctx, schema); err != nil {
		return fmt.Errorf("create collection %q: %w", t.collection, err)
	}
	return nil
}

func (t *Typesense) SimilaritySearch(ctx context.Context, query string, k int) ([]model.Document, error) {
	res, err := t.client.Collection(t.collection).Documents().Search(ctx, &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("content"),
		PerPage: pointer.Int(k),
	})
	if err != nil {
		return nil, fmt.Errorf("typesense search: %w", err)
	}
	if res.Hits == nil {
		return nil, nil
	}

	docs := make([]model.Document, 0, len(*res.Hits))
	for _, hit := range *res.Hits {
		if hit.Document == nil {
			continue
		}
		fields := *hit.Document
		doc := model.Document{
			Content: stringField(fields, "content"),
			Metadata: model.Metadata{
				Source: stringField(fields, "source"),
				Page:   intField(fields, "page"),
			},
		}
		if hit.TextMatch != nil {
			doc.Metadata.Score = float64(*hit.TextMatch)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (t *Typesense) IngestDocument(ctx context.Context, path, originalFilename string) (int, error) {
	if err := t.EnsureCollection(ctx); err != nil {
		return 0, err
	}

	pages, err := ExtractPDF(path)
	if err != nil {
		return 0, err
	}
	chunks := ChunkPages(pages, t.chunkSize, t.chunkOverlap)

	// Replace any previous version of this file before importing.
	if err := t.deleteSource(ctx, originalFilename); err != nil {
		return 0, err
	}

	payload := make([]any, 0, len(chunks))
	for i, chunk := range chunks {
		payload = append(payload, tsChunk{
			ID:      chunk.ID,
			Content: chunk.Text,
			Source:  originalFilename,
			Page:    int32(chunk.Page),
			Seq:     int32(i),
		})
	}
	_, err = t.client.Collection(t.collection).Documents().Import(ctx, payload, &api.ImportDocumentsParams{
		Action: pointer.Any(api.Upsert),
	})
	if err != nil {
		return 0, fmt.Errorf("typesense import %q: %w", originalFilename, err)
	}

	slog.InfoContext(ctx, "document ingested",
		"filename", originalFilename, "pages", len(pages), "chunks", len(chunks))
	return len(chunks), nil
}

func (t *Typesense) deleteSource(ctx context.Context, source string) error {
	_, err := t.client.Collection(t.collection).Documents().Delete(ctx, &api.DeleteDocumentsParams{
		FilterBy: pointer.String("source:=" + strconv.Quote(source)),
	})
	if err != nil {
		return fmt.Errorf("typesense delete source %q: %w", source, err)
	}
	return nil
}

func (t *Typesense) ClearIndex(ctx context.Context) error {
	if _, err := t.client.Collection(t.collection).Delete(ctx); err != nil {
		return fmt.Errorf("typesense drop collection: %w", err)
	}
	return t.EnsureCollection(ctx)
}

func (t *Typesense) Stats(ctx context.Context) (map[string]any, error) {
	col, err := t.client.Collection(t.collection).Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("typesense collection stats: %w", err)
	}
	stats := map[string]any{
		"backend":    "typesense",
		"collection": t.collection,
	}
	if col.NumDocuments != nil {
		stats["total_chunks"] = *col.NumDocuments
	}
	return stats, nil
}

func (t *Typesense) IndexedDocuments(ctx context.Context) ([]model.IndexedDocument, error) {
	res, err := t.client.Collection(t.collection).Documents().Search(ctx, &api.SearchCollectionParams{
		Q:              pointer.String("*"),
		QueryBy:        pointer.String("content"),
		FacetBy:        pointer.String("source"),
		MaxFacetValues: pointer.Int(250),
		PerPage:        pointer.Int(0),
	})
	if err != nil {
		return nil, fmt.Errorf("typesense list documents: %w", err)
	}
	if res.FacetCounts == nil {
		return nil, nil
	}

	var out []model.IndexedDocument
	for _, facet := range *res.FacetCounts {
		if facet.FieldName == nil || *facet.FieldName != "source" || facet.Counts == nil {
			continue
		}
		for _, count := range *facet.Counts {
			if count.Value == nil || count.Count == nil {
				continue
			}
			out = append(out, model.IndexedDocument{Name: *count.Value, Chunks: *count.Count})
		}
	}
	return out, nil
}

func (t *Typesense) HealthCheck(ctx context.Context) error {
	ok, err := t.client.Health(ctx, 2*time.Second)
	if err != nil {
		return fmt.Errorf("typesense health: %w", err)
	}
	if !ok {
		return fmt.Errorf("typesense unhealthy")
	}
	return nil
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func intField(fields map[string]any, key string) int {
	switch v := fields[key].(type) {
	case float64:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}
