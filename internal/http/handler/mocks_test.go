package handler_test

import (
	"context"
	"errors"

	"tendercortex.app/cortex/internal/brain"
	"tendercortex.app/cortex/internal/model"
)

type mockRunner struct {
	answerFn func(ctx context.Context, question string) (brain.AgentState, error)
	calls    int
}

func (m *mockRunner) Answer(ctx context.Context, question string) (brain.AgentState, error) {
	m.calls++
	if m.answerFn == nil {
		return brain.AgentState{}, errors.New("answerFn not set")
	}
	return m.answerFn(ctx, question)
}

type mockRetrieval struct {
	ingestFn    func(ctx context.Context, path, originalFilename string) (int, error)
	clearFn     func(ctx context.Context) error
	statsFn     func(ctx context.Context) (map[string]any, error)
	documentsFn func(ctx context.Context) ([]model.IndexedDocument, error)
}

func (m *mockRetrieval) SimilaritySearch(ctx context.Context, query string, k int) ([]model.Document, error) {
	return nil, nil
}

func (m *mockRetrieval) IngestDocument(ctx context.Context, path, originalFilename string) (int, error) {
	if m.ingestFn == nil {
		return 0, errors.New("ingestFn not set")
	}
	return m.ingestFn(ctx, path, originalFilename)
}

func (m *mockRetrieval) ClearIndex(ctx context.Context) error {
	if m.clearFn == nil {
		return nil
	}
	return m.clearFn(ctx)
}

func (m *mockRetrieval) Stats(ctx context.Context) (map[string]any, error) {
	if m.statsFn == nil {
		return map[string]any{}, nil
	}
	return m.statsFn(ctx)
}

func (m *mockRetrieval) IndexedDocuments(ctx context.Context) ([]model.IndexedDocument, error) {
	if m.documentsFn == nil {
		return nil, nil
	}
	return m.documentsFn(ctx)
}

func (m *mockRetrieval) HealthCheck(ctx context.Context) error { return nil }
