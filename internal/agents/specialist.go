package agents

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"tendercortex.app/cortex/common/llm"
	"tendercortex.app/cortex/common/logger"
	"tendercortex.app/cortex/internal/model"
	"tendercortex.app/cortex/internal/prompts"
	"tendercortex.app/cortex/internal/skills"
)

// Specialist answers a question for one domain from retrieved context.
type Specialist interface {
	Domain() string
	Generate(ctx context.Context, question string, docs []model.Document) (string, error)
}

// maxTablePages caps how many distinct (source, page) pairs the financial
// sidecar inspects per request.
const maxTablePages = 3

// Per-domain "nothing relevant" answers, returned without calling the LLM
// when the flattened context is empty.
var noInfoMessages = map[string]string{
	prompts.DomainFinancial: "No encontré información financiera relevante para responder tu pregunta.",
	prompts.DomainTechnical: "No encontré información técnica relevante para responder tu pregunta.",
}

const noInfoDefault = "No encontré información relevante para responder tu pregunta."

// enrichFunc lets a specialist append a deterministic skill section to the
// context before the LLM call. Returning "" adds nothing; sidecar failures
// never surface as errors.
type enrichFunc func(ctx context.Context, docs []model.Document, contextText string) string

type specialist struct {
	domain   string
	client   llm.Client
	maxChars int
	enrich   enrichFunc
}

func (s *specialist) Domain() string { return s.domain }

func (s *specialist) Generate(ctx context.Context, question string, docs []model.Document) (string, error) {
	node := "specialist_" + s.domain
	ctx = logger.WithLogFields(ctx, logger.LogFields{Node: logger.Ptr(node), Domain: logger.Ptr(s.domain)})

	contextText := FormatContext(docs, s.maxChars)
	if strings.TrimSpace(contextText) == "" {
		slog.InfoContext(ctx, "no context available for specialist")
		return s.noInfoMessage(), nil
	}

	if s.enrich != nil {
		if extra := s.enrich(ctx, docs, contextText); extra != "" {
			contextText += extra
		}
	}

	messages := BuildMessages(prompts.FullPrompt(s.domain, true), contextText, question)
	completion, err := s.client.Chat(ctx, messages)
	if err != nil {
		return "", NewProcessingError(node, err)
	}

	slog.InfoContext(ctx, "specialist answer generated",
		"answer_chars", len(completion.Content), "docs", len(docs))
	return completion.Content, nil
}

func (s *specialist) noInfoMessage() string {
	if msg, ok := noInfoMessages[s.domain]; ok {
		return msg
	}
	return noInfoDefault
}

// techStackSection runs the tech-stack mapper over the flattened context and
// renders its summary as a delimited prompt section.
func techStackSection(mapper *skills.TechStackMapper) enrichFunc {
	return func(ctx context.Context, docs []model.Document, contextText string) string {
		report, err := mapper.Extract(contextText)
		if err != nil || len(report.Entities) == 0 {
			return ""
		}
		slog.DebugContext(ctx, "tech stack sidecar consulted", "entities", len(report.Entities))
		return "\n\n=== Stack tecnológico detectado (análisis determinístico) ===\n" + report.Summary
	}
}

// financialTablesSection runs the table parser once per distinct (source,
// page) pair present in the metadata, capped at maxTablePages pages, and
// renders the extracted tables as Markdown.
func financialTablesSection(parser *skills.TableParser) enrichFunc {
	return func(ctx context.Context, docs []model.Document, contextText string) string {
		type pageKey struct {
			source string
			page   int
		}
		grouped := map[pageKey][]string{}
		var order []pageKey
		for _, doc := range docs {
			key := pageKey{doc.Metadata.Source, doc.Metadata.Page}
			if _, seen := grouped[key]; !seen {
				order = append(order, key)
			}
			grouped[key] = append(grouped[key], doc.Content)
		}
		sort.SliceStable(order, func(i, j int) bool {
			if order[i].source != order[j].source {
				return order[i].source < order[j].source
			}
			return order[i].page < order[j].page
		})
		if len(order) > maxTablePages {
			order = order[:maxTablePages]
		}

		var sections []string
		for _, key := range order {
			for _, table := range parser.Parse(strings.Join(grouped[key], "\n")) {
				sections = append(sections, fmt.Sprintf("Tabla en %s (pág. %d):\n%s",
					key.source, key.page, table.Markdown()))
			}
		}
		if len(sections) == 0 {
			return ""
		}
		slog.DebugContext(ctx, "financial table sidecar consulted", "tables", len(sections))
		return "\n\n=== Tablas financieras extraídas (análisis determinístico) ===\n" +
			strings.Join(sections, "\n")
	}
}
