package brain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"tendercortex.app/cortex/common/llm"
	"tendercortex.app/cortex/common/logger"
	"tendercortex.app/cortex/core/config"
	"tendercortex.app/cortex/internal/agents"
	"tendercortex.app/cortex/internal/model"
	"tendercortex.app/cortex/internal/prompts"
	"tendercortex.app/cortex/internal/quant"
	"tendercortex.app/cortex/internal/retrieval"
	"tendercortex.app/cortex/internal/risk"
)

// dataHeavyKeywords flags questions that need tabular or numeric evidence.
// The grader safety net keeps documents for these even when the LLM marks
// everything not_relevant.
var dataHeavyKeywords = []string{
	"fecha", "cronograma", "plazo", "calendario", "hito",
	"presupuesto", "monto", "garantia", "pago", "financier",
	"tabla", "porcentaje", "%", "usd", "ars",
	"cantidad", "cuanto", "cuando", "timeline", "schedule",
}

func isDataHeavy(question string) bool {
	q := strings.ToLower(question)
	for _, kw := range dataHeavyKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// Pipeline holds the collaborators the graph nodes need.
type Pipeline struct {
	retrieval retrieval.Service
	pool      llm.ClientPool
	factory   *agents.Factory
	analyzer  *quant.Analyzer
	sentinel  *risk.Sentinel
	cfg       config.PipelineConfig
}

func NewPipeline(
	svc retrieval.Service,
	pool llm.ClientPool,
	factory *agents.Factory,
	analyzer *quant.Analyzer,
	sentinel *risk.Sentinel,
	cfg config.PipelineConfig,
) *Pipeline {
	return &Pipeline{
		retrieval: svc,
		pool:      pool,
		factory:   factory,
		analyzer:  analyzer,
		sentinel:  sentinel,
		cfg:       cfg,
	}
}

// retrieve fetches evidence from the retrieval port. An empty index produces
// the terminal no-documents state; a retrieval failure degrades to an empty
// context and lets the specialist answer "no relevant information".
func (p *Pipeline) retrieve(ctx context.Context, state AgentState) (Delta, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Node: logger.Ptr("retrieve")})
	slog.InfoContext(ctx, "pipeline started", "question", logger.Truncate(state.Question, 120))

	docs, err := p.retrieval.SimilaritySearch(ctx, state.Question, p.cfg.RetrievalK)
	if err != nil {
		slog.ErrorContext(ctx, "similarity search failed", "error", err)
		return Delta{Context: ptr([]model.Document{}), RevisionCount: ptr(0)}, nil
	}

	if len(docs) == 0 {
		slog.InfoContext(ctx, "no documents in the index, short-circuiting to END")
		return Delta{
			Context:         ptr([]model.Document{}),
			FilteredContext: ptr([]model.Document{}),
			RevisionCount:   ptr(0),
			Domain:          ptr(prompts.DomainNone),
			Answer:          ptr(NoDocumentsMessage),
			AuditResult:     ptr("pass"),
			NoDocuments:     ptr(true),
		}, nil
	}

	slog.InfoContext(ctx, "documents retrieved", "count", len(docs))
	return Delta{Context: ptr(docs), RevisionCount: ptr(0)}, nil
}

// gradeAndRoute runs the relevance grader and the domain router concurrently.
// The two sub-tasks write disjoint keys, so merge order does not matter.
func (p *Pipeline) gradeAndRoute(ctx context.Context, state AgentState) (Delta, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Node: logger.Ptr("grade_and_route")})

	var (
		wg       sync.WaitGroup
		filtered []model.Document
		domain   string
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		filtered = p.gradeDocuments(ctx, state)
	}()
	go func() {
		defer wg.Done()
		domain = p.routeQuestion(ctx, state.Question)
	}()
	wg.Wait()

	slog.InfoContext(ctx, "grade and route merged", "domain", domain, "filtered_docs", len(filtered))
	return Delta{FilteredContext: ptr(filtered), Domain: ptr(domain)}, nil
}

// gradeDocuments asks the LLM for one relevant/not_relevant line per document
// in a single batched call. Any failure falls back to the top documents.
func (p *Pipeline) gradeDocuments(ctx context.Context, state AgentState) []model.Document {
	docs := state.Context
	if len(docs) == 0 {
		return nil
	}
	fallback := func() []model.Document {
		n := p.cfg.SafetyNetFallbackDocs
		if n > len(docs) {
			n = len(docs)
		}
		return docs[:n]
	}

	client, err := p.pool.Client(p.cfg.GraderTemperature)
	if err != nil {
		slog.WarnContext(ctx, "grader client unavailable", "error", err)
		return fallback()
	}

	blocks := make([]string, 0, len(docs))
	for i, doc := range docs {
		content := doc.Content
		if runes := []rune(content); len(runes) > p.cfg.GraderDocTruncation {
			content = string(runes[:p.cfg.GraderDocTruncation])
		}
		blocks = append(blocks, fmt.Sprintf("[Documento %d]\n%s", i+1, content))
	}
	prompt := prompts.GraderPrompt(len(docs), strings.Join(blocks, "\n\n---\n\n"), state.Question)

	completion, err := client.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		slog.WarnContext(ctx, "grader call failed, using top documents", "error", err)
		return fallback()
	}

	relevant := parseGrades(completion.Content, docs)

	if len(relevant) < p.cfg.SafetyNetMinDocs && isDataHeavy(state.Question) {
		slog.InfoContext(ctx, "data-heavy safety net engaged",
			"relevant", len(relevant), "fallback", p.cfg.SafetyNetFallbackDocs)
		return fallback()
	}
	if len(relevant) == 0 {
		slog.InfoContext(ctx, "grader kept nothing, using top documents as fallback")
		return fallback()
	}

	slog.DebugContext(ctx, "documents graded", "relevant", len(relevant), "total", len(docs))
	return relevant
}

// parseGrades reads "<i>:<label>" lines. A document is relevant only when the
// label contains "relevant" and not "not_relevant". Order follows the input.
func parseGrades(output string, docs []model.Document) []model.Document {
	keep := make([]bool, len(docs))
	for _, line := range strings.Split(strings.ToLower(strings.TrimSpace(output)), "\n") {
		line = strings.TrimSpace(line)
		idxPart, grade, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSpace(idxPart))
		if err != nil {
			continue
		}
		idx--
		if idx < 0 || idx >= len(docs) {
			continue
		}
		grade = strings.TrimSpace(grade)
		keep[idx] = strings.Contains(grade, "relevant") && !strings.Contains(grade, "not_relevant")
	}

	var relevant []model.Document
	for i, k := range keep {
		if k {
			relevant = append(relevant, docs[i])
		}
	}
	return relevant
}

// routeQuestion classifies the question into the closed domain set. Anything
// outside the set, and any failure, resolves to general.
func (p *Pipeline) routeQuestion(ctx context.Context, question string) string {
	client, err := p.pool.Client(p.cfg.RouterTemperature)
	if err != nil {
		slog.WarnContext(ctx, "router client unavailable", "error", err)
		return prompts.DomainGeneral
	}

	completion, err := client.Chat(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: prompts.RouterPrompt(question)},
	})
	if err != nil {
		slog.WarnContext(ctx, "router call failed, defaulting to general", "error", err)
		return prompts.DomainGeneral
	}

	domain := strings.ToLower(strings.TrimSpace(completion.Content))
	if !prompts.IsValid(domain) {
		slog.DebugContext(ctx, "router emitted unknown domain", "raw", logger.Truncate(domain, 40))
		return prompts.DomainGeneral
	}
	slog.InfoContext(ctx, "question classified", "domain", domain)
	return domain
}

// specialist generates the answer with the routed domain's agent. Failures
// become a truncated error answer; the pipeline keeps going and the sentinel
// auto-approves error answers.
func (p *Pipeline) specialist(ctx context.Context, state AgentState) (Delta, error) {
	domain := state.Domain
	if domain == prompts.DomainQuantitative {
		domain = prompts.DomainGeneral
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{Domain: logger.Ptr(domain)})

	agent, err := p.factory.ForDomain(domain)
	if err != nil {
		slog.ErrorContext(ctx, "specialist construction failed", "error", err)
		return Delta{Answer: ptr("Error en el agente especializado: " + truncate(err.Error(), 300))}, nil
	}

	answer, err := agent.Generate(ctx, state.Question, Docs(state))
	if err != nil {
		slog.ErrorContext(ctx, "specialist generation failed", "error", err)
		var procErr *agents.ProcessingError
		if errors.As(err, &procErr) {
			return Delta{Answer: ptr("Error en el agente especializado: " + truncate(err.Error(), 300))}, nil
		}
		return Delta{Answer: ptr("Error en el agente: " + truncate(err.Error(), 200))}, nil
	}
	return Delta{Answer: ptr(answer)}, nil
}

// quantNode runs the quantitative analyzer; the insight text doubles as the
// pipeline answer for this branch.
func (p *Pipeline) quantNode(ctx context.Context, state AgentState) (Delta, error) {
	if state.Domain != prompts.DomainQuantitative {
		slog.DebugContext(ctx, "quant skipped", "domain", state.Domain)
		return Delta{}, nil
	}

	analysis := p.analyzer.Analyze(ctx, state.Question, Docs(state))
	return Delta{
		QuantChart:       ptr(analysis.ChartBase64),
		QuantChartType:   ptr(analysis.ChartType),
		QuantInsights:    ptr(analysis.Insights),
		QuantDataQuality: ptr(analysis.DataQuality),
		Answer:           ptr(analysis.Insights),
	}, nil
}

// riskSentinel audits the answer and decides the refine edge.
func (p *Pipeline) riskSentinel(ctx context.Context, state AgentState) (Delta, error) {
	verdict := p.sentinel.Audit(ctx, state.Answer, Docs(state), state.Question)
	return Delta{
		RiskLevel:        ptr(verdict.RiskLevel),
		ComplianceStatus: ptr(verdict.Compliance),
		RiskIssues:       ptr(verdict.Issues),
		GatePassed:       ptr(verdict.GatePassed),
		AuditResult:      ptr(verdict.AuditResult()),
	}, nil
}

// refine regenerates a rejected answer. The revision counter is emitted even
// on failure so the audit loop always terminates.
func (p *Pipeline) refine(ctx context.Context, state AgentState) (Delta, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Node: logger.Ptr("refine")})
	revision := state.RevisionCount + 1

	domain := state.Domain
	if domain == "" {
		domain = prompts.DomainGeneral
	}

	client, err := p.pool.Client(p.cfg.RefineTemperature)
	if err != nil {
		slog.WarnContext(ctx, "refine client unavailable", "error", err)
		return Delta{RevisionCount: ptr(revision)}, nil
	}

	contextText := agents.FormatContext(Docs(state), 0)
	prompt := prompts.RefinePrompt(domain, contextText, state.Question, state.Answer)
	completion, err := client.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		slog.WarnContext(ctx, "refine call failed", "error", err, "revision", revision)
		return Delta{RevisionCount: ptr(revision)}, nil
	}

	slog.InfoContext(ctx, "answer refined",
		"revision", revision, "answer_chars", len(completion.Content))
	return Delta{Answer: ptr(completion.Content), RevisionCount: ptr(revision)}, nil
}

func truncate(s string, max int) string {
	if runes := []rune(s); len(runes) > max {
		return string(runes[:max])
	}
	return s
}
