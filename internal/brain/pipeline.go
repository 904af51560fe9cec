package brain

import (
	"context"
	"fmt"
	"log/slog"

	"tendercortex.app/cortex/common/logger"
	"tendercortex.app/cortex/internal/graph"
	"tendercortex.app/cortex/internal/prompts"
)

// Edge selectors. Each runs on the merged state after its source node.

func routeAfterRetrieve(state AgentState) string {
	if state.NoDocuments {
		return "end"
	}
	return "grade_and_route"
}

func routeAfterRouter(state AgentState) string {
	if state.Domain == prompts.DomainQuantitative {
		return "quant"
	}
	return "specialist"
}

func (p *Pipeline) shouldContinueAfterAudit(state AgentState) string {
	if state.AuditResult == "fail" && state.RevisionCount < p.cfg.MaxAuditRevisions {
		return "refine"
	}
	return "end"
}

// BuildGraph compiles the request graph:
//
//	START → retrieve
//	retrieve → grade_and_route | END (empty index)
//	grade_and_route → specialist | quant
//	specialist, quant → risk_sentinel
//	risk_sentinel → refine | END
//	refine → risk_sentinel
func (p *Pipeline) BuildGraph() (*graph.Graph[AgentState, Delta], error) {
	g := graph.New[AgentState, Delta](Merge)

	g.AddNode("retrieve", p.retrieve)
	g.AddNode("grade_and_route", p.gradeAndRoute)
	g.AddNode("specialist", p.specialist)
	g.AddNode("quant", p.quantNode)
	g.AddNode("risk_sentinel", p.riskSentinel)
	g.AddNode("refine", p.refine)

	g.AddEdge(graph.Start, "retrieve")
	g.AddConditionalEdges("retrieve", routeAfterRetrieve, map[string]string{
		"grade_and_route": "grade_and_route",
		"end":             graph.End,
	})
	g.AddConditionalEdges("grade_and_route", routeAfterRouter, map[string]string{
		"specialist": "specialist",
		"quant":      "quant",
	})
	g.AddEdge("specialist", "risk_sentinel")
	g.AddEdge("quant", "risk_sentinel")
	g.AddConditionalEdges("risk_sentinel", p.shouldContinueAfterAudit, map[string]string{
		"refine": "refine",
		"end":    graph.End,
	})
	g.AddEdge("refine", "risk_sentinel")

	if err := g.Compile(); err != nil {
		return nil, fmt.Errorf("building pipeline graph: %w", err)
	}
	return g, nil
}

// Runner binds a pipeline to its compiled graph. Safe for concurrent use;
// the HTTP layer holds one per process.
type Runner struct {
	pipeline *Pipeline
	graph    *graph.Graph[AgentState, Delta]
}

func NewRunner(p *Pipeline) (*Runner, error) {
	g, err := p.BuildGraph()
	if err != nil {
		return nil, err
	}
	return &Runner{pipeline: p, graph: g}, nil
}

// Answer runs one question through the graph and returns the terminal state.
func (r *Runner) Answer(ctx context.Context, question string) (AgentState, error) {
	return r.pipeline.Answer(ctx, r.graph, question)
}

// Answer runs one question through g with a fresh initial state and returns
// the terminal state.
func (p *Pipeline) Answer(ctx context.Context, g *graph.Graph[AgentState, Delta], question string) (AgentState, error) {
	state := NewInitialState(question)
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TraceID:   logger.Ptr(state.TraceID),
		Component: "cortex.brain.graph",
	})

	final, err := g.Run(ctx, state)
	if err != nil {
		return final, fmt.Errorf("pipeline run: %w", err)
	}
	slog.InfoContext(ctx, "pipeline finished",
		"domain", final.Domain,
		"audit_result", final.AuditResult,
		"revisions", final.RevisionCount,
		"answer_chars", len(final.Answer))
	return final, nil
}
