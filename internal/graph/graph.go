// Package graph is a small typed state machine. Named nodes map a full state
// to a partial delta; the engine merges each delta into the state before
// choosing the next edge, and follows static or conditional edges until END.
package graph

import (
	"context"
	"fmt"
	"log/slog"

	"tendercortex.app/cortex/common/logger"
)

// Sentinel node names. Start only appears as an edge source; End only as a
// target.
const (
	Start = "__start__"
	End   = "__end__"
)

// maxSteps bounds one traversal. Loops are expected to terminate through
// their own selectors well below this.
const maxSteps = 100

// NodeFunc executes one node: full state in, partial delta out. Nodes must
// not mutate the input state.
type NodeFunc[S, D any] func(ctx context.Context, state S) (D, error)

// Selector picks a branch name from the merged state.
type Selector[S any] func(state S) string

// MergeFunc folds a node's delta into the state, last writer wins per field.
type MergeFunc[S, D any] func(state S, delta D) S

type conditional[S any] struct {
	selector Selector[S]
	branches map[string]string
}

// Graph holds the wiring as plain data. Build it once at startup, Compile it,
// then Run it per request; a compiled Graph is safe for concurrent Run calls.
type Graph[S, D any] struct {
	merge MergeFunc[S, D]
	nodes map[string]NodeFunc[S, D]
	edges map[string]string
	conds map[string]conditional[S]
	entry string
}

func New[S, D any](merge MergeFunc[S, D]) *Graph[S, D] {
	return &Graph[S, D]{
		merge: merge,
		nodes: make(map[string]NodeFunc[S, D]),
		edges: make(map[string]string),
		conds: make(map[string]conditional[S]),
	}
}

// AddNode registers a named node.
func (g *Graph[S, D]) AddNode(name string, fn NodeFunc[S, D]) {
	g.nodes[name] = fn
}

// AddEdge wires a static edge. An edge from Start sets the entry node.
func (g *Graph[S, D]) AddEdge(from, to string) {
	if from == Start {
		g.entry = to
		return
	}
	g.edges[from] = to
}

// AddConditionalEdges wires a selector-driven edge: the selector's branch
// name is looked up in branches to find the next node.
func (g *Graph[S, D]) AddConditionalEdges(from string, selector Selector[S], branches map[string]string) {
	g.conds[from] = conditional[S]{selector: selector, branches: branches}
}

// Compile validates the wiring: an entry must exist, every node needs exactly
// one outgoing edge kind, and every edge target must be a known node or End.
func (g *Graph[S, D]) Compile() error {
	if g.entry == "" {
		return fmt.Errorf("graph: no entry edge from START")
	}
	if _, ok := g.nodes[g.entry]; !ok {
		return fmt.Errorf("graph: entry node %q is not registered", g.entry)
	}
	for name := range g.nodes {
		_, hasStatic := g.edges[name]
		_, hasCond := g.conds[name]
		if hasStatic && hasCond {
			return fmt.Errorf("graph: node %q has both a static and a conditional edge", name)
		}
		if !hasStatic && !hasCond {
			return fmt.Errorf("graph: node %q has no outgoing edge", name)
		}
	}
	for from, to := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return fmt.Errorf("graph: edge from unknown node %q", from)
		}
		if err := g.checkTarget(to); err != nil {
			return err
		}
	}
	for from, cond := range g.conds {
		if _, ok := g.nodes[from]; !ok {
			return fmt.Errorf("graph: conditional edge from unknown node %q", from)
		}
		for _, to := range cond.branches {
			if err := g.checkTarget(to); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Graph[S, D]) checkTarget(to string) error {
	if to == End {
		return nil
	}
	if _, ok := g.nodes[to]; !ok {
		return fmt.Errorf("graph: edge to unknown node %q", to)
	}
	return nil
}

// Run executes the graph from the entry node until End and returns the final
// state. A node error aborts the traversal with that node's delta discarded.
func (g *Graph[S, D]) Run(ctx context.Context, state S) (S, error) {
	current := g.entry
	for steps := 0; current != End; steps++ {
		if steps >= maxSteps {
			return state, fmt.Errorf("graph: aborted after %d steps at node %q", maxSteps, current)
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}

		fn, ok := g.nodes[current]
		if !ok {
			return state, fmt.Errorf("graph: unknown node %q", current)
		}

		slog.DebugContext(ctx, "graph node enter", "node", current)
		sc := logger.StartSpan(ctx, "graph.node."+current)
		delta, err := fn(sc.Context(), state)
		if err != nil {
			sc.RecordError(err)
			sc.End()
			return state, fmt.Errorf("node %s: %w", current, err)
		}
		sc.End()
		state = g.merge(state, delta)

		next, err := g.next(current, state)
		if err != nil {
			return state, err
		}
		slog.DebugContext(ctx, "graph edge taken", "from", current, "to", next)
		current = next
	}
	return state, nil
}

// next resolves the outgoing edge of from against the merged state.
func (g *Graph[S, D]) next(from string, state S) (string, error) {
	if cond, ok := g.conds[from]; ok {
		branch := cond.selector(state)
		to, ok := cond.branches[branch]
		if !ok {
			return "", fmt.Errorf("graph: node %q selected unknown branch %q", from, branch)
		}
		return to, nil
	}
	if to, ok := g.edges[from]; ok {
		return to, nil
	}
	return "", fmt.Errorf("graph: node %q has no outgoing edge", from)
}
