package graph_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"tendercortex.app/cortex/internal/graph"
)

// testState is a counter plus a trail of visited node names.
type testState struct {
	Count int
	Trail []string
}

// testDelta mirrors the node-delta convention: nil fields mean "unchanged".
type testDelta struct {
	Add   int
	Visit string
}

func merge(s testState, d testDelta) testState {
	s.Count += d.Add
	if d.Visit != "" {
		s.Trail = append(s.Trail, d.Visit)
	}
	return s
}

func visit(name string, add int) graph.NodeFunc[testState, testDelta] {
	return func(ctx context.Context, s testState) (testDelta, error) {
		return testDelta{Add: add, Visit: name}, nil
	}
}

var _ = Describe("Graph", func() {
	var g *graph.Graph[testState, testDelta]

	BeforeEach(func() {
		g = graph.New(merge)
	})

	It("runs a linear chain in wiring order", func() {
		g.AddNode("a", visit("a", 1))
		g.AddNode("b", visit("b", 10))
		g.AddEdge(graph.Start, "a")
		g.AddEdge("a", "b")
		g.AddEdge("b", graph.End)
		Expect(g.Compile()).To(Succeed())

		final, err := g.Run(context.Background(), testState{})
		Expect(err).NotTo(HaveOccurred())
		Expect(final.Trail).To(Equal([]string{"a", "b"}))
		Expect(final.Count).To(Equal(11))
	})

	It("merges a node's delta before its selector runs", func() {
		g.AddNode("a", visit("a", 5))
		g.AddNode("big", visit("big", 0))
		g.AddNode("small", visit("small", 0))
		g.AddEdge(graph.Start, "a")
		g.AddConditionalEdges("a", func(s testState) string {
			if s.Count >= 5 {
				return "big"
			}
			return "small"
		}, map[string]string{"big": "big", "small": "small"})
		g.AddEdge("big", graph.End)
		g.AddEdge("small", graph.End)
		Expect(g.Compile()).To(Succeed())

		final, err := g.Run(context.Background(), testState{})
		Expect(err).NotTo(HaveOccurred())
		Expect(final.Trail).To(Equal([]string{"a", "big"}))
	})

	It("follows a bounded loop until the selector exits", func() {
		g.AddNode("loop", visit("loop", 1))
		g.AddEdge(graph.Start, "loop")
		g.AddConditionalEdges("loop", func(s testState) string {
			if s.Count < 3 {
				return "again"
			}
			return "done"
		}, map[string]string{"again": "loop", "done": graph.End})
		Expect(g.Compile()).To(Succeed())

		final, err := g.Run(context.Background(), testState{})
		Expect(err).NotTo(HaveOccurred())
		Expect(final.Count).To(Equal(3))
		Expect(final.Trail).To(HaveLen(3))
	})

	It("aborts an unbounded loop at the step limit", func() {
		g.AddNode("loop", visit("loop", 1))
		g.AddEdge(graph.Start, "loop")
		g.AddEdge("loop", "loop")
		Expect(g.Compile()).To(Succeed())

		_, err := g.Run(context.Background(), testState{})
		Expect(err).To(MatchError(ContainSubstring("aborted after")))
	})

	It("surfaces node errors with the node name and keeps prior state", func() {
		boom := errors.New("llm unavailable")
		g.AddNode("a", visit("a", 1))
		g.AddNode("b", func(ctx context.Context, s testState) (testDelta, error) {
			return testDelta{Add: 99}, boom
		})
		g.AddEdge(graph.Start, "a")
		g.AddEdge("a", "b")
		g.AddEdge("b", graph.End)
		Expect(g.Compile()).To(Succeed())

		final, err := g.Run(context.Background(), testState{})
		Expect(err).To(MatchError(ContainSubstring("node b:")))
		Expect(errors.Is(err, boom)).To(BeTrue())
		// The failing node's delta is discarded.
		Expect(final.Count).To(Equal(1))
		Expect(final.Trail).To(Equal([]string{"a"}))
	})

	It("stops on context cancellation before running the next node", func() {
		ctx, cancel := context.WithCancel(context.Background())
		g.AddNode("a", func(c context.Context, s testState) (testDelta, error) {
			cancel()
			return testDelta{Visit: "a"}, nil
		})
		g.AddNode("b", visit("b", 0))
		g.AddEdge(graph.Start, "a")
		g.AddEdge("a", "b")
		g.AddEdge("b", graph.End)
		Expect(g.Compile()).To(Succeed())

		final, err := g.Run(ctx, testState{})
		Expect(err).To(MatchError(context.Canceled))
		Expect(final.Trail).To(Equal([]string{"a"}))
	})

	It("errors when a selector picks an unwired branch", func() {
		g.AddNode("a", visit("a", 0))
		g.AddEdge(graph.Start, "a")
		g.AddConditionalEdges("a", func(s testState) string {
			return "missing"
		}, map[string]string{"known": graph.End})
		Expect(g.Compile()).To(Succeed())

		_, err := g.Run(context.Background(), testState{})
		Expect(err).To(MatchError(ContainSubstring(`unknown branch "missing"`)))
	})

	Describe("tracing", func() {
		var exporter *tracetest.InMemoryExporter

		BeforeEach(func() {
			exporter = tracetest.NewInMemoryExporter()
			previous := otel.GetTracerProvider()
			otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter)))
			DeferCleanup(func() { otel.SetTracerProvider(previous) })
		})

		It("emits one span per executed node", func() {
			g.AddNode("a", visit("a", 1))
			g.AddNode("b", visit("b", 10))
			g.AddEdge(graph.Start, "a")
			g.AddEdge("a", "b")
			g.AddEdge("b", graph.End)
			Expect(g.Compile()).To(Succeed())

			_, err := g.Run(context.Background(), testState{})
			Expect(err).NotTo(HaveOccurred())

			spans := exporter.GetSpans()
			names := make([]string, 0, len(spans))
			for _, span := range spans {
				names = append(names, span.Name)
			}
			Expect(names).To(Equal([]string{"graph.node.a", "graph.node.b"}))
		})

		It("records a node failure on its span", func() {
			g.AddNode("boom", func(ctx context.Context, s testState) (testDelta, error) {
				return testDelta{}, errors.New("llm unavailable")
			})
			g.AddEdge(graph.Start, "boom")
			g.AddEdge("boom", graph.End)
			Expect(g.Compile()).To(Succeed())

			_, err := g.Run(context.Background(), testState{})
			Expect(err).To(HaveOccurred())

			spans := exporter.GetSpans()
			Expect(spans).To(HaveLen(1))
			Expect(spans[0].Name).To(Equal("graph.node.boom"))
			Expect(spans[0].Events).NotTo(BeEmpty())
			Expect(spans[0].Events[0].Name).To(Equal("exception"))
		})
	})

	Describe("Compile", func() {
		It("rejects a graph without an entry edge", func() {
			g.AddNode("a", visit("a", 0))
			g.AddEdge("a", graph.End)
			Expect(g.Compile()).To(MatchError(ContainSubstring("no entry edge")))
		})

		It("rejects edges to unknown nodes", func() {
			g.AddNode("a", visit("a", 0))
			g.AddEdge(graph.Start, "a")
			g.AddEdge("a", "ghost")
			Expect(g.Compile()).To(MatchError(ContainSubstring(`unknown node "ghost"`)))
		})

		It("rejects nodes without an outgoing edge", func() {
			g.AddNode("a", visit("a", 0))
			g.AddNode("b", visit("b", 0))
			g.AddEdge(graph.Start, "a")
			g.AddEdge("a", "b")
			Expect(g.Compile()).To(MatchError(ContainSubstring(`node "b" has no outgoing edge`)))
		})

		It("rejects branch targets that are unknown nodes", func() {
			g.AddNode("a", visit("a", 0))
			g.AddEdge(graph.Start, "a")
			g.AddConditionalEdges("a", func(s testState) string { return "x" },
				map[string]string{"x": "ghost"})
			Expect(g.Compile()).To(MatchError(ContainSubstring(`unknown node "ghost"`)))
		})
	})
})
