package brain_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tendercortex.app/cortex/internal/brain"
	"tendercortex.app/cortex/internal/model"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

var _ = Describe("AgentState", func() {
	Describe("Merge", func() {
		It("overwrites only the fields the delta sets", func() {
			state := brain.AgentState{
				TraceID:  "abcd1234",
				Question: "¿Cuál es el plazo?",
				Domain:   "timeline",
				Answer:   "respuesta original",
			}

			merged := brain.Merge(state, brain.Delta{Answer: strPtr("respuesta nueva")})
			Expect(merged.Answer).To(Equal("respuesta nueva"))
			Expect(merged.Domain).To(Equal("timeline"))
			Expect(merged.TraceID).To(Equal("abcd1234"))
			Expect(merged.Question).To(Equal("¿Cuál es el plazo?"))
		})

		It("lets the last writer win across successive deltas", func() {
			state := brain.AgentState{}
			state = brain.Merge(state, brain.Delta{Domain: strPtr("legal"), RevisionCount: intPtr(0)})
			state = brain.Merge(state, brain.Delta{Domain: strPtr("financial")})
			Expect(state.Domain).To(Equal("financial"))
			Expect(state.RevisionCount).To(Equal(0))
		})

		It("can set a field to its zero value explicitly", func() {
			state := brain.AgentState{Answer: "algo"}
			merged := brain.Merge(state, brain.Delta{Answer: strPtr("")})
			Expect(merged.Answer).To(BeEmpty())
		})

		It("does not mutate the input state", func() {
			state := brain.AgentState{Answer: "antes"}
			_ = brain.Merge(state, brain.Delta{Answer: strPtr("después")})
			Expect(state.Answer).To(Equal("antes"))
		})
	})

	Describe("NewInitialState", func() {
		It("assigns an 8-char hex trace id and the question", func() {
			state := brain.NewInitialState("¿presupuesto?")
			Expect(state.TraceID).To(MatchRegexp(`^[0-9a-f]{8}$`))
			Expect(state.Question).To(Equal("¿presupuesto?"))
			Expect(state.RevisionCount).To(Equal(0))
		})

		It("generates distinct trace ids per request", func() {
			a := brain.NewInitialState("q")
			b := brain.NewInitialState("q")
			Expect(a.TraceID).NotTo(Equal(b.TraceID))
		})
	})

	Describe("Docs", func() {
		docA := model.Document{Content: "a"}
		docB := model.Document{Content: "b"}

		It("prefers the filtered context when present", func() {
			state := brain.AgentState{
				Context:         []model.Document{docA, docB},
				FilteredContext: []model.Document{docB},
			}
			Expect(brain.Docs(state)).To(Equal([]model.Document{docB}))
		})

		It("falls back to the full context", func() {
			state := brain.AgentState{Context: []model.Document{docA}}
			Expect(brain.Docs(state)).To(Equal([]model.Document{docA}))
		})
	})
})
