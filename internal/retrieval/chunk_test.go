package retrieval_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tendercortex.app/cortex/internal/retrieval"
)

var _ = Describe("SplitText", func() {
	It("returns short text as a single chunk", func() {
		Expect(retrieval.SplitText("hola mundo", 100, 20)).To(Equal([]string{"hola mundo"}))
	})

	It("returns nil for empty text", func() {
		Expect(retrieval.SplitText("", 100, 20)).To(BeNil())
	})

	It("produces overlapping windows", func() {
		text := strings.Repeat("abcdefghij", 10) // 100 runes
		chunks := retrieval.SplitText(text, 40, 10)

		Expect(len(chunks)).To(BeNumerically(">", 1))
		for i := 1; i < len(chunks); i++ {
			// The last 10 runes of each window reappear at the start of the next.
			prev := chunks[i-1]
			Expect(chunks[i]).To(HavePrefix(prev[len(prev)-10:]))
		}
	})

	It("covers the whole text", func() {
		text := strings.Repeat("x", 95)
		chunks := retrieval.SplitText(text, 40, 10)
		last := chunks[len(chunks)-1]
		Expect(strings.HasSuffix(text, last)).To(BeTrue())
	})

	It("counts runes, not bytes", func() {
		text := strings.Repeat("ñ", 50)
		chunks := retrieval.SplitText(text, 50, 0)
		Expect(chunks).To(HaveLen(1))
	})
})

var _ = Describe("ChunkPages", func() {
	It("preserves page numbers in ascending order", func() {
		pages := map[int]string{
			3: "tercera página",
			1: "primera página",
			2: "segunda página",
		}
		chunks := retrieval.ChunkPages(pages, 1000, 200)

		Expect(chunks).To(HaveLen(3))
		Expect(chunks[0].Page).To(Equal(1))
		Expect(chunks[1].Page).To(Equal(2))
		Expect(chunks[2].Page).To(Equal(3))
	})

	It("assigns a unique id to every chunk", func() {
		pages := map[int]string{1: strings.Repeat("presupuesto oficial ", 100)}
		chunks := retrieval.ChunkPages(pages, 200, 50)

		seen := map[string]bool{}
		for _, c := range chunks {
			Expect(c.ID).NotTo(BeEmpty())
			Expect(seen[c.ID]).To(BeFalse())
			seen[c.ID] = true
		}
	})
})
