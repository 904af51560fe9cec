package retrieval_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tendercortex.app/cortex/internal/model"
	"tendercortex.app/cortex/internal/retrieval"
)

var _ = Describe("Memory backend", func() {
	var (
		ctx   context.Context
		store *retrieval.Memory
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = retrieval.NewMemory(1000, 200)
	})

	Describe("SimilaritySearch", func() {
		BeforeEach(func() {
			store.IndexText(ctx, "pliego.pdf", "Presupuesto oficial: USD 5,000,000. Anticipo del 30% y hitos por el 70% restante.")
			store.IndexText(ctx, "anexo.pdf", "Cronograma de fases: apertura de ofertas el 15/03/2026, adjudicación el 30/04/2026.")
		})

		It("returns an empty result on an empty index", func() {
			Expect(store.ClearIndex(ctx)).To(Succeed())
			docs, err := store.SimilaritySearch(ctx, "presupuesto", 8)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(BeEmpty())
		})

		It("ranks the lexically closest chunk first", func() {
			docs, err := store.SimilaritySearch(ctx, "¿Cuál es el presupuesto oficial y el anticipo?", 8)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).NotTo(BeEmpty())
			Expect(docs[0].Metadata.Source).To(Equal("pliego.pdf"))
			Expect(docs[0].Metadata.Score).To(BeNumerically(">", 0))
		})

		It("honors k", func() {
			docs, err := store.SimilaritySearch(ctx, "oficial cronograma presupuesto ofertas", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
		})

		It("carries source and page metadata", func() {
			docs, err := store.SimilaritySearch(ctx, "cronograma de fases", 8)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs[0].Metadata.Source).To(Equal("anexo.pdf"))
			Expect(docs[0].Metadata.Page).To(Equal(1))
		})
	})

	Describe("index bookkeeping", func() {
		It("lists ingested documents with chunk counts", func() {
			store.IndexText(ctx, "a.pdf", "uno")
			store.IndexText(ctx, "b.pdf", "dos")

			docs, err := store.IndexedDocuments(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(Equal([]model.IndexedDocument{
				{Name: "a.pdf", Chunks: 1},
				{Name: "b.pdf", Chunks: 1},
			}))
		})

		It("replaces chunks when the same filename is indexed again", func() {
			store.IndexText(ctx, "a.pdf", "contenido original")
			store.IndexText(ctx, "a.pdf", "contenido nuevo")

			docs, err := store.IndexedDocuments(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))

			hits, err := store.SimilaritySearch(ctx, "contenido original", 8)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits[0].Content).To(Equal("contenido nuevo"))
		})

		It("clears everything", func() {
			store.IndexText(ctx, "a.pdf", "uno")
			Expect(store.ClearIndex(ctx)).To(Succeed())

			docs, err := store.IndexedDocuments(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(BeEmpty())

			stats, err := store.Stats(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats["documents"]).To(Equal(0))
		})
	})
})
