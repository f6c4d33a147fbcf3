package anki_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/JosephMelesse/anki-vert/internal/anki"
	"github.com/JosephMelesse/anki-vert/internal/markup"
	"github.com/JosephMelesse/anki-vert/pkg/logger"
	"github.com/JosephMelesse/anki-vert/pkg/models"
)

func testCard(deck, relPath string, ordinal int, front, back string) models.Card {
	tag := markup.StableTag(relPath, ordinal, front)
	return models.Card{
		Deck:      deck,
		Front:     front,
		Back:      back,
		Tags:      []string{"sp26", tag},
		StableTag: tag,
		Source:    relPath,
		Ordinal:   ordinal,
	}
}

var _ = Describe("Syncer", func() {
	var (
		fake   *fakeAnki
		client *anki.Client
		log    *logger.Logger
		ctx    context.Context
		cards  []models.Card
	)

	BeforeEach(func() {
		fake = newFakeAnki()
		log = logger.New(logger.WithOutput(GinkgoWriter))
		client = anki.NewClient(log, anki.WithURL(fake.URL()))
		ctx = context.Background()

		cards = []models.Card{
			testCard("sp26::math250", "math250/week1.md", 1, "What is a limit?", "The value a function approaches."),
			testCard("sp26::phys202", "phys202/thermo.md", 1, "State the first law.", "Energy is conserved."),
		}
	})

	AfterEach(func() {
		fake.Close()
	})

	Context("on a first sync", func() {
		It("should create every deck and add every card", func() {
			syncer := anki.NewSyncer(client, log)

			report, err := syncer.Sync(ctx, cards)

			Expect(err).NotTo(HaveOccurred())
			Expect(report.Added).To(Equal(2))
			Expect(report.Updated).To(BeZero())
			Expect(report.Decks).To(Equal(2))
			Expect(fake.deckNames()).To(Equal([]string{"sp26::math250", "sp26::phys202"}))

			note, found := fake.noteByTag(cards[0].StableTag)
			Expect(found).To(BeTrue())
			Expect(note.Deck).To(Equal("sp26::math250"))
			Expect(note.Model).To(Equal("Basic"))
			Expect(note.Fields["Front"]).To(Equal("What is a limit?"))
			Expect(note.Fields["Back"]).To(Equal("The value a function approaches."))
		})
	})

	Context("on a repeated sync", func() {
		It("should update existing notes instead of adding duplicates", func() {
			syncer := anki.NewSyncer(client, log)

			_, err := syncer.Sync(ctx, cards)
			Expect(err).NotTo(HaveOccurred())

			report, err := syncer.Sync(ctx, cards)
			Expect(err).NotTo(HaveOccurred())

			Expect(report.Added).To(BeZero())
			Expect(report.Updated).To(Equal(2))
			Expect(fake.calls("addNote")).To(Equal(1 * len(cards)))
		})

		It("should push a changed answer into the existing note", func() {
			syncer := anki.NewSyncer(client, log)

			_, err := syncer.Sync(ctx, cards)
			Expect(err).NotTo(HaveOccurred())

			cards[0].Back = "A corrected answer."
			report, err := syncer.Sync(ctx, cards)
			Expect(err).NotTo(HaveOccurred())

			Expect(report.Added).To(BeZero())
			note, found := fake.noteByTag(cards[0].StableTag)
			Expect(found).To(BeTrue())
			Expect(note.Fields["Back"]).To(Equal("A corrected answer."))
			Expect(fake.calls("addNote")).To(Equal(len(cards)))
		})

		It("should re-assert tags on updated notes", func() {
			syncer := anki.NewSyncer(client, log)

			_, err := syncer.Sync(ctx, cards)
			Expect(err).NotTo(HaveOccurred())

			cards[0].Tags = append([]string{"exam_prep"}, cards[0].Tags...)
			_, err = syncer.Sync(ctx, cards)
			Expect(err).NotTo(HaveOccurred())

			note, found := fake.noteByTag(cards[0].StableTag)
			Expect(found).To(BeTrue())
			Expect(note.Tags).To(ContainElement("exam_prep"))
		})
	})

	Context("in dry run mode", func() {
		It("should make no requests at all", func() {
			syncer := anki.NewSyncer(client, log, anki.WithDryRun(true))

			report, err := syncer.Sync(ctx, cards)

			Expect(err).NotTo(HaveOccurred())
			Expect(report.DryRun).To(BeTrue())
			Expect(report.Added).To(Equal(2))
			Expect(report.Decks).To(Equal(2))
			Expect(fake.totalCalls()).To(BeZero())
		})
	})

	Context("when the remote fails mid-run", func() {
		It("should stop at the first error", func() {
			fake.failOn["addNote"] = "model was not found"
			syncer := anki.NewSyncer(client, log)

			report, err := syncer.Sync(ctx, cards)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("model was not found"))
			Expect(report.Added).To(BeZero())
			Expect(fake.calls("addNote")).To(Equal(1), "no further cards should be attempted after a failure")
		})

		It("should report a failed deck creation before touching notes", func() {
			fake.failOn["createDeck"] = "collection is not available"
			syncer := anki.NewSyncer(client, log)

			_, err := syncer.Sync(ctx, cards)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to create deck"))
			Expect(fake.calls("findNotes")).To(BeZero())
		})
	})

	Context("when verifying the note type", func() {
		It("should accept a model the collection has", func() {
			syncer := anki.NewSyncer(client, log)

			Expect(syncer.VerifyModel(ctx)).To(Succeed())
		})

		It("should reject a model the collection lacks", func() {
			syncer := anki.NewSyncer(client, log, anki.WithModelName("NoSuchModel"))

			err := syncer.VerifyModel(ctx)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("NoSuchModel"))
		})
	})

	Context("with a field renderer", func() {
		It("should send rendered HTML instead of raw text", func() {
			cards[1].Back = "**Energy** is conserved."
			syncer := anki.NewSyncer(client, log, anki.WithRenderer(anki.NewFieldRenderer()))

			_, err := syncer.Sync(ctx, cards)
			Expect(err).NotTo(HaveOccurred())

			note, found := fake.noteByTag(cards[1].StableTag)
			Expect(found).To(BeTrue())
			Expect(note.Fields["Back"]).To(ContainSubstring("<strong>Energy</strong>"))
		})
	})

	Context("with no cards", func() {
		It("should do nothing", func() {
			syncer := anki.NewSyncer(client, log)

			report, err := syncer.Sync(ctx, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(report.Cards).To(BeZero())
			Expect(fake.totalCalls()).To(BeZero())
		})
	})
})
