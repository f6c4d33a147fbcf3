package anki

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/JosephMelesse/anki-vert/pkg/logger"
	"github.com/JosephMelesse/anki-vert/pkg/models"
)

// Syncer pushes extracted cards into Anki. Each card is looked up by its
// stable identity tag: unknown tags become new notes, known tags get their
// fields rewritten. A remote failure stops the run immediately so a partial
// sync is never silently reported as complete.
type Syncer struct {
	client    *Client
	renderer  *FieldRenderer
	logger    *logger.Logger
	modelName string
	dryRun    bool
}

type SyncerOption func(*Syncer)

// WithModelName overrides the note type used for new notes.
func WithModelName(name string) SyncerOption {
	return func(s *Syncer) {
		s.modelName = name
	}
}

// WithDryRun makes Sync report what it would do without touching Anki.
func WithDryRun(dryRun bool) SyncerOption {
	return func(s *Syncer) {
		s.dryRun = dryRun
	}
}

// WithRenderer renders card fields through the given renderer before they
// are sent. Without one, fields are sent as plain text.
func WithRenderer(renderer *FieldRenderer) SyncerOption {
	return func(s *Syncer) {
		s.renderer = renderer
	}
}

func NewSyncer(client *Client, log *logger.Logger, opts ...SyncerOption) *Syncer {
	syncer := &Syncer{
		client:    client,
		logger:    log,
		modelName: DefaultModelName,
	}

	for _, opt := range opts {
		opt(syncer)
	}

	return syncer
}

// VerifyModel checks that the configured note type exists in the collection.
func (s *Syncer) VerifyModel(ctx context.Context) error {
	names, err := s.client.ModelNames(ctx)
	if err != nil {
		return err
	}

	for _, name := range names {
		if name == s.modelName {
			return nil
		}
	}

	return fmt.Errorf("note type %q does not exist in Anki; create it or configure a different model", s.modelName)
}

// Sync ensures every deck exists, then adds or updates one note per card.
// The returned report counts what happened up to the first error. In dry-run
// mode no requests are made at all.
func (s *Syncer) Sync(ctx context.Context, cards []models.Card) (*Report, error) {
	report := &Report{DryRun: s.dryRun, Cards: len(cards), StartTime: time.Now()}
	defer func() {
		report.EndTime = time.Now()
	}()

	decks := uniqueDecks(cards)
	report.Decks = len(decks)

	for _, deck := range decks {
		if s.dryRun {
			s.logger.Info("[dry-run] createDeck -> %s", deck)
			continue
		}
		if err := s.client.CreateDeck(ctx, deck); err != nil {
			return report, fmt.Errorf("failed to create deck %q: %w", deck, err)
		}
	}

	for _, card := range cards {
		if err := s.syncCard(ctx, card, report); err != nil {
			return report, err
		}
	}

	return report, nil
}

func (s *Syncer) syncCard(ctx context.Context, card models.Card, report *Report) error {
	fields, err := s.fields(card)
	if err != nil {
		return err
	}

	if s.dryRun {
		s.logger.Info("[dry-run] addNote -> %s [%s] %.60q", card.Deck, card.StableTag, card.Front)
		report.Added++
		return nil
	}

	noteID, err := s.client.FindNoteByTag(ctx, card.StableTag)
	if err != nil {
		return err
	}

	if noteID == 0 {
		newID, err := s.client.AddNote(ctx, Note{
			DeckName:  card.Deck,
			ModelName: s.modelName,
			Fields:    fields,
			Options: map[string]interface{}{
				"allowDuplicate": true,
			},
			Tags: card.Tags,
		})
		if err != nil {
			return err
		}

		s.logger.Info("[add] note_id=%d deck=%s tag=%s", newID, card.Deck, card.StableTag)
		report.Added++
		return nil
	}

	if err := s.client.UpdateNoteFields(ctx, noteID, fields); err != nil {
		return err
	}

	// Re-assert tags so renames in the notes propagate to existing cards.
	if err := s.client.AddTags(ctx, []int64{noteID}, card.Tags); err != nil {
		return err
	}

	s.logger.Info("[upd] note_id=%d deck=%s tag=%s", noteID, card.Deck, card.StableTag)
	report.Updated++
	return nil
}

func (s *Syncer) fields(card models.Card) (map[string]string, error) {
	front, back := card.Front, card.Back

	if s.renderer != nil {
		var err error
		if front, err = s.renderer.Render(front); err != nil {
			return nil, fmt.Errorf("card %s: %w", card.StableTag, err)
		}
		if back, err = s.renderer.Render(back); err != nil {
			return nil, fmt.Errorf("card %s: %w", card.StableTag, err)
		}
	}

	return map[string]string{
		fieldFront: front,
		fieldBack:  back,
	}, nil
}

func uniqueDecks(cards []models.Card) []string {
	seen := make(map[string]struct{}, len(cards))
	var decks []string

	for _, card := range cards {
		if _, ok := seen[card.Deck]; ok {
			continue
		}
		seen[card.Deck] = struct{}{}
		decks = append(decks, card.Deck)
	}

	sort.Strings(decks)
	return decks
}
