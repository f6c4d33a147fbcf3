// Package markup extracts flashcards from the Q::/A:: note markup.
//
// The scan is a single forward pass over the lines of one file: a "Q::"
// line starts a card, a following "A::" line starts its answer, and the
// answer runs until the next "Q::" or end of input. Cards without an
// answer are dropped silently.
package markup

import (
	"path/filepath"
	"strings"

	"github.com/JosephMelesse/anki-vert/pkg/models"
)

const (
	questionMarker = "Q::"
	answerMarker   = "A::"
)

// ExtractOptions carries the per-file context the line scan cannot derive
// from the content itself.
type ExtractOptions struct {
	// Deck receives the file's cards unless frontmatter overrides it.
	Deck string
	// DeckParent is the parent segment kept in front of a frontmatter
	// deck override.
	DeckParent string
	// BaseTags are applied to every card, before frontmatter tags and the
	// stable identity tag.
	BaseTags []string
}

type pendingCard struct {
	question string
	ordinal  int
	answer   []string
	inAnswer bool
}

func (p *pendingCard) build(relPath, deck string, tags []string) (models.Card, bool) {
	front := p.question
	back := strings.TrimSpace(strings.Join(p.answer, "\n"))
	if front == "" || back == "" {
		return models.Card{}, false
	}

	tag := StableTag(relPath, p.ordinal, front)

	cardTags := make([]string, 0, len(tags)+1)
	cardTags = append(cardTags, tags...)
	cardTags = append(cardTags, tag)

	return models.Card{
		Deck:      deck,
		Front:     front,
		Back:      back,
		Tags:      cardTags,
		StableTag: tag,
		Source:    filepath.ToSlash(relPath),
		Ordinal:   p.ordinal,
	}, true
}

// Extract scans one note file for cards. relPath must be the vault-relative
// path of the file; it feeds the stable identity tags.
//
// Every question marker consumes an ordinal, including markers whose cards
// are later dropped, so identity never shifts when an unanswered question
// sits between answered ones.
func Extract(relPath string, content []byte, opts ExtractOptions) []models.Card {
	meta, body := SplitFrontmatter(content)
	if !meta.Enabled() {
		return nil
	}

	deck := opts.Deck
	if meta.Deck != "" {
		deck = models.DeckName(opts.DeckParent, meta.Deck)
	}

	tags := mergeTags(opts.BaseTags, meta.Tags)

	var (
		cards   []models.Card
		pending *pendingCard
		ordinal int
	)

	flush := func() {
		if pending == nil {
			return
		}
		if card, ok := pending.build(relPath, deck, tags); ok {
			cards = append(cards, card)
		}
		pending = nil
	}

	for _, raw := range strings.Split(string(body), "\n") {
		line := strings.TrimSuffix(raw, "\r")

		if strings.HasPrefix(line, questionMarker) {
			flush()
			ordinal++
			pending = &pendingCard{
				question: strings.TrimSpace(line[len(questionMarker):]),
				ordinal:  ordinal,
			}
			continue
		}

		if pending == nil {
			continue
		}

		if strings.HasPrefix(line, answerMarker) {
			pending.inAnswer = true
			if rest := strings.TrimSpace(line[len(answerMarker):]); rest != "" {
				pending.answer = append(pending.answer, rest)
			}
			continue
		}

		if pending.inAnswer {
			pending.answer = append(pending.answer, line)
		}
	}
	flush()

	return cards
}

// mergeTags sanitizes and deduplicates base then extra tags, preserving
// first-seen order.
func mergeTags(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	var out []string

	for _, t := range append(append([]string{}, base...), extra...) {
		s := models.SanitizeTag(t)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out
}
