package models

import (
	"strings"
)

// DeckSeparator nests decks in Anki ("parent::child").
const DeckSeparator = "::"

// Card is one question/answer pair extracted from a note file. StableTag
// identifies the remote note across runs; Source and Ordinal record where
// the card came from.
type Card struct {
	Deck      string   `json:"deck"`
	Front     string   `json:"front"`
	Back      string   `json:"back"`
	Tags      []string `json:"tags"`
	StableTag string   `json:"stable_tag"`
	Source    string   `json:"source"`
	Ordinal   int      `json:"ordinal"`
}

// NoteFile is a Markdown file found during a vault walk. RelativePath is
// relative to the vault root and always includes the course segment.
type NoteFile struct {
	Course       string `json:"course"`
	AbsolutePath string `json:"absolute_path"`
	RelativePath string `json:"relative_path"`
}

// DeckName joins the non-empty segments with Anki's deck separator.
func DeckName(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, DeckSeparator)
}

// SanitizeTag makes a string usable in Anki's space-delimited tag list.
func SanitizeTag(tag string) string {
	return strings.ReplaceAll(strings.TrimSpace(tag), " ", "_")
}

// SanitizeTags sanitizes every tag and drops the ones that end up empty.
func SanitizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if s := SanitizeTag(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}
