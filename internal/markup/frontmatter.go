package markup

import (
	"bytes"

	"github.com/adrg/frontmatter"
)

// Frontmatter is the subset of note metadata the extractor acts on. Other
// keys are ignored.
type Frontmatter struct {
	Tags       []string `yaml:"tags"`
	Deck       string   `yaml:"deck"`
	Flashcards *bool    `yaml:"flashcards"`
}

// Enabled reports whether the file participates in card extraction.
// Frontmatter can opt a file out with "flashcards: false".
func (f Frontmatter) Enabled() bool {
	return f.Flashcards == nil || *f.Flashcards
}

// SplitFrontmatter separates a leading frontmatter block from the note
// body. Malformed frontmatter is not an error: the whole content is treated
// as body and extraction proceeds without metadata.
func SplitFrontmatter(content []byte) (Frontmatter, []byte) {
	var meta Frontmatter
	body, err := frontmatter.Parse(bytes.NewReader(content), &meta)
	if err != nil {
		return Frontmatter{}, content
	}
	return meta, body
}
