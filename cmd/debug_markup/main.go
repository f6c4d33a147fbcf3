package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JosephMelesse/anki-vert/internal/markup"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: debug_markup notes.md")
		os.Exit(1)
	}

	path := os.Args[1]
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}

	meta, body := markup.SplitFrontmatter(content)
	fmt.Printf("\nFrontmatter:\n")
	fmt.Printf("  tags:       %v\n", meta.Tags)
	fmt.Printf("  deck:       %q\n", meta.Deck)
	fmt.Printf("  flashcards: %s (enabled: %v)\n", flashcardsValue(meta), meta.Enabled())

	fmt.Printf("\nMarker lines (numbered within the body):\n")
	for i, raw := range strings.Split(string(body), "\n") {
		line := strings.TrimSuffix(raw, "\r")
		switch {
		case strings.HasPrefix(line, "Q::"):
			fmt.Printf("  %4d  Q  %s\n", i+1, line)
		case strings.HasPrefix(line, "A::"):
			fmt.Printf("  %4d  A  %s\n", i+1, line)
		}
	}

	cards := markup.Extract(filepath.Base(path), content, markup.ExtractOptions{
		Deck: "debug",
	})

	fmt.Printf("\nExtracted %d card(s):\n", len(cards))
	for _, card := range cards {
		fmt.Printf("\n[%d] %s\n", card.Ordinal, card.StableTag)
		fmt.Printf("  Q: %s\n", card.Front)
		for _, line := range strings.Split(card.Back, "\n") {
			fmt.Printf("  A: %s\n", line)
		}
		fmt.Printf("  tags: %v\n", card.Tags)
	}
}

func flashcardsValue(meta markup.Frontmatter) string {
	if meta.Flashcards == nil {
		return "unset"
	}
	return fmt.Sprintf("%v", *meta.Flashcards)
}
