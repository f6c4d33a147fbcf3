package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/JosephMelesse/anki-vert/internal/anki"
	"github.com/JosephMelesse/anki-vert/internal/config"
	"github.com/JosephMelesse/anki-vert/internal/markup"
	"github.com/JosephMelesse/anki-vert/internal/vault"
	"github.com/JosephMelesse/anki-vert/pkg/logger"
	"github.com/JosephMelesse/anki-vert/pkg/models"
)

// pipeline bundles what every command needs: the validated configuration
// with flag overrides applied, and a configured logger.
type pipeline struct {
	cfg *config.Config
	log *logger.Logger
}

func newPipeline(cmd *cli.Command) (*pipeline, error) {
	log := logger.New(logger.WithPrefix("[ankivert] "))
	log.SetVerbose(cmd.Bool("verbose"))
	if cmd.Bool("debug") {
		log.SetLevel(logger.LevelTrace)
	}

	cfg := config.Default()

	path := cmd.String("config")
	if err := config.Load(path, cfg); err != nil {
		// An explicit --config must load; the probed default may be absent.
		if cmd.IsSet("config") || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		log.Debug("no config file at %s, using defaults", path)
	}

	if v := cmd.String("vault"); v != "" {
		cfg.Vault.Path = v
	}
	if courses := cmd.StringSlice("courses"); len(courses) > 0 {
		cfg.Vault.Courses = courses
	}
	if root := cmd.String("deck-root"); root != "" {
		cfg.Anki.RootDeck = root
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.Vault.Path = config.ExpandPath(cfg.Vault.Path)
	if abs, err := filepath.Abs(cfg.Vault.Path); err == nil {
		cfg.Vault.Path = abs
	}
	if _, err := os.Stat(cfg.Vault.Path); err != nil {
		return nil, fmt.Errorf("vault path not found: %s", cfg.Vault.Path)
	}

	return &pipeline{cfg: cfg, log: log}, nil
}

// deckParent is the segment every deck name starts with.
func (p *pipeline) deckParent() string {
	if p.cfg.Anki.RootDeck != "" {
		return p.cfg.Anki.RootDeck
	}
	return filepath.Base(p.cfg.Vault.Path)
}

// courses resolves the course list, falling back to every visible vault
// subdirectory when the config and flags leave it empty.
func (p *pipeline) courses() ([]string, error) {
	if len(p.cfg.Vault.Courses) > 0 {
		return p.cfg.Vault.Courses, nil
	}
	return vault.New(p.log).Courses(p.cfg.Vault.Path)
}

// collect walks the given courses and extracts every card, returning the
// cards and the number of note files they came from.
func (p *pipeline) collect(ctx context.Context, courses []string) ([]models.Card, int, error) {
	files, err := vault.New(p.log).FindNotes(ctx, p.cfg.Vault.Path, courses)
	if err != nil {
		return nil, 0, err
	}

	parent := p.deckParent()
	vaultBase := filepath.Base(p.cfg.Vault.Path)

	var cards []models.Card
	for _, file := range files {
		content, err := os.ReadFile(file.AbsolutePath)
		if err != nil {
			p.log.Warn("skipping unreadable file %s: %v", file.RelativePath, err)
			continue
		}

		fileCards := markup.Extract(file.RelativePath, content, markup.ExtractOptions{
			Deck:       models.DeckName(parent, file.Course),
			DeckParent: parent,
			BaseTags:   append([]string{file.Course, vaultBase}, p.cfg.Anki.ExtraTags...),
		})
		cards = append(cards, fileCards...)
	}

	return cards, len(files), nil
}

// newSyncer builds the AnkiConnect client and sync engine from config.
func (p *pipeline) newSyncer(dryRun bool) (*anki.Client, *anki.Syncer) {
	client := anki.NewClient(p.log,
		anki.WithURL(p.cfg.Anki.URL),
		anki.WithTimeout(p.cfg.Anki.Timeout.Std()),
	)

	opts := []anki.SyncerOption{
		anki.WithModelName(p.cfg.Anki.Model),
		anki.WithDryRun(dryRun),
	}
	if p.cfg.Anki.RenderHTML {
		opts = append(opts, anki.WithRenderer(anki.NewFieldRenderer()))
	}

	return client, anki.NewSyncer(client, p.log, opts...)
}
