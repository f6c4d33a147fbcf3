package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/JosephMelesse/anki-vert/internal/config"
	"github.com/JosephMelesse/anki-vert/internal/watch"
	"github.com/JosephMelesse/anki-vert/pkg/logger"
	"github.com/JosephMelesse/anki-vert/pkg/models"
	"github.com/JosephMelesse/anki-vert/pkg/updater"
	"github.com/JosephMelesse/anki-vert/pkg/version"
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to config file",
			Value:   config.DefaultFileName,
			Sources: cli.EnvVars("ANKIVERT_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "vault",
			Usage:   "vault root directory (overrides config)",
			Sources: cli.EnvVars("ANKIVERT_VAULT"),
		},
		&cli.StringSliceFlag{
			Name:  "courses",
			Usage: "course subdirectories to include (default: every visible subdirectory)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "enable verbose logging",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug mode with trace logging",
		},
	}
}

func syncFlags() []cli.Flag {
	return append(commonFlags(),
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "log intended actions without contacting Anki",
		},
		&cli.StringFlag{
			Name:  "deck-root",
			Usage: "parent deck name (default: vault directory name)",
		},
	)
}

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Parse the vault and list the cards that would be synced",
		Flags: append(commonFlags(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the cards as JSON",
			},
		),
		Action: scanAction,
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:   "sync",
		Usage:  "Push the vault's cards into Anki",
		Flags:  syncFlags(),
		Action: syncAction,
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:   "watch",
		Usage:  "Keep syncing as note files change",
		Flags:  syncFlags(),
		Action: watchAction,
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "check",
				Usage: "check GitHub for a newer release",
			},
		},
		Action: versionAction,
	}
}

func scanAction(ctx context.Context, cmd *cli.Command) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}

	courses, err := p.courses()
	if err != nil {
		return err
	}

	cards, files, err := p.collect(ctx, courses)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if cards == nil {
			cards = []models.Card{}
		}
		out, err := json.MarshalIndent(cards, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode cards: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	printScan(cards, files)
	return nil
}

func printScan(cards []models.Card, files int) {
	counts := make(map[string]int, len(cards))
	for _, card := range cards {
		counts[card.Source]++
	}

	lastSource := ""
	for _, card := range cards {
		if card.Source != lastSource {
			lastSource = card.Source
			fmt.Printf("\n%s :: %s -> %d card(s)\n",
				deckStyle.Render(card.Deck), card.Source, counts[card.Source])
		}
		fmt.Printf("  - %.70q  %s\n", card.Front, tagStyle.Render("["+card.StableTag+"]"))
	}

	fmt.Println()
	fmt.Println(totalStyle.Render(fmt.Sprintf("Total: %d card(s) in %d file(s)", len(cards), files)))
}

func syncAction(ctx context.Context, cmd *cli.Command) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}

	courses, err := p.courses()
	if err != nil {
		return err
	}

	cards, files, err := p.collect(ctx, courses)
	if err != nil {
		return err
	}

	dryRun := cmd.Bool("dry-run")
	client, syncer := p.newSyncer(dryRun)

	if !dryRun {
		p.log.Debug("Checking Anki connection...")
		if err := client.CheckConnection(ctx); err != nil {
			return err
		}
		p.log.Info("Successfully connected to Anki")

		if err := syncer.VerifyModel(ctx); err != nil {
			return err
		}
	}

	report, err := syncer.Sync(ctx, cards)
	if err != nil {
		return err
	}

	report.Files = files
	report.Print(p.log)
	return nil
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}

	courses, err := p.courses()
	if err != nil {
		return err
	}

	dryRun := cmd.Bool("dry-run")
	client, syncer := p.newSyncer(dryRun)

	if !dryRun {
		if err := client.CheckConnection(ctx); err != nil {
			return err
		}
		if err := syncer.VerifyModel(ctx); err != nil {
			return err
		}
	}

	syncCourses := func(selected []string) {
		cards, files, err := p.collect(ctx, selected)
		if err != nil {
			p.log.Warn("scan failed: %v", err)
			return
		}

		report, err := syncer.Sync(ctx, cards)
		if err != nil {
			p.log.Warn("sync failed: %v", err)
			return
		}

		report.Files = files
		report.Print(p.log)
	}

	// Full pass up front so the vault and Anki start out in agreement.
	syncCourses(courses)

	return watch.New(p.log, p.cfg.Watch.Debounce.Std()).
		Watch(ctx, p.cfg.Vault.Path, courses, syncCourses)
}

func versionAction(ctx context.Context, cmd *cli.Command) error {
	fmt.Print(version.GetDetailedVersionInfo())

	if !cmd.Bool("check") {
		return nil
	}

	log := logger.New(logger.WithPrefix("[ankivert] "))
	info, err := updater.NewChecker(log).CheckForUpdates()
	if err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}
	if info == nil {
		return nil
	}

	if info.IsAvailable {
		fmt.Println(updateStyle.Render(
			fmt.Sprintf("Update available: %s -> %s", info.CurrentVersion, info.LatestVersion)))
		fmt.Println("Get it at: " + info.ReleaseURL)
	} else {
		fmt.Println("You are on the latest version.")
	}

	return nil
}
