package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/JosephMelesse/anki-vert/pkg/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:    "ankivert",
		Usage:   "Turn Q::/A:: markup in your notes into Anki flashcards",
		Version: version.Version,
		Commands: []*cli.Command{
			scanCommand(),
			syncCommand(),
			watchCommand(),
			versionCommand(),
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}
