package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/sglre6355/jukebot/internal/bot"
	"github.com/sglre6355/jukebot/internal/logging"
	"github.com/spf13/cobra"
)

// version is set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0" ./cmd/jukebot
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	root := &cobra.Command{
		Use:           "jukebot",
		Short:         "Discord music bot",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// A missing .env file is fine; the environment may already be set.
			_ = godotenv.Load()
			return setupLogging()
		},
		// Running without a subcommand starts the bot.
		RunE: serve.RunE,
	}

	root.AddCommand(serve, newResolveCmd())

	return root
}

func setupLogging() error {
	cfg, err := bot.LoadLogConfig()
	if err != nil {
		return fmt.Errorf("failed to load log config: %w", err)
	}

	handler, err := logging.NewHandler(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(handler))

	return nil
}
