package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sglre6355/jukebot/internal/bot"
	_ "github.com/sglre6355/jukebot/internal/modules/music_player"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and serve music commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve()
		},
	}
}

func serve() error {
	slog.Info("starting jukebot", "version", version)

	// Load configuration
	cfg, err := bot.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return err
	}

	// Create and configure bot
	b := bot.NewBot(cfg)
	b.LoadModules()

	// Start bot
	if err := b.Start(); err != nil {
		slog.Error("failed to start bot", "error", err)
		if stopErr := b.Stop(); stopErr != nil {
			slog.Warn("failed to clean up after start failure", "error", stopErr)
		}
		return err
	}

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("received termination signal, shutting down")
	if err := b.Stop(); err != nil {
		slog.Error("failed to shutdown", "error", err)
		return fmt.Errorf("failed to shutdown: %w", err)
	}

	slog.Info("completed bot shutdown")

	return nil
}
