package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sglre6355/jukebot/internal/modules/music_player"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/usecases"
	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <query...>",
		Short: "Print the watch URL /play would choose for a query",
		Long: `Resolve a free-text query with the configured search provider and print
the chosen watch URL. URLs are printed unchanged.

Requires YOUTUBE_API_KEY for anything that is not a URL.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := music_player.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			resolver, err := music_player.NewMediaResolver(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			ref, err := resolver.ResolveMediaRef(cmd.Context(), strings.Join(args, " "))
			switch {
			case errors.Is(err, usecases.ErrNoResults):
				fmt.Fprintln(cmd.OutOrStdout(), "no results")
				return nil
			case errors.Is(err, usecases.ErrMissingCredential):
				fmt.Fprintln(cmd.ErrOrStderr(), "resolve: YOUTUBE_API_KEY is not set")
				return err
			case err != nil:
				fmt.Fprintf(cmd.ErrOrStderr(), "resolve: %v\n", err)
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), ref)
			return nil
		},
	}
}
