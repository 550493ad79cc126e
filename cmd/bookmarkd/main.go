package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/bookmarkd/internal/app"
	"github.com/MrSnakeDoc/bookmarkd/internal/config"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
	"github.com/MrSnakeDoc/bookmarkd/internal/sources/homepage"
	"github.com/MrSnakeDoc/bookmarkd/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "bookmarkd",
		Short:         "bookmark saver backend",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	})
	rootCmd.AddCommand(importCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "❌ bookmarkd: %v\n", err)
		os.Exit(1)
	}
}

func setup(ctx context.Context) (*app.App, logger.Logger, error) {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.PrettyLog)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, err
	}
	return a, log, nil
}

func serve(ctx context.Context) error {
	a, log, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	defer a.Close()

	return a.Serve(ctx)
}

func importCmd() *cobra.Command {
	var userID, file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "import a Homepage bookmarks.yaml for one user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := homepage.LoadFile(file)
			if err != nil {
				return err
			}

			a, log, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			defer a.Close()

			res, err := a.Bookmarks().Import(cmd.Context(), userID, homepage.Drafts(cfg))
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported=%d skipped=%d invalid=%d\n",
				res.Imported, res.Skipped, res.Invalid)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id receiving the bookmarks")
	cmd.Flags().StringVar(&file, "file", "", "path to bookmarks.yaml")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
