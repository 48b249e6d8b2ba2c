// Package cmd implements the oracle command line interface.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/okanon/oracle/internal/app"
	"github.com/okanon/oracle/internal/config"
	"github.com/okanon/oracle/internal/log"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "oracle",
	Short: "Multi-tenant knowledge assistant",
	Long: `oracle indexes uploaded documents per user and answers questions
grounded on that user's documents, with source citations.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setupApp loads configuration and wires the application.
func setupApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level, JSON: true})

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setting up application: %w", err)
	}
	return a, nil
}
