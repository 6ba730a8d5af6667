// Package cli provides the command-line interface for the concierge bot.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"concierge/internal/config"
	"concierge/internal/store"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Shared state initialized by PersistentPreRunE.
	cfg      config.Config
	logger   *slog.Logger
	logClose func() error
	dbStore  *store.Store
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "concierge",
	Short: "NYC restaurant and event recommendation bot",
	Long: `Concierge is a conversational DM bot that recommends NYC restaurants
and events: it classifies what the sender wants, asks for missing filters one
question at a time, searches a local catalog with a grounded web fallback,
and replies in messenger-sized pages.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}
		logger, logClose = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		slog.SetDefault(logger)

		var err error
		dbStore, err = store.New(context.Background(), store.Config{
			URI:            cfg.MongoURI,
			Database:       cfg.MongoDatabase,
			ContextTTL:     cfg.ContextTTL,
			DedupTTL:       cfg.DedupTTL,
			ShownKeysCap:   cfg.ShownKeysCap,
			ShownEventsCap: cfg.ShownEventsCap,
		}, logger)
		if err != nil {
			return fmt.Errorf("connect to store: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbStore != nil {
			if err := dbStore.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
			}
		}
		if logClose != nil {
			_ = logClose()
		}
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(classifyCmd)
}
