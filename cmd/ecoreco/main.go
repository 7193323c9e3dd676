// Package main provides the EcoReco command-line client for ranking, recommendations and reviews.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ecoreco/backend/config"
	"github.com/ecoreco/backend/internal/bootstrap"
)

var (
	// Global flags
	outputJSON bool
	verbose    bool

	app *bootstrap.App
)

var rootCmd = &cobra.Command{
	Use:   "ecoreco",
	Short: "Query the EcoReco catalog from the command line",
	Long: `ecoreco runs the search, recommendation and review engines against the
configured catalog without starting the HTTP server.

Configuration is read the same way as the server: config.yaml, .env and
ECORECO_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		var logger zerolog.Logger
		if verbose {
			cfg.Log.Format = "console"
			cfg.Log.Level = "debug"
			logger = bootstrap.NewLogger(cfg, cmd.ErrOrStderr())
		} else {
			logger = zerolog.Nop()
		}

		app, err = bootstrap.New(cmd.Context(), cfg, logger)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if app == nil {
			return nil
		}
		return app.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr at debug level")

	rootCmd.AddCommand(searchCmd, popularCmd, recommendCmd, similarCmd, reviewCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
