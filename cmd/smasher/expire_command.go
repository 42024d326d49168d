package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"smasher/internal/config"
	"smasher/internal/jobstore"
	"smasher/internal/logging"
	"smasher/internal/staging"
)

func newExpireCommand(ctx *commandContext) *cobra.Command {
	var stagingAge time.Duration

	cmd := &cobra.Command{
		Use:   "expire",
		Short: "Remove expired result archives and stale working directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobstore.Store) error {
				logger, err := logging.New(logging.Options{
					Level:  cfg.Logging.Level,
					Format: cfg.Logging.Format,
					Writer: cmd.ErrOrStderr(),
				})
				if err != nil {
					return err
				}
				logger = logging.NewComponentLogger(logger, "cleanup")

				expired := staging.SweepExpired(cmd.Context(), store, cfg.Storage.ResultsDir, logger)
				stale := staging.CleanStale(cfg.Paths.StagingDir, stagingAge, logger)

				fmt.Fprintf(cmd.OutOrStdout(), "Expired %d result archive(s)\n", len(expired.Removed))
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d stale working directories\n", len(stale.Removed))
				for _, cleanupErr := range append(expired.Errors, stale.Errors...) {
					fmt.Fprintf(cmd.OutOrStdout(), "  warning: %s: %v\n", cleanupErr.Path, cleanupErr.Error)
				}
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&stagingAge, "staging-age", 48*time.Hour, "Remove working directories older than this")

	return cmd
}
