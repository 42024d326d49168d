package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"smasher/internal/config"
	"smasher/internal/jobstore"
	"smasher/internal/logging"
	"smasher/internal/normalize"
	"smasher/internal/notifications"
	"smasher/internal/pipeline"
	"smasher/internal/storage"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run <dataset-id>",
		Short: "Smash a dataset into a downloadable archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			datasetID := args[0]

			return ctx.withStore(func(cfg *config.Config, store *jobstore.Store) error {
				logger, closeLogs, err := logging.NewForRun(cfg.Paths.LogDir, "smash-"+datasetID+".log", cfg.Logging.Level, cfg.Logging.Format)
				if err != nil {
					return fmt.Errorf("open run log: %w", err)
				}
				defer func() {
					_ = closeLogs()
				}()

				storageService, err := storage.NewService(cfg)
				if err != nil {
					return fmt.Errorf("configure storage: %w", err)
				}

				runner := &pipeline.Runner{
					Store:      store,
					Normalizer: normalize.NewService(cfg),
					Storage:    storageService,
					Notifier:   notifications.NewService(cfg),
					Config:     cfg,
					Logger:     logger,
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				jc, err := runner.Smash(runCtx, datasetID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jc.Failed() || jc.Dataset.Failed() {
					reason := jc.FailureReason
					if reason == "" {
						reason = jc.Dataset.FailureReason
					}
					return fmt.Errorf("dataset %s failed: %s", datasetID, reason)
				}
				fmt.Fprintf(out, "Dataset %s smashed: %d samples\n", datasetID, jc.NumSamples)
				if jc.ResultURL != "" {
					fmt.Fprintf(out, "Result: %s\n", jc.ResultURL)
				}
				return nil
			})
		},
	}
}
