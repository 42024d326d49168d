package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"smasher/internal/config"
	"smasher/internal/jobstore"
)

func newSamplesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "samples <dataset-id>",
		Short: "List the samples selected by a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobstore.Store) error {
				runCtx := context.Background()
				dataset, err := store.GetDataset(runCtx, args[0])
				if err != nil {
					return fmt.Errorf("load dataset: %w", err)
				}
				if dataset == nil {
					return fmt.Errorf("dataset %s not found", args[0])
				}

				samples, err := store.SamplesByAccessions(runCtx, dataset.SampleAccessions())
				if err != nil {
					return fmt.Errorf("load samples: %w", err)
				}
				if len(samples) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No samples")
					return nil
				}

				fmt.Fprintln(cmd.OutOrStdout(), renderSampleTable(samples))
				return nil
			})
		},
	}
}
