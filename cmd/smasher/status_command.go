package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"smasher/internal/config"
	"smasher/internal/jobstore"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status [dataset-id]",
		Short: "Show dataset processing status",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobstore.Store) error {
				if len(args) == 1 {
					return showDataset(cmd, store, args[0])
				}
				return listDatasets(cmd, store)
			})
		},
	}
}

func listDatasets(cmd *cobra.Command, store *jobstore.Store) error {
	datasets, err := store.ListDatasets(context.Background())
	if err != nil {
		return fmt.Errorf("list datasets: %w", err)
	}
	if len(datasets) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No datasets")
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderDatasetTable(datasets))
	return nil
}

func showDataset(cmd *cobra.Command, store *jobstore.Store, datasetID string) error {
	runCtx := context.Background()
	dataset, err := store.GetDataset(runCtx, datasetID)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	if dataset == nil {
		return fmt.Errorf("dataset %s not found", datasetID)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Dataset:            %s\n", dataset.ID)
	fmt.Fprintf(out, "State:              %s\n", datasetState(dataset))
	fmt.Fprintf(out, "Aggregate by:       %s\n", dataset.AggregateBy)
	fmt.Fprintf(out, "Scale by:           %s\n", emptyDash(dataset.ScaleBy))
	fmt.Fprintf(out, "Quantile normalize: %s\n", yesNo(dataset.QuantileNormalize))
	fmt.Fprintf(out, "Quant files only:   %s\n", yesNo(dataset.QuantSFOnly))
	fmt.Fprintf(out, "Samples:            %d\n", len(dataset.SampleAccessions()))
	if dataset.FailureReason != "" {
		fmt.Fprintf(out, "Failure:            %s\n", dataset.FailureReason)
	}
	if dataset.OutputKey != "" {
		fmt.Fprintf(out, "Output:             %s/%s (%d bytes, sha1 %s)\n",
			emptyDash(dataset.OutputBucket), dataset.OutputKey, dataset.SizeInBytes, dataset.SHA1)
	}
	if dataset.ExpiresAt != nil {
		fmt.Fprintf(out, "Expires:            %s\n", dataset.ExpiresAt.Local().Format(time.RFC1123))
	}

	job, err := store.LatestJobForDataset(runCtx, dataset.ID)
	if err != nil {
		return fmt.Errorf("load latest job: %w", err)
	}
	if job != nil {
		fmt.Fprintf(out, "Latest job:         #%d %s", job.ID, job.Status)
		if job.FailureReason != "" {
			fmt.Fprintf(out, " (%s)", job.FailureReason)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func datasetState(dataset *jobstore.Dataset) string {
	switch {
	case dataset.IsProcessing:
		return "processing"
	case dataset.Failed():
		return "failed"
	case dataset.IsProcessed && dataset.IsAvailable:
		return "available"
	case dataset.IsProcessed:
		return "processed"
	default:
		return "pending"
	}
}

func emptyDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
