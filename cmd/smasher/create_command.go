package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"smasher/internal/config"
	"smasher/internal/jobstore"
)

// manifestRow is one line of a tab-delimited sample manifest.
type manifestRow struct {
	AccessionCode       string `csv:"accession_code"`
	Title               string `csv:"title"`
	Organism            string `csv:"organism"`
	ExperimentAccession string `csv:"experiment_accession"`
	QuantFile           string `csv:"quant_file"`
	QuantSFFile         string `csv:"quant_sf_file"`
}

func init() {
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = '\t'
		r.LazyQuotes = true
		return r
	})
}

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var manifestPath string
	var aggregateBy string
	var scaleBy string
	var quantileNormalize bool
	var quantSFOnly bool
	var email string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a dataset from a tab-delimited sample manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			aggregate, ok := jobstore.ParseAggregateBy(aggregateBy)
			if !ok {
				return fmt.Errorf("unknown aggregate-by value %q (use EXPERIMENT, SPECIES, or ALL)", aggregateBy)
			}

			rows, err := readManifest(manifestPath)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				return fmt.Errorf("manifest %s contains no samples", manifestPath)
			}

			return ctx.withStore(func(cfg *config.Config, store *jobstore.Store) error {
				runCtx := context.Background()

				data := make(map[string][]string)
				for _, row := range rows {
					sample := &jobstore.Sample{
						AccessionCode:       strings.TrimSpace(row.AccessionCode),
						Title:               strings.TrimSpace(row.Title),
						Organism:            strings.TrimSpace(row.Organism),
						ExperimentAccession: strings.TrimSpace(row.ExperimentAccession),
						QuantFile:           strings.TrimSpace(row.QuantFile),
						QuantSFFile:         strings.TrimSpace(row.QuantSFFile),
					}
					if sample.AccessionCode == "" {
						return fmt.Errorf("manifest %s has a row without an accession code", manifestPath)
					}
					if err := store.UpsertSample(runCtx, sample); err != nil {
						return fmt.Errorf("store sample %s: %w", sample.AccessionCode, err)
					}
					data[sample.ExperimentAccession] = append(data[sample.ExperimentAccession], sample.AccessionCode)
				}

				dataset, err := store.NewDataset(runCtx, &jobstore.Dataset{
					Data:              data,
					AggregateBy:       aggregate,
					ScaleBy:           strings.ToUpper(strings.TrimSpace(scaleBy)),
					QuantileNormalize: quantileNormalize,
					QuantSFOnly:       quantSFOnly,
					EmailAddress:      strings.TrimSpace(email),
				})
				if err != nil {
					return fmt.Errorf("create dataset: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created dataset %s with %d samples\n", dataset.ID, len(rows))
				fmt.Fprintf(out, "Run it with: smasher run %s\n", dataset.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Tab-delimited sample manifest path")
	cmd.Flags().StringVar(&aggregateBy, "aggregate-by", "EXPERIMENT", "Grouping for output matrices (EXPERIMENT, SPECIES, ALL)")
	cmd.Flags().StringVar(&scaleBy, "scale-by", "NONE", "Feature scaling method (NONE, MINMAX, STANDARD, ROBUST)")
	cmd.Flags().BoolVar(&quantileNormalize, "quantile-normalize", false, "Quantile normalize merged matrices")
	cmd.Flags().BoolVar(&quantSFOnly, "quant-sf-only", false, "Package raw quant files instead of merging")
	cmd.Flags().StringVar(&email, "email", "", "Requester address for completion notifications")
	_ = cmd.MarkFlagRequired("manifest")
	return cmd
}

func readManifest(path string) ([]*manifestRow, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}
	f, err := os.Open(expanded)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	var rows []*manifestRow
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", expanded, err)
	}
	return rows, nil
}
