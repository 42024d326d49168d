package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"smasher/internal/jobstore"
)

func newTableWriter() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	return tw
}

// renderDatasetTable lists datasets with their selection size and state.
func renderDatasetTable(datasets []*jobstore.Dataset) string {
	tw := newTableWriter()
	tw.AppendHeader(table.Row{"ID", "Aggregate", "Samples", "State", "Created"})
	for _, dataset := range datasets {
		tw.AppendRow(table.Row{
			dataset.ID,
			string(dataset.AggregateBy),
			strconv.Itoa(len(dataset.SampleAccessions())),
			datasetState(dataset),
			dataset.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// renderSampleTable lists the samples a dataset selected.
func renderSampleTable(samples []*jobstore.Sample) string {
	tw := newTableWriter()
	tw.AppendHeader(table.Row{"Accession", "Experiment", "Organism", "Title"})
	for _, sample := range samples {
		tw.AppendRow(table.Row{
			sample.AccessionCode,
			sample.ExperimentAccession,
			sample.Organism,
			sample.Title,
		})
	}
	return tw.Render()
}
