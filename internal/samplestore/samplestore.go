// Package samplestore resolves a dataset's selected samples into the
// ordered per-key input lists the merger consumes.
package samplestore

import (
	"context"
	"fmt"
	"sort"

	"smasher/internal/jobstore"
)

// Group is one output unit: a grouping key (experiment accession,
// species name, or the literal "ALL") and the samples merged under it.
type Group struct {
	Key     string
	Samples []*jobstore.Sample
}

// AllKey is the grouping key used when a dataset aggregates everything
// into one output unit.
const AllKey = "ALL"

// Resolver looks up sample records by accession code.
type Resolver interface {
	SamplesByAccessions(ctx context.Context, accessions []string) ([]*jobstore.Sample, error)
}

// Groups partitions a dataset's selected samples by its aggregation
// mode. Group order and sample order within a group are deterministic;
// a sample appears at most once per group even when selected under
// several experiments.
func Groups(ctx context.Context, resolver Resolver, dataset *jobstore.Dataset) ([]Group, error) {
	samples, err := resolver.SamplesByAccessions(ctx, dataset.SampleAccessions())
	if err != nil {
		return nil, fmt.Errorf("resolve samples: %w", err)
	}

	switch dataset.AggregateBy {
	case jobstore.AggregateExperiment:
		return groupBy(samples, func(s *jobstore.Sample) string { return s.ExperimentAccession }), nil
	case jobstore.AggregateSpecies:
		return groupBy(samples, func(s *jobstore.Sample) string { return s.Organism }), nil
	case jobstore.AggregateAll:
		return groupBy(samples, func(*jobstore.Sample) string { return AllKey }), nil
	default:
		return nil, fmt.Errorf("unknown aggregation mode %q", dataset.AggregateBy)
	}
}

func groupBy(samples []*jobstore.Sample, keyOf func(*jobstore.Sample) string) []Group {
	grouped := make(map[string][]*jobstore.Sample)
	seen := make(map[string]map[string]struct{})
	for _, sample := range samples {
		key := keyOf(sample)
		if key == "" {
			continue
		}
		if seen[key] == nil {
			seen[key] = make(map[string]struct{})
		}
		if _, dup := seen[key][sample.AccessionCode]; dup {
			continue
		}
		seen[key][sample.AccessionCode] = struct{}{}
		grouped[key] = append(grouped[key], sample)
	}

	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	groups := make([]Group, 0, len(keys))
	for _, key := range keys {
		groups = append(groups, Group{Key: key, Samples: grouped[key]})
	}
	return groups
}
