package testsupport

import (
	"context"
	"testing"

	"smasher/internal/config"
	"smasher/internal/jobstore"
)

// MustOpenStore opens a jobstore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobstore.Store {
	t.Helper()

	store, err := jobstore.Open(cfg)
	if err != nil {
		t.Fatalf("jobstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewDataset inserts a dataset for tests using the provided store.
func NewDataset(t testing.TB, store *jobstore.Store, dataset *jobstore.Dataset) *jobstore.Dataset {
	t.Helper()

	if dataset.AggregateBy == "" {
		dataset.AggregateBy = jobstore.AggregateExperiment
	}
	created, err := store.NewDataset(context.Background(), dataset)
	if err != nil {
		t.Fatalf("store.NewDataset: %v", err)
	}
	return created
}

// SeedSample upserts a sample for tests.
func SeedSample(t testing.TB, store *jobstore.Store, sample *jobstore.Sample) {
	t.Helper()

	if err := store.UpsertSample(context.Background(), sample); err != nil {
		t.Fatalf("store.UpsertSample: %v", err)
	}
}
