package jobstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "smasher.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func TestDatasetRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.NewDataset(ctx, &Dataset{
		Data:              map[string][]string{"GSE1": {"GSM1", "GSM2"}, "GSE2": {"GSM3"}},
		AggregateBy:       AggregateExperiment,
		ScaleBy:           "MINMAX",
		QuantileNormalize: true,
		EmailAddress:      "researcher@example.org",
	})
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated dataset id")
	}

	loaded, err := store.GetDataset(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetDataset: %v", err)
	}
	if loaded == nil {
		t.Fatal("dataset not found after insert")
	}
	if loaded.AggregateBy != AggregateExperiment || loaded.ScaleBy != "MINMAX" {
		t.Fatalf("options = %q %q", loaded.AggregateBy, loaded.ScaleBy)
	}
	if !loaded.QuantileNormalize || loaded.QuantSFOnly {
		t.Fatalf("flags = qn:%v quantsf:%v", loaded.QuantileNormalize, loaded.QuantSFOnly)
	}
	if loaded.EmailAddress != "researcher@example.org" {
		t.Fatalf("email = %q", loaded.EmailAddress)
	}
	if loaded.Success != nil {
		t.Fatal("fresh dataset should have no recorded outcome")
	}

	accessions := loaded.SampleAccessions()
	want := []string{"GSM1", "GSM2", "GSM3"}
	if len(accessions) != len(want) {
		t.Fatalf("accessions = %v, want %v", accessions, want)
	}
	for i := range want {
		if accessions[i] != want[i] {
			t.Fatalf("accessions = %v, want %v", accessions, want)
		}
	}
}

func TestUpdateDatasetPersistsOutcome(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.NewDataset(ctx, &Dataset{
		Data:        map[string][]string{"GSE1": {"GSM1"}},
		AggregateBy: AggregateAll,
	})
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}

	expires := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	created.MarkFailed("Failure reason: normalization service unreachable")
	created.IsProcessed = true
	created.ExpiresAt = &expires
	created.OutputBucket = "smash-results"
	created.OutputKey = created.ID + ".zip"
	created.SizeInBytes = 1024
	created.SHA1 = "deadbeef"
	if err := store.UpdateDataset(ctx, created); err != nil {
		t.Fatalf("UpdateDataset: %v", err)
	}

	loaded, err := store.GetDataset(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetDataset: %v", err)
	}
	if !loaded.Failed() {
		t.Fatal("expected failed dataset")
	}
	if loaded.FailureReason != "Failure reason: normalization service unreachable" {
		t.Fatalf("failure reason = %q", loaded.FailureReason)
	}
	if loaded.ExpiresAt == nil || !loaded.ExpiresAt.Equal(expires) {
		t.Fatalf("expires = %v, want %v", loaded.ExpiresAt, expires)
	}
	if loaded.OutputKey != created.ID+".zip" || loaded.SizeInBytes != 1024 || loaded.SHA1 != "deadbeef" {
		t.Fatalf("output fields = %q %d %q", loaded.OutputKey, loaded.SizeInBytes, loaded.SHA1)
	}
}

func TestGetDatasetMissing(t *testing.T) {
	store := openTestStore(t)

	loaded, err := store.GetDataset(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("GetDataset: %v", err)
	}
	if loaded != nil {
		t.Fatal("expected nil for unknown dataset")
	}
}

func TestJobLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	dataset, err := store.NewDataset(ctx, &Dataset{
		Data:        map[string][]string{"GSE1": {"GSM1"}},
		AggregateBy: AggregateExperiment,
	})
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}

	first, err := store.NewJob(ctx, dataset.ID)
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	if first.Status != JobPending {
		t.Fatalf("status = %q, want pending", first.Status)
	}

	second, err := store.NewJob(ctx, dataset.ID)
	if err != nil {
		t.Fatalf("second NewJob: %v", err)
	}

	latest, err := store.LatestJobForDataset(ctx, dataset.ID)
	if err != nil {
		t.Fatalf("LatestJobForDataset: %v", err)
	}
	if latest == nil || latest.ID != second.ID {
		t.Fatalf("latest = %+v, want job %d", latest, second.ID)
	}

	started := time.Now().UTC().Truncate(time.Second)
	second.Status = JobRunning
	second.StartedAt = &started
	second.NumSamples = 3
	second.ArchivePath = "/tmp/archive.zip"
	if err := store.UpdateJob(ctx, second); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}

	loaded, err := store.GetJob(ctx, second.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if loaded.Status != JobRunning || loaded.NumSamples != 3 {
		t.Fatalf("job = %+v", loaded)
	}
	if loaded.StartedAt == nil || !loaded.StartedAt.Equal(started) {
		t.Fatalf("started = %v, want %v", loaded.StartedAt, started)
	}
	if loaded.ArchivePath != "/tmp/archive.zip" {
		t.Fatalf("archive = %q", loaded.ArchivePath)
	}
}

func TestSampleUpsertAndLookup(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sample := &Sample{
		AccessionCode:       "GSM1",
		Title:               "first sample",
		Organism:            "HOMO_SAPIENS",
		ExperimentAccession: "GSE1",
		QuantFile:           "/data/GSM1.tsv",
	}
	if err := store.UpsertSample(ctx, sample); err != nil {
		t.Fatalf("UpsertSample: %v", err)
	}

	sample.Title = "renamed sample"
	if err := store.UpsertSample(ctx, sample); err != nil {
		t.Fatalf("UpsertSample update: %v", err)
	}

	loaded, err := store.GetSample(ctx, "GSM1")
	if err != nil {
		t.Fatalf("GetSample: %v", err)
	}
	if loaded == nil || loaded.Title != "renamed sample" {
		t.Fatalf("sample = %+v", loaded)
	}
}

func TestSamplesByAccessionsPreservesOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, accession := range []string{"GSM1", "GSM2", "GSM3"} {
		if err := store.UpsertSample(ctx, &Sample{
			AccessionCode:       accession,
			Organism:            "MUS_MUSCULUS",
			ExperimentAccession: "GSE1",
			QuantFile:           "/data/" + accession + ".tsv",
		}); err != nil {
			t.Fatalf("UpsertSample %s: %v", accession, err)
		}
	}

	samples, err := store.SamplesByAccessions(ctx, []string{"GSM3", "GSM-MISSING", "GSM1"})
	if err != nil {
		t.Fatalf("SamplesByAccessions: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if samples[0].AccessionCode != "GSM3" || samples[1].AccessionCode != "GSM1" {
		t.Fatalf("order = [%s %s], want [GSM3 GSM1]", samples[0].AccessionCode, samples[1].AccessionCode)
	}
}
