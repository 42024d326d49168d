package services

import (
	"context"
	"testing"
)

func TestDatasetIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := DatasetIDFromContext(ctx); ok {
		t.Fatal("empty context should carry no dataset id")
	}

	ctx = WithDatasetID(ctx, "abc-123")
	id, ok := DatasetIDFromContext(ctx)
	if !ok || id != "abc-123" {
		t.Fatalf("DatasetIDFromContext = %q, %v", id, ok)
	}

	// Empty values never overwrite.
	if same := WithDatasetID(ctx, ""); same != ctx {
		t.Fatal("empty dataset id should leave the context unchanged")
	}
}

func TestJobIDRoundTrip(t *testing.T) {
	ctx := WithJobID(context.Background(), 42)
	id, ok := JobIDFromContext(ctx)
	if !ok || id != 42 {
		t.Fatalf("JobIDFromContext = %d, %v", id, ok)
	}
}

func TestStageRoundTrip(t *testing.T) {
	ctx := WithStage(context.Background(), "smash_all")
	stage, ok := StageFromContext(ctx)
	if !ok || stage != "smash_all" {
		t.Fatalf("StageFromContext = %q, %v", stage, ok)
	}
}
