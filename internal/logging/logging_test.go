package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"smasher/internal/services"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("hello", String("key", "value"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if record["msg"] != "hello" || record["key"] != "value" {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info record should be filtered at warn level:\n%s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("warn record missing:\n%s", out)
	}
}

func TestWarnWithContextEnforcesFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	WarnWithContext(logger, "something odd", "odd_event")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record[FieldEventType] != "odd_event" {
		t.Fatalf("event_type = %v", record[FieldEventType])
	}
	if record[FieldErrorHint] == nil || record[FieldImpact] == nil {
		t.Fatalf("missing enforced fields in %v", record)
	}
}

func TestErrorWithContextKeepsExplicitHint(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ErrorWithContext(logger, "boom", "boom_event",
		String(FieldErrorHint, "check the normalization service"),
	)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record[FieldErrorHint] != "check the normalization service" {
		t.Fatalf("error_hint = %v, want explicit value preserved", record[FieldErrorHint])
	}
}

func TestWithContextCarriesIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := services.WithStage(services.WithJobID(services.WithDatasetID(context.Background(), "ds-1"), 7), "upload")
	WithContext(ctx, logger).Info("annotated")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record[FieldDatasetID] != "ds-1" {
		t.Fatalf("dataset_id = %v", record[FieldDatasetID])
	}
	if record[FieldJobID] != float64(7) {
		t.Fatalf("job_id = %v", record[FieldJobID])
	}
	if record[FieldStage] != "upload" {
		t.Fatalf("stage = %v", record[FieldStage])
	}
}

func TestNewComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	NewComponentLogger(logger, "smasher").Info("tagged")

	if !strings.Contains(buf.String(), `"component":"smasher"`) {
		t.Fatalf("missing component field:\n%s", buf.String())
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := NewNop()
	// Should not panic and should produce nothing observable.
	logger.Error("ignored", String("key", "value"))
}
