package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCLI executes the root command with args against the given config
// file and returns combined output.
func runCLI(t *testing.T, args []string, configPath string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeCLIConfig(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
staging_dir = %q
log_dir = %q

[storage]
backend = "local"
results_dir = %q
`, filepath.Join(base, "staging"), filepath.Join(base, "logs"), filepath.Join(base, "results"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestStatusEmpty(t *testing.T) {
	configPath := writeCLIConfig(t)

	out, err := runCLI(t, []string{"status"}, configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "No datasets")
}

func TestCreateAndStatus(t *testing.T) {
	configPath := writeCLIConfig(t)

	manifest := filepath.Join(t.TempDir(), "manifest.tsv")
	content := "accession_code\ttitle\torganism\texperiment_accession\tquant_file\tquant_sf_file\n" +
		"GSM1\tsample one\tHOMO_SAPIENS\tGSE1\t/tmp/gsm1.tsv\t\n" +
		"GSM2\tsample two\tHOMO_SAPIENS\tGSE1\t/tmp/gsm2.tsv\t\n"
	if err := os.WriteFile(manifest, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	out, err := runCLI(t, []string{"create", "--manifest", manifest}, configPath)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	requireContains(t, out, "Created dataset")

	fields := strings.Fields(out)
	var datasetID string
	for i, field := range fields {
		if field == "dataset" && i+1 < len(fields) {
			datasetID = fields[i+1]
			break
		}
	}
	if datasetID == "" {
		t.Fatalf("could not find dataset id in output:\n%s", out)
	}

	out, err = runCLI(t, []string{"status", datasetID}, configPath)
	if err != nil {
		t.Fatalf("status %s: %v", datasetID, err)
	}
	requireContains(t, out, "pending")
	requireContains(t, out, "Samples:            2")
}

func TestCreateRejectsUnknownAggregate(t *testing.T) {
	configPath := writeCLIConfig(t)

	manifest := filepath.Join(t.TempDir(), "manifest.tsv")
	if err := os.WriteFile(manifest, []byte("accession_code\ttitle\torganism\texperiment_accession\tquant_file\tquant_sf_file\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	_, err := runCLI(t, []string{"create", "--manifest", manifest, "--aggregate-by", "PLATFORM"}, configPath)
	if err == nil {
		t.Fatal("expected error for unknown aggregate-by")
	}
	if !strings.Contains(err.Error(), "aggregate-by") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
}
