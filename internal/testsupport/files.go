package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteQuantFile writes a two-column quantified TSV for one sample:
// a header row followed by feature/value pairs in map iteration order
// made deterministic by the caller passing ordered slices.
func WriteQuantFile(t testing.TB, path string, features []string, values []float64) {
	t.Helper()

	if len(features) != len(values) {
		t.Fatalf("features/values length mismatch: %d vs %d", len(features), len(values))
	}
	var sb strings.Builder
	sb.WriteString("Gene\tValue\n")
	for i, feature := range features {
		fmt.Fprintf(&sb, "%s\t%g\n", feature, values[i])
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteFile fills the target path with arbitrary content, creating
// parent directories as needed.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
