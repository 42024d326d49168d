// Package packaging writes the smashed matrices to disk and bundles the
// output tree into the archive delivered to the requester.
package packaging

import (
	"fmt"
	"os"
	"path/filepath"

	"smasher/internal/fileutil"
	"smasher/internal/frame"
	"smasher/internal/jobstore"
)

// FeatureLabel is the fixed row-index header of every output matrix.
const FeatureLabel = "Gene"

// WriteKeyMatrix writes one grouping key's final matrix under
// outputDir/<key>/<key>.tsv and returns the file path.
func WriteKeyMatrix(outputDir, key string, matrix *frame.QuantifiedFrame) (string, error) {
	keyDir := filepath.Join(outputDir, key)
	if err := os.MkdirAll(keyDir, 0o755); err != nil {
		return "", fmt.Errorf("create key directory: %w", err)
	}

	outPath := filepath.Join(keyDir, key+".tsv")
	file, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create matrix file: %w", err)
	}
	defer file.Close()

	if err := matrix.WriteTSV(file, FeatureLabel); err != nil {
		return "", fmt.Errorf("write matrix: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close matrix file: %w", err)
	}
	return outPath, nil
}

// SyncQuantFiles copies each sample's raw per-transcript quantification
// file into the key's output directory, skipping samples without one.
// Returns the number of files copied. This is the quant.sf-only fast
// path: no merging, normalization, or scaling happens for these keys.
func SyncQuantFiles(outputDir, key string, samples []*jobstore.Sample) (int, error) {
	keyDir := filepath.Join(outputDir, key)
	if err := os.MkdirAll(keyDir, 0o755); err != nil {
		return 0, fmt.Errorf("create key directory: %w", err)
	}

	copied := 0
	for _, sample := range samples {
		if sample.QuantSFFile == "" {
			continue
		}
		target := filepath.Join(keyDir, sample.AccessionCode+"_quant.sf")
		if err := fileutil.CopyFileVerified(sample.QuantSFFile, target); err != nil {
			return copied, fmt.Errorf("copy quant file for %s: %w", sample.AccessionCode, err)
		}
		copied++
	}
	return copied, nil
}
