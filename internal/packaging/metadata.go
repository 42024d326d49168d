package packaging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"smasher/internal/jobstore"
)

const licenseText = `The data in this archive was aggregated from publicly available sources.
Review the originating repositories for the licensing terms of each
contributing experiment before redistribution.
`

// Metadata is the ancillary description written beside the matrices.
type Metadata struct {
	DatasetID         string              `json:"dataset_id"`
	AggregateBy       string              `json:"aggregate_by"`
	ScaleBy           string              `json:"scale_by"`
	QuantileNormalize bool                `json:"quantile_normalize"`
	QuantSFOnly       bool                `json:"quant_sf_only"`
	NumSamples        int                 `json:"num_samples"`
	Samples           map[string][]string `json:"samples"`
	UnsmashableFiles  []string            `json:"unsmashable_files,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
}

// NewMetadata derives archive metadata from a dataset and run results.
func NewMetadata(dataset *jobstore.Dataset, numSamples int, unsmashable []string) Metadata {
	return Metadata{
		DatasetID:         dataset.ID,
		AggregateBy:       string(dataset.AggregateBy),
		ScaleBy:           dataset.ScaleBy,
		QuantileNormalize: dataset.QuantileNormalize,
		QuantSFOnly:       dataset.QuantSFOnly,
		NumSamples:        numSamples,
		Samples:           dataset.Data,
		UnsmashableFiles:  unsmashable,
		CreatedAt:         time.Now().UTC(),
	}
}

// WriteNonDataFiles writes the top-level metadata files of the output
// tree: aggregated_metadata.json and LICENSE.txt.
func WriteNonDataFiles(outputDir string, meta Metadata) error {
	encoded, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	metadataPath := filepath.Join(outputDir, "aggregated_metadata.json")
	if err := os.WriteFile(metadataPath, append(encoded, '\n'), 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	licensePath := filepath.Join(outputDir, "LICENSE.txt")
	if err := os.WriteFile(licensePath, []byte(licenseText), 0o644); err != nil {
		return fmt.Errorf("write license: %w", err)
	}
	return nil
}
