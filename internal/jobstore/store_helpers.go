package jobstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

const datasetColumns = "id, data_json, aggregate_by, scale_by, quantile_normalize, quant_sf_only, email_address, success, failure_reason, is_processing, is_processed, is_available, expires_at, output_bucket, output_key, size_in_bytes, sha1, created_at, updated_at"

const jobColumns = "id, dataset_id, status, success, failure_reason, num_samples, archive_path, started_at, ended_at, created_at, updated_at"

func scanDataset(scanner interface{ Scan(dest ...any) error }) (*Dataset, error) {
	var (
		id            string
		dataJSON      string
		aggregateBy   string
		scaleBy       string
		quantileNorm  sql.NullInt64
		quantSFOnly   sql.NullInt64
		emailAddress  sql.NullString
		success       sql.NullInt64
		failureReason sql.NullString
		isProcessing  sql.NullInt64
		isProcessed   sql.NullInt64
		isAvailable   sql.NullInt64
		expiresRaw    sql.NullString
		outputBucket  sql.NullString
		outputKey     sql.NullString
		sizeInBytes   sql.NullInt64
		sha1          sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&dataJSON,
		&aggregateBy,
		&scaleBy,
		&quantileNorm,
		&quantSFOnly,
		&emailAddress,
		&success,
		&failureReason,
		&isProcessing,
		&isProcessed,
		&isAvailable,
		&expiresRaw,
		&outputBucket,
		&outputKey,
		&sizeInBytes,
		&sha1,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	var data map[string][]string
	if err := json.Unmarshal([]byte(dataJSON), &data); err != nil {
		return nil, fmt.Errorf("decode dataset data: %w", err)
	}

	dataset := &Dataset{
		ID:                id,
		Data:              data,
		AggregateBy:       AggregateBy(aggregateBy),
		ScaleBy:           scaleBy,
		QuantileNormalize: quantileNorm.Int64 != 0,
		QuantSFOnly:       quantSFOnly.Int64 != 0,
		EmailAddress:      emailAddress.String,
		Success:           intToBoolPtr(success),
		FailureReason:     failureReason.String,
		IsProcessing:      isProcessing.Int64 != 0,
		IsProcessed:       isProcessed.Int64 != 0,
		IsAvailable:       isAvailable.Int64 != 0,
		ExpiresAt:         parseNullableTime(expiresRaw),
		OutputBucket:      outputBucket.String,
		OutputKey:         outputKey.String,
		SizeInBytes:       sizeInBytes.Int64,
		SHA1:              sha1.String,
		CreatedAt:         parseTime(createdRaw),
		UpdatedAt:         parseTime(updatedRaw),
	}
	return dataset, nil
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*SmashJob, error) {
	var (
		id            int64
		datasetID     string
		statusStr     string
		success       sql.NullInt64
		failureReason sql.NullString
		numSamples    sql.NullInt64
		archivePath   sql.NullString
		startedRaw    sql.NullString
		endedRaw      sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&datasetID,
		&statusStr,
		&success,
		&failureReason,
		&numSamples,
		&archivePath,
		&startedRaw,
		&endedRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	status, ok := ParseJobStatus(statusStr)
	if !ok {
		return nil, fmt.Errorf("unknown job status %q", statusStr)
	}

	job := &SmashJob{
		ID:            id,
		DatasetID:     datasetID,
		Status:        status,
		Success:       intToBoolPtr(success),
		FailureReason: failureReason.String,
		NumSamples:    int(numSamples.Int64),
		ArchivePath:   archivePath.String,
		StartedAt:     parseNullableTime(startedRaw),
		EndedAt:       parseNullableTime(endedRaw),
		CreatedAt:     parseTime(createdRaw),
		UpdatedAt:     parseTime(updatedRaw),
	}
	return job, nil
}

func scanSample(scanner interface{ Scan(dest ...any) error }) (*Sample, error) {
	var (
		accession   string
		title       sql.NullString
		organism    string
		experiment  string
		quantFile   string
		quantSFFile sql.NullString
	)
	if err := scanner.Scan(&accession, &title, &organism, &experiment, &quantFile, &quantSFFile); err != nil {
		return nil, err
	}
	return &Sample{
		AccessionCode:       accession,
		Title:               title.String,
		Organism:            organism,
		ExperimentAccession: experiment,
		QuantFile:           quantFile,
		QuantSFFile:         quantSFFile.String,
	}, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableBool(value *bool) any {
	if value == nil {
		return nil
	}
	return boolToInt(*value)
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func intToBoolPtr(value sql.NullInt64) *bool {
	if !value.Valid {
		return nil
	}
	result := value.Int64 != 0
	return &result
}

func parseTime(raw sql.NullString) time.Time {
	if !raw.Valid {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw.String)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func parseNullableTime(raw sql.NullString) *time.Time {
	if !raw.Valid {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw.String)
	if err != nil {
		return nil
	}
	return &parsed
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
