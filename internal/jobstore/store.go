package jobstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"smasher/internal/config"
)

// Store manages dataset and job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the job database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens the database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// NewDataset inserts a dataset with a fresh identifier.
func (s *Store) NewDataset(ctx context.Context, dataset *Dataset) (*Dataset, error) {
	if dataset == nil {
		return nil, errors.New("dataset is nil")
	}
	if dataset.ID == "" {
		dataset.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	dataset.CreatedAt = now
	dataset.UpdatedAt = now

	dataJSON, err := json.Marshal(dataset.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal dataset data: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO datasets (
            id, data_json, aggregate_by, scale_by, quantile_normalize, quant_sf_only,
            email_address, success, failure_reason, is_processing, is_processed,
            is_available, expires_at, output_bucket, output_key, size_in_bytes, sha1,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		dataset.ID,
		string(dataJSON),
		string(dataset.AggregateBy),
		dataset.ScaleBy,
		boolToInt(dataset.QuantileNormalize),
		boolToInt(dataset.QuantSFOnly),
		nullableString(dataset.EmailAddress),
		nullableBool(dataset.Success),
		nullableString(dataset.FailureReason),
		boolToInt(dataset.IsProcessing),
		boolToInt(dataset.IsProcessed),
		boolToInt(dataset.IsAvailable),
		nullableTime(dataset.ExpiresAt),
		nullableString(dataset.OutputBucket),
		nullableString(dataset.OutputKey),
		dataset.SizeInBytes,
		nullableString(dataset.SHA1),
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert dataset: %w", err)
	}
	return s.GetDataset(ctx, dataset.ID)
}

// GetDataset fetches a dataset by identifier. Returns nil when absent.
func (s *Store) GetDataset(ctx context.Context, id string) (*Dataset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+datasetColumns+` FROM datasets WHERE id = ?`, id)
	dataset, err := scanDataset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get dataset: %w", err)
	}
	return dataset, nil
}

// UpdateDataset persists changes to an existing dataset.
func (s *Store) UpdateDataset(ctx context.Context, dataset *Dataset) error {
	if dataset == nil {
		return errors.New("dataset is nil")
	}
	dataset.UpdatedAt = time.Now().UTC()

	dataJSON, err := json.Marshal(dataset.Data)
	if err != nil {
		return fmt.Errorf("marshal dataset data: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`UPDATE datasets
         SET data_json = ?, aggregate_by = ?, scale_by = ?, quantile_normalize = ?,
             quant_sf_only = ?, email_address = ?, success = ?, failure_reason = ?,
             is_processing = ?, is_processed = ?, is_available = ?, expires_at = ?,
             output_bucket = ?, output_key = ?, size_in_bytes = ?, sha1 = ?, updated_at = ?
         WHERE id = ?`,
		string(dataJSON),
		string(dataset.AggregateBy),
		dataset.ScaleBy,
		boolToInt(dataset.QuantileNormalize),
		boolToInt(dataset.QuantSFOnly),
		nullableString(dataset.EmailAddress),
		nullableBool(dataset.Success),
		nullableString(dataset.FailureReason),
		boolToInt(dataset.IsProcessing),
		boolToInt(dataset.IsProcessed),
		boolToInt(dataset.IsAvailable),
		nullableTime(dataset.ExpiresAt),
		nullableString(dataset.OutputBucket),
		nullableString(dataset.OutputKey),
		dataset.SizeInBytes,
		nullableString(dataset.SHA1),
		dataset.UpdatedAt.Format(time.RFC3339Nano),
		dataset.ID,
	)
	if err != nil {
		return fmt.Errorf("update dataset: %w", err)
	}
	return nil
}

// ListDatasets returns all datasets ordered by creation time.
func (s *Store) ListDatasets(ctx context.Context) ([]*Dataset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+datasetColumns+` FROM datasets ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	var datasets []*Dataset
	for rows.Next() {
		dataset, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, dataset)
	}
	return datasets, rows.Err()
}

// NewJob inserts a pending smash job for a dataset.
func (s *Store) NewJob(ctx context.Context, datasetID string) (*SmashJob, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO smash_jobs (dataset_id, status, created_at, updated_at)
         VALUES (?, ?, ?, ?)`,
		datasetID,
		JobPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetJob(ctx, id)
}

// GetJob fetches a smash job by identifier. Returns nil when absent.
func (s *Store) GetJob(ctx context.Context, id int64) (*SmashJob, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM smash_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// LatestJobForDataset returns the most recent job for a dataset, or nil.
func (s *Store) LatestJobForDataset(ctx context.Context, datasetID string) (*SmashJob, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+jobColumns+` FROM smash_jobs WHERE dataset_id = ? ORDER BY id DESC LIMIT 1`,
		datasetID,
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest job: %w", err)
	}
	return job, nil
}

// UpdateJob persists changes to an existing smash job.
func (s *Store) UpdateJob(ctx context.Context, job *SmashJob) error {
	if job == nil {
		return errors.New("job is nil")
	}
	job.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE smash_jobs
         SET status = ?, success = ?, failure_reason = ?, num_samples = ?,
             archive_path = ?, started_at = ?, ended_at = ?, updated_at = ?
         WHERE id = ?`,
		job.Status,
		nullableBool(job.Success),
		nullableString(job.FailureReason),
		job.NumSamples,
		nullableString(job.ArchivePath),
		nullableTime(job.StartedAt),
		nullableTime(job.EndedAt),
		job.UpdatedAt.Format(time.RFC3339Nano),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// UpsertSample inserts or replaces a sample record.
func (s *Store) UpsertSample(ctx context.Context, sample *Sample) error {
	if sample == nil {
		return errors.New("sample is nil")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO samples (accession_code, title, organism, experiment_accession, quant_file, quant_sf_file)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT (accession_code) DO UPDATE SET
             title = excluded.title,
             organism = excluded.organism,
             experiment_accession = excluded.experiment_accession,
             quant_file = excluded.quant_file,
             quant_sf_file = excluded.quant_sf_file`,
		sample.AccessionCode,
		nullableString(sample.Title),
		sample.Organism,
		sample.ExperimentAccession,
		sample.QuantFile,
		nullableString(sample.QuantSFFile),
	)
	if err != nil {
		return fmt.Errorf("upsert sample: %w", err)
	}
	return nil
}

// GetSample fetches a sample by accession code. Returns nil when absent.
func (s *Store) GetSample(ctx context.Context, accession string) (*Sample, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT accession_code, title, organism, experiment_accession, quant_file, quant_sf_file
         FROM samples WHERE accession_code = ?`,
		accession,
	)
	sample, err := scanSample(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sample: %w", err)
	}
	return sample, nil
}

// SamplesByAccessions returns samples for the given accession codes,
// preserving the input order and skipping unknown accessions.
func (s *Store) SamplesByAccessions(ctx context.Context, accessions []string) ([]*Sample, error) {
	samples := make([]*Sample, 0, len(accessions))
	for _, accession := range accessions {
		sample, err := s.GetSample(ctx, accession)
		if err != nil {
			return nil, err
		}
		if sample == nil {
			continue
		}
		samples = append(samples, sample)
	}
	return samples, nil
}
