package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"smasher/internal/frame"
	"smasher/internal/jobstore"
	"smasher/internal/logging"
	"smasher/internal/merge"
	"smasher/internal/packaging"
	"smasher/internal/samplestore"
	"smasher/internal/scale"
	"smasher/internal/services"
)

// frameBatchMilestone controls how often frame loading logs progress.
const frameBatchMilestone = 100

// resultExpiry is how long a finished archive stays available.
const resultExpiry = 7 * 24 * time.Hour

// startJob marks the run in flight, builds its working directories, and
// takes the per-dataset lock so concurrent runs of the same dataset
// cannot interleave.
func (r *Runner) startJob(ctx context.Context, jc *JobContext) error {
	now := time.Now().UTC()
	jc.Job.Status = jobstore.JobRunning
	jc.Job.StartedAt = &now
	if err := r.Store.UpdateJob(ctx, jc.Job); err != nil {
		return fmt.Errorf("persist job start: %w", err)
	}

	jc.Dataset.IsProcessing = true
	if err := r.Store.UpdateDataset(ctx, jc.Dataset); err != nil {
		return fmt.Errorf("persist dataset start: %w", err)
	}

	jc.WorkDir = filepath.Join(r.Config.Paths.StagingDir, jc.Dataset.ID)
	jc.OutputDir = filepath.Join(jc.WorkDir, "output")
	if err := os.MkdirAll(jc.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	lock := flock.New(filepath.Join(r.Config.Paths.StagingDir, jc.Dataset.ID+".lock"))
	acquired, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire dataset lock: %w", err)
	}
	if !acquired {
		return services.Wrap(services.ErrConfiguration, "start_job", "lock",
			"another run owns this dataset's working directory", nil)
	}
	jc.lock = lock
	return nil
}

// prepareFiles resolves the dataset's grouping keys and loads one frame
// per (sample, key). Unusable files are recorded as unsmashable and
// skipped; they never abort the run.
func (r *Runner) prepareFiles(ctx context.Context, jc *JobContext) error {
	// A failed start (lock contention, store trouble) means nothing will
	// be smashed; don't bother parsing sample files first.
	if jc.Failed() {
		return nil
	}
	logger := loggerFor(jc, "frame-loader")

	groups, err := samplestore.Groups(ctx, r.Store, jc.Dataset)
	if err != nil {
		return err
	}
	jc.Groups = groups

	// quant.sf-only datasets ship raw quantification files untouched;
	// there is nothing to parse into frames.
	if jc.Dataset.QuantSFOnly {
		return nil
	}

	loaded := 0
	for _, group := range groups {
		for _, sample := range group.Samples {
			frameData, err := frame.Load(sample.QuantFile, sample.AccessionCode)
			if err != nil {
				if !errors.Is(err, frame.ErrUnusable) {
					return err
				}
				logging.WarnWithContext(logger, "unable to smash file", "unusable_frame",
					logging.String(logging.FieldGroupingKey, group.Key),
					logging.String("sample", sample.AccessionCode),
					logging.Error(err),
					logging.String(logging.FieldImpact, "sample excluded from the merged matrix"),
				)
				jc.AddUnsmashable(sample.QuantFile)
				continue
			}
			jc.Frames[group.Key] = append(jc.Frames[group.Key], frameData)
			loaded++
			if loaded%frameBatchMilestone == 0 {
				logger.Info("loaded frame batch",
					logging.Int("frames", loaded),
					logging.String(logging.FieldEventType, "frame_batch"),
				)
			}
		}
	}

	logger.Debug("finished loading frames",
		logging.Int("frames", loaded),
		logging.Int("groups", len(groups)),
	)
	return nil
}

// smashAll merges, normalizes, scales, and writes every grouping key,
// then bundles the output tree into the archive. One bad key never
// takes the dataset down; only normalization and packaging problems do.
func (r *Runner) smashAll(ctx context.Context, jc *JobContext) error {
	// A previous stage already failed the run; keep the output tree
	// untouched so the failure notification reports the real cause.
	if jc.Failed() {
		return nil
	}
	logger := loggerFor(jc, "smasher")

	for _, group := range jc.Groups {
		r.smashKey(ctx, jc, group)
	}

	meta := packaging.NewMetadata(jc.Dataset, jc.NumSamples, jc.Unsmashable)
	if err := packaging.WriteNonDataFiles(jc.OutputDir, meta); err != nil {
		r.failDataset(ctx, jc, fmt.Sprintf("Failure reason: %v", err))
		return nil
	}

	archivePath := filepath.Join(r.Config.Paths.StagingDir, packaging.ArchiveName(jc.Dataset.ID))
	if err := packaging.Archive(jc.OutputDir, archivePath); err != nil {
		r.failDataset(ctx, jc, fmt.Sprintf("Failure reason: %v", err))
		return nil
	}
	jc.ArchivePath = archivePath
	jc.Job.ArchivePath = archivePath

	if !jc.Dataset.Failed() {
		jc.Dataset.MarkSucceeded()
		if err := r.Store.UpdateDataset(ctx, jc.Dataset); err != nil {
			return fmt.Errorf("persist dataset success: %w", err)
		}
	}

	logger.Debug("created smash output", logging.String("archive", archivePath))
	return nil
}

// smashKey processes one grouping key end to end. Failures inside the
// key are absorbed here; the caller moves on to the next key.
func (r *Runner) smashKey(ctx context.Context, jc *JobContext, group samplestore.Group) {
	logger := loggerFor(jc, "smasher").With(logging.String(logging.FieldGroupingKey, group.Key))

	// quant.sf-only datasets receive each sample's raw quantification
	// file; merging, normalization, and scaling do not apply.
	if jc.Dataset.QuantSFOnly {
		copied, err := packaging.SyncQuantFiles(jc.OutputDir, group.Key, group.Samples)
		jc.NumSamples += copied
		if err != nil {
			logging.ErrorWithContext(logger, "quant file sync failed", "quant_sync_failure",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check that the samples' quant files exist"),
			)
			r.failDataset(ctx, jc, fmt.Sprintf("Failure reason: %v", err))
		}
		return
	}

	frames := jc.Frames[group.Key]
	if len(frames) == 0 {
		logging.ErrorWithContext(logger, "no frames for grouping key", "empty_key",
			logging.String(logging.FieldErrorHint, "every sample file for this key was unusable"),
		)
		return
	}

	result, err := merge.Frames(frames, logger)
	if err != nil {
		logging.ErrorWithContext(logger, "merge failed", "merge_failure", logging.Error(err))
		return
	}
	for _, name := range result.Unsmashable {
		jc.AddUnsmashable(name)
	}
	combined := result.Combined
	jc.Merged[group.Key] = combined

	if jc.Dataset.QuantileNormalize {
		normalized, err := r.normalizeKey(ctx, jc, group, combined)
		if err != nil {
			// The dataset is already marked failed; skip output for
			// this key but let the remaining stages run.
			return
		}
		combined = normalized
	}

	method, err := scale.ParseMethod(jc.Dataset.ScaleBy)
	if err != nil {
		r.failDataset(ctx, jc, fmt.Sprintf("Failure reason: %v", err))
		return
	}
	scaled, err := scale.Apply(combined, method)
	if err != nil {
		r.failDataset(ctx, jc, fmt.Sprintf("Failure reason: %v", err))
		return
	}

	if _, err := packaging.WriteKeyMatrix(jc.OutputDir, group.Key, scaled); err != nil {
		r.failDataset(ctx, jc, fmt.Sprintf("Failure reason: %v", err))
		return
	}
	jc.Final[group.Key] = scaled
	jc.NumSamples += scaled.Cols()
}

// normalizeKey hands one key's combined matrix to the external service.
// On failure the dataset is failed and persisted immediately, but
// control returns to the caller so later mandatory stages still run.
func (r *Runner) normalizeKey(ctx context.Context, jc *JobContext, group samplestore.Group, combined *frame.QuantifiedFrame) (*frame.QuantifiedFrame, error) {
	organism := ""
	if len(group.Samples) > 0 {
		organism = group.Samples[0].Organism
	}

	normalized, err := r.Normalizer.Normalize(ctx, combined, organism)
	if err != nil {
		r.failDataset(ctx, jc, fmt.Sprintf("Failure reason: %v", err))
		return nil, err
	}

	jc.PreNormalized[group.Key] = combined
	return normalized, nil
}

// failDataset records a dataset-level failure and persists it right
// away, so the terminal state survives even if a later stage wedges.
func (r *Runner) failDataset(ctx context.Context, jc *JobContext, reason string) {
	jc.Dataset.MarkFailed(reason)
	jc.FailJob(reason)
	if err := r.Store.UpdateDataset(ctx, jc.Dataset); err != nil {
		jc.Logger.Error("failed to persist dataset failure", logging.Error(err))
	}
}

// upload hands the archive to the storage service. Delivery failures
// are logged but never flip job success: the computational result is
// still valid.
func (r *Runner) upload(ctx context.Context, jc *JobContext) error {
	logger := loggerFor(jc, "uploader")

	if jc.ArchivePath == "" {
		logging.ErrorWithContext(logger, "no archive to upload", "upload_skipped",
			logging.String(logging.FieldErrorHint, "packaging failed earlier in this run"),
		)
		return nil
	}

	location, err := r.Storage.Store(ctx, jc.ArchivePath, jc.Dataset.ID)
	if err != nil {
		logging.ErrorWithContext(logger, "failed to store smash result", "upload_failure",
			logging.Error(err),
			logging.String("archive", jc.ArchivePath),
		)
		return nil
	}

	jc.ResultURL = location.URL
	jc.Dataset.OutputBucket = location.Bucket
	jc.Dataset.OutputKey = location.Key
	jc.Dataset.SizeInBytes = location.SizeInBytes
	jc.Dataset.SHA1 = location.SHA1
	if err := r.Store.UpdateDataset(ctx, jc.Dataset); err != nil {
		return fmt.Errorf("persist upload result: %w", err)
	}

	// The stored copy is authoritative now.
	if err := os.Remove(jc.ArchivePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("could not remove local archive", logging.Error(err))
	}

	logger.Debug("result stored", logging.String("url", location.URL))
	return nil
}

// finalizeDataset closes out a successful dataset.
func (r *Runner) finalizeDataset(ctx context.Context, jc *JobContext) error {
	if jc.Failed() || jc.Dataset.Failed() {
		return nil
	}
	expires := time.Now().UTC().Add(resultExpiry)
	jc.Dataset.IsProcessed = true
	jc.Dataset.IsAvailable = true
	jc.Dataset.ExpiresAt = &expires
	return r.Store.UpdateDataset(ctx, jc.Dataset)
}

// endJob persists the job's terminal state and releases run resources.
func (r *Runner) endJob(ctx context.Context, jc *JobContext) error {
	now := time.Now().UTC()
	jc.Job.EndedAt = &now
	jc.Job.NumSamples = jc.NumSamples
	if jc.JobSuccess {
		jc.Job.Status = jobstore.JobCompleted
		succeeded := true
		jc.Job.Success = &succeeded
	} else {
		jc.Job.SetFailed(jc.FailureReason)
	}
	if err := r.Store.UpdateJob(ctx, jc.Job); err != nil {
		return fmt.Errorf("persist job end: %w", err)
	}

	jc.Dataset.IsProcessing = false
	if err := r.Store.UpdateDataset(ctx, jc.Dataset); err != nil {
		return fmt.Errorf("persist dataset end: %w", err)
	}

	if jc.lock != nil {
		if err := jc.lock.Unlock(); err != nil {
			jc.Logger.Warn("could not release dataset lock", logging.Error(err))
		}
	}

	// Keep the output tree around for debugging when the run failed.
	if jc.JobSuccess && jc.WorkDir != "" {
		if err := os.RemoveAll(jc.WorkDir); err != nil {
			jc.Logger.Warn("could not remove working directory", logging.Error(err))
		}
	}
	return nil
}
