package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"smasher/internal/config"
	"smasher/internal/jobstore"
	"smasher/internal/logging"
	"smasher/internal/normalize"
	"smasher/internal/notifications"
	"smasher/internal/services"
	"smasher/internal/storage"
)

// Runner bundles the collaborators one smashing run needs.
type Runner struct {
	Store      *jobstore.Store
	Normalizer normalize.Service
	Storage    storage.Service
	Notifier   notifications.Service
	Config     *config.Config
	Logger     *slog.Logger
}

// Smash executes the whole pipeline for one dataset and returns the
// terminal job context. The returned error covers only the inability to
// start a run (unknown dataset, job insert failure); once the stages
// begin, failure flows through the context and notification instead of
// an error return.
func (r *Runner) Smash(ctx context.Context, datasetID string) (*JobContext, error) {
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}

	dataset, err := r.Store.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if dataset == nil {
		return nil, services.Wrap(services.ErrNotFound, "pipeline", "load dataset", datasetID, nil)
	}

	job, err := r.Store.NewJob(ctx, dataset.ID)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	runCtx := services.WithJobID(services.WithDatasetID(ctx, dataset.ID), job.ID)
	logger := logging.WithContext(runCtx, r.Logger)
	jc := NewJobContext(r.Config, dataset, job, logger)

	Execute(runCtx, jc, []Stage{
		{Name: "start_job", Run: r.startJob},
		{Name: "prepare_files", Run: r.prepareFiles},
		{Name: "smash_all", Run: r.smashAll},
		{Name: "upload", Run: r.upload},
		{Name: "finalize_dataset", Run: r.finalizeDataset},
		{Name: "end_job", Run: r.endJob},
	})

	// Delivery runs outside the executor so the requester hears about
	// the run no matter how the stages ended.
	r.notify(runCtx, jc)

	return jc, nil
}

// loggerFor returns jc's logger tagged with a component name.
func loggerFor(jc *JobContext, component string) *slog.Logger {
	return logging.NewComponentLogger(jc.Logger, component)
}
