package pipeline

import (
	"log/slog"

	"github.com/gofrs/flock"

	"smasher/internal/config"
	"smasher/internal/frame"
	"smasher/internal/jobstore"
	"smasher/internal/samplestore"
)

// JobContext is the mutable state threaded through one pipeline run.
// It is owned exclusively by the run and discarded at its end; only
// Dataset and Job fields are persisted.
type JobContext struct {
	Dataset *jobstore.Dataset
	Job     *jobstore.SmashJob
	Config  *config.Config
	Logger  *slog.Logger

	// Groups holds the grouping keys and their samples in merge order.
	Groups []samplestore.Group
	// Frames holds the loaded per-sample frames for each grouping key.
	Frames map[string][]*frame.QuantifiedFrame
	// Merged holds each key's combined matrix before normalization.
	Merged map[string]*frame.QuantifiedFrame
	// PreNormalized retains the pre-QN snapshot for diagnostics when
	// normalization replaced the working matrix.
	PreNormalized map[string]*frame.QuantifiedFrame
	// Final holds each key's matrix as written to the output tree.
	Final map[string]*frame.QuantifiedFrame

	// Unsmashable lists sample files excluded from the merge, either
	// unparsable or responsible for an empty-intersection collapse.
	Unsmashable []string
	NumSamples  int

	WorkDir     string
	OutputDir   string
	ArchivePath string
	ResultURL   string

	// JobSuccess is monotonic: it starts true and is never reset once a
	// fatal stage records a failure.
	JobSuccess    bool
	FailureReason string

	lock *flock.Flock
}

// NewJobContext builds the context for one run.
func NewJobContext(cfg *config.Config, dataset *jobstore.Dataset, job *jobstore.SmashJob, logger *slog.Logger) *JobContext {
	return &JobContext{
		Dataset:       dataset,
		Job:           job,
		Config:        cfg,
		Logger:        logger,
		Frames:        make(map[string][]*frame.QuantifiedFrame),
		Merged:        make(map[string]*frame.QuantifiedFrame),
		PreNormalized: make(map[string]*frame.QuantifiedFrame),
		Final:         make(map[string]*frame.QuantifiedFrame),
		JobSuccess:    true,
	}
}

// FailJob records a run-level failure. The first reason wins and the
// success flag never flips back.
func (jc *JobContext) FailJob(reason string) {
	jc.JobSuccess = false
	if jc.FailureReason == "" {
		jc.FailureReason = reason
	}
	if jc.Job != nil {
		jc.Job.SetFailed(reason)
	}
}

// Failed reports whether a fatal failure was recorded on this run.
func (jc *JobContext) Failed() bool {
	return !jc.JobSuccess
}

// AddUnsmashable records an excluded sample file once.
func (jc *JobContext) AddUnsmashable(name string) {
	for _, existing := range jc.Unsmashable {
		if existing == name {
			return
		}
	}
	jc.Unsmashable = append(jc.Unsmashable, name)
}
