package jobstore

import (
	"strings"
	"time"
)

// AggregateBy controls how selected samples are grouped into output units.
type AggregateBy string

const (
	AggregateExperiment AggregateBy = "EXPERIMENT"
	AggregateSpecies    AggregateBy = "SPECIES"
	AggregateAll        AggregateBy = "ALL"
)

// ParseAggregateBy converts a string into a known AggregateBy.
func ParseAggregateBy(value string) (AggregateBy, bool) {
	normalized := AggregateBy(strings.ToUpper(strings.TrimSpace(value)))
	switch normalized {
	case AggregateExperiment, AggregateSpecies, AggregateAll:
		return normalized, true
	}
	return "", false
}

// JobStatus represents the lifecycle of a smash job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// ParseJobStatus converts a string into a known JobStatus.
func ParseJobStatus(value string) (JobStatus, bool) {
	normalized := JobStatus(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case JobPending, JobRunning, JobCompleted, JobFailed:
		return normalized, true
	}
	return "", false
}

// Dataset is a user-selected set of samples plus the aggregation options
// that shape one smashed output archive.
type Dataset struct {
	ID string
	// Data maps experiment accessions to the sample accessions the user
	// selected from each experiment.
	Data              map[string][]string
	AggregateBy       AggregateBy
	ScaleBy           string
	QuantileNormalize bool
	QuantSFOnly       bool
	EmailAddress      string

	Success       *bool
	FailureReason string
	IsProcessing  bool
	IsProcessed   bool
	IsAvailable   bool
	ExpiresAt     *time.Time

	OutputBucket string
	OutputKey    string
	SizeInBytes  int64
	SHA1         string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SampleAccessions returns every selected sample accession across all
// experiments, in experiment order.
func (d *Dataset) SampleAccessions() []string {
	var accessions []string
	for _, experiment := range sortedKeys(d.Data) {
		accessions = append(accessions, d.Data[experiment]...)
	}
	return accessions
}

// MarkFailed records a failure on the dataset. Success is monotonic
// within a run: once false it stays false, and the first failure reason
// wins.
func (d *Dataset) MarkFailed(reason string) {
	failed := false
	d.Success = &failed
	if d.FailureReason == "" {
		d.FailureReason = reason
	}
}

// MarkSucceeded records success unless a failure was already recorded.
func (d *Dataset) MarkSucceeded() {
	if d.Success != nil && !*d.Success {
		return
	}
	succeeded := true
	d.Success = &succeeded
}

// Failed reports whether the dataset has a recorded failure.
func (d *Dataset) Failed() bool {
	return d.Success != nil && !*d.Success
}

// Sample is one biological sample referenced by a dataset.
type Sample struct {
	AccessionCode       string
	Title               string
	Organism            string
	ExperimentAccession string
	// QuantFile is the per-sample quantified TSV the pipeline merges.
	QuantFile string
	// QuantSFFile is the raw per-transcript quantification file copied
	// verbatim on the quant.sf-only fast path.
	QuantSFFile string
}

// SmashJob is one run of the smashing pipeline over a dataset.
type SmashJob struct {
	ID            int64
	DatasetID     string
	Status        JobStatus
	Success       *bool
	FailureReason string
	NumSamples    int
	ArchivePath   string
	StartedAt     *time.Time
	EndedAt       *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SetFailed marks the job as failed with the given reason. The first
// recorded reason wins.
func (j *SmashJob) SetFailed(reason string) {
	j.Status = JobFailed
	failed := false
	j.Success = &failed
	if j.FailureReason == "" {
		j.FailureReason = reason
	}
}

// Succeeded reports whether the job finished without a recorded failure.
func (j *SmashJob) Succeeded() bool {
	return j.Success != nil && *j.Success
}
