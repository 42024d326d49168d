package pipeline

import (
	"context"
	"fmt"

	"smasher/internal/logging"
	"smasher/internal/services"
)

// Stage is one ordered step of a pipeline run. A stage signals a fatal
// problem by returning an error or by marking the context failed
// itself; neither stops the run.
type Stage struct {
	Name string
	Run  func(ctx context.Context, jc *JobContext) error
}

// Execute runs every stage in order, threading the shared context
// through all of them. A failing stage marks the job unsuccessful but
// later stages still run, so archival fallbacks, cleanup, and delivery
// always happen. Panics inside a stage are captured the same way: the
// reason is recorded and the run moves on rather than surfacing the
// panic to the caller.
func Execute(ctx context.Context, jc *JobContext, stages []Stage) {
	for _, stage := range stages {
		runStage(ctx, jc, stage)
	}
}

func runStage(ctx context.Context, jc *JobContext, stage Stage) {
	stageCtx := services.WithStage(ctx, stage.Name)
	logger := logging.WithContext(stageCtx, jc.Logger)

	defer func() {
		if recovered := recover(); recovered != nil {
			reason := fmt.Sprintf("Failure reason: %s panicked: %v", stage.Name, recovered)
			jc.FailJob(reason)
			jc.Dataset.MarkFailed(reason)
			logging.ErrorWithContext(logger, "stage panicked", "stage_panic",
				logging.String("panic", fmt.Sprint(recovered)),
				logging.String(logging.FieldErrorHint, "file a bug with the run log attached"),
			)
		}
	}()

	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	if err := stage.Run(stageCtx, jc); err != nil {
		reason := fmt.Sprintf("Failure reason: %v", err)
		jc.FailJob(reason)
		jc.Dataset.MarkFailed(reason)
		logging.ErrorWithContext(logger, "stage failed", "stage_failure",
			logging.Error(err),
		)
		return
	}

	logger.Debug("stage completed", logging.String(logging.FieldEventType, "stage_complete"))
}
