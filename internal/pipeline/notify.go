package pipeline

import (
	"context"

	"smasher/internal/logging"
)

// notify delivers the run outcome. It runs after every pipeline, success
// or failure, and absorbs its own errors: a broken notification channel
// must never change the recorded result of the run.
func (r *Runner) notify(ctx context.Context, jc *JobContext) {
	logger := loggerFor(jc, "notifier")

	failed := jc.Failed() || jc.Dataset.Failed()
	if failed {
		reason := jc.FailureReason
		if reason == "" {
			reason = jc.Dataset.FailureReason
		}
		if err := r.Notifier.AlertOperations(ctx, jc.Dataset.ID, jc.Dataset.EmailAddress, reason); err != nil {
			logging.WarnWithContext(logger, "could not alert operations", "ops_alert_failure",
				logging.Error(err),
				logging.String(logging.FieldImpact, "operations will not see this failure"),
			)
		}
	}

	if jc.Dataset.EmailAddress == "" {
		return
	}

	var err error
	if failed {
		reason := jc.Dataset.FailureReason
		if reason == "" {
			reason = jc.FailureReason
		}
		err = r.Notifier.NotifyDatasetFailed(ctx, jc.Dataset.ID, reason)
	} else {
		err = r.Notifier.NotifyDatasetReady(ctx, jc.Dataset.ID, jc.ResultURL, jc.NumSamples)
	}
	if err != nil {
		logging.ErrorWithContext(logger, "could not notify requester", "notify_failure",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notification configuration and connectivity"),
		)
	}
}
