// Package merge combines per-sample feature matrices for one grouping
// key into a single matrix via sequential inner joins.
package merge

import (
	"errors"
	"log/slog"

	"smasher/internal/frame"
	"smasher/internal/logging"
)

// ErrNoFrames is returned when a grouping key has no loadable frames at
// all. The caller skips output for that key without failing the dataset.
var ErrNoFrames = errors.New("no frames to merge")

// Result carries the combined matrix for one grouping key along with the
// data-quality signals gathered while merging.
type Result struct {
	Combined *frame.QuantifiedFrame
	// Unsmashable lists the lead column names of frames rolled back
	// because joining them emptied the accumulator.
	Unsmashable []string
	// SkippedColumns lists the first conflicting column of each frame
	// rejected for repeating a sample identifier.
	SkippedColumns []string
}

// Frames inner-joins the given frames in order.
//
// Each candidate frame is first screened for column names already in the
// accumulator; a repeated sample identifier rejects the whole candidate.
// A join that would empty the accumulator is rolled back: the previous
// accumulator is kept and the candidate's lead column is recorded as
// unsmashable. Because of both rules the outcome depends on input order;
// callers must pass frames in their canonical (sample store) order.
func Frames(frames []*frame.QuantifiedFrame, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if len(frames) == 0 {
		return Result{}, ErrNoFrames
	}

	var result Result
	accumulator := frames[0]

	for i, candidate := range frames[1:] {
		if conflict, ok := repeatedColumn(accumulator, candidate); ok {
			logging.WarnWithContext(logger, "column repeated while merging", "merge_duplicate_column",
				logging.String("column", conflict),
				logging.Int("frame_number", i+1),
				logging.String(logging.FieldErrorHint, "the sample was likely selected twice"),
				logging.String(logging.FieldImpact, "frame skipped entirely"),
			)
			result.SkippedColumns = append(result.SkippedColumns, conflict)
			continue
		}

		joined, err := accumulator.InnerJoin(candidate)
		if err != nil {
			return Result{}, err
		}

		if joined.Rows() < accumulator.Rows() {
			logger.Warn("dropped rows while merging",
				logging.Int("previous_rows", accumulator.Rows()),
				logging.Int("merged_rows", joined.Rows()),
				logging.String(logging.FieldEventType, "merge_shrank"),
			)
		}
		if joined.Rows() == 0 {
			logging.WarnWithContext(logger, "rolling back empty merge", "merge_collapse",
				logging.Int("frame_number", i+1),
				logging.Int("previous_rows", accumulator.Rows()),
				logging.String(logging.FieldErrorHint, "the sample shares no features with the accumulated matrix"),
				logging.String(logging.FieldImpact, "sample excluded from this grouping key"),
			)
			if lead, ok := candidate.LeadColumn(); ok {
				result.Unsmashable = append(result.Unsmashable, lead)
			}
			continue
		}

		accumulator = joined
	}

	result.Combined = accumulator
	return result, nil
}

func repeatedColumn(accumulator, candidate *frame.QuantifiedFrame) (string, bool) {
	for _, column := range candidate.Columns() {
		if accumulator.HasColumn(column) {
			return column, true
		}
	}
	return "", false
}
