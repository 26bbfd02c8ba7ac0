package batch

import (
	"fmt"
	"time"
)

// JobError reports a batch job that reached a terminal failure status.
type JobError struct {
	JobID  string
	Status string
}

func (e *JobError) Error() string {
	return fmt.Sprintf("batch job %s %s", e.JobID, e.Status)
}

// MissingOutputError reports a completed job with no output file id, an
// inconsistent provider response that must not yield an empty result
// file.
type MissingOutputError struct {
	JobID string
}

func (e *MissingOutputError) Error() string {
	return fmt.Sprintf("batch job %s completed without an output file", e.JobID)
}

// TimeoutError reports a poll that exceeded its deadline before the job
// reached a terminal state.
type TimeoutError struct {
	JobID   string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("batch job %s did not reach a terminal state within %s", e.JobID, e.Elapsed)
}

// SchemaError reports a malformed output schema. It fails the run
// before any remote call is made.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid output schema: %s", e.Reason)
	}
	return fmt.Sprintf("invalid output schema: field %q: %s", e.Field, e.Reason)
}
