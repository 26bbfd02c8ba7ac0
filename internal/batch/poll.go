package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// JobGetter fetches the current state of a batch job.
type JobGetter interface {
	GetJob(ctx context.Context, jobID string) (Job, error)
}

// PollOptions control AwaitCompletion. A zero Deadline waits forever.
type PollOptions struct {
	Interval time.Duration
	Deadline time.Duration
}

// AwaitCompletion polls until the job reaches a terminal state. It
// returns the completed job, a *JobError for a terminal failure (with
// no further fetches after the failing check), a *TimeoutError when the
// deadline passes, or the context error on cancellation.
func AwaitCompletion(ctx context.Context, jobs JobGetter, jobID string, opts PollOptions) (Job, error) {
	if opts.Interval <= 0 {
		opts.Interval = 60 * time.Second
	}

	start := time.Now()
	for {
		job, err := jobs.GetJob(ctx, jobID)
		if err != nil {
			return Job{}, err
		}

		switch {
		case job.Status == StatusCompleted:
			return job, nil
		case IsFailure(job.Status):
			return Job{}, &JobError{JobID: jobID, Status: job.Status}
		}

		if opts.Deadline > 0 && time.Since(start)+opts.Interval > opts.Deadline {
			return Job{}, &TimeoutError{JobID: jobID, Elapsed: time.Since(start)}
		}

		slog.Info("batch job not finished, waiting",
			"job_id", jobID, "status", job.Status, "interval", opts.Interval.String())

		select {
		case <-ctx.Done():
			return Job{}, fmt.Errorf("await batch job %s: %w", jobID, ctx.Err())
		case <-time.After(opts.Interval):
		}
	}
}
