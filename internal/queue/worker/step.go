package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/teamloop/feedbackhub/internal/domain/job"
	"github.com/teamloop/feedbackhub/internal/jobs"
	"github.com/teamloop/feedbackhub/internal/notifications"
)

// ProcessOne claims and executes at most one job. The bool reports whether a
// job was actually claimed, so callers know when the queue is drained.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}
		return false, err
	}

	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	start := time.Now()
	err = w.execute(ctx, j)

	if err != nil {
		w.handleFailure(ctx, j, err, time.Since(start))
		return true, nil
	}

	if err := w.repo.MarkDone(ctx, j.ID); err != nil {
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		return true, err
	}

	if w.prom != nil {
		w.prom.ObserveJob(j.Type, "done", time.Since(start))
	}

	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	payload, err := jobs.DecodePayload(jobs.JobType(j.Type), j.Payload)

	if err != nil {
		return err
	}

	switch p := payload.(type) {
	case jobs.FeedbackSubmittedPayload:
		return w.sendFeedbackSubmitted(ctx, p)
	default:
		return jobs.ErrInvalidJobType
	}
}

func (w *Worker) sendFeedbackSubmitted(ctx context.Context, p jobs.FeedbackSubmittedPayload) error {
	employee, err := w.users.GetByID(ctx, p.EmployeeID)

	if err != nil {
		return fmt.Errorf("load employee: %w", err)
	}

	manager, err := w.users.GetByID(ctx, p.ManagerID)

	if err != nil {
		return fmt.Errorf("load manager: %w", err)
	}

	return w.notifier.SendFeedbackSubmitted(ctx, notifications.SendFeedbackSubmittedInput{
		Email:       employee.Email,
		Name:        employee.Name,
		ManagerName: manager.Name,
		FeedbackID:  p.FeedbackID,
	})
}

func (w *Worker) handleFailure(ctx context.Context, j job.Job, execErr error, took time.Duration) {
	// attempts counts completed tries; this one has not been written back yet
	attempt := j.Attempts + 1

	if attempt >= j.MaxAttempts {
		if err := w.repo.MarkFailed(ctx, j.ID, execErr.Error()); err != nil {
			w.log.Error("mark failed", "job", j.ID, "err", err)
		}

		if w.prom != nil {
			w.prom.ObserveJob(j.Type, "failed", took)
		}

		w.log.Error("job dead-lettered", "job", j.ID, "type", j.Type, "attempts", attempt, "err", execErr)
		return
	}

	runAt := time.Now().UTC().Add(ExponentialBackoff(j.Attempts))

	if err := w.repo.Reschedule(ctx, j.ID, runAt, execErr.Error()); err != nil {
		w.log.Error("reschedule", "job", j.ID, "err", err)
		return
	}

	if w.prom != nil {
		w.prom.ObserveJob(j.Type, "retry", took)
	}

	w.log.Warn("job retry scheduled", "job", j.ID, "type", j.Type, "attempt", attempt, "run_at", runAt, "err", execErr)
}
