package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teamloop/feedbackhub/internal/domain/job"
	"github.com/teamloop/feedbackhub/internal/domain/user"
	"github.com/teamloop/feedbackhub/internal/notifications"
	"github.com/teamloop/feedbackhub/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
	RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error)
}

type UserGetter interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type Config struct {
	PollInterval  time.Duration
	WorkerID      string
	Concurrency   int
	LockTTL       time.Duration
	ShutdownGrace time.Duration
}

type Worker struct {
	cfg      Config
	repo     JobsRepository
	users    UserGetter
	notifier notifications.Notifier
	prom     *observability.Prom
	log      *slog.Logger

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, repo JobsRepository, users UserGetter, notifier notifications.Notifier, prom *observability.Prom, log *slog.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}

	return &Worker{
		cfg:      cfg,
		repo:     repo,
		users:    users,
		notifier: notifier,
		prom:     prom,
		log:      log,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	var wg sync.WaitGroup

	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			ticker := time.NewTicker(w.cfg.PollInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					// drain until the queue is empty, then go back to polling
					for {
						processed, err := w.ProcessOne(ctx)

						if err != nil {
							w.log.Error("process job", "err", err)
							break
						}
						if !processed {
							break
						}
					}
				}
			}
		}()
	}

	// janitor: release jobs abandoned by a dead worker
	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := w.repo.RequeueStaleProcessing(ctx, w.cfg.LockTTL)
				if err != nil {
					w.log.Error("requeue stale jobs", "err", err)
					continue
				}
				if n > 0 {
					w.log.Info("requeued stale jobs", "count", n)
				}
			}
		}
	}()

	<-ctx.Done()
	w.log.Info("worker shutting down")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(w.cfg.ShutdownGrace):
		w.log.Error("worker shutdown grace elapsed")
	}

	return nil
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}
