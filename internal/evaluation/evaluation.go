// Package evaluation runs batch snapshot commits at evaluation time.
//
// A run walks the given lecturers through a bounded in-memory job queue and
// a small worker pool, committing one snapshot per active lecturer through
// the engine. The engine's own lock serializes the commits; the pool only
// overlaps the bookkeeping around them. A run is synchronous: Run returns
// once every job is drained.
package evaluation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mweemba/staffkpi/internal/domain/model"
	"github.com/mweemba/staffkpi/pkg/logger"
	"github.com/mweemba/staffkpi/pkg/metrics"
)

// Default pool configuration.
const (
	defaultWorkerCount   = 4
	defaultQueueCapacity = 1024
)

// Committer commits one score snapshot. Implemented by the engine facade.
type Committer interface {
	CommitSnapshot(ctx context.Context, lecturerID string, ts time.Time) (model.ScoreSnapshot, error)
}

// Summary reports the outcome of one evaluation run.
type Summary struct {
	Committed int `json:"committed"` // snapshots appended
	Skipped   int `json:"skipped"`   // inactive or unscoreable lecturers
	Failed    int `json:"failed"`    // commits that errored
}

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithWorkerCount sets the number of commit workers.
func WithWorkerCount(count int) Option {
	return func(r *Runner) {
		if count > 0 {
			r.workerCount = count
		}
	}
}

// WithQueueCapacity bounds the job queue. Enqueueing blocks when full, which
// throttles the producer instead of dropping lecturers.
func WithQueueCapacity(capacity int) Option {
	return func(r *Runner) {
		if capacity > 0 {
			r.queueCapacity = capacity
		}
	}
}

// WithLogger sets a custom logger for the runner.
func WithLogger(log logger.Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// Runner drives evaluation runs against a committer.
type Runner struct {
	committer     Committer
	workerCount   int
	queueCapacity int
	log           logger.Logger
}

// NewRunner creates a runner with configuration options.
func NewRunner(committer Committer, opts ...Option) *Runner {
	r := &Runner{
		committer:     committer,
		workerCount:   defaultWorkerCount,
		queueCapacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get().Named("evaluation")
	}
	return r
}

// Run commits a snapshot at ts for every active lecturer in the list and
// returns the run summary. Lecturers who are not active, or who have no
// assigned weight, are skipped rather than scored as zero. Cancelling ctx
// abandons undrained jobs; drained jobs still count in the summary.
func (r *Runner) Run(ctx context.Context, lecturers []model.Lecturer, ts time.Time) Summary {
	start := time.Now()

	jobs := make(chan string, r.queueCapacity)
	var committed, skipped, failed atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < r.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for lecturerID := range jobs {
				if ctx.Err() != nil {
					continue // drain without committing
				}
				_, err := r.committer.CommitSnapshot(ctx, lecturerID, ts)
				switch {
				case err == nil:
					committed.Add(1)
				case errors.Is(err, model.ErrInsufficientData):
					skipped.Add(1)
				default:
					failed.Add(1)
					metrics.RecordErrorByComponent("evaluation", "commit")
					r.log.Error(ctx, "snapshot commit failed",
						logger.String("lecturerID", lecturerID),
						logger.Error(err),
					)
				}
			}
		}()
	}

	for _, l := range lecturers {
		if l.Status != model.LecturerActive {
			skipped.Add(1)
			continue
		}
		select {
		case jobs <- l.ID:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	summary := Summary{
		Committed: int(committed.Load()),
		Skipped:   int(skipped.Load()),
		Failed:    int(failed.Load()),
	}
	metrics.RecordEvaluationRun(float64(time.Since(start).Microseconds()) / 1e3)
	r.log.Info(ctx, "evaluation run finished",
		logger.Int("committed", summary.Committed),
		logger.Int("skipped", summary.Skipped),
		logger.Int("failed", summary.Failed),
	)
	return summary
}
