// Package worker scores athletes concurrently while a table is being published.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/okian/athleteprofile/internal/adapters/mq/queue"
	"github.com/okian/athleteprofile/internal/adapters/repository"
	"github.com/okian/athleteprofile/pkg/logger"
	"github.com/okian/athleteprofile/pkg/metrics"
)

// Job asks for the composite of one athlete. Index is the athlete's
// position in the input so results keep input order.
type Job struct {
	Index   int
	Athlete string
}

// Scorer computes the leaderboard score of one athlete.
type Scorer interface {
	ScoreAthlete(ctx context.Context, athlete string) (repository.Score, error)
}

// ScoreFunc adapts a function to Scorer.
type ScoreFunc func(ctx context.Context, athlete string) (repository.Score, error)

// ScoreAthlete calls f.
func (f ScoreFunc) ScoreAthlete(ctx context.Context, athlete string) (repository.Score, error) {
	return f(ctx, athlete)
}

// InMemoryWorker consumes jobs and stores each result at its job index.
type InMemoryWorker struct {
	jobs    <-chan Job
	scorer  Scorer
	results []*repository.Score
	failed  *atomic.Int64
	logger  logger.Logger
}

// Run processes jobs until the channel is closed or ctx is cancelled.
func (w *InMemoryWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-w.jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job Job) {
	score, err := w.scorer.ScoreAthlete(ctx, job.Athlete)
	if err != nil {
		w.failed.Add(1)
		metrics.RecordCompositeError()
		metrics.RecordErrorByComponent("worker", "scoring_error")
		w.logger.Warn(ctx, "composite failed",
			logger.String("athlete", job.Athlete),
			logger.Error(err),
		)
		return
	}
	w.results[job.Index] = &score
}

// Pool runs a fixed number of workers over the athletes of one table.
type Pool struct {
	size   int
	scorer Scorer
	name   string
	logger logger.Logger
}

// NewPool creates a new worker pool. A non-positive count uses one worker per CPU.
func NewPool(workerCount int, scorer Scorer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		size:   workerCount,
		scorer: scorer,
		name:   "worker",
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Run scores every athlete and returns the successful scores in input
// order with the number of failures. Failed athletes are left out; a
// cancelled ctx aborts the run.
func (p *Pool) Run(ctx context.Context, athletes []string) ([]repository.Score, int, error) {
	if len(athletes) == 0 {
		return nil, 0, nil
	}

	q := queue.NewInMemoryQueue[Job](queue.WithCapacity(len(athletes)), queue.WithName("scoring_queue"))
	for i, a := range athletes {
		if err := q.Enqueue(ctx, Job{Index: i, Athlete: a}); err != nil {
			return nil, 0, fmt.Errorf("enqueue %q: %w", a, err)
		}
	}
	_ = q.Close()

	var (
		results = make([]*repository.Score, len(athletes))
		failed  atomic.Int64
		wg      sync.WaitGroup
	)
	workers := min(p.size, len(athletes))
	for i := range workers {
		w := &InMemoryWorker{
			jobs:    q.Dequeue(),
			scorer:  p.scorer,
			results: results,
			failed:  &failed,
			logger:  p.logger.Named(p.name + "-" + strconv.Itoa(i)),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, int(failed.Load()), fmt.Errorf("scoring cancelled: %w", err)
	}

	scores := make([]repository.Score, 0, len(athletes))
	for _, s := range results {
		if s != nil {
			scores = append(scores, *s)
		}
	}
	return scores, int(failed.Load()), nil
}
