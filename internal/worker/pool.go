// Package worker runs batches of conversions concurrently. In-flight work
// is bounded by a weighted semaphore, and an optional rate limiter caps
// how fast new conversions start regardless of how many could run.
package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/canvaspress/canvaspress/internal/pipeline"
)

// Job is one conversion in a batch. Source labels it in logs and outcomes;
// for CLI batches it is the design file path.
type Job struct {
	Source  string
	Request pipeline.ConvertRequest
}

// Outcome pairs a job with its result or error.
type Outcome struct {
	Source string
	Result *pipeline.ConvertResult
	Err    error
}

// Pool executes conversion jobs with bounded concurrency.
type Pool struct {
	logger   *zap.Logger
	pipeline *pipeline.Pipeline
	sem      *semaphore.Weighted
	limiter  *rate.Limiter
}

// NewPool creates a pool running at most concurrency jobs at once. A nil
// limiter means unthrottled starts.
func NewPool(p *pipeline.Pipeline, concurrency int, limiter *rate.Limiter, logger *zap.Logger) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Pool{
		logger:   logger.Named("worker"),
		pipeline: p,
		sem:      semaphore.NewWeighted(int64(concurrency)),
		limiter:  limiter,
	}
}

// Run processes every job and returns outcomes in job order. A failed job
// never stops its siblings; context cancellation stops admitting new jobs
// and the remaining outcomes carry the context error.
func (p *Pool) Run(ctx context.Context, jobs []Job) []Outcome {
	outcomes := make([]Outcome, len(jobs))

	var wg sync.WaitGroup
	for i, job := range jobs {
		outcomes[i].Source = job.Source

		if err := p.limiter.Wait(ctx); err != nil {
			outcomes[i].Err = err
			continue
		}
		if err := p.sem.Acquire(ctx, 1); err != nil {
			outcomes[i].Err = err
			continue
		}

		wg.Add(1)
		go func(i int, job Job) {
			defer wg.Done()
			defer p.sem.Release(1)

			result, err := p.pipeline.Convert(ctx, job.Request)
			if err != nil {
				p.logger.Error("Batch job failed.", zap.String("source", job.Source), zap.Error(err))
				outcomes[i].Err = err
				return
			}
			outcomes[i].Result = result
		}(i, job)
	}
	wg.Wait()

	return outcomes
}
