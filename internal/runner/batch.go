package runner

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/dichotomy/internal/config"
	"github.com/Aman-CERP/dichotomy/pkg/dichotomy"
)

// Job is one search of a batch.
type Job struct {
	// Name identifies the job in results, usually the config file path.
	Name   string
	Config *config.Config
	RunID  string
}

// JobResult is the outcome of one Job.
type JobResult struct {
	Name    string
	Summary dichotomy.Summary
	Err     error
}

// BatchOptions tunes RunBatch.
type BatchOptions struct {
	// Concurrency caps the searches running at once. Defaults to GOMAXPROCS.
	Concurrency int
	// FailFast cancels the remaining searches after the first error. They end
	// as interrupted.
	FailFast bool
}

// RunBatch runs every job concurrently, each search sequential on its own
// scenario. deps is shared except for Config and Renderer, which are
// replaced per job and left unset respectively. Results keep the job order.
func RunBatch(ctx context.Context, jobs []Job, deps Dependencies, opts BatchOptions) ([]JobResult, error) {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]JobResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, job := range jobs {
		g.Go(func() error {
			results[i].Name = job.Name

			jobDeps := deps
			jobDeps.Config = job.Config
			jobDeps.Renderer = nil
			r, err := New(jobDeps)
			if err == nil {
				results[i].Summary, err = r.Run(gctx, job.RunID)
			}
			if err == nil {
				err = FatalError(results[i].Summary)
			}
			results[i].Err = err

			if opts.FailFast {
				return err
			}
			return nil
		})
	}

	return results, g.Wait()
}
