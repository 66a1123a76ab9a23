package batch

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/CEA-LIST/sgntx/pkg/convert"
	"github.com/CEA-LIST/sgntx/pkg/logger"
	"github.com/CEA-LIST/sgntx/pkg/metrics"
)

// Result is the outcome of one job. Err is nil on success.
type Result struct {
	Job      Job
	Stats    convert.Stats
	Duration time.Duration
	Err      error
}

// Runner fans jobs out to a bounded number of workers.
type Runner struct {
	converter *convert.Converter
	workers   int
	logger    logger.Logger
	metrics   *metrics.Metrics
}

// RunnerConfig holds the runner's collaborators. Only Converter is required.
type RunnerConfig struct {
	Converter *convert.Converter
	Workers   int // <= 0 means runtime.NumCPU()
	Logger    logger.Logger
	Metrics   *metrics.Metrics
}

// NewRunner creates a runner from config.
func NewRunner(config RunnerConfig) *Runner {
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	log := config.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Runner{
		converter: config.Converter,
		workers:   workers,
		logger:    log,
		metrics:   config.Metrics,
	}
}

// Workers returns the concurrency limit.
func (r *Runner) Workers() int {
	return r.workers
}

// Run converts every job and returns one Result per job in job order. A failed
// file never stops the others; cancelling ctx stops jobs that have not started
// and aborts the ones in flight.
func (r *Runner) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	g := new(errgroup.Group)
	g.SetLimit(r.workers)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			results[i] = r.runOne(ctx, job)
			// Errors stay in results so one file cannot cancel the rest
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (r *Runner) runOne(ctx context.Context, job Job) Result {
	res := Result{Job: job}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	if r.metrics != nil {
		defer r.metrics.FileStarted()()
	}

	start := time.Now()
	res.Stats, res.Err = r.converter.ConvertFile(ctx, job.Source, job.Destination)
	res.Duration = time.Since(start)

	if r.metrics != nil {
		r.metrics.RecordFile(res.Err == nil, res.Stats.Records, res.Stats.Bytes, res.Duration)
	}

	log := r.logger.With("source", job.Source, "destination", job.Destination)
	if res.Err != nil {
		log.Error("conversion failed", "error", res.Err, "duration", res.Duration)
	} else {
		log.Info("converted",
			"records", res.Stats.Records,
			"bytes", res.Stats.Bytes,
			"skipped_lines", res.Stats.Skipped,
			"duration", res.Duration,
		)
	}
	return res
}

// Summary aggregates a set of results.
type Summary struct {
	Files     int
	Succeeded int
	Failed    int
	Records   int64
	Bytes     int64
}

// Summarize counts outcomes and totals over results.
func Summarize(results []Result) Summary {
	s := Summary{Files: len(results)}
	for _, res := range results {
		if res.Err != nil {
			s.Failed++
			continue
		}
		s.Succeeded++
		s.Records += res.Stats.Records
		s.Bytes += res.Stats.Bytes
	}
	return s
}

// Failed returns the failed results only.
func Failed(results []Result) []Result {
	var out []Result
	for _, res := range results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}
