package batch

import (
	"context"
	"fmt"
	"os"
	"time"

	"killcurve/domain/assay"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// costUnit is the file size that costs one unit of capacity. Workbooks are
// loaded fully into memory, so large plates hold more of the budget.
const costUnit = 4 << 20

// AnalyzeFunc analyzes one file.
type AnalyzeFunc func(ctx context.Context, path string) (*assay.Report, error)

// Result is the outcome for one file. Exactly one of Report and Err is set.
type Result struct {
	Path     string
	Report   *assay.Report
	Err      error
	Duration time.Duration
}

// Executor analyzes many files concurrently with size-weighted throttling.
// A failing file never affects the others.
type Executor struct {
	sem      *semaphore.Weighted
	capacity int64
	log      logrus.FieldLogger
}

// NewExecutor creates an executor with the given capacity in units.
func NewExecutor(capacity int, log logrus.FieldLogger) *Executor {
	if capacity < 1 {
		capacity = 1
	}
	return &Executor{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: int64(capacity),
		log:      log.WithField("component", "batch"),
	}
}

// Run analyzes every path and returns results in input order.
func (e *Executor) Run(ctx context.Context, paths []string, analyze AnalyzeFunc) []Result {
	results := make([]Result, len(paths))

	var g errgroup.Group
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			results[i] = e.runOne(ctx, path, analyze)
			return nil
		})
	}
	_ = g.Wait()

	failed := Failed(results)
	e.log.WithFields(logrus.Fields{
		"files":  len(paths),
		"failed": failed,
	}).Info("Batch finished")

	return results
}

func (e *Executor) runOne(ctx context.Context, path string, analyze AnalyzeFunc) Result {
	if err := ctx.Err(); err != nil {
		return Result{Path: path, Err: err}
	}
	cost := e.cost(path)
	if err := e.sem.Acquire(ctx, cost); err != nil {
		return Result{Path: path, Err: fmt.Errorf("waiting for capacity: %w", err)}
	}
	defer e.sem.Release(cost)

	start := time.Now()
	report, err := analyze(ctx, path)
	res := Result{Path: path, Report: report, Err: err, Duration: time.Since(start)}
	if err != nil {
		res.Report = nil
	}

	log := e.log.WithFields(logrus.Fields{
		"file":     path,
		"cost":     cost,
		"duration": res.Duration,
	})
	if err != nil {
		log.WithError(err).Warn("File failed")
	} else {
		log.WithField("status", report.Outcome.Status).Debug("File analyzed")
	}
	return res
}

// cost weighs a file by size, capped at the executor's capacity.
func (e *Executor) cost(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 1
	}
	units := info.Size()/costUnit + 1
	if units > e.capacity {
		return e.capacity
	}
	return units
}

// Reports returns the successful reports in input order.
func Reports(results []Result) []*assay.Report {
	var out []*assay.Report
	for _, r := range results {
		if r.Err == nil && r.Report != nil {
			out = append(out, r.Report)
		}
	}
	return out
}

// Failed counts results with an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
