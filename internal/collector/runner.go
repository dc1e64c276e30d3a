// Package collector runs one collection pass: fetch every employer board,
// classify each posting, then dedupe and tally the batch.
package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/matjmiles/healthcare-job-organizer/internal/ats"
	"github.com/matjmiles/healthcare-job-organizer/internal/pipeline"
	"github.com/matjmiles/healthcare-job-organizer/internal/posting"
	"github.com/matjmiles/healthcare-job-organizer/internal/seen"
)

const defaultConcurrency = 4

// Fetcher retrieves an employer's postings. *ats.Registry satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, employer ats.Employer) ([]posting.Raw, error)
}

// NewPostingFunc is called by Commit once per record that the seen cache
// had not recorded before
type NewPostingFunc func(ctx context.Context, record posting.Normalized)

// Config wires a Runner
type Config struct {
	Pipeline    *pipeline.Pipeline
	Fetcher     Fetcher
	Seen        seen.Cache
	Concurrency int
	Logger      *slog.Logger
	Now         func() time.Time
	OnNew       NewPostingFunc
}

// EmployerError records a board that could not be collected
type EmployerError struct {
	Company  string           `json:"company"`
	Platform posting.Platform `json:"platform"`
	Slug     string           `json:"slug"`
	Error    string           `json:"error"`
}

// Result is the output of one run. Jobs are deduplicated and ordered by
// employer then posting position.
type Result struct {
	Jobs   []posting.Normalized `json:"jobs"`
	Errors []EmployerError      `json:"errors"`
	Stats  pipeline.RunStats    `json:"stats"`

	// pending indexes Jobs the seen cache did not hold, awaiting Commit
	pending []int
}

// Runner collects employer boards with a bounded worker pool
type Runner struct {
	pipeline    *pipeline.Pipeline
	fetcher     Fetcher
	seen        seen.Cache
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
	onNew       NewPostingFunc
}

// New builds a Runner. Pipeline and Fetcher are required.
func New(cfg Config) (*Runner, error) {
	if cfg.Pipeline == nil {
		return nil, errors.New("collector: pipeline is required")
	}
	if cfg.Fetcher == nil {
		return nil, errors.New("collector: fetcher is required")
	}

	r := &Runner{
		pipeline:    cfg.Pipeline,
		fetcher:     cfg.Fetcher,
		seen:        cfg.Seen,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
		now:         cfg.Now,
		onNew:       cfg.OnNew,
	}
	if r.concurrency <= 0 {
		r.concurrency = defaultConcurrency
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r, nil
}

type task struct {
	index    int
	employer ats.Employer
}

type employerResult struct {
	index    int
	employer ats.Employer
	outcomes []pipeline.Outcome
	err      error
}

type ordered struct {
	employer int
	position int
	record   posting.Normalized
}

// Run collects every employer. Fetch failures are recorded per employer and
// never abort the run; only cancellation of ctx does, in which case the
// employers finished so far are returned with the error.
//
// Run only reads the seen cache: FirstSeenAt is stamped from it, or with the
// collection time for postings it does not hold, and NewPostings counts the
// latter. Commit records them once the caller has stored the result.
func (r *Runner) Run(ctx context.Context, employers []ats.Employer) (*Result, error) {
	r.logger.Info("Collection run started",
		slog.Int("employers", len(employers)),
		slog.Int("concurrency", r.concurrency),
	)

	tasks := make(chan task)
	results := make(chan employerResult)

	var wg sync.WaitGroup
	for i := 0; i < r.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.workerLoop(ctx, tasks, results)
		}()
	}

	go func() {
		defer close(tasks)
		for i, emp := range employers {
			select {
			case tasks <- task{index: i, employer: emp}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	agg := pipeline.NewAggregator()
	var collected []ordered
	failedAt := make(map[int]EmployerError)

	for res := range results {
		if res.err != nil {
			failedAt[res.index] = EmployerError{
				Company:  res.employer.Company,
				Platform: res.employer.Platform,
				Slug:     res.employer.Slug,
				Error:    res.err.Error(),
			}
			agg.AddEmployerFailure()
			continue
		}
		for pos, out := range res.outcomes {
			agg.Record(out.Classification)
			if out.Included() {
				collected = append(collected, ordered{employer: res.index, position: pos, record: *out.Record})
			}
		}
	}

	employerErrors := []EmployerError{}
	for i := range employers {
		if e, ok := failedAt[i]; ok {
			employerErrors = append(employerErrors, e)
		}
	}

	sort.Slice(collected, func(i, j int) bool {
		if collected[i].employer != collected[j].employer {
			return collected[i].employer < collected[j].employer
		}
		return collected[i].position < collected[j].position
	})
	records := make([]posting.Normalized, len(collected))
	for i, c := range collected {
		records[i] = c.record
	}

	jobs, removed := pipeline.Dedupe(records)
	if jobs == nil {
		jobs = []posting.Normalized{}
	}
	agg.AddDuplicates(removed)
	result := &Result{Jobs: jobs, Errors: employerErrors}

	if err := ctx.Err(); err != nil {
		result.Stats = agg.Snapshot(r.now().UTC())
		r.logger.Warn("Collection run canceled",
			slog.Int("analyzed", result.Stats.TotalJobsAnalyzed),
			slog.Int("included", result.Stats.FinalJobsIncluded),
		)
		return result, fmt.Errorf("collection canceled: %w", err)
	}

	agg.AddNewPostings(r.lookupSeen(ctx, result))
	result.Stats = agg.Snapshot(r.now().UTC())
	r.logger.Info("Collection run finished",
		slog.Int("analyzed", result.Stats.TotalJobsAnalyzed),
		slog.Int("included", result.Stats.FinalJobsIncluded),
		slog.Int("duplicates", result.Stats.DuplicatesRemoved),
		slog.Int("new", result.Stats.NewPostings),
		slog.Int("employers_failed", result.Stats.EmployersFailed),
	)
	return result, nil
}

func (r *Runner) workerLoop(ctx context.Context, tasks <-chan task, results chan<- employerResult) {
	for t := range tasks {
		res := r.collect(ctx, t)
		select {
		case results <- res:
		case <-ctx.Done():
			return
		}
	}
}

func (r *Runner) collect(ctx context.Context, t task) employerResult {
	res := employerResult{index: t.index, employer: t.employer}

	raws, err := r.fetcher.Fetch(ctx, t.employer)
	if err != nil {
		r.logger.Warn("Employer fetch failed",
			slog.String("company", t.employer.Company),
			slog.String("platform", string(t.employer.Platform)),
			slog.String("slug", t.employer.Slug),
			slog.String("error", err.Error()),
		)
		res.err = err
		return res
	}

	res.outcomes = make([]pipeline.Outcome, len(raws))
	for i, raw := range raws {
		if raw.Company == "" {
			raw.Company = t.employer.Company
		}
		res.outcomes[i] = r.pipeline.Process(raw)
	}

	r.logger.Debug("Employer collected",
		slog.String("company", t.employer.Company),
		slog.Int("postings", len(raws)),
	)
	return res
}

// lookupSeen stamps FirstSeenAt on each job and returns how many the cache
// does not hold. Cache failures are logged and the job is treated as
// already seen.
func (r *Runner) lookupSeen(ctx context.Context, res *Result) int {
	if r.seen == nil {
		return 0
	}

	for i := range res.Jobs {
		job := &res.Jobs[i]
		first, ok, err := r.seen.FirstSeen(ctx, job.DedupKey, job.CollectedAt)
		if err != nil {
			r.logger.Warn("Seen cache unavailable",
				slog.String("dedup_key", job.DedupKey),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !ok {
			first = job.CollectedAt
			res.pending = append(res.pending, i)
		}
		first = first.UTC()
		job.FirstSeenAt = &first
	}
	return len(res.pending)
}

// Commit records the result's new postings in the seen cache and calls
// OnNew for each one this call recorded first. Call it after the result is
// stored, so a failed store leaves the postings new for the retry. It
// returns how many keys were recorded; a second Commit records none.
func (r *Runner) Commit(ctx context.Context, res *Result) int {
	if r.seen == nil || res == nil {
		return 0
	}

	recorded := 0
	for _, i := range res.pending {
		job := &res.Jobs[i]
		isNew, first, err := r.seen.MarkSeen(ctx, job.DedupKey, job.CollectedAt)
		if err != nil {
			r.logger.Warn("Failed to record seen posting",
				slog.String("dedup_key", job.DedupKey),
				slog.String("error", err.Error()),
			)
			continue
		}
		first = first.UTC()
		job.FirstSeenAt = &first
		if !isNew {
			continue
		}
		recorded++
		if r.onNew != nil {
			r.onNew(ctx, *job)
		}
	}
	res.pending = nil
	return recorded
}
