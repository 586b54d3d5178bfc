package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/proxyharvest/proxyharvest/internal/extract"
	"github.com/proxyharvest/proxyharvest/internal/github"
	"github.com/proxyharvest/proxyharvest/internal/model"
)

// Resolver turns a repository URL into a download listing.
// *github.Resolver satisfies this interface.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (*github.Listing, error)
}

// Fetcher downloads raw file content.
// *fetch.Client satisfies this interface.
type Fetcher interface {
	GetRaw(ctx context.Context, url string) ([]byte, error)
}

// ResultCallback is invoked once per repository as soon as its job finishes,
// with the job's result and its index in the input slice. Callbacks run on
// worker goroutines and must be safe for concurrent use.
type ResultCallback func(result *model.RepoResult, index int)

// Scheduler runs repository jobs on a bounded worker pool and aggregates
// their tokens into one deduplicated collection.
//
// Design decision: We use errgroup.SetLimit rather than a hand-rolled worker
// pool because each repository is an independent job and errgroup handles
// the concurrency bound and context plumbing correctly. Each repository gets
// its own goroutine, but only 'workers' goroutines run simultaneously.
type Scheduler struct {
	// resolver resolves repository URLs into file listings.
	resolver Resolver

	// fetcher downloads raw file content.
	fetcher Fetcher

	// extractor turns file content into tokens. Stateless and shared by
	// all workers.
	extractor *extract.Extractor

	// workers is the maximum number of repositories processed concurrently.
	workers int

	// logger is used for run-level and per-repository logging.
	logger *slog.Logger

	// callback streams per-repository results as they complete. Optional.
	callback ResultCallback

	// mu guards writes into the per-run results slice.
	mu sync.Mutex
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithWorkers sets the worker pool size. Non-positive values are ignored
// and the default of 10 is kept.
func WithWorkers(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithSchedulerLogger sets a custom logger for the run.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithResultCallback streams each repository's result as soon as its job
// finishes. Useful for progress reporting.
func WithResultCallback(callback ResultCallback) SchedulerOption {
	return func(s *Scheduler) {
		s.callback = callback
	}
}

// NewScheduler creates a Scheduler that resolves repositories with resolver
// and downloads file content with fetcher.
func NewScheduler(resolver Resolver, fetcher Fetcher, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		resolver:  resolver,
		fetcher:   fetcher,
		extractor: extract.NewExtractor(),
		workers:   10,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Run processes every repository URL on the worker pool and returns the
// aggregate Report. Run never fails: broken URLs, unreachable repositories,
// and undownloadable files are all recorded in the per-repository results,
// and cancellation only cuts the run short. The report's Results slice has
// one entry per input URL, in input order, and its Proxies slice is the
// deduplicated union of every repository's tokens, sorted lexically.
func (s *Scheduler) Run(ctx context.Context, repoURLs []string) *model.Report {
	startedAt := time.Now()

	s.logger.Info("starting harvest",
		"repositories", len(repoURLs),
		"workers", s.workers,
	)

	collection := NewCollection()
	results := make([]model.RepoResult, len(repoURLs))

	g, jobCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, repoURL := range repoURLs {
		g.Go(func() error {
			// Check for cancellation before starting the repository.
			select {
			case <-jobCtx.Done():
				s.store(results, i, &model.RepoResult{
					URL:     repoURL,
					Status:  model.StatusCancelled,
					Message: "run cancelled before processing started",
				})
				return jobCtx.Err()
			default:
			}

			s.logger.Debug("processing repository",
				"url", repoURL,
				"index", i+1,
				"total", len(repoURLs),
			)

			result := s.runRepo(jobCtx, repoURL, collection)
			s.store(results, i, result)

			if result.Status != model.StatusOK {
				s.logger.Warn("repository contributed no complete result",
					"url", repoURL,
					"status", result.Status.String(),
					"reason", result.Message,
				)
				// Do not return an error: one broken repository must not
				// stop the remaining jobs.
				return nil
			}

			s.logger.Debug("repository done",
				"url", repoURL,
				"files", result.FilesFetched,
				"tokens", result.TokenCount(),
			)
			return nil
		})
	}

	// The workers only ever surface context errors; everything else is
	// absorbed into the per-repository results. A cancellation that lands
	// after every job has started never reaches Wait, so the caller's
	// context is consulted as well.
	err := g.Wait()

	report := &model.Report{
		StartedAt:   startedAt,
		FinishedAt:  time.Now(),
		Workers:     s.workers,
		RepoCount:   len(repoURLs),
		Results:     results,
		Proxies:     collection.Sorted(),
		Interrupted: err != nil || ctx.Err() != nil,
	}

	s.logger.Info("harvest complete",
		"repositories", len(repoURLs),
		"proxies", report.ProxyCount(),
		"interrupted", report.Interrupted,
		"elapsed", report.Duration(),
	)

	return report
}

// store records a finished result and streams it to the callback.
func (s *Scheduler) store(results []model.RepoResult, i int, result *model.RepoResult) {
	s.mu.Lock()
	results[i] = *result
	s.mu.Unlock()

	if s.callback != nil {
		s.callback(result, i)
	}
}

// runRepo processes one repository end-to-end and merges its tokens into
// the shared collection. Partial tokens survive failure and cancellation.
func (s *Scheduler) runRepo(ctx context.Context, repoURL string, collection *Collection) *model.RepoResult {
	start := time.Now()
	result := &model.RepoResult{
		URL:    repoURL,
		Status: model.StatusOK,
	}

	local := NewCollection()
	s.harvestRepo(ctx, repoURL, result, local)

	result.Tokens = local.Sorted()
	result.Duration = time.Since(start)
	collection.Merge(local)

	return result
}

// harvestRepo performs the resolve and fetch-extract sequence for one
// repository, filling in result as it goes. A panic anywhere in the job is
// contained here so it cannot take down the pool; the repository keeps the
// tokens collected before the fault.
func (s *Scheduler) harvestRepo(ctx context.Context, repoURL string, result *model.RepoResult, local *Collection) {
	defer func() {
		if r := recover(); r != nil {
			result.Status = model.StatusFailed
			result.Message = fmt.Sprintf("unexpected fault: %v", r)
			s.logger.Error("repository job panicked",
				"url", repoURL,
				"panic", r,
			)
		}
	}()

	listing, err := s.resolver.Resolve(ctx, repoURL)
	if err != nil {
		result.Status = model.StatusFailed
		result.Message = err.Error()
		return
	}

	result.Repo = listing.Repo
	result.Branch = listing.Branch
	result.Truncated = listing.Truncated
	result.FilesListed = len(listing.Files)

	if listing.Truncated {
		s.logger.Warn("tree listing truncated; proceeding with a known-incomplete file set",
			"repo", listing.Repo.String(),
			"branch", listing.Branch,
		)
	}

	// Files are fetched sequentially and in listing order. Fan-out happens
	// across repositories, not inside one, so the pool size bounds the
	// total number of in-flight requests.
	for _, file := range listing.Files {
		select {
		case <-ctx.Done():
			result.Status = model.StatusCancelled
			result.Message = "run cancelled while fetching files"
			return
		default:
		}

		body, err := s.fetcher.GetRaw(ctx, file.RawURL)
		if err != nil {
			// A failed download means this file contributes nothing.
			result.FilesFailed++
			s.logger.Debug("file fetch failed",
				"repo", listing.Repo.String(),
				"path", file.Path,
				"error", err,
			)
			continue
		}

		result.FilesFetched++
		result.CountKind(file.Kind)
		local.Add(s.extractor.Extract(file.RawURL, body)...)
	}
}
