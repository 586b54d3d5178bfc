// Package harvest orchestrates the crawl-resolve-fetch-extract pipeline.
//
// The Scheduler runs a bounded pool of workers, one repository per job.
// Each job resolves the repository against the GitHub API, downloads its
// harvestable files sequentially, extracts proxy endpoint candidates from
// every file, and merges them into a shared Collection. Total in-flight
// network calls therefore stay near the pool size regardless of how many
// files a repository holds.
//
// # Failure isolation
//
// Nothing a repository does can abort the run. Resolution failures, fetch
// failures, and even panics inside a job are converted into the job's
// RepoResult and the pool moves on. The run ends early only when the
// context is cancelled, and even then the Report carries everything
// collected up to the cut-off.
//
// # Cancellation
//
// Cancellation is observed before each repository starts, before each file
// download, and inside every network call through context propagation.
// In-flight requests finish or time out; no new work starts afterwards.
package harvest
