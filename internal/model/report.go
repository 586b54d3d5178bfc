package model

import "time"

// Report is the aggregate outcome of one harvest run.
// It contains per-repository results in input order plus the global
// deduplicated token set, and is serializable for report output and
// database storage.
type Report struct {
	// StartedAt is the timestamp when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is the timestamp when the run finished or was interrupted.
	FinishedAt time.Time `json:"finished_at"`

	// Workers is the worker pool size used for the run.
	Workers int `json:"workers"`

	// RepoCount is the number of repository URLs in the input list.
	RepoCount int `json:"repo_count"`

	// Results holds one entry per input repository, in input order.
	Results []RepoResult `json:"results"`

	// Proxies is the global deduplicated token set, sorted lexically.
	Proxies []ProxyToken `json:"proxies"`

	// Interrupted is true when the run was cut short by a cancellation
	// signal. The collected partial results are still complete for every
	// repository that finished before the cut-off.
	Interrupted bool `json:"interrupted"`
}

// Duration returns the wall-clock duration of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// ProxyCount returns the number of unique proxies collected.
func (r *Report) ProxyCount() int {
	return len(r.Proxies)
}

// FilesFetched returns the total number of files downloaded across all
// repositories.
func (r *Report) FilesFetched() int {
	total := 0
	for i := range r.Results {
		total += r.Results[i].FilesFetched
	}
	return total
}

// CountByStatus returns how many repositories ended with the given status.
func (r *Report) CountByStatus(status RepoStatus) int {
	n := 0
	for i := range r.Results {
		if r.Results[i].Status == status {
			n++
		}
	}
	return n
}

// KindTotals aggregates fetched-file counts per content kind across all
// repositories.
func (r *Report) KindTotals() map[ContentKind]int {
	totals := make(map[ContentKind]int)
	for i := range r.Results {
		for kind, n := range r.Results[i].KindCounts {
			totals[kind] += n
		}
	}
	return totals
}
