package model

import "time"

// RepoStatus describes how processing of one repository ended.
type RepoStatus string

const (
	// StatusOK means the repository was resolved and its files were processed.
	// Individual file failures do not change the status; they are counted in
	// FilesFailed instead.
	StatusOK RepoStatus = "ok"
	// StatusFailed means URL parsing or branch/tree resolution failed, or
	// processing hit an unexpected fault. Tokens collected before the fault
	// are kept.
	StatusFailed RepoStatus = "failed"
	// StatusCancelled means processing was cut short by run cancellation.
	// Tokens collected before the cut-off are kept.
	StatusCancelled RepoStatus = "cancelled"
)

// String returns the string representation of the RepoStatus.
func (s RepoStatus) String() string {
	return string(s)
}

// RepoResult is the structured outcome of processing a single repository.
//
// Design decision: failures travel inside the result as status and message
// text rather than as Go errors. The worker pool treats every repository
// job as infallible, so one broken repository can never abort the run.
type RepoResult struct {
	// URL is the repository URL exactly as given in the input list.
	URL string `json:"url"`

	// Repo is the parsed owner/name reference. Zero when the URL was malformed.
	Repo RepoRef `json:"repo"`

	// Branch is the resolved default branch. Empty when resolution failed.
	Branch string `json:"branch,omitempty"`

	// Truncated is true when the API cut off the tree listing and the file
	// set is known to be incomplete.
	Truncated bool `json:"truncated,omitempty"`

	// Status summarizes the outcome.
	Status RepoStatus `json:"status"`

	// Message is a human-readable diagnostic for failed or cancelled
	// repositories. Empty on success.
	Message string `json:"message,omitempty"`

	// FilesListed is the number of harvestable files found in the tree.
	FilesListed int `json:"files_listed"`

	// FilesFetched is the number of files successfully downloaded and scanned.
	FilesFetched int `json:"files_fetched"`

	// FilesFailed is the number of files that could not be downloaded.
	FilesFailed int `json:"files_failed"`

	// KindCounts tallies fetched files per content kind.
	KindCounts map[ContentKind]int `json:"kind_counts,omitempty"`

	// Tokens holds the unique tokens this repository contributed, sorted.
	Tokens []ProxyToken `json:"tokens,omitempty"`

	// Duration is the wall-clock time spent on this repository.
	Duration time.Duration `json:"duration_ns"`
}

// TokenCount returns the number of unique tokens this repository contributed.
func (r *RepoResult) TokenCount() int {
	return len(r.Tokens)
}

// CountKind records one fetched file of the given kind.
func (r *RepoResult) CountKind(kind ContentKind) {
	if r.KindCounts == nil {
		r.KindCounts = make(map[ContentKind]int)
	}
	r.KindCounts[kind]++
}
