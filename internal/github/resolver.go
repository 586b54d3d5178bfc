package github

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/proxyharvest/proxyharvest/internal/fetch"
	"github.com/proxyharvest/proxyharvest/internal/model"
)

// Default endpoints. Tests point these at local servers.
const (
	// DefaultAPIBaseURL is the GitHub REST API endpoint.
	DefaultAPIBaseURL = "https://api.github.com"

	// DefaultRawBaseURL is the host serving raw file content.
	DefaultRawBaseURL = "https://raw.githubusercontent.com"

	// blobType marks file entries in a git tree listing.
	blobType = "blob"
)

// repoInfo is the subset of the repository metadata response we read.
type repoInfo struct {
	DefaultBranch string `json:"default_branch"`
}

// treeEntry is one entry of a git tree listing.
type treeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// treeResponse is the subset of the recursive tree listing we read.
type treeResponse struct {
	Truncated bool        `json:"truncated"`
	Tree      []treeEntry `json:"tree"`
}

// Listing is the resolved download plan for one repository: which branch to
// read and which files to fetch.
type Listing struct {
	// Repo is the owner/name reference the listing belongs to.
	Repo model.RepoRef

	// Branch is the repository's default branch.
	Branch string

	// Truncated is true when the API cut off the tree listing. The files
	// below are still fetchable; the set is just known to be incomplete.
	Truncated bool

	// Files are the harvestable files in tree order.
	Files []model.FileRef
}

// Resolver turns repository URLs into Listings using the GitHub REST API.
//
// Design decision: The resolver returns errors as values and keeps no
// progress state. The scheduler owns the policy of what a failed
// resolution means for the run; the resolver only reports what happened.
type Resolver struct {
	// client performs the API calls.
	client *fetch.Client

	// apiBase is the REST API endpoint.
	apiBase string

	// rawBase is the raw content host used to build download URLs.
	rawBase string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithAPIBaseURL overrides the REST API endpoint. Intended for tests.
func WithAPIBaseURL(base string) ResolverOption {
	return func(r *Resolver) {
		r.apiBase = base
	}
}

// WithRawBaseURL overrides the raw content host. Intended for tests.
func WithRawBaseURL(base string) ResolverOption {
	return func(r *Resolver) {
		r.rawBase = base
	}
}

// NewResolver creates a new Resolver that performs API calls with client.
func NewResolver(client *fetch.Client, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client:  client,
		apiBase: DefaultAPIBaseURL,
		rawBase: DefaultRawBaseURL,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve parses the repository URL, looks up the default branch, lists the
// repository tree recursively, and returns the harvestable files with their
// raw download URLs. A malformed URL fails before any network call. A
// truncated tree listing is not an error; the Listing carries the flag so
// the caller can log it.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*Listing, error) {
	ref, err := model.ParseRepoRef(rawURL)
	if err != nil {
		return nil, err
	}

	branch, err := r.defaultBranch(ctx, ref)
	if err != nil {
		return nil, err
	}

	entries, truncated, err := r.tree(ctx, ref, branch)
	if err != nil {
		return nil, err
	}

	files := make([]model.FileRef, 0, len(entries))
	for _, entry := range entries {
		if entry.Type != blobType || !model.Harvestable(entry.Path) {
			continue
		}
		files = append(files, model.FileRef{
			Path:   entry.Path,
			RawURL: fetch.JoinURL(r.rawBase, ref.Owner, ref.Name, branch, entry.Path),
			Kind:   model.KindForPath(entry.Path),
		})
	}

	return &Listing{
		Repo:      ref,
		Branch:    branch,
		Truncated: truncated,
		Files:     files,
	}, nil
}

// defaultBranch fetches the repository metadata and returns its default
// branch name.
func (r *Resolver) defaultBranch(ctx context.Context, ref model.RepoRef) (string, error) {
	url := fetch.JoinURL(r.apiBase, "repos", ref.Owner, ref.Name)

	body, err := r.client.GetAPI(ctx, url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch repository metadata for %s: %w", ref, err)
	}

	var info repoInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("failed to decode repository metadata for %s: %w", ref, err)
	}
	if info.DefaultBranch == "" {
		return "", fmt.Errorf("%w: %s", ErrNoDefaultBranch, ref)
	}
	return info.DefaultBranch, nil
}

// tree fetches the recursive tree listing for the given branch.
func (r *Resolver) tree(ctx context.Context, ref model.RepoRef, branch string) ([]treeEntry, bool, error) {
	url := fetch.JoinURL(r.apiBase, "repos", ref.Owner, ref.Name, "git", "trees", branch) + "?recursive=1"

	body, err := r.client.GetAPI(ctx, url)
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch tree listing for %s: %w", ref, err)
	}

	var tr treeResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, false, fmt.Errorf("failed to decode tree listing for %s: %w", ref, err)
	}
	return tr.Tree, tr.Truncated, nil
}
