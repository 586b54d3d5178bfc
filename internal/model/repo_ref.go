package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Repository reference errors.
var (
	// ErrInvalidRepoURL is returned when a repository URL does not yield an
	// owner and repository name.
	ErrInvalidRepoURL = errors.New("invalid repository url: owner and name not found")
)

// RepoRef identifies a repository by its owner and name.
type RepoRef struct {
	// Owner is the account or organization that owns the repository.
	Owner string `json:"owner"`
	// Name is the repository name.
	Name string `json:"name"`
}

// ParseRepoRef derives a RepoRef from a repository URL. The owner and name
// are taken from the last two non-empty path segments, so trailing slashes
// and deep links are tolerated. No network access is performed; a URL
// without two path segments (for example a bare hostname) fails here,
// before any API call is made.
func ParseRepoRef(rawURL string) (RepoRef, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return RepoRef{}, fmt.Errorf("%w: %q", ErrInvalidRepoURL, rawURL)
	}

	segments := make([]string, 0, 4)
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) < 2 {
		return RepoRef{}, fmt.Errorf("%w: %q", ErrInvalidRepoURL, rawURL)
	}

	return RepoRef{
		Owner: segments[len(segments)-2],
		Name:  segments[len(segments)-1],
	}, nil
}

// String returns the owner/name form of the reference.
func (r RepoRef) String() string {
	return r.Owner + "/" + r.Name
}

// IsZero returns true if this is a zero value (empty) RepoRef.
func (r RepoRef) IsZero() bool {
	return r.Owner == "" && r.Name == ""
}
