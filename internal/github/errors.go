package github

import "errors"

// Resolver errors.
var (
	// ErrNoDefaultBranch is returned when the repository metadata carries
	// no default branch, which makes the tree listing impossible.
	ErrNoDefaultBranch = errors.New("repository has no default branch")
)
