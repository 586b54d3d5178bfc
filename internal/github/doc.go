// Package github resolves repository URLs into concrete download plans
// against the GitHub REST API.
//
// Resolution is a three-step sequence per repository:
//  1. Parse owner and name from the URL (no network)
//  2. GET /repos/{owner}/{name} for the default branch
//  3. GET /repos/{owner}/{name}/git/trees/{branch}?recursive=1 for the tree
//
// The tree is filtered to blob entries with harvestable extensions, and
// each surviving entry is paired with its raw download URL. A truncated
// tree listing is reported on the Listing rather than treated as a
// failure: a known-incomplete file set is still worth harvesting.
package github
