// Package model defines the core data structures shared across the harvest
// pipeline.
//
// This package contains the following main types:
//   - ProxyToken: a validated address:port endpoint candidate
//   - RepoRef: an owner/name repository reference parsed from a URL
//   - FileRef: one downloadable file with its extraction strategy hint
//   - RepoResult: the structured outcome of processing a single repository
//   - Report: the aggregate outcome of one harvest run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (github, fetch, extract, harvest, database,
// report) exchange these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
