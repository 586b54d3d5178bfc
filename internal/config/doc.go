// Package config provides configuration management for proxyharvest.
//
// Configuration comes from three layers, lowest precedence first:
//  1. Built-in defaults (NewConfig)
//  2. The optional .proxyharvest YAML file (LoadConfigFile)
//  3. CLI flags
//
// The GitHub API token is the one setting that comes only from the
// environment (GITHUB_TOKEN); it never appears in the file or on the
// command line so it cannot leak into shell history or version control.
//
// Design decision: We keep configuration in a plain struct passed by
// dependency injection instead of a global registry. Every component
// receives exactly the values it needs, which keeps tests trivial.
package config
