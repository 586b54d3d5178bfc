// Package main provides the entry point for the proxyharvest CLI.
//
// Proxyharvest collects proxy endpoints (host:port pairs) published in
// GitHub repositories. It resolves each repository's default branch,
// walks the full file tree, downloads text, JSON, and XML files, and
// extracts every proxy endpoint into one deduplicated, sorted list.
//
// Usage:
//
//	proxyharvest scan <repository-url>
//	proxyharvest scan --list <file>
//
// See --help for all available options.
package main

// main is the entry point for proxyharvest.
func main() {
	Execute()
}
