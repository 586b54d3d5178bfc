// Package database provides SQLite-based run history storage for
// proxyharvest.
//
// Every completed harvest run is stored twice over:
//   - A runs row with metadata and the full report as JSON
//   - One run_proxies row per collected proxy, for cheap set queries
//
// The per-proxy rows allow the compare command to diff two runs without
// decoding report JSON blobs.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
//  1. No external dependencies - the database is a single file
//  2. CGO-free implementation allows easy cross-compilation
//  3. Sufficient performance for our use case
//  4. WAL mode provides good concurrent read performance
package database
