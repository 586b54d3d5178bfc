package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/proxyharvest/proxyharvest/internal/config"
	"github.com/proxyharvest/proxyharvest/internal/database"
	"github.com/proxyharvest/proxyharvest/internal/model"
	"github.com/spf13/cobra"
)

// Constants for pool direction labels.
const (
	poolDirectionGrew      = "grew"
	poolDirectionShrank    = "shrank"
	poolDirectionUnchanged = "unchanged"
)

// historyLimit caps how many runs the --list flag displays.
const historyLimit = 20

// listedProxyLimit caps how many proxies the comparison outputs list
// individually. Harvests routinely collect thousands of proxies; the
// counts stay exact while the listings stay readable.
const listedProxyLimit = 50

// NewCompareCmd creates the compare command.
// This command compares harvest runs stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare harvest runs from the database",
		Long: `Compare displays differences between two harvest runs.

This command retrieves run history from the database and shows:
- New proxies that appeared since the previous run
- Removed proxies that are no longer published
- The net change of the proxy pool

The comparison requires at least two saved runs. Every 'proxyharvest scan'
saves its run automatically.

Examples:
  # Compare the latest two runs
  proxyharvest compare

  # List saved harvest runs
  proxyharvest compare --list

  # Compare the latest run with a specific run by ID
  proxyharvest compare --with-run-id 5

  # Compare the latest run with the first run since a date
  proxyharvest compare --since "2025-01-01"

  # Output comparison in JSON format
  proxyharvest compare --json`,
		Args: cobra.NoArgs,
		RunE: runCompareCmd,
	}

	// History listing flag
	cmd.Flags().BoolP("list", "l", false,
		"List saved harvest runs")

	// Comparison target flags
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare with a specific run by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first run after this date (format: YYYY-MM-DD)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, _ []string) error {
	// Use XDG data directory for database
	dbDir := config.XDGDataDir()

	// Open database
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	// Handle --list flag
	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listRunHistory(ctx, db)
	}

	// Get output format flags
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	// Get comparison target flags
	withRunID, err := cmd.Flags().GetInt64("with-run-id")
	if err != nil {
		return err
	}
	sinceDate, err := cmd.Flags().GetString("since")
	if err != nil {
		return err
	}

	// Perform comparison
	return runComparison(ctx, db, withRunID, sinceDate, jsonOutput, markdownOutput)
}

// listRunHistory lists the most recent harvest runs in the database.
func listRunHistory(ctx context.Context, db *database.HarvestDB) error {
	runs, err := db.LatestRuns(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No harvest runs found in the database.")
		fmt.Println("\nUse 'proxyharvest scan' to run a harvest.")
		return nil
	}

	fmt.Printf("Harvest runs (%d):\n\n", len(runs))
	fmt.Printf("  %-6s  %-20s  %-8s  %-8s  %s\n", "ID", "Date", "Repos", "Proxies", "Status")
	fmt.Println("  " + strings.Repeat("-", 60))

	for _, meta := range runs {
		status := "complete"
		if meta.Interrupted {
			status = "interrupted"
		}
		fmt.Printf("  %-6d  %-20s  %-8d  %-8d  %s\n",
			meta.ID,
			meta.StartedAt.Format("2006-01-02 15:04:05"),
			meta.RepoCount,
			meta.ProxyCount,
			status,
		)
	}

	fmt.Println("\nUse 'proxyharvest compare' to compare the latest two runs.")
	fmt.Println("Use 'proxyharvest compare --with-run-id <id>' to compare with a specific run.")

	return nil
}

// runComparison performs the actual comparison between harvest runs.
func runComparison(ctx context.Context, db *database.HarvestDB, withRunID int64, sinceDate string, jsonOutput, markdownOutput bool) error {
	// The newest run is always the current side of the comparison
	runs, err := db.LatestRuns(ctx, 2)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		return errors.New("no harvest runs found (use 'proxyharvest scan' to run a harvest)")
	}

	current := runs[0]

	// Determine which run to compare against
	var previous *database.RunMetadata

	switch {
	case withRunID > 0:
		previous, err = db.GetRun(ctx, withRunID)
		if err != nil {
			return fmt.Errorf("failed to get run with ID %d: %w", withRunID, err)
		}
		if previous == nil {
			return fmt.Errorf("run with ID %d not found", withRunID)
		}
		if previous.ID == current.ID {
			return fmt.Errorf("run %d is the latest run; pick an older run to compare against", withRunID)
		}
	case sinceDate != "":
		parsedDate, parseErr := time.Parse("2006-01-02", sinceDate)
		if parseErr != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", parseErr)
		}
		previous, err = db.FirstRunSince(ctx, parsedDate)
		if err != nil {
			return fmt.Errorf("failed to get runs since %s: %w", sinceDate, err)
		}
		if previous == nil {
			return fmt.Errorf("no runs found since %s", sinceDate)
		}
		if previous.ID == current.ID {
			return fmt.Errorf("only one run found since %s; at least 2 runs are required for comparison", sinceDate)
		}
	default:
		if len(runs) < 2 {
			return fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(runs))
		}
		previous = &runs[1]
	}

	previousProxies, err := db.RunProxies(ctx, previous.ID)
	if err != nil {
		return fmt.Errorf("failed to get proxies for run %d: %w", previous.ID, err)
	}
	currentProxies, err := db.RunProxies(ctx, current.ID)
	if err != nil {
		return fmt.Errorf("failed to get proxies for run %d: %w", current.ID, err)
	}

	// Generate comparison result
	comparison := compareRuns(previous, &current, previousProxies, currentProxies)

	// Output the result
	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	if markdownOutput {
		return outputComparisonMarkdown(comparison)
	}
	return outputComparisonText(comparison)
}

// ComparisonResult holds the result of comparing two harvest runs.
type ComparisonResult struct {
	// PreviousRun contains metadata about the older run.
	PreviousRun RunSummary `json:"previous_run"`

	// CurrentRun contains metadata about the newer run.
	CurrentRun RunSummary `json:"current_run"`

	// Added contains proxies present in the current run but not the previous.
	Added []model.ProxyToken `json:"added,omitempty"`

	// Removed contains proxies present in the previous run but not the current.
	Removed []model.ProxyToken `json:"removed,omitempty"`

	// UnchangedCount is the number of proxies present in both runs.
	UnchangedCount int `json:"unchanged_count"`

	// PoolChange describes the overall change of the proxy pool.
	PoolChange PoolChange `json:"pool_change"`
}

// RunSummary contains metadata about a run for comparison display.
type RunSummary struct {
	// ID is the database identifier of the run.
	ID int64 `json:"id"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// RepoCount is the number of repositories processed by the run.
	RepoCount int `json:"repo_count"`

	// ProxyCount is the number of unique proxies collected by the run.
	ProxyCount int `json:"proxy_count"`

	// Interrupted reports whether the run was cut short by a signal.
	Interrupted bool `json:"interrupted,omitempty"`
}

// PoolChange describes the change in the proxy pool between runs.
type PoolChange struct {
	// Direction is "grew", "shrank", or "unchanged".
	Direction string `json:"direction"`

	// AddedCount is the number of proxies that appeared.
	AddedCount int `json:"added_count"`

	// RemovedCount is the number of proxies that disappeared.
	RemovedCount int `json:"removed_count"`

	// NetDelta is AddedCount minus RemovedCount.
	NetDelta int `json:"net_delta"`
}

// compareRuns compares two harvest runs and generates a comparison result.
func compareRuns(previous, current *database.RunMetadata, previousProxies, currentProxies []model.ProxyToken) *ComparisonResult {
	result := &ComparisonResult{
		PreviousRun: newRunSummary(previous),
		CurrentRun:  newRunSummary(current),
	}

	// Build proxy sets for comparison
	previousSet := make(map[model.ProxyToken]struct{}, len(previousProxies))
	for _, p := range previousProxies {
		previousSet[p] = struct{}{}
	}
	currentSet := make(map[model.ProxyToken]struct{}, len(currentProxies))
	for _, p := range currentProxies {
		currentSet[p] = struct{}{}
	}

	// RunProxies returns sorted slices, so Added and Removed stay sorted.
	for _, p := range currentProxies {
		if _, exists := previousSet[p]; !exists {
			result.Added = append(result.Added, p)
		} else {
			result.UnchangedCount++
		}
	}
	for _, p := range previousProxies {
		if _, exists := currentSet[p]; !exists {
			result.Removed = append(result.Removed, p)
		}
	}

	result.PoolChange = calculatePoolChange(len(result.Added), len(result.Removed))

	return result
}

// newRunSummary extracts display metadata from a run record.
func newRunSummary(meta *database.RunMetadata) RunSummary {
	return RunSummary{
		ID:          meta.ID,
		StartedAt:   meta.StartedAt,
		RepoCount:   meta.RepoCount,
		ProxyCount:  meta.ProxyCount,
		Interrupted: meta.Interrupted,
	}
}

// calculatePoolChange calculates the net change of the proxy pool.
func calculatePoolChange(added, removed int) PoolChange {
	change := PoolChange{
		AddedCount:   added,
		RemovedCount: removed,
		NetDelta:     added - removed,
	}

	switch {
	case change.NetDelta > 0:
		change.Direction = poolDirectionGrew
	case change.NetDelta < 0:
		change.Direction = poolDirectionShrank
	default:
		change.Direction = poolDirectionUnchanged
	}

	return change
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(result *ComparisonResult) error {
	fmt.Println("# Harvest Comparison")

	// Pool change summary
	fmt.Println("\n## Summary")
	fmt.Printf("\n**Pool Status:** %s\n\n", formatPoolDirection(result.PoolChange.Direction))

	// Run metadata table
	fmt.Println("| Metric | Previous | Current | Change |")
	fmt.Println("|--------|----------|---------|--------|")
	fmt.Printf("| Run ID | %d | %d | - |\n",
		result.PreviousRun.ID,
		result.CurrentRun.ID)
	fmt.Printf("| Date | %s | %s | - |\n",
		result.PreviousRun.StartedAt.Format("2006-01-02 15:04"),
		result.CurrentRun.StartedAt.Format("2006-01-02 15:04"))
	fmt.Printf("| Repositories | %d | %d | %s |\n",
		result.PreviousRun.RepoCount,
		result.CurrentRun.RepoCount,
		formatDelta(result.CurrentRun.RepoCount-result.PreviousRun.RepoCount))
	fmt.Printf("| **Proxies** | **%d** | **%d** | **%s** |\n",
		result.PreviousRun.ProxyCount,
		result.CurrentRun.ProxyCount,
		formatDelta(result.CurrentRun.ProxyCount-result.PreviousRun.ProxyCount))

	// New proxies
	if len(result.Added) > 0 {
		fmt.Printf("\n## New Proxies (%d)\n\n", len(result.Added))
		listed, more := limitProxies(result.Added)
		for _, p := range listed {
			fmt.Printf("- `%s`\n", p)
		}
		if more > 0 {
			fmt.Printf("- ... and %d more\n", more)
		}
	}

	// Removed proxies
	if len(result.Removed) > 0 {
		fmt.Printf("\n## Removed Proxies (%d)\n\n", len(result.Removed))
		listed, more := limitProxies(result.Removed)
		for _, p := range listed {
			fmt.Printf("- ~~`%s`~~\n", p)
		}
		if more > 0 {
			fmt.Printf("- ... and %d more\n", more)
		}
	}

	// Unchanged count
	if result.UnchangedCount > 0 {
		fmt.Printf("\n---\n\n*%d proxies unchanged*\n", result.UnchangedCount)
	}

	return nil
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Println("Harvest Comparison")
	fmt.Println(strings.Repeat("=", 60))

	// Pool change summary
	fmt.Printf("\nPool Status: %s\n", formatPoolDirection(result.PoolChange.Direction))

	// Run dates
	fmt.Printf("\nPrevious run: #%-4d %s%s\n",
		result.PreviousRun.ID,
		result.PreviousRun.StartedAt.Format("2006-01-02 15:04:05"),
		interruptedSuffix(result.PreviousRun.Interrupted))
	fmt.Printf("Current run:  #%-4d %s%s\n",
		result.CurrentRun.ID,
		result.CurrentRun.StartedAt.Format("2006-01-02 15:04:05"),
		interruptedSuffix(result.CurrentRun.Interrupted))

	// Summary table
	fmt.Println("\nProxy Pool Summary:")
	fmt.Printf("  %-14s  %-10s  %-10s  %-10s\n", "Metric", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 50))
	fmt.Printf("  %-14s  %-10d  %-10d  %-10s\n", "Repositories",
		result.PreviousRun.RepoCount, result.CurrentRun.RepoCount,
		formatDelta(result.CurrentRun.RepoCount-result.PreviousRun.RepoCount))
	fmt.Printf("  %-14s  %-10d  %-10d  %-10s\n", "Proxies",
		result.PreviousRun.ProxyCount, result.CurrentRun.ProxyCount,
		formatDelta(result.CurrentRun.ProxyCount-result.PreviousRun.ProxyCount))

	// New proxies
	if len(result.Added) > 0 {
		fmt.Printf("\nNew Proxies (%d):\n", len(result.Added))
		listed, more := limitProxies(result.Added)
		for _, p := range listed {
			fmt.Printf("  [+] %s\n", p)
		}
		if more > 0 {
			fmt.Printf("  ... and %d more\n", more)
		}
	}

	// Removed proxies
	if len(result.Removed) > 0 {
		fmt.Printf("\nRemoved Proxies (%d):\n", len(result.Removed))
		listed, more := limitProxies(result.Removed)
		for _, p := range listed {
			fmt.Printf("  [-] %s\n", p)
		}
		if more > 0 {
			fmt.Printf("  ... and %d more\n", more)
		}
	}

	// Unchanged count
	if result.UnchangedCount > 0 {
		fmt.Printf("\nUnchanged: %d proxies\n", result.UnchangedCount)
	}

	return nil
}

// limitProxies truncates a proxy list to listedProxyLimit entries and
// reports how many were left out.
func limitProxies(proxies []model.ProxyToken) ([]model.ProxyToken, int) {
	if len(proxies) <= listedProxyLimit {
		return proxies, 0
	}
	return proxies[:listedProxyLimit], len(proxies) - listedProxyLimit
}

// interruptedSuffix marks interrupted runs in run headers.
func interruptedSuffix(interrupted bool) string {
	if interrupted {
		return "  (interrupted)"
	}
	return ""
}

// formatPoolDirection formats the pool change direction for display.
func formatPoolDirection(direction string) string {
	switch direction {
	case poolDirectionGrew:
		return "GREW (pool gained proxies)"
	case poolDirectionShrank:
		return "SHRANK (pool lost proxies)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
