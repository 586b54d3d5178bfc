package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/proxyharvest/proxyharvest/internal/config"
	"github.com/proxyharvest/proxyharvest/internal/database"
	"github.com/proxyharvest/proxyharvest/internal/fetch"
	"github.com/proxyharvest/proxyharvest/internal/github"
	"github.com/proxyharvest/proxyharvest/internal/harvest"
	"github.com/proxyharvest/proxyharvest/internal/log"
	"github.com/proxyharvest/proxyharvest/internal/model"
	"github.com/proxyharvest/proxyharvest/internal/report"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [repository-url]...",
		Short: "Harvest proxy endpoints from GitHub repositories",
		Long: `Scan harvests proxy endpoints (host:port pairs) from GitHub repositories.

For each repository it resolves the default branch, walks the full file
tree, downloads every .txt, .json, and .xml file, and extracts proxy
endpoints into one deduplicated, sorted list.

Repositories come from positional arguments, a list file (repositories.txt
by default), and the configuration file. Duplicate URLs are processed once.

Set the ` + config.TokenEnvVar + ` environment variable to raise the GitHub API
rate limit for large harvests.

Examples:
  # Harvest a single repository
  proxyharvest scan https://github.com/example/proxy-list

  # Harvest every repository listed in a file
  proxyharvest scan --list repos.txt

  # Limit concurrency and write the list to a custom path
  proxyharvest scan -w 4 -o out/proxies.txt https://github.com/example/proxy-list

  # Output JSON report
  proxyharvest scan --json https://github.com/example/proxy-list

  # Use a custom configuration file
  proxyharvest scan -c myconfig.yaml

Configuration file (.proxyharvest) example:
  workers: 10
  output: proxies_output.txt
  repositories:
    - https://github.com/example/proxy-list
    - https://github.com/example/free-proxies`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Input flags
	cmd.Flags().StringP("list", "l", "",
		"Repository list file, one URL per line (default: repositories.txt if present)")

	// Harvest behavior flags
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of repositories processed concurrently")
	cmd.Flags().Duration("api-timeout", config.DefaultAPITimeout,
		"Timeout for each GitHub API request")
	cmd.Flags().Duration("raw-timeout", config.DefaultRawTimeout,
		"Timeout for each raw file download")
	cmd.Flags().String("socks5", "",
		"Route all requests through a SOCKS5 proxy (e.g., 127.0.0.1:1080)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .proxyharvest in current or home directory)")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputFile,
		"Output file for the collected proxy list")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().String("report", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-progress", false,
		"Disable the progress bar")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags, config file, and environment
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with token redaction
	cfg.Verbose = getVerboseFlag(cmd)
	logger := log.NewRedactLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runHarvest(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags, the configuration
// file, and the environment. Precedence: flags > config file > defaults.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load settings from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently skip when no file is found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	listExplicit := cmd.Flags().Changed("list")

	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if file.List != "" {
			listExplicit = true
		}
		file.Apply(cfg)
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	// Flags override the config file, so only copy values the user set.
	if cmd.Flags().Changed("list") {
		cfg.ListFile, err = cmd.Flags().GetString("list")
		if err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers, err = cmd.Flags().GetInt("workers")
		if err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputFile, err = cmd.Flags().GetString("output")
		if err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("socks5") {
		cfg.SOCKS5Proxy, err = cmd.Flags().GetString("socks5")
		if err != nil {
			return nil, err
		}
	}

	cfg.APITimeout, err = cmd.Flags().GetDuration("api-timeout")
	if err != nil {
		return nil, err
	}

	cfg.RawTimeout, err = cmd.Flags().GetDuration("raw-timeout")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("report")
	if err != nil {
		return nil, err
	}

	cfg.NoProgress, err = cmd.Flags().GetBool("no-progress")
	if err != nil {
		return nil, err
	}

	// Optional API token raises the unauthenticated rate limit
	cfg.Token = os.Getenv(config.TokenEnvVar)

	// Always save run history using XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	// Assemble repository URLs: list file first, then config file
	// repositories, then positional arguments.
	fromConfigFile := cfg.RepoURLs

	listURLs, err := readRepoList(cfg.ListFile)
	if err != nil {
		// A missing default list file is fine as long as another source
		// provides URLs. A missing explicitly named file is an error.
		if listExplicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read repository list %s: %w", cfg.ListFile, err)
		}
		listURLs = nil
	}

	urls := make([]string, 0, len(listURLs)+len(fromConfigFile)+len(args))
	urls = append(urls, listURLs...)
	urls = append(urls, fromConfigFile...)
	urls = append(urls, args...)
	cfg.RepoURLs = dedupeURLs(urls)

	return cfg, nil
}

// readRepoList reads repository URLs from a list file, one per line.
// Blank lines and lines starting with '#' are skipped.
func readRepoList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}

// dedupeURLs removes duplicate URLs while preserving first-seen order, so
// the report keeps one entry per distinct repository in input order.
func dedupeURLs(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	result := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		result = append(result, u)
	}
	return result
}

// runHarvest executes the harvest.
func runHarvest(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting harvest",
		"repositories", len(cfg.RepoURLs),
		"workers", cfg.Workers,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.HarvestDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	client, err := fetch.NewClient(
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithToken(cfg.Token),
		fetch.WithAPITimeout(cfg.APITimeout),
		fetch.WithRawTimeout(cfg.RawTimeout),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithSOCKS5(cfg.SOCKS5Proxy),
	)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	if cfg.SOCKS5Proxy != "" {
		logger.Info("routing traffic through SOCKS5 proxy", "address", cfg.SOCKS5Proxy)
	}
	if cfg.Token != "" {
		logger.Info("using API token from environment", "env", config.TokenEnvVar)
	}

	resolver := github.NewResolver(client,
		github.WithAPIBaseURL(cfg.APIBaseURL),
		github.WithRawBaseURL(cfg.RawBaseURL),
	)

	fmt.Printf("Harvesting %d repositories (workers: %d)...\n\n",
		len(cfg.RepoURLs), cfg.Workers)

	schedulerOpts := []harvest.SchedulerOption{
		harvest.WithWorkers(cfg.Workers),
		harvest.WithSchedulerLogger(logger),
	}

	// Progress bar goes to stderr so stdout stays clean for reports
	var bar *pb.ProgressBar
	if !cfg.NoProgress {
		bar = pb.New(len(cfg.RepoURLs))
		bar.SetWriter(os.Stderr)
		bar.Set("prefix", "Harvesting ")
		bar.Start()
		schedulerOpts = append(schedulerOpts,
			harvest.WithResultCallback(func(_ *model.RepoResult, _ int) {
				bar.Increment()
			}))
	}

	startTime := time.Now()

	scheduler := harvest.NewScheduler(resolver, client, schedulerOpts...)
	harvestReport := scheduler.Run(ctx, cfg.RepoURLs)

	if bar != nil {
		bar.Finish()
	}

	elapsed := time.Since(startTime)
	if harvestReport.Interrupted {
		fmt.Printf("Harvest interrupted after %s; writing partial results\n\n",
			elapsed.Round(time.Millisecond))
	} else {
		fmt.Printf("Harvest completed in %s\n\n", elapsed.Round(time.Millisecond))
	}

	// Write the proxy list, the primary artifact of a run
	if err := writeProxyList(cfg, harvestReport, logger); err != nil {
		return fmt.Errorf("failed to write proxy list: %w", err)
	}

	// Generate and output report
	if err := outputReport(cfg, harvestReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	// Save to database if enabled. The results are already on disk, so a
	// history failure is logged rather than failing the run.
	if err := saveRun(ctx, db, harvestReport, logger); err != nil {
		logger.Error("failed to save run history", "error", err)
	}

	return nil
}

// writeProxyList writes the deduplicated, sorted proxy list to the output
// file. Nothing is written when the run collected no proxies, so a failed
// run never truncates a previous run's output.
func writeProxyList(cfg *config.Config, harvestReport *model.Report, logger *slog.Logger) error {
	if harvestReport.ProxyCount() == 0 {
		fmt.Println("No proxies collected; output file not written.")
		return nil
	}

	// Create directories if they don't exist
	dir := filepath.Dir(cfg.OutputFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	writer := report.NewListWriter(f)
	if _, err := writer.Write(harvestReport); err != nil {
		return err
	}

	fmt.Printf("Wrote %d proxies to %s\n\n", harvestReport.ProxyCount(), cfg.OutputFile)
	logger.Info("proxy list written", "path", cfg.OutputFile, "count", harvestReport.ProxyCount())
	return nil
}

// outputReport outputs the harvest report in the requested format.
func outputReport(cfg *config.Config, harvestReport *model.Report) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	// JSON output (full report with version metadata)
	if cfg.JSONReport {
		writer := report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
		_, err := writer.Write(harvestReport)
		return err
	}

	// Markdown output
	if cfg.MarkdownReport {
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(harvestReport)
		return err
	}

	// Human-readable report (default)
	writer := report.NewTextWriter(output, report.WithVerbose(cfg.Verbose))
	_, err := writer.Write(harvestReport)
	return err
}

// saveRun stores the completed run in the database if enabled.
// If db is nil, this function is a no-op.
func saveRun(ctx context.Context, db *database.HarvestDB, harvestReport *model.Report, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	// The run context is already cancelled when the harvest was
	// interrupted; the partial report still gets stored.
	runID, err := db.SaveRun(context.WithoutCancel(ctx), harvestReport)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	logger.Info("run saved to database", "runID", runID)
	return nil
}
