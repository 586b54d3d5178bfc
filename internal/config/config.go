package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// Where a value mirrors GitHub-facing behavior (timeouts, pool size, header
// contents) it is chosen to stay well inside the platform's comfort zone for
// unauthenticated and lightly authenticated clients.
const (
	// DefaultWorkers is the number of repositories processed concurrently.
	// Ten keeps the in-flight request count modest; files inside a repository
	// are fetched sequentially, so total concurrency stays near this value.
	DefaultWorkers = 10

	// DefaultAPITimeout is the per-request timeout for GitHub REST API calls
	// (repository metadata and tree listings).
	DefaultAPITimeout = 15 * time.Second

	// DefaultRawTimeout is the per-request timeout for raw file downloads.
	// Raw content is served from a CDN and responds faster than the API.
	DefaultRawTimeout = 10 * time.Second

	// DefaultUserAgent is the User-Agent header sent with every request.
	// The raw content host is tuned for browser traffic, so requests present
	// a mainstream browser signature.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// DefaultMaxBodySize limits the response body size read per file.
	// 10MB covers even very large proxy lists while bounding memory use.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultAPIBaseURL is the GitHub REST API endpoint.
	DefaultAPIBaseURL = "https://api.github.com"

	// DefaultRawBaseURL is the host serving raw file content.
	DefaultRawBaseURL = "https://raw.githubusercontent.com"

	// DefaultListFile is the default repository list file name.
	DefaultListFile = "repositories.txt"

	// DefaultOutputFile is the default output file for collected proxies.
	DefaultOutputFile = "proxies_output.txt"

	// TokenEnvVar is the environment variable holding the GitHub API token.
	// The token raises API rate limits; its absence is not an error.
	TokenEnvVar = "GITHUB_TOKEN" //nolint:gosec // Variable name, not a credential

	// AppName is the application name used for XDG directory paths.
	AppName = "proxyharvest"
)

// Config holds all configuration options for proxyharvest.
// This struct is populated from CLI flags, the optional configuration file,
// and the environment, then passed through the application via dependency
// injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// RepoURLs is the list of repository URLs to harvest.
	// Populated from positional arguments, the list file, and the
	// configuration file. Must not be empty.
	RepoURLs []string

	// ListFile is the path of the line-delimited repository list file.
	ListFile string

	// OutputFile is the path the sorted proxy list is written to.
	// The file is only created when at least one proxy was collected.
	OutputFile string

	// Workers is the number of repositories processed concurrently.
	Workers int

	// APITimeout is the per-request timeout for GitHub REST API calls.
	APITimeout time.Duration

	// RawTimeout is the per-request timeout for raw file downloads.
	RawTimeout time.Duration

	// UserAgent is the User-Agent header sent with every HTTP request.
	UserAgent string

	// Token is the GitHub API token read from the environment.
	// Sent as an Authorization header on API calls only, never to the raw
	// content host. Empty means unauthenticated requests.
	Token string

	// APIBaseURL is the GitHub REST API endpoint. Overridable for tests.
	APIBaseURL string

	// RawBaseURL is the raw content host. Overridable for tests.
	RawBaseURL string

	// SOCKS5Proxy is an optional "host:port" SOCKS5 proxy for all outbound
	// HTTP. Empty means direct connections.
	SOCKS5Proxy string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated. Zero means the default.
	MaxBodySize int64

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of the plain proxy list.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of the plain
	// proxy list. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the JSON or Markdown report.
	// When empty, the report is written to stdout.
	ReportFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .proxyharvest in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// DBDir is the directory path for storing the SQLite run-history
	// database. Defaults to the XDG data directory.
	DBDir string

	// SaveToDB indicates whether completed runs are saved to the database.
	SaveToDB bool

	// NoProgress disables the console progress bar. The bar is also
	// suppressed automatically when stdout is not a terminal-like consumer
	// of the plain output.
	NoProgress bool
}

// NewConfig creates a new Config with default values.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (timeouts, pool size).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		ListFile:    DefaultListFile,
		OutputFile:  DefaultOutputFile,
		Workers:     DefaultWorkers,
		APITimeout:  DefaultAPITimeout,
		RawTimeout:  DefaultRawTimeout,
		UserAgent:   DefaultUserAgent,
		APIBaseURL:  DefaultAPIBaseURL,
		RawBaseURL:  DefaultRawBaseURL,
		MaxBodySize: DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for proxyharvest.
// On Linux: ~/.local/share/proxyharvest
// On macOS: ~/Library/Application Support/proxyharvest
// On Windows: %LOCALAPPDATA%\proxyharvest
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for proxyharvest.
// On Linux: ~/.config/proxyharvest
// On macOS: ~/Library/Application Support/proxyharvest
// On Windows: %APPDATA%\proxyharvest
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any harvesting begins.
// The first error found is returned because fixing one error often makes
// others irrelevant.
func (c *Config) Validate() error {
	if len(c.RepoURLs) == 0 {
		return ErrNoRepositories
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.APITimeout <= 0 || c.RawTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}
