package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/proxyharvest/proxyharvest/internal/config"
	"github.com/proxyharvest/proxyharvest/internal/database"
	"github.com/proxyharvest/proxyharvest/internal/model"
)

// testFile is one file in a fake repository tree.
type testFile struct {
	path    string
	content string
}

// testRepo describes one repository served by the fake GitHub backend.
type testRepo struct {
	branch    string
	truncated bool
	files     []testFile
}

// testGitHub serves the subset of the GitHub surface the harvester talks
// to: repository metadata, recursive tree listings, and raw file content.
// Running against local HTTP servers keeps the integration tests hermetic.
type testGitHub struct {
	api   *httptest.Server
	raw   *httptest.Server
	repos map[string]testRepo
}

// newTestGitHub starts fake API and raw content servers for the given
// repositories, keyed by "owner/name". Both servers stop when the test ends.
func newTestGitHub(t *testing.T, repos map[string]testRepo) *testGitHub {
	t.Helper()

	g := &testGitHub{repos: repos}
	g.api = httptest.NewServer(http.HandlerFunc(g.handleAPI))
	g.raw = httptest.NewServer(http.HandlerFunc(g.handleRaw))
	t.Cleanup(g.api.Close)
	t.Cleanup(g.raw.Close)
	return g
}

// handleAPI serves repository metadata and recursive tree listings.
func (g *testGitHub) handleAPI(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	// GET /repos/{owner}/{name}
	if len(parts) == 3 && parts[0] == "repos" {
		repo, ok := g.repos[parts[1]+"/"+parts[2]]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"default_branch": repo.branch})
		return
	}

	// GET /repos/{owner}/{name}/git/trees/{branch}?recursive=1
	if len(parts) == 6 && parts[0] == "repos" && parts[3] == "git" && parts[4] == "trees" {
		repo, ok := g.repos[parts[1]+"/"+parts[2]]
		if !ok || parts[5] != repo.branch {
			http.NotFound(w, r)
			return
		}

		type treeEntry struct {
			Path string `json:"path"`
			Type string `json:"type"`
		}
		tree := make([]treeEntry, 0, len(repo.files)+1)
		for _, f := range repo.files {
			tree = append(tree, treeEntry{Path: f.path, Type: "blob"})
		}
		// Directory entries must be ignored by the harvester.
		tree = append(tree, treeEntry{Path: "docs", Type: "tree"})

		_ = json.NewEncoder(w).Encode(map[string]any{
			"truncated": repo.truncated,
			"tree":      tree,
		})
		return
	}

	http.NotFound(w, r)
}

// handleRaw serves raw file content at /{owner}/{name}/{branch}/{path}.
func (g *testGitHub) handleRaw(w http.ResponseWriter, r *http.Request) {
	parts := strings.SplitN(strings.Trim(r.URL.Path, "/"), "/", 4)
	if len(parts) != 4 {
		http.NotFound(w, r)
		return
	}

	repo, ok := g.repos[parts[0]+"/"+parts[1]]
	if !ok || parts[2] != repo.branch {
		http.NotFound(w, r)
		return
	}

	for _, f := range repo.files {
		if f.path == parts[3] {
			_, _ = w.Write([]byte(f.content))
			return
		}
	}
	http.NotFound(w, r)
}

// newIntegrationConfig builds a config pointed at the fake GitHub servers
// with all artifacts rooted in a fresh temp directory.
func newIntegrationConfig(t *testing.T, g *testGitHub, repoURLs ...string) *config.Config {
	t.Helper()

	tmpDir := t.TempDir()

	cfg := config.NewConfig()
	cfg.RepoURLs = repoURLs
	cfg.APIBaseURL = g.api.URL
	cfg.RawBaseURL = g.raw.URL
	cfg.Workers = 2
	cfg.OutputFile = filepath.Join(tmpDir, "proxies.txt")
	cfg.ReportFile = filepath.Join(tmpDir, "report.txt")
	cfg.NoProgress = true
	cfg.SaveToDB = true
	cfg.DBDir = filepath.Join(tmpDir, "db")
	return cfg
}

// testLogger returns a quiet logger for integration runs.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestIntegrationHarvest runs a complete harvest against a fake GitHub:
// branch resolution, tree walking, raw downloads, extraction from all three
// content kinds, and the output artifacts.
func TestIntegrationHarvest(t *testing.T) {
	// Note: Not using t.Parallel() because runHarvest writes to os.Stdout

	g := newTestGitHub(t, map[string]testRepo{
		"octo/proxy-list": {
			branch: "main",
			files: []testFile{
				{path: "lists/a.txt", content: "10.0.0.1:8080\nnot a proxy line\n999.1.1.1:80\n"},
				{path: "data/b.json", content: `{"proxies": ["172.16.0.5:3128", "not a proxy"], "count": 2}`},
				{path: "feeds/c.xml", content: `<?xml version="1.0"?><proxies><proxy>192.168.1.9:9999</proxy><note>none here</note></proxies>`},
				{path: "README.md", content: "10.9.9.9:1080 must not be fetched"},
			},
		},
	})

	cfg := newIntegrationConfig(t, g, "https://github.com/octo/proxy-list")

	if err := runHarvest(context.Background(), cfg, testLogger()); err != nil {
		t.Fatalf("runHarvest() error = %v", err)
	}

	// The proxy list holds the deduplicated, sorted token set. The .md file
	// is not harvestable, the malformed address is rejected, and the junk
	// strings contribute nothing.
	content, err := os.ReadFile(cfg.OutputFile)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}
	want := "10.0.0.1:8080\n172.16.0.5:3128\n192.168.1.9:9999\n"
	if string(content) != want {
		t.Errorf("expected proxy list %q, got %q", want, string(content))
	}

	// The text report was written to the report file.
	report, err := os.ReadFile(cfg.ReportFile)
	if err != nil {
		t.Fatalf("failed to read report file: %v", err)
	}
	if !strings.Contains(string(report), "PROXYHARVEST REPORT") {
		t.Error("expected text report header in report file")
	}

	// The run was saved to the database.
	db, err := database.Open(cfg.DBDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		t.Fatalf("failed to open database after harvest: %v", err)
	}
	defer db.Close()

	runs, err := db.LatestRuns(context.Background(), 1)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 saved run, got %d", len(runs))
	}
	if runs[0].ProxyCount != 3 {
		t.Errorf("expected proxy count 3, got %d", runs[0].ProxyCount)
	}
	if runs[0].RepoCount != 1 {
		t.Errorf("expected repo count 1, got %d", runs[0].RepoCount)
	}
	if runs[0].Interrupted {
		t.Error("expected run not to be marked interrupted")
	}
}

// TestIntegrationHarvestFailedRepository verifies that one broken repository
// does not stop the others and is reported as failed.
func TestIntegrationHarvestFailedRepository(t *testing.T) {
	// Note: Not using t.Parallel() because runHarvest writes to os.Stdout

	g := newTestGitHub(t, map[string]testRepo{
		"octo/proxy-list": {
			branch: "main",
			files: []testFile{
				{path: "proxies.txt", content: "10.0.0.1:8080\n"},
			},
		},
	})

	cfg := newIntegrationConfig(t, g,
		"https://github.com/octo/proxy-list",
		"https://github.com/ghost/missing",
	)
	cfg.JSONReport = true
	cfg.ReportFile = filepath.Join(filepath.Dir(cfg.OutputFile), "report.json")

	if err := runHarvest(context.Background(), cfg, testLogger()); err != nil {
		t.Fatalf("runHarvest() error = %v", err)
	}

	content, err := os.ReadFile(cfg.OutputFile)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}
	if string(content) != "10.0.0.1:8080\n" {
		t.Errorf("expected proxies from the working repository only, got %q", string(content))
	}

	reportJSON, err := os.ReadFile(cfg.ReportFile)
	if err != nil {
		t.Fatalf("failed to read report file: %v", err)
	}

	var wrapped struct {
		Version string       `json:"version"`
		Report  model.Report `json:"report"`
	}
	if err := json.Unmarshal(reportJSON, &wrapped); err != nil {
		t.Fatalf("failed to parse JSON report: %v", err)
	}

	if len(wrapped.Report.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(wrapped.Report.Results))
	}
	if wrapped.Report.Results[0].Status != model.StatusOK {
		t.Errorf("expected first repository to succeed, got %q", wrapped.Report.Results[0].Status)
	}
	if wrapped.Report.Results[1].Status != model.StatusFailed {
		t.Errorf("expected second repository to fail, got %q", wrapped.Report.Results[1].Status)
	}
	if wrapped.Report.Results[1].Message == "" {
		t.Error("expected failure message for the broken repository")
	}
}

// TestIntegrationHarvestInvalidURL verifies that an unparseable repository
// URL fails its job without collecting anything.
func TestIntegrationHarvestInvalidURL(t *testing.T) {
	// Note: Not using t.Parallel() because runHarvest writes to os.Stdout

	g := newTestGitHub(t, map[string]testRepo{})

	cfg := newIntegrationConfig(t, g, "not-a-url")

	if err := runHarvest(context.Background(), cfg, testLogger()); err != nil {
		t.Fatalf("runHarvest() error = %v", err)
	}

	// No proxies were collected, so the output file must not exist.
	if _, err := os.Stat(cfg.OutputFile); !os.IsNotExist(err) {
		t.Error("expected output file not to be created")
	}

	db, err := database.Open(cfg.DBDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		t.Fatalf("failed to open database after harvest: %v", err)
	}
	defer db.Close()

	runs, err := db.LatestRuns(context.Background(), 1)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 saved run, got %d", len(runs))
	}
	if runs[0].ProxyCount != 0 {
		t.Errorf("expected proxy count 0, got %d", runs[0].ProxyCount)
	}
}

// TestIntegrationHarvestTruncatedTree verifies that a truncated tree listing
// is processed and flagged rather than treated as an error.
func TestIntegrationHarvestTruncatedTree(t *testing.T) {
	// Note: Not using t.Parallel() because runHarvest writes to os.Stdout

	g := newTestGitHub(t, map[string]testRepo{
		"octo/huge-list": {
			branch:    "master",
			truncated: true,
			files: []testFile{
				{path: "proxies.txt", content: "10.0.0.1:8080\n"},
			},
		},
	})

	cfg := newIntegrationConfig(t, g, "https://github.com/octo/huge-list")

	if err := runHarvest(context.Background(), cfg, testLogger()); err != nil {
		t.Fatalf("runHarvest() error = %v", err)
	}

	db, err := database.Open(cfg.DBDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		t.Fatalf("failed to open database after harvest: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	runs, err := db.LatestRuns(ctx, 1)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 saved run, got %d", len(runs))
	}

	stored, err := db.GetRunReport(ctx, runs[0].ID)
	if err != nil {
		t.Fatalf("failed to load stored report: %v", err)
	}
	if stored == nil || len(stored.Results) != 1 {
		t.Fatal("expected stored report with 1 result")
	}
	if !stored.Results[0].Truncated {
		t.Error("expected result to be flagged as truncated")
	}
	if stored.Results[0].Status != model.StatusOK {
		t.Errorf("expected truncated repository to succeed, got %q", stored.Results[0].Status)
	}
	if len(stored.Proxies) != 1 {
		t.Errorf("expected 1 proxy from truncated tree, got %d", len(stored.Proxies))
	}
}

// TestIntegrationHarvestCancelled verifies that a cancelled run still saves
// its partial state and skips the output file.
func TestIntegrationHarvestCancelled(t *testing.T) {
	// Note: Not using t.Parallel() because runHarvest writes to os.Stdout

	g := newTestGitHub(t, map[string]testRepo{
		"octo/proxy-list": {
			branch: "main",
			files: []testFile{
				{path: "proxies.txt", content: "10.0.0.1:8080\n"},
			},
		},
	})

	cfg := newIntegrationConfig(t, g, "https://github.com/octo/proxy-list")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := runHarvest(ctx, cfg, testLogger()); err != nil {
		t.Fatalf("runHarvest() error = %v", err)
	}

	if _, err := os.Stat(cfg.OutputFile); !os.IsNotExist(err) {
		t.Error("expected output file not to be created for a cancelled run")
	}

	db, err := database.Open(cfg.DBDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		t.Fatalf("failed to open database after harvest: %v", err)
	}
	defer db.Close()

	runs, err := db.LatestRuns(context.Background(), 1)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 saved run, got %d", len(runs))
	}
	if !runs[0].Interrupted {
		t.Error("expected cancelled run to be marked interrupted")
	}
}

// TestIntegrationHarvestAndCompare runs two harvests into the same database
// and compares them.
func TestIntegrationHarvestAndCompare(t *testing.T) {
	// Note: Not using t.Parallel() because this test captures os.Stdout

	g := newTestGitHub(t, map[string]testRepo{
		"octo/alpha": {
			branch: "main",
			files: []testFile{
				{path: "proxies.txt", content: "10.0.0.1:8080\n10.0.0.2:3128\n"},
			},
		},
		"octo/beta": {
			branch: "main",
			files: []testFile{
				{path: "proxies.txt", content: "10.0.0.2:3128\n10.0.0.9:1080\n"},
			},
		},
	})

	cfg1 := newIntegrationConfig(t, g, "https://github.com/octo/alpha")
	cfg2 := newIntegrationConfig(t, g, "https://github.com/octo/beta")
	cfg2.DBDir = cfg1.DBDir

	logger := testLogger()

	if err := runHarvest(context.Background(), cfg1, logger); err != nil {
		t.Fatalf("first runHarvest() error = %v", err)
	}
	if err := runHarvest(context.Background(), cfg2, logger); err != nil {
		t.Fatalf("second runHarvest() error = %v", err)
	}

	db, err := database.Open(cfg1.DBDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	output, err := captureStdout(t, func() error {
		return runComparison(ctx, db, 0, "", false, false)
	})
	if err != nil {
		t.Fatalf("runComparison() error = %v", err)
	}

	if !strings.Contains(output, "[+] 10.0.0.9:1080") {
		t.Errorf("expected added proxy, got: %s", output)
	}
	if !strings.Contains(output, "[-] 10.0.0.1:8080") {
		t.Errorf("expected removed proxy, got: %s", output)
	}
	if !strings.Contains(output, "Unchanged: 1 proxies") {
		t.Errorf("expected unchanged count, got: %s", output)
	}
	if !strings.Contains(output, "Pool Status: UNCHANGED") {
		t.Errorf("expected unchanged pool status, got: %s", output)
	}
}

// TestIntegrationHarvestDuplicateTokens verifies that tokens repeated across
// files and repositories appear once in the output.
func TestIntegrationHarvestDuplicateTokens(t *testing.T) {
	// Note: Not using t.Parallel() because runHarvest writes to os.Stdout

	g := newTestGitHub(t, map[string]testRepo{
		"octo/alpha": {
			branch: "main",
			files: []testFile{
				{path: "a.txt", content: "10.0.0.1:8080\n10.0.0.1:8080\n"},
				{path: "b.txt", content: "10.0.0.1:8080\n"},
			},
		},
		"octo/beta": {
			branch: "main",
			files: []testFile{
				{path: "c.txt", content: "10.0.0.1:8080\n10.0.0.2:3128\n"},
			},
		},
	})

	cfg := newIntegrationConfig(t, g,
		"https://github.com/octo/alpha",
		"https://github.com/octo/beta",
	)

	if err := runHarvest(context.Background(), cfg, testLogger()); err != nil {
		t.Fatalf("runHarvest() error = %v", err)
	}

	content, err := os.ReadFile(cfg.OutputFile)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}
	want := "10.0.0.1:8080\n10.0.0.2:3128\n"
	if string(content) != want {
		t.Errorf("expected deduplicated proxy list %q, got %q", want, string(content))
	}
}
