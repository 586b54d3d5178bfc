package model

import (
	"testing"
	"time"
)

func testReport() *Report {
	return &Report{
		StartedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, 6, 1, 12, 0, 42, 0, time.UTC),
		Workers:    10,
		RepoCount:  3,
		Results: []RepoResult{
			{
				URL:          "https://github.com/alice/proxy-list",
				Repo:         RepoRef{Owner: "alice", Name: "proxy-list"},
				Branch:       "main",
				Status:       StatusOK,
				FilesListed:  2,
				FilesFetched: 2,
				KindCounts:   map[ContentKind]int{KindText: 1, KindJSON: 1},
				Tokens:       []ProxyToken{"10.0.0.1:8080"},
			},
			{
				URL:     "https://github.com/bob/broken",
				Status:  StatusFailed,
				Message: "default branch not found",
			},
			{
				URL:          "https://github.com/carol/feeds",
				Repo:         RepoRef{Owner: "carol", Name: "feeds"},
				Branch:       "master",
				Status:       StatusOK,
				FilesListed:  1,
				FilesFetched: 1,
				KindCounts:   map[ContentKind]int{KindXML: 1},
				Tokens:       []ProxyToken{"172.16.0.5:3128"},
			},
		},
		Proxies: []ProxyToken{"10.0.0.1:8080", "172.16.0.5:3128"},
	}
}

func TestReport_Duration(t *testing.T) {
	t.Parallel()

	r := testReport()
	if got := r.Duration(); got != 42*time.Second {
		t.Errorf("expected 42s, got %v", got)
	}
}

func TestReport_ProxyCount(t *testing.T) {
	t.Parallel()

	r := testReport()
	if got := r.ProxyCount(); got != 2 {
		t.Errorf("expected 2 proxies, got %d", got)
	}
}

func TestReport_FilesFetched(t *testing.T) {
	t.Parallel()

	r := testReport()
	if got := r.FilesFetched(); got != 3 {
		t.Errorf("expected 3 fetched files, got %d", got)
	}
}

func TestReport_CountByStatus(t *testing.T) {
	t.Parallel()

	r := testReport()

	tests := []struct {
		status RepoStatus
		want   int
	}{
		{StatusOK, 2},
		{StatusFailed, 1},
		{StatusCancelled, 0},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			t.Parallel()
			if got := r.CountByStatus(tt.status); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestReport_KindTotals(t *testing.T) {
	t.Parallel()

	r := testReport()
	totals := r.KindTotals()

	if totals[KindText] != 1 {
		t.Errorf("expected 1 text file, got %d", totals[KindText])
	}
	if totals[KindJSON] != 1 {
		t.Errorf("expected 1 json file, got %d", totals[KindJSON])
	}
	if totals[KindXML] != 1 {
		t.Errorf("expected 1 xml file, got %d", totals[KindXML])
	}
}

func TestRepoResult_TokenCount(t *testing.T) {
	t.Parallel()

	res := RepoResult{Tokens: []ProxyToken{"10.0.0.1:8080", "10.0.0.2:8080"}}
	if got := res.TokenCount(); got != 2 {
		t.Errorf("expected 2 tokens, got %d", got)
	}
}

func TestRepoResult_CountKind(t *testing.T) {
	t.Parallel()

	var res RepoResult
	res.CountKind(KindJSON)
	res.CountKind(KindJSON)
	res.CountKind(KindText)

	if res.KindCounts[KindJSON] != 2 {
		t.Errorf("expected 2 json files, got %d", res.KindCounts[KindJSON])
	}
	if res.KindCounts[KindText] != 1 {
		t.Errorf("expected 1 text file, got %d", res.KindCounts[KindText])
	}
}
