package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/proxyharvest/proxyharvest/internal/fetch"
	"github.com/proxyharvest/proxyharvest/internal/model"
)

// newTestResolver wires a Resolver against a local API server.
func newTestResolver(t *testing.T, handler http.Handler) (*Resolver, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := fetch.NewClient()
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	r := NewResolver(client,
		WithAPIBaseURL(server.URL),
		WithRawBaseURL("https://raw.example.com"),
	)
	return r, server
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("resolves branch and filters tree", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/repos/alice/proxy-list", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"default_branch": "main", "name": "proxy-list"}`))
		})
		mux.HandleFunc("/repos/alice/proxy-list/git/trees/main", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("recursive") != "1" {
				t.Errorf("expected recursive=1, got query %s", r.URL.RawQuery)
			}
			_, _ = w.Write([]byte(`{
				"truncated": false,
				"tree": [
					{"path": "proxies.txt", "type": "blob"},
					{"path": "data/list.json", "type": "blob"},
					{"path": "feeds/feed.xml", "type": "blob"},
					{"path": "script.py", "type": "blob"},
					{"path": "data", "type": "tree"},
					{"path": "archive.txt", "type": "tree"}
				]
			}`))
		})

		r, _ := newTestResolver(t, mux)

		listing, err := r.Resolve(context.Background(), "https://github.com/alice/proxy-list")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if listing.Branch != "main" {
			t.Errorf("expected branch main, got %s", listing.Branch)
		}
		if listing.Truncated {
			t.Error("expected truncated to be false")
		}
		if listing.Repo.String() != "alice/proxy-list" {
			t.Errorf("unexpected repo %s", listing.Repo)
		}

		want := []model.FileRef{
			{
				Path:   "proxies.txt",
				RawURL: "https://raw.example.com/alice/proxy-list/main/proxies.txt",
				Kind:   model.KindText,
			},
			{
				Path:   "data/list.json",
				RawURL: "https://raw.example.com/alice/proxy-list/main/data/list.json",
				Kind:   model.KindJSON,
			},
			{
				Path:   "feeds/feed.xml",
				RawURL: "https://raw.example.com/alice/proxy-list/main/feeds/feed.xml",
				Kind:   model.KindXML,
			},
		}

		if len(listing.Files) != len(want) {
			t.Fatalf("expected %d files, got %d: %+v", len(want), len(listing.Files), listing.Files)
		}
		for i := range want {
			if listing.Files[i] != want[i] {
				t.Errorf("file %d: expected %+v, got %+v", i, want[i], listing.Files[i])
			}
		}
	})

	t.Run("truncated listing is kept and flagged", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/repos/alice/big", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"default_branch": "main"}`))
		})
		mux.HandleFunc("/repos/alice/big/git/trees/main", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{
				"truncated": true,
				"tree": [{"path": "part.txt", "type": "blob"}]
			}`))
		})

		r, _ := newTestResolver(t, mux)

		listing, err := r.Resolve(context.Background(), "https://github.com/alice/big")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !listing.Truncated {
			t.Error("expected truncated listing to be flagged")
		}
		if len(listing.Files) != 1 {
			t.Errorf("expected the partial file list to be kept, got %d files", len(listing.Files))
		}
	})

	t.Run("malformed URL fails before any network call", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusOK)
		})

		r, _ := newTestResolver(t, handler)

		_, err := r.Resolve(context.Background(), "github.com")
		if !errors.Is(err, model.ErrInvalidRepoURL) {
			t.Errorf("expected ErrInvalidRepoURL, got %v", err)
		}
		if calls.Load() != 0 {
			t.Errorf("expected no API calls, got %d", calls.Load())
		}
	})

	t.Run("missing default branch", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/repos/alice/empty", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		})

		r, _ := newTestResolver(t, mux)

		_, err := r.Resolve(context.Background(), "https://github.com/alice/empty")
		if !errors.Is(err, ErrNoDefaultBranch) {
			t.Errorf("expected ErrNoDefaultBranch, got %v", err)
		}
	})

	t.Run("metadata request failure surfaces the status error", func(t *testing.T) {
		t.Parallel()

		handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "nope", http.StatusNotFound)
		})

		r, _ := newTestResolver(t, handler)

		_, err := r.Resolve(context.Background(), "https://github.com/alice/missing")
		if !errors.Is(err, fetch.ErrHTTPStatus) {
			t.Errorf("expected ErrHTTPStatus, got %v", err)
		}
	})

	t.Run("undecodable metadata fails", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/repos/alice/garbled", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		})

		r, _ := newTestResolver(t, mux)

		if _, err := r.Resolve(context.Background(), "https://github.com/alice/garbled"); err == nil {
			t.Error("expected error for undecodable metadata")
		}
	})

	t.Run("tree request failure surfaces an error", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/repos/alice/treeless", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"default_branch": "main"}`))
		})
		mux.HandleFunc("/repos/alice/treeless/git/trees/main", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})

		r, _ := newTestResolver(t, mux)

		_, err := r.Resolve(context.Background(), "https://github.com/alice/treeless")
		if !errors.Is(err, fetch.ErrHTTPStatus) {
			t.Errorf("expected ErrHTTPStatus, got %v", err)
		}
	})

	t.Run("empty tree yields empty file list", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/repos/alice/bare", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"default_branch": "main"}`))
		})
		mux.HandleFunc("/repos/alice/bare/git/trees/main", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"truncated": false, "tree": []}`))
		})

		r, _ := newTestResolver(t, mux)

		listing, err := r.Resolve(context.Background(), "https://github.com/alice/bare")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(listing.Files) != 0 {
			t.Errorf("expected no files, got %d", len(listing.Files))
		}
	})
}
