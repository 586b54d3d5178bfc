package model

import (
	"errors"
	"testing"
)

func TestParseRepoRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		url       string
		wantOwner string
		wantName  string
		wantErr   error
	}{
		{
			name:      "plain https repository URL",
			url:       "https://github.com/alice/proxy-list",
			wantOwner: "alice",
			wantName:  "proxy-list",
			wantErr:   nil,
		},
		{
			name:      "trailing slash",
			url:       "https://github.com/alice/proxy-list/",
			wantOwner: "alice",
			wantName:  "proxy-list",
			wantErr:   nil,
		},
		{
			name:      "scheme-less URL",
			url:       "github.com/alice/proxy-list",
			wantOwner: "alice",
			wantName:  "proxy-list",
			wantErr:   nil,
		},
		{
			name:      "deep link keeps the last two segments",
			url:       "https://github.com/orgs/alice/proxy-list",
			wantOwner: "alice",
			wantName:  "proxy-list",
			wantErr:   nil,
		},
		{
			name:      "surrounding whitespace is trimmed",
			url:       "  https://github.com/alice/proxy-list\n",
			wantOwner: "alice",
			wantName:  "proxy-list",
			wantErr:   nil,
		},
		{
			name:      "dot-git suffix is kept verbatim",
			url:       "https://github.com/alice/proxy-list.git",
			wantOwner: "alice",
			wantName:  "proxy-list.git",
			wantErr:   nil,
		},
		{
			name:    "bare hostname",
			url:     "github.com",
			wantErr: ErrInvalidRepoURL,
		},
		{
			name:    "hostname with scheme only",
			url:     "https://github.com",
			wantErr: ErrInvalidRepoURL,
		},
		{
			name:    "single path segment",
			url:     "https://github.com/alice",
			wantErr: ErrInvalidRepoURL,
		},
		{
			name:    "empty string",
			url:     "",
			wantErr: ErrInvalidRepoURL,
		},
		{
			name:    "unparseable URL",
			url:     "://missing-scheme",
			wantErr: ErrInvalidRepoURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ref, err := ParseRepoRef(tt.url)

			if tt.wantErr != nil {
				if err == nil {
					t.Errorf("expected error %v, got nil", tt.wantErr)
				} else if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if ref.Owner != tt.wantOwner {
				t.Errorf("expected owner %q, got %q", tt.wantOwner, ref.Owner)
			}
			if ref.Name != tt.wantName {
				t.Errorf("expected name %q, got %q", tt.wantName, ref.Name)
			}
		})
	}
}

func TestRepoRef_Methods(t *testing.T) {
	t.Parallel()

	t.Run("String returns owner/name", func(t *testing.T) {
		t.Parallel()
		ref := RepoRef{Owner: "alice", Name: "proxy-list"}
		if got := ref.String(); got != "alice/proxy-list" {
			t.Errorf("expected alice/proxy-list, got %s", got)
		}
	})

	t.Run("IsZero returns true for zero value", func(t *testing.T) {
		t.Parallel()
		var zero RepoRef
		if !zero.IsZero() {
			t.Error("expected zero value to be zero")
		}
		if (RepoRef{Owner: "alice", Name: "x"}).IsZero() {
			t.Error("expected non-zero value to not be zero")
		}
	})
}
