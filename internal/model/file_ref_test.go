package model

import "testing"

func TestHarvestable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want bool
	}{
		{name: "txt file", path: "proxies.txt", want: true},
		{name: "json file", path: "data/list.json", want: true},
		{name: "xml file", path: "feeds/proxies.xml", want: true},
		{name: "nested path", path: "a/b/c/list.txt", want: true},
		{name: "double extension", path: "backup.json.txt", want: true},
		{name: "upper-case extension is skipped", path: "PROXIES.TXT", want: false},
		{name: "markdown file", path: "README.md", want: false},
		{name: "no extension", path: "LICENSE", want: false},
		{name: "extension prefix only", path: "notes.txtx", want: false},
		{name: "json5 file", path: "config.json5", want: false},
		{name: "empty path", path: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Harvestable(tt.path); got != tt.want {
				t.Errorf("Harvestable(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestKindForPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want ContentKind
	}{
		{name: "json extension", path: "list.json", want: KindJSON},
		{name: "xml extension", path: "feed.xml", want: KindXML},
		{name: "txt extension", path: "proxies.txt", want: KindText},
		{name: "no extension", path: "data", want: KindText},
		{name: "unknown extension", path: "list.csv", want: KindText},
		{name: "upper-case json treated as text", path: "list.JSON", want: KindText},
		{name: "raw download URL", path: "https://raw.githubusercontent.com/a/b/main/x.json", want: KindJSON},
		{name: "only last extension counts", path: "a.json.txt", want: KindText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := KindForPath(tt.path); got != tt.want {
				t.Errorf("KindForPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestContentKind_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind ContentKind
		want string
	}{
		{KindText, "text"},
		{KindJSON, "json"},
		{KindXML, "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
