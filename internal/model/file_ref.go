package model

import (
	"path"
	"strings"
)

// ContentKind classifies file content for extraction strategy selection.
// The kind is derived from the file extension and decides which parser is
// attempted first. It is a hint, not a promise: a .json file may hold
// invalid JSON, in which case extraction falls back to the plain scan.
type ContentKind string

const (
	// KindText selects the plain regex scan.
	KindText ContentKind = "text"
	// KindJSON selects JSON decoding with string-leaf traversal.
	KindJSON ContentKind = "json"
	// KindXML selects XML parsing with text-node traversal.
	KindXML ContentKind = "xml"
)

// String returns the string representation of the ContentKind.
func (k ContentKind) String() string {
	return string(k)
}

// harvestableSuffixes are the file extensions the pipeline downloads.
var harvestableSuffixes = []string{".txt", ".json", ".xml"}

// Harvestable reports whether a repository file path is worth downloading.
// The suffix match is exact, so upper-case extensions are skipped.
func Harvestable(p string) bool {
	for _, suffix := range harvestableSuffixes {
		if strings.HasSuffix(p, suffix) {
			return true
		}
	}
	return false
}

// KindForPath returns the ContentKind for a file path or URL based on its
// extension. Anything that is not .json or .xml is treated as plain text.
func KindForPath(p string) ContentKind {
	switch path.Ext(p) {
	case ".json":
		return KindJSON
	case ".xml":
		return KindXML
	default:
		return KindText
	}
}

// FileRef locates one downloadable file in a resolved repository.
type FileRef struct {
	// Path is the file path inside the repository tree.
	Path string `json:"path"`
	// RawURL is the direct download URL for the raw file content.
	RawURL string `json:"raw_url"`
	// Kind is the extraction strategy hint for the file.
	Kind ContentKind `json:"kind"`
}
