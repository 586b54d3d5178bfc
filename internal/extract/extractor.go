package extract

import (
	"bytes"
	"encoding/json"

	"github.com/antchfx/xmlquery"

	"github.com/proxyharvest/proxyharvest/internal/model"
)

// Extractor turns raw file content into endpoint candidates. It picks a
// parsing strategy from the file extension and falls back to the plain
// regex scan when structured parsing fails.
//
// An Extractor is safe for concurrent use.
type Extractor struct {
	matcher *Matcher
}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{
		matcher: NewMatcher(),
	}
}

// Extract returns every endpoint candidate found in body. The strategy is
// chosen from the extension of fileURL:
//
//   - .json: decode and scan string leaves; invalid JSON falls back to the
//     regex scan of the raw bytes. Valid JSON without tokens does not fall
//     back; the empty structured result is final.
//   - .xml: parse and scan text nodes; unparseable XML falls back to the
//     regex scan of the raw bytes.
//   - anything else: regex-scan the raw bytes.
//
// Duplicates are preserved; deduplication happens in the collection layer.
// Extract never fails.
func (e *Extractor) Extract(fileURL string, body []byte) []model.ProxyToken {
	switch model.KindForPath(fileURL) {
	case model.KindJSON:
		return e.extractJSON(body)
	case model.KindXML:
		return e.extractXML(body)
	default:
		return e.matcher.Scan(string(body))
	}
}

// extractJSON scans string leaves of a JSON document, or every byte of the
// input when the document does not decode.
func (e *Extractor) extractJSON(body []byte) []model.ProxyToken {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return e.matcher.Scan(string(body))
	}
	return walkJSON(doc, e.matcher)
}

// extractXML scans text nodes of an XML document, or every byte of the
// input when the document does not parse.
func (e *Extractor) extractXML(body []byte) []model.ProxyToken {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return e.matcher.Scan(string(body))
	}
	return walkXML(doc, e.matcher)
}
