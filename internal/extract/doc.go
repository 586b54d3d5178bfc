// Package extract turns raw file content into proxy endpoint candidates.
//
// # Strategies
//
// Extraction is structure-aware. The strategy is chosen from the file
// extension:
//   - .json: decode the document and scan only string leaves
//   - .xml: parse the document and scan only text and CDATA nodes
//   - anything else: regex-scan the raw bytes
//
// When structured parsing fails, extraction falls back to the plain regex
// scan of the same bytes, so no input can make extraction error out. A
// document that parses cleanly but contains no endpoints does not fall
// back; its structured result (possibly empty) is final.
//
// Design decision: Structured parsing narrows the scan to value positions,
// which avoids false positives from numeric keys, version strings in markup,
// and similar noise that a whole-file regex pass would pick up.
//
// # Matching
//
// The Matcher accepts only dotted-quad addresses whose octets are 0-255 and
// ports in 1-65535. Candidates embedded in longer digit runs are rejected by
// word boundaries, so "999.1.1.1:80" never yields a match for the trailing
// portion of the address.
package extract
