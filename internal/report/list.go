package report

import (
	"io"
	"strings"

	"github.com/proxyharvest/proxyharvest/internal/model"
)

// ListWriter outputs the collected proxy endpoints one per line.
// This is the primary machine-readable artifact of a harvest run: the
// sorted, deduplicated endpoint list with no headers or decoration.
//
// Design decision: We use plain line-delimited text rather than a
// structured format because:
// 1. It feeds directly into curl, proxychains, and shell pipelines
// 2. It diffs cleanly between runs
// 3. Structured output is already covered by JSONWriter
type ListWriter struct {
	baseWriter
}

// NewListWriter creates a ListWriter that outputs to the given writer.
func NewListWriter(output io.Writer) *ListWriter {
	return &ListWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report's proxy set, one endpoint per line.
// An empty proxy set writes nothing at all, so callers can decide
// whether to create an output file based on the byte count.
func (w *ListWriter) Write(report *model.Report) (int, error) {
	if len(report.Proxies) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	for _, proxy := range report.Proxies {
		sb.WriteString(proxy.String())
		sb.WriteString("\n")
	}

	return w.output.Write([]byte(sb.String()))
}
