package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/proxyharvest/proxyharvest/internal/model"
)

// TextWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting and per-repository status indicators.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type TextWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool

	// titler renders status names as display labels.
	titler cases.Caser
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) TextWriterOption {
	return func(w *TextWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
		titler:     cases.Title(language.English),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *TextWriter) Write(report *model.Report) (int, error) {
	var sb strings.Builder

	// Header
	w.writeHeader(&sb, report)

	// Summary
	w.writeSummary(&sb, report)

	// Per-repository results
	w.writeRepositories(&sb, report)

	// Footer
	w.writeFooter(&sb)

	// Write to output
	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *TextWriter) writeHeader(sb *strings.Builder, report *model.Report) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        PROXYHARVEST REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Run Date:      %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Repositories:  %d\n", report.RepoCount))
	sb.WriteString(fmt.Sprintf("Workers:       %d\n", report.Workers))
	sb.WriteString(fmt.Sprintf("Duration:      %s\n", report.Duration().Round(time.Millisecond)))

	if report.Interrupted {
		sb.WriteString("Status:        INTERRUPTED (partial results)\n")
	} else {
		sb.WriteString("Status:        Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the result summary section.
func (w *TextWriter) writeSummary(sb *strings.Builder, report *model.Report) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RESULT SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  %-10s %d\n", w.statusLabel(model.StatusOK)+":", report.CountByStatus(model.StatusOK)))
	sb.WriteString(fmt.Sprintf("  %-10s %d\n", w.statusLabel(model.StatusFailed)+":", report.CountByStatus(model.StatusFailed)))
	sb.WriteString(fmt.Sprintf("  %-10s %d\n", w.statusLabel(model.StatusCancelled)+":", report.CountByStatus(model.StatusCancelled)))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("  Files fetched:  %d\n", report.FilesFetched()))
	if totals := report.KindTotals(); len(totals) > 0 || w.showEmpty {
		sb.WriteString(fmt.Sprintf("  By type:        text=%d json=%d xml=%d\n",
			totals[model.KindText], totals[model.KindJSON], totals[model.KindXML]))
	}
	sb.WriteString(fmt.Sprintf("  Unique proxies: %d\n", report.ProxyCount()))
	sb.WriteString("\n")
}

// writeRepositories writes the per-repository results section.
func (w *TextWriter) writeRepositories(sb *strings.Builder, report *model.Report) {
	if len(report.Results) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("REPOSITORIES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.Results) == 0 {
		sb.WriteString("  No repositories processed\n\n")
		return
	}

	for i := range report.Results {
		w.writeRepository(sb, &report.Results[i])
	}
}

// writeRepository writes one repository's result.
func (w *TextWriter) writeRepository(sb *strings.Builder, result *model.RepoResult) {
	indicator := w.getStatusIndicator(result.Status)
	sb.WriteString(fmt.Sprintf("  [%s] %s\n", indicator, result.URL))

	switch result.Status {
	case model.StatusOK:
		sb.WriteString(fmt.Sprintf("      Branch: %s (%d/%d files, %d tokens)\n",
			result.Branch, result.FilesFetched, result.FilesListed, result.TokenCount()))
	default:
		sb.WriteString(fmt.Sprintf("      %s: %s\n", w.statusLabel(result.Status), result.Message))
		if result.FilesFetched > 0 {
			sb.WriteString(fmt.Sprintf("      Partial: %d/%d files, %d tokens\n",
				result.FilesFetched, result.FilesListed, result.TokenCount()))
		}
	}

	if result.Truncated {
		sb.WriteString("      NOTE: tree listing truncated; file set incomplete\n")
	}

	if w.verbose {
		sb.WriteString(fmt.Sprintf("      Duration: %s\n", result.Duration.Round(time.Millisecond)))
		if result.FilesFailed > 0 {
			sb.WriteString(fmt.Sprintf("      Failed downloads: %d\n", result.FilesFailed))
		}
	}
}

// statusLabel returns the display label for a repository status.
func (w *TextWriter) statusLabel(status model.RepoStatus) string {
	if status == model.StatusOK {
		return "OK"
	}
	return w.titler.String(status.String())
}

// getStatusIndicator returns a visual indicator for the status.
func (w *TextWriter) getStatusIndicator(status model.RepoStatus) string {
	switch status {
	case model.StatusOK:
		return "+"
	case model.StatusFailed:
		return "!"
	case model.StatusCancelled:
		return "~"
	default:
		return "?"
	}
}

// writeFooter writes the report footer.
func (w *TextWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by proxyharvest\n")
	sb.WriteString("https://github.com/proxyharvest/proxyharvest\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
