package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/proxyharvest/proxyharvest/internal/model"
)

// maxListedProxies caps the endpoint list embedded in the markdown report.
// Larger runs still record the complete set in JSON and list output.
const maxListedProxies = 100

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	// Header
	w.writeHeader(md, report)

	// Summary
	w.writeSummary(md, report)

	// Per-repository results
	w.writeRepositories(md, report)

	// Collected endpoints
	w.writeProxies(md, report)

	// Footer
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("Proxy Harvest Report")
	md.PlainText("")

	// Basic info table
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Repositories", strconv.Itoa(report.RepoCount)},
			{"Workers", strconv.Itoa(report.Workers)},
			{"Duration", report.Duration().Round(time.Millisecond).String()},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.Report) string {
	if report.Interrupted {
		return "⚠️ Interrupted (partial results)"
	}
	return "✅ Complete"
}

// writeSummary writes the run summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.Report) {
	md.H2("Run Summary")
	md.PlainText("")

	// Summary table
	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"✅ OK", strconv.Itoa(report.CountByStatus(model.StatusOK))},
			{"❌ Failed", strconv.Itoa(report.CountByStatus(model.StatusFailed))},
			{"⚠️ Cancelled", strconv.Itoa(report.CountByStatus(model.StatusCancelled))},
			{"Files Fetched", strconv.Itoa(report.FilesFetched())},
			{"**Unique Proxies**", "**" + strconv.Itoa(report.ProxyCount()) + "**"},
		},
	})
	md.PlainText("")

	// Add pie chart if any files were fetched
	if report.FilesFetched() > 0 {
		w.writePieChart(md, report)
	}

	// Add alert based on run outcome
	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart for fetched file types.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.Report) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Fetched File Types"),
		piechart.WithShowData(true),
	)

	totals := report.KindTotals()
	for _, kind := range []model.ContentKind{model.KindText, model.KindJSON, model.KindXML} {
		if totals[kind] > 0 {
			chart.LabelAndIntValue(strings.ToUpper(kind.String()), uint64(totals[kind]))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.Report) {
	failed := report.CountByStatus(model.StatusFailed)
	cancelled := report.CountByStatus(model.StatusCancelled)

	switch {
	case report.Interrupted:
		md.Warningf(
			"Run was interrupted. %d repository(ies) did not finish; collected results are partial but valid.",
			cancelled,
		)
	case failed > 0 && failed == report.RepoCount:
		md.Cautionf(
			"All %d repositories failed to resolve. Check the repository list and network connectivity.",
			failed,
		)
	case failed > 0:
		md.Importantf(
			"%d of %d repositories could not be processed.",
			failed, report.RepoCount,
		)
	case report.ProxyCount() == 0:
		md.Note("No proxy endpoints were found in the scanned files.")
	default:
		md.Tip("Run completed without errors.")
	}
	md.PlainText("")

	if truncated := w.countTruncated(report); truncated > 0 {
		md.Warningf(
			"%d repository tree listing(s) were truncated by the API; their file sets are incomplete.",
			truncated,
		)
		md.PlainText("")
	}
}

// countTruncated counts repositories whose tree listing was cut off.
func (w *MarkdownWriter) countTruncated(report *model.Report) int {
	n := 0
	for i := range report.Results {
		if report.Results[i].Truncated {
			n++
		}
	}
	return n
}

// writeRepositories writes the per-repository results table.
func (w *MarkdownWriter) writeRepositories(md *markdown.Markdown, report *model.Report) {
	md.H2("Repositories")
	md.PlainText("")

	if len(report.Results) == 0 {
		md.PlainText("No repositories processed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Results))
	for i := range report.Results {
		result := &report.Results[i]

		branch := result.Branch
		if branch == "" {
			branch = "-"
		}

		rows[i] = []string{
			truncateString(result.URL, 60),
			w.getResultStatusText(result),
			branch,
			fmt.Sprintf("%d/%d", result.FilesFetched, result.FilesListed),
			strconv.Itoa(result.TokenCount()),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Repository", "Status", "Branch", "Files", "Proxies"},
		Rows:   rows,
	})
	md.PlainText("")

	// Add failure details for repositories that did not complete
	for i := range report.Results {
		result := &report.Results[i]
		if result.Message != "" {
			md.Details(truncateString(result.URL, 60), result.Message)
		}
	}
	md.PlainText("")
}

// getResultStatusText returns the status cell text for one repository.
func (w *MarkdownWriter) getResultStatusText(result *model.RepoResult) string {
	switch result.Status {
	case model.StatusOK:
		return "✅ OK"
	case model.StatusFailed:
		return "❌ Failed"
	case model.StatusCancelled:
		return "⚠️ Cancelled"
	default:
		return result.Status.String()
	}
}

// writeProxies writes the collected endpoint list.
func (w *MarkdownWriter) writeProxies(md *markdown.Markdown, report *model.Report) {
	md.H2("Proxies")
	md.PlainText("")

	if report.ProxyCount() == 0 {
		md.PlainText("No proxy endpoints collected.")
		md.PlainText("")
		return
	}

	listed := report.Proxies
	spill := 0
	if len(listed) > maxListedProxies {
		spill = len(listed) - maxListedProxies
		listed = listed[:maxListedProxies]
	}

	var sb strings.Builder
	for _, proxy := range listed {
		sb.WriteString(proxy.String())
		sb.WriteString("\n")
	}
	if spill > 0 {
		sb.WriteString(fmt.Sprintf("... and %d more\n", spill))
	}

	md.CodeBlocks(markdown.SyntaxHighlightText, sb.String())
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [proxyharvest](https://github.com/proxyharvest/proxyharvest)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
