package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/jianjiandamowang97/novel/internal/model"
)

// MarkdownWriter outputs run summaries in Markdown format.
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

// Write outputs the run summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeAlert(md, summary)
	w.writeFailedURLs(md, summary)

	return len(md.String()), md.Build()
}

// writeHeader writes the summary header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.RunSummary) {
	md.H1("Novel Harvest Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + summary.StartURL + "`"},
			{"Output File", "`" + summary.OutputFile + "`"},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Finished", summary.FinishedAt.Format("2006-01-02 15:04:05 MST")},
			{"Status", w.getStatusText(summary)},
			{"Chapters", strconv.Itoa(summary.Chapters)},
			{"Words", strconv.Itoa(summary.Words)},
			{"Speed", fmt.Sprintf("%.1f chapters/min", summary.ChaptersPerMinute())},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on the run outcome.
func (w *MarkdownWriter) getStatusText(summary *model.RunSummary) string {
	switch summary.Outcome {
	case model.OutcomeCompleted:
		return "✅ Complete"
	case model.OutcomeAborted:
		return "❌ Aborted"
	case model.OutcomeCancelled:
		return "⚠️ Cancelled (partial results)"
	default:
		return summary.Outcome.String()
	}
}

// writeAlert writes an appropriate alert based on the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.RunSummary) {
	switch {
	case summary.Outcome == model.OutcomeAborted:
		md.Cautionf(
			"The harvest aborted after repeated failures. %d URL(s) could not be fetched.",
			len(summary.FailedURLs),
		)
	case summary.Outcome == model.OutcomeCancelled:
		md.Warningf(
			"The harvest was interrupted after %d chapter(s). Restart from the last saved chapter to continue.",
			summary.Chapters,
		)
	case len(summary.FailedURLs) > 0:
		md.Importantf(
			"The chain completed but %d URL(s) permanently failed and may leave gaps.",
			len(summary.FailedURLs),
		)
	default:
		md.Tip(fmt.Sprintf("All %d chapters were harvested without permanent failures.", summary.Chapters))
	}
	md.PlainText("")
}

// writeFailedURLs writes the permanently failed URLs section.
func (w *MarkdownWriter) writeFailedURLs(md *markdown.Markdown, summary *model.RunSummary) {
	md.H2("Failed URLs")
	md.PlainText("")

	if len(summary.FailedURLs) == 0 {
		md.PlainText("No permanently failed URLs.")
		md.PlainText("")
		return
	}

	md.BulletList(summary.FailedURLs...)
	md.PlainText("")
}
