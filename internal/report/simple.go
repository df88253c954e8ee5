package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jianjiandamowang97/novel/internal/model"
)

// SimpleWriter outputs human-readable text summaries.
// This format is designed for terminal display after a harvest run.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether the failed URLs section is shown when
	// no URLs failed.
	showEmpty bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.RunSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeTotals(&sb, summary)
	w.writeFailedURLs(&sb, summary)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the summary header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.RunSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       NOVEL HARVEST SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Start URL:    %s\n", summary.StartURL))
	sb.WriteString(fmt.Sprintf("Output File:  %s\n", summary.OutputFile))
	sb.WriteString(fmt.Sprintf("Started:      %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Finished:     %s\n", summary.FinishedAt.Format("2006-01-02 15:04:05 MST")))

	switch summary.Outcome {
	case model.OutcomeCompleted:
		sb.WriteString("Status:       Complete\n")
	case model.OutcomeAborted:
		sb.WriteString("Status:       ABORTED (too many consecutive failures)\n")
	case model.OutcomeCancelled:
		sb.WriteString("Status:       CANCELLED (partial results)\n")
	default:
		sb.WriteString(fmt.Sprintf("Status:       %s\n", summary.Outcome))
	}

	sb.WriteString("\n")
}

// writeTotals writes the harvest totals section.
func (w *SimpleWriter) writeTotals(sb *strings.Builder, summary *model.RunSummary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("TOTALS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Chapters:   %d\n", summary.Chapters))
	sb.WriteString(fmt.Sprintf("  Words:      %d\n", summary.Words))
	sb.WriteString(fmt.Sprintf("  Elapsed:    %s\n", summary.Elapsed().Round(100*time.Millisecond)))
	sb.WriteString(fmt.Sprintf("  Speed:      %.1f chapters/min\n", summary.ChaptersPerMinute()))
	sb.WriteString("\n")
}

// writeFailedURLs writes the permanently failed URLs section.
func (w *SimpleWriter) writeFailedURLs(sb *strings.Builder, summary *model.RunSummary) {
	if len(summary.FailedURLs) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAILED URLS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(summary.FailedURLs) == 0 {
		sb.WriteString("  No failed URLs\n")
	} else {
		for _, url := range summary.FailedURLs {
			sb.WriteString(fmt.Sprintf("  * %s\n", url))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the summary footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
