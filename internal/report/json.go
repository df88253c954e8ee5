package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/jianjiandamowang97/novel/internal/model"
)

// JSONWriter outputs run summaries in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// version is included in the output metadata.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
	}
}

// WithVersion includes the given tool version in the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// jsonSummary is the wire shape of a run summary.
//
// Design decision: We map the summary to a dedicated struct rather than
// tagging the model because this allows output-specific fields (derived
// rates, version metadata) without polluting the core data structure.
type jsonSummary struct {
	Version           string    `json:"version,omitempty"`
	StartURL          string    `json:"start_url"`
	OutputFile        string    `json:"output_file"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
	ElapsedSeconds    float64   `json:"elapsed_seconds"`
	Chapters          int       `json:"chapters"`
	Words             int       `json:"words"`
	ChaptersPerMinute float64   `json:"chapters_per_minute"`
	FailedURLs        []string  `json:"failed_urls,omitempty"`
	Outcome           string    `json:"outcome"`
}

// Write outputs the run summary in JSON format.
func (w *JSONWriter) Write(summary *model.RunSummary) (int, error) {
	out := jsonSummary{
		Version:           w.version,
		StartURL:          summary.StartURL,
		OutputFile:        summary.OutputFile,
		StartedAt:         summary.StartedAt,
		FinishedAt:        summary.FinishedAt,
		ElapsedSeconds:    summary.Elapsed().Seconds(),
		Chapters:          summary.Chapters,
		Words:             summary.Words,
		ChaptersPerMinute: summary.ChaptersPerMinute(),
		FailedURLs:        summary.FailedURLs,
		Outcome:           summary.Outcome.String(),
	}

	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(out, "", "  ")
	} else {
		data, err = json.Marshal(out)
	}
	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
