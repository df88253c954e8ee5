package model

import "time"

// Outcome describes how a traversal run ended.
type Outcome int

const (
	// OutcomeCompleted means the chain was followed to its last chapter.
	OutcomeCompleted Outcome = iota

	// OutcomeAborted means the consecutive failure budget was exhausted.
	OutcomeAborted

	// OutcomeCancelled means the user interrupted the run.
	OutcomeCancelled
)

// String returns a short lowercase name for the outcome. It is used in
// log output, the run summary, and the crawl history database.
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeAborted:
		return "aborted"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// RunSummary is the final accounting of one traversal run. It is built
// from the Session when the walker reaches a terminal state and is
// rendered by the report writers and stored in the history database.
type RunSummary struct {
	// StartURL is the first chapter URL of the run.
	StartURL string

	// OutputFile is the path the chapters were appended to.
	OutputFile string

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time
	FinishedAt time.Time

	// Chapters is the number of chapters persisted to the sink.
	Chapters int

	// Words is the combined word count of persisted chapters.
	Words int

	// FailedURLs lists URLs that permanently failed, in the order
	// they were first recorded.
	FailedURLs []string

	// Outcome is the terminal state of the run.
	Outcome Outcome
}

// Elapsed returns the wall-clock duration of the run.
func (r *RunSummary) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// ChaptersPerMinute returns the average harvest throughput. Zero when
// the run was too short to measure.
func (r *RunSummary) ChaptersPerMinute() float64 {
	minutes := r.Elapsed().Minutes()
	if minutes <= 0 {
		return 0
	}
	return float64(r.Chapters) / minutes
}

// NewRunSummary builds a RunSummary from a finished session.
func NewRunSummary(s *Session, outputFile string, outcome Outcome) *RunSummary {
	chapters, words := s.Totals()
	return &RunSummary{
		StartURL:   s.StartURL,
		OutputFile: outputFile,
		StartedAt:  s.StartedAt,
		FinishedAt: time.Now(),
		Chapters:   chapters,
		Words:      words,
		FailedURLs: s.FailedURLs(),
		Outcome:    outcome,
	}
}
