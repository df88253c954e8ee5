package sink

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jianjiandamowang97/novel/internal/model"
)

// ErrClosed is returned when writing to a sink after Close.
var ErrClosed = errors.New("sink: already closed")

// timestampLayout formats the header and summary timestamps.
const timestampLayout = "2006-01-02 15:04:05"

// recordBuffer is the capacity of the record queue. Producers block
// only when the disk falls this many records behind.
const recordBuffer = 16

// Header describes the run parameters written at the top of the
// output file.
type Header struct {
	StartURL    string
	Concurrency int
	BaseDelay   time.Duration
	StartedAt   time.Time
}

// Sink writes chapter records to a single output file in enqueue
// order. All methods are safe for concurrent use.
type Sink struct {
	path    string
	file    *os.File
	bw      *bufio.Writer
	records chan string
	done    chan struct{}
	printer *message.Printer
	logger  *slog.Logger

	// closeMu guards closed. Producers hold the read lock across the
	// channel send so Close cannot close the channel under them.
	closeMu sync.RWMutex
	closed  bool

	// errMu guards err and is never held across a channel operation.
	errMu sync.Mutex
	err   error
}

// Option configures a Sink.
type Option func(*Sink)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		s.logger = logger
	}
}

// Open creates (or truncates) the output file at path, writes the run
// header, and starts the writer goroutine. Parent directories are
// created as needed.
func Open(path string, header Header, opts ...Option) (*Sink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	file, err := os.Create(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	s := &Sink{
		path:    path,
		file:    file,
		bw:      bufio.NewWriter(file),
		records: make(chan string, recordBuffer),
		done:    make(chan struct{}),
		printer: message.NewPrinter(language.English),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	if _, err := s.bw.WriteString(formatHeader(header)); err != nil {
		_ = file.Close() //nolint:errcheck // header write error takes precedence
		return nil, fmt.Errorf("write output header: %w", err)
	}

	go s.writeLoop()
	return s, nil
}

// Path returns the output file path.
func (s *Sink) Path() string {
	return s.path
}

// WriteChapter enqueues one chapter record. Position is the 1-based
// chapter position, used for the fallback title of untitled chapters.
func (s *Sink) WriteChapter(chapter *model.Chapter, position int) error {
	return s.enqueue(formatChapter(chapter, position))
}

// WriteSummary enqueues the run summary block. Call it once, right
// before Close.
func (s *Sink) WriteSummary(summary *model.RunSummary) error {
	return s.enqueue(s.formatSummary(summary))
}

// enqueue hands a formatted record to the writer goroutine.
func (s *Sink) enqueue(record string) error {
	if err := s.failure(); err != nil {
		return err
	}

	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	s.records <- record
	return nil
}

// Close drains pending records, flushes, and closes the file. It is
// safe to call more than once; later calls return the first error.
func (s *Sink) Close() error {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return s.failure()
	}
	s.closed = true
	s.closeMu.Unlock()

	close(s.records)
	<-s.done

	s.setFailure(s.bw.Flush())
	s.setFailure(s.file.Close())
	return s.failure()
}

// writeLoop is the single writer goroutine. After a write error it
// keeps draining the queue so producers never block on a dead sink.
func (s *Sink) writeLoop() {
	defer close(s.done)

	for record := range s.records {
		if s.failure() != nil {
			continue
		}

		if _, err := s.bw.WriteString(record); err != nil {
			s.logger.Error("chapter write failed", "path", s.path, "error", err)
			s.setFailure(fmt.Errorf("write record: %w", err))
		}
	}
}

// failure returns the first write error, if any.
func (s *Sink) failure() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// setFailure records err unless an earlier error is already held.
func (s *Sink) setFailure(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// formatHeader renders the run header block.
func formatHeader(h Header) string {
	var b strings.Builder
	fmt.Fprintf(&b, "小说爬取开始时间: %s\n", h.StartedAt.Format(timestampLayout))
	fmt.Fprintf(&b, "起始章节: %s\n", h.StartURL)
	fmt.Fprintf(&b, "并发限制: %d | 基础延迟: %gs\n", h.Concurrency, h.BaseDelay.Seconds())
	b.WriteString(strings.Repeat("=", frameWidth) + "\n\n")
	return b.String()
}

// formatSummary renders the closing statistics block. Word counts use
// thousands separators.
func (s *Sink) formatSummary(summary *model.RunSummary) string {
	var b strings.Builder
	b.WriteString("\n" + strings.Repeat("=", frameWidth) + "\n")
	fmt.Fprintf(&b, "爬取完成时间: %s\n", summary.FinishedAt.Format(timestampLayout))
	fmt.Fprintf(&b, "总章节数: %d\n", summary.Chapters)
	fmt.Fprintf(&b, "总字数: %s\n", s.printer.Sprintf("%d", summary.Words))
	fmt.Fprintf(&b, "总耗时: %.1f秒\n", summary.Elapsed().Seconds())
	fmt.Fprintf(&b, "平均速度: %.1f章/分钟\n", summary.ChaptersPerMinute())
	fmt.Fprintf(&b, "失败URL数: %d\n", len(summary.FailedURLs))
	b.WriteString(strings.Repeat("=", frameWidth) + "\n")
	return b.String()
}
