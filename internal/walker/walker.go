package walker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jianjiandamowang97/novel/internal/extract"
	"github.com/jianjiandamowang97/novel/internal/fetcher"
	"github.com/jianjiandamowang97/novel/internal/model"
	"github.com/jianjiandamowang97/novel/internal/pacing"
)

// Traversal parameters.
const (
	// DefaultConcurrency bounds simultaneous sub-page fetches.
	DefaultConcurrency = 2

	// defaultDispatchPause spaces out sub-page fetch dispatches so a
	// paginated chapter does not arrive at the server as a burst.
	defaultDispatchPause = 500 * time.Millisecond

	// defaultCooldownUnit scales the post-failure cooldown: the wait is
	// one unit per consecutive failure.
	defaultCooldownUnit = 5 * time.Second

	// maxConsecutiveFailures is the failure budget. The run aborts when
	// this many chapters in a row produce nothing.
	maxConsecutiveFailures = 5
)

// Fetcher retrieves one document. *fetcher.Fetcher satisfies this.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetcher.Result, error)
}

// ChapterSink persists assembled chapters. *sink.Sink satisfies this.
type ChapterSink interface {
	WriteChapter(chapter *model.Chapter, position int) error
}

// Walker traverses a chapter chain.
type Walker struct {
	fetcher   Fetcher
	extractor *extract.Extractor
	resolver  *extract.Resolver
	pacer     *pacing.Controller
	sink      ChapterSink
	session   *model.Session
	logger    *slog.Logger

	concurrency   int
	dispatchPause time.Duration
	cooldownUnit  time.Duration
}

// Option configures a Walker.
type Option func(*Walker)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Walker) {
		w.logger = logger
	}
}

// WithConcurrency bounds simultaneous sub-page fetches.
func WithConcurrency(n int) Option {
	return func(w *Walker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithDispatchPause overrides the pause between sub-page dispatches.
func WithDispatchPause(d time.Duration) Option {
	return func(w *Walker) {
		if d >= 0 {
			w.dispatchPause = d
		}
	}
}

// WithCooldownUnit overrides the per-failure cooldown unit. Tests
// shrink it so failure handling can be observed without real sleeps.
func WithCooldownUnit(d time.Duration) Option {
	return func(w *Walker) {
		if d > 0 {
			w.cooldownUnit = d
		}
	}
}

// New creates a Walker over the given collaborators. The session must
// be the same one the fetcher and pacer were built with.
func New(
	f Fetcher,
	extractor *extract.Extractor,
	resolver *extract.Resolver,
	pacer *pacing.Controller,
	out ChapterSink,
	session *model.Session,
	opts ...Option,
) *Walker {
	w := &Walker{
		fetcher:       f,
		extractor:     extractor,
		resolver:      resolver,
		pacer:         pacer,
		sink:          out,
		session:       session,
		concurrency:   DefaultConcurrency,
		dispatchPause: defaultDispatchPause,
		cooldownUnit:  defaultCooldownUnit,
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = slog.Default()
	}

	return w
}

// run carries the per-chapter working set between states.
type run struct {
	state   state
	current string
	body    []byte
	pages   []string
	chapter *model.Chapter
}

// Walk traverses the chain from the session's start URL until a
// terminal state. It returns the run outcome; the error is non-nil for
// aborted and cancelled runs.
func (w *Walker) Walk(ctx context.Context) (model.Outcome, error) {
	r := &run{state: stateInit, current: w.session.StartURL}

	for {
		if err := ctx.Err(); err != nil {
			w.logger.Info("traversal cancelled",
				"state", r.state.String(),
				"url", r.current,
			)
			return model.OutcomeCancelled, err
		}

		switch r.state {
		case stateInit:
			w.logger.Info("traversal starting",
				"url", r.current,
				"concurrency", w.concurrency,
			)
			r.state = stateFetchingNode

		case stateFetchingNode:
			w.fetchNode(ctx, r)

		case stateResolvingPages:
			r.pages = w.resolver.ResolvePages(r.body, r.current)
			if len(r.pages) > 0 {
				w.logger.Info("paginated chapter",
					"url", r.current,
					"position", w.session.Position(),
					"subpages", len(r.pages),
				)
			}
			r.state = stateAssemblingPages

		case stateAssemblingPages:
			w.assemble(ctx, r)

		case statePersisting:
			if err := w.persist(ctx, r); err != nil {
				return model.OutcomeAborted, err
			}

		case stateAdvancing:
			w.advance(ctx, r)

		case stateTerminated:
			chapters, words := w.session.Totals()
			w.logger.Info("traversal complete",
				"chapters", chapters,
				"words", words,
				"failed_urls", w.session.FailedCount(),
			)
			return model.OutcomeCompleted, nil

		case stateAborted:
			w.logger.Error("traversal aborted",
				"consecutive_failures", w.session.ConsecutiveFailures(),
				"url", r.current,
			)
			return model.OutcomeAborted, ErrFailureBudget
		}
	}
}

// fetchNode retrieves the current chapter's first page. A node that
// cannot be fetched leaves no trusted next pointer, so the chain ends
// there unless the failure budget is already spent.
func (w *Walker) fetchNode(ctx context.Context, r *run) {
	res, err := w.fetcher.Fetch(ctx, r.current)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		streak := w.session.RecordFailure()
		w.logger.Error("chapter fetch failed",
			"url", r.current,
			"position", w.session.Position(),
			"consecutive_failures", streak,
			"error", err,
		)
		if streak >= maxConsecutiveFailures {
			r.state = stateAborted
			return
		}
		w.logger.Info("chain broken, stopping traversal", "url", r.current)
		r.state = stateTerminated
		return
	}

	r.body = res.Body
	r.state = stateResolvingPages
}

// assemble extracts the first page's content and merges in the
// sub-pages, fetched concurrently but joined in sequence order.
func (w *Walker) assemble(ctx context.Context, r *run) {
	content := w.extractor.Extract(r.body, r.current)
	chapter := &model.Chapter{
		URL:        r.current,
		Title:      content.Title,
		Paragraphs: content.Paragraphs,
		NextURL:    content.NextURL,
	}

	subPages, err := w.fetchSubPages(ctx, r.pages)
	if err != nil {
		// Only cancellation escapes the sub-page fetches; the top of
		// the walk loop reports it.
		return
	}

	sort.SliceStable(subPages, func(i, j int) bool {
		return subPages[i].Index < subPages[j].Index
	})
	for _, page := range subPages {
		chapter.Paragraphs = append(chapter.Paragraphs, page.Paragraphs...)
	}

	r.chapter = chapter
	r.state = statePersisting
}

// fetchSubPages retrieves and extracts the chapter's sub-pages with
// bounded concurrency. A failed sub-page yields a partial chapter
// rather than a failed one.
func (w *Walker) fetchSubPages(ctx context.Context, pages []string) ([]model.SubPage, error) {
	if len(pages) == 0 {
		return nil, nil
	}

	results := make([]model.SubPage, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for i, pageURL := range pages {
		if i > 0 {
			if err := sleepCtx(ctx, w.dispatchPause); err != nil {
				break
			}
		}
		i, pageURL := i, pageURL
		g.Go(func() error {
			results[i] = model.SubPage{Index: i, URL: pageURL}
			res, err := w.fetcher.Fetch(gctx, pageURL)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				w.logger.Warn("sub-page fetch failed",
					"url", pageURL,
					"sequence", i,
					"error", err,
				)
				return nil
			}
			results[i].Paragraphs = w.extractor.Extract(res.Body, pageURL).Paragraphs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// persist writes the assembled chapter. An empty chapter counts
// against the failure budget but still advances the chain through its
// next pointer. A sink error is fatal: nothing further can be saved.
func (w *Walker) persist(ctx context.Context, r *run) error {
	if r.chapter.Empty() {
		streak := w.session.RecordFailure()
		w.logger.Warn("chapter has no content, skipping",
			"url", r.current,
			"position", w.session.Position(),
			"consecutive_failures", streak,
		)
		if streak >= maxConsecutiveFailures {
			r.state = stateAborted
			return nil
		}
		cooldown := time.Duration(streak) * w.cooldownUnit
		w.logger.Info("cooling down after failure", "wait", cooldown)
		if err := sleepCtx(ctx, cooldown); err != nil {
			return nil
		}
		r.state = stateAdvancing
		return nil
	}

	position := w.session.Position()
	if err := w.sink.WriteChapter(r.chapter, position); err != nil {
		return fmt.Errorf("persist chapter %d: %w", position, err)
	}

	words := r.chapter.Words()
	w.session.AddChapter(words)
	chapters, totalWords := w.session.Totals()
	w.logger.Info("chapter saved",
		"position", position,
		"title", r.chapter.Title,
		"words", words,
		"chapters", chapters,
		"total_words", totalWords,
		"load_factor", w.pacer.LoadFactor(),
	)

	r.state = stateAdvancing
	return nil
}

// advance paces the traversal and follows the next-chapter pointer.
func (w *Walker) advance(ctx context.Context, r *run) {
	next := r.chapter.NextURL
	if next == "" {
		w.logger.Info("reached the last chapter", "url", r.current)
		r.state = stateTerminated
		return
	}
	if next == r.current {
		w.logger.Warn("next pointer loops back to the current chapter, stopping",
			"url", r.current,
		)
		r.state = stateTerminated
		return
	}

	delay := w.pacer.NextDelay()
	w.logger.Debug("pacing before next chapter",
		"delay", delay,
		"load_factor", w.pacer.LoadFactor(),
	)
	if err := sleepCtx(ctx, delay); err != nil {
		return
	}

	w.session.Advance()
	r.current = next
	r.body = nil
	r.pages = nil
	r.chapter = nil
	r.state = stateFetchingNode
}

// sleepCtx sleeps for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
