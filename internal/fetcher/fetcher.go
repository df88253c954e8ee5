package fetcher

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/jianjiandamowang97/novel/internal/model"
)

// Default request parameters. The header set mimics a desktop browser
// because the target sites serve reduced or blocked responses to
// obvious non-browser clients.
const (
	// DefaultAttempts is the fixed attempt ceiling per document.
	DefaultAttempts = 5

	// DefaultMaxBodySize caps how much of a response body is read.
	// Chapter pages are text; anything beyond 5MB is not a chapter.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// baseHeaders are sent with every request in addition to User-Agent.
var baseHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "zh-CN,zh;q=0.8,en-US;q=0.5,en;q=0.3",
	"Upgrade-Insecure-Requests": "1",
	"Cache-Control":             "no-cache",
	"Pragma":                    "no-cache",
}

// Result is a successful fetch: the decoded document body and the
// round-trip time of the winning attempt.
type Result struct {
	// Body is the response body, decoded to UTF-8.
	Body []byte

	// Elapsed is the round-trip time of the successful attempt.
	Elapsed time.Duration
}

// Fetcher retrieves documents with bounded retries. It is safe for use
// by multiple goroutines; per-fetch state lives on the stack and shared
// session bookkeeping is internally synchronized.
type Fetcher struct {
	client      *http.Client
	session     *model.Session
	logger      *slog.Logger
	attempts    int
	maxBodySize int64
	userAgent   string
	headers     map[string]string
	cookie      string
	backoffUnit time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithAttempts overrides the attempt ceiling.
func WithAttempts(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.attempts = n
		}
	}
}

// WithMaxBodySize overrides the response body size cap.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithHeaders adds extra request headers, e.g. from per-site rules.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		for k, v := range headers {
			f.headers[k] = v
		}
	}
}

// WithCookie sets a Cookie header for every request.
func WithCookie(cookie string) Option {
	return func(f *Fetcher) {
		f.cookie = cookie
	}
}

// WithBackoffUnit scales all backoff and cooldown waits. The default is
// one second; tests shrink it so retry behavior can be observed without
// real sleeps.
func WithBackoffUnit(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.backoffUnit = d
		}
	}
}

// New creates a Fetcher using the given HTTP client. The client carries
// the per-request timeout; the session receives latency samples and
// permanently failed URLs.
func New(client *http.Client, session *model.Session, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      client,
		session:     session,
		attempts:    DefaultAttempts,
		maxBodySize: DefaultMaxBodySize,
		userAgent:   DefaultUserAgent,
		headers:     make(map[string]string),
		backoffUnit: time.Second,
		sleep:       sleepCtx,
	}
	for k, v := range baseHeaders {
		f.headers[k] = v
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}

	return f
}

// Fetch retrieves rawURL, retrying per the policy table, and returns
// the decoded body. On failure it returns a *Error; the error never
// carries a partial body. Permanent failures (after the attempt ceiling,
// and 404s) are recorded in the session's failed URL set. Invalid URLs
// fail without touching the network and are not recorded.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, &Error{URL: rawURL, Kind: KindInvalidURL, Err: err}
	}

	var lastKind Kind
	var lastStatus int
	var lastErr error

	for attempt := 1; attempt <= f.attempts; attempt++ {
		res, kind, status, err := f.attempt(ctx, rawURL)
		if res != nil {
			f.session.RecordLatency(res.Elapsed)
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastKind, lastStatus, lastErr = kind, status, err

		if kind == KindNotFound {
			f.logger.Warn("page does not exist", "url", rawURL, "status", status)
			f.session.RecordFailedURL(rawURL)
			return nil, &Error{URL: rawURL, Kind: kind, Attempts: attempt, Status: status}
		}

		policy := retryPolicies[kind]
		if !policy.retryable || attempt == f.attempts {
			break
		}

		wait := time.Duration(policy.backoffUnits(attempt)) * f.backoffUnit
		f.logger.Warn("fetch attempt failed, backing off",
			"url", rawURL,
			"attempt", attempt,
			"kind", kind.String(),
			"status", status,
			"wait", wait,
			"error", err,
		)
		if serr := f.sleep(ctx, wait); serr != nil {
			return nil, serr
		}
	}

	f.session.RecordFailedURL(rawURL)
	return nil, &Error{URL: rawURL, Kind: lastKind, Attempts: f.attempts, Status: lastStatus, Err: lastErr}
}

// attempt performs one request. It returns a Result on HTTP 200, or the
// failure kind, status, and underlying error otherwise.
func (f *Fetcher) attempt(ctx context.Context, rawURL string) (*Result, Kind, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, KindUnknown, 0, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classify(err), 0, err
	}
	defer resp.Body.Close() //nolint:errcheck // Close error on a read-only body is not actionable

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := f.readBody(resp)
		if err != nil {
			return nil, classify(err), 0, err
		}
		return &Result{Body: body, Elapsed: time.Since(start)}, 0, 0, nil
	case resp.StatusCode == http.StatusForbidden:
		return nil, KindForbidden, resp.StatusCode, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, KindNotFound, resp.StatusCode, nil
	default:
		return nil, KindHTTPStatus, resp.StatusCode, nil
	}
}

// readBody reads the capped response body, decoding it to UTF-8 based
// on the Content-Type header and a sniff of the body prefix. The target
// sites commonly serve GBK or GB18030.
func (f *Fetcher) readBody(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, f.maxBodySize)
	decoded, err := charset.NewReader(limited, resp.Header.Get("Content-Type"))
	if err != nil {
		// Undecodable declarations degrade to the raw bytes.
		return io.ReadAll(limited)
	}
	return io.ReadAll(decoded)
}

// validateURL checks that rawURL is absolute with an http or https
// scheme and a non-empty host.
func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &url.Error{Op: "validate", URL: rawURL, Err: errUnsupportedScheme}
	}
	if u.Host == "" {
		return &url.Error{Op: "validate", URL: rawURL, Err: errMissingHost}
	}
	return nil
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
