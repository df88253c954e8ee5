package fetcher

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// URL validation errors wrapped into KindInvalidURL failures.
var (
	// errUnsupportedScheme is returned for URLs that are not http or https.
	errUnsupportedScheme = errors.New("unsupported scheme: only http and https are fetchable")

	// errMissingHost is returned for URLs without a host component.
	errMissingHost = errors.New("missing host")
)

// Kind classifies a fetch failure. The set is closed: every failure the
// fetcher can produce maps to exactly one Kind, and the retry policy
// table below is keyed by it.
type Kind int

const (
	// KindUnknown is an unclassified transport error.
	KindUnknown Kind = iota

	// KindInvalidURL means the URL failed validation before any
	// network attempt was made.
	KindInvalidURL

	// KindNotFound is an HTTP 404. The condition is permanent and is
	// never retried.
	KindNotFound

	// KindForbidden is an HTTP 403, treated as rate limiting. It is
	// retried after a fixed cooldown.
	KindForbidden

	// KindHTTPStatus is any other non-2xx HTTP status.
	KindHTTPStatus

	// KindTimeout is a request or read deadline expiry.
	KindTimeout

	// KindConnection is a connection-level failure: refused, reset,
	// or DNS resolution.
	KindConnection

	// KindTLS is a TLS handshake or certificate verification failure.
	KindTLS
)

// String returns a short name for the kind, used in logs and error text.
func (k Kind) String() string {
	switch k {
	case KindInvalidURL:
		return "invalid_url"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindHTTPStatus:
		return "http_status"
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindTLS:
		return "tls"
	default:
		return "unknown"
	}
}

// Error is the failure value returned by Fetcher.Fetch. Failures never
// propagate past the fetcher boundary as anything else.
type Error struct {
	// URL is the requested URL.
	URL string

	// Kind classifies the final failure.
	Kind Kind

	// Attempts is the number of attempts actually made.
	Attempts int

	// Status is the last HTTP status observed, or 0 for failures
	// below the HTTP layer.
	Status int

	// Err is the last underlying transport error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: %s (HTTP %d after %d attempt(s))", e.URL, e.Kind, e.Status, e.Attempts)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s after %d attempt(s): %v", e.URL, e.Kind, e.Attempts, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s after %d attempt(s)", e.URL, e.Kind, e.Attempts)
}

// Unwrap returns the underlying transport error.
func (e *Error) Unwrap() error {
	return e.Err
}

// retryPolicy describes how one failure kind is handled between
// attempts. backoffUnits is the wait before the next attempt expressed
// in multiples of the fetcher's backoff unit (one second by default);
// attempt is 1-based.
type retryPolicy struct {
	retryable    bool
	backoffUnits func(attempt int) int
}

// retryPolicies is the explicit policy table: failure kind to
// retryability and backoff formula.
var retryPolicies = map[Kind]retryPolicy{
	KindInvalidURL: {retryable: false},
	KindNotFound:   {retryable: false},
	KindForbidden:  {retryable: true, backoffUnits: func(int) int { return 5 }},
	KindHTTPStatus: {retryable: true, backoffUnits: func(a int) int { return a }},
	KindConnection: {retryable: true, backoffUnits: func(a int) int { return 5 * a }},
	KindTLS:        {retryable: true, backoffUnits: func(a int) int { return 3 * a }},
	KindTimeout:    {retryable: true, backoffUnits: func(a int) int { return 2 * a }},
	KindUnknown:    {retryable: true, backoffUnits: func(a int) int { return 1 << (a - 1) }},
}

// classify maps a transport-level error onto a failure Kind.
// Connection problems are checked before timeouts because DNS failures
// also report themselves as timeouts under some resolvers.
func classify(err error) Kind {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindConnection
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return KindConnection
	}

	var certVerify *tls.CertificateVerificationError
	var recordHeader tls.RecordHeaderError
	var unknownAuthority x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var certInvalid x509.CertificateInvalidError
	if errors.As(err, &certVerify) || errors.As(err, &recordHeader) ||
		errors.As(err, &unknownAuthority) || errors.As(err, &hostnameErr) ||
		errors.As(err, &certInvalid) {
		return KindTLS
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	return KindUnknown
}
