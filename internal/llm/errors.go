package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
)

// FailureKind is the closed classification of provider-call failures.
// The retry orchestrator branches on these tags only; nothing upstream
// of the provider boundary inspects error text.
type FailureKind uint8

const (
	// KindOther covers everything the classifier cannot place. Treated
	// as non-retryable so unknown failures surface instead of burning
	// the retry budget.
	KindOther FailureKind = iota
	// KindRateLimited is a 429: the provider wants us to back off.
	KindRateLimited
	// KindTimeout covers request timeouts, both HTTP 408 and local
	// deadline expiry.
	KindTimeout
	// KindConnectionReset covers transport-level drops mid-exchange.
	KindConnectionReset
	// KindServerOverloaded is the provider shedding load (529, 503).
	KindServerOverloaded
	// KindServerError is any other 5xx.
	KindServerError
	// KindInvalidInput is a 4xx that retrying cannot fix: bad request,
	// bad auth, content policy.
	KindInvalidInput
)

func (k FailureKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	case KindConnectionReset:
		return "connection_reset"
	case KindServerOverloaded:
		return "server_overloaded"
	case KindServerError:
		return "server_error"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "other"
	}
}

// Retryable reports whether another attempt could plausibly succeed.
func (k FailureKind) Retryable() bool {
	switch k {
	case KindRateLimited, KindTimeout, KindConnectionReset, KindServerOverloaded, KindServerError:
		return true
	default:
		return false
	}
}

// ProviderError is the typed failure produced at the provider
// boundary. It carries the classification, so no caller ever needs to
// parse provider error text.
type ProviderError struct {
	Kind       FailureKind
	Provider   string
	StatusCode int
	Body       string
	URL        string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d) from %s", e.Provider, e.Kind, e.StatusCode, e.URL)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ClassifyStatus maps an upstream HTTP status to a failure kind. The
// contract: 429 is rate limiting, 408 a timeout, 503/529 load
// shedding, every other 5xx a server error, every other 4xx invalid
// input. Anything below 400 is not a failure and classifies as Other.
func ClassifyStatus(status int) FailureKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusRequestTimeout:
		return KindTimeout
	case status == http.StatusServiceUnavailable || status == 529:
		return KindServerOverloaded
	case status >= 500:
		return KindServerError
	case status >= 400:
		return KindInvalidInput
	default:
		return KindOther
	}
}

// ClassifyTransport maps a transport-layer error to a failure kind
// using typed checks only: deadline and net timeouts, reset and
// dropped connections. Unknown errors stay Other.
func ClassifyTransport(err error) FailureKind {
	if err == nil {
		return KindOther
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) {
		return KindConnectionReset
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindServerOverloaded
	}

	return KindOther
}

// FailureKindOf extracts the classification from any error. Errors
// that did not pass through the provider boundary fall through the
// transport classifier, then to Other.
func FailureKindOf(err error) FailureKind {
	if err == nil {
		return KindOther
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}

	return ClassifyTransport(err)
}
