package source

import (
	"errors"
	"fmt"
)

// Kind classifies an adapter failure. The set is closed: every failure path
// of every adapter resolves to exactly one kind, and callers decide
// user-facing messaging and retry eligibility from it alone.
type Kind int

const (
	// KindIO is a transport or filesystem level failure.
	KindIO Kind = iota
	// KindHTTPStatus is an unexpected HTTP response status.
	KindHTTPStatus
	// KindInvalidJSON is a malformed or unexpected JSON body.
	KindInvalidJSON
	// KindInvalidRSS is a malformed RSS document.
	KindInvalidRSS
	// KindScrapingFailed means an expected structural element was missing
	// from a scraped page or feed item.
	KindScrapingFailed
	// KindNoImage means the source had no image for the requested day.
	KindNoImage
	// KindInvalidAPIKey means the upstream rejected the configured API key.
	KindInvalidAPIKey
	// KindRateLimited means the upstream throttled us.
	KindRateLimited
	// KindNotAnImage means the item of the day is not an image (e.g. video).
	KindNotAnImage
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindHTTPStatus:
		return "http status"
	case KindInvalidJSON:
		return "invalid json"
	case KindInvalidRSS:
		return "invalid rss"
	case KindScrapingFailed:
		return "scraping failed"
	case KindNoImage:
		return "no image"
	case KindInvalidAPIKey:
		return "invalid api key"
	case KindRateLimited:
		return "rate limited"
	case KindNotAnImage:
		return "not an image"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the single error vocabulary crossing the package boundary.
type Error struct {
	Source Source
	Kind   Kind
	// Status holds the HTTP status code for KindHTTPStatus.
	Status int
	// Reason carries the status reason phrase or a human-readable locator
	// description for scraping failures.
	Reason string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("source %s: %s", e.Source.ID(), e.Kind)
	switch e.Kind {
	case KindHTTPStatus:
		msg = fmt.Sprintf("%s %d", msg, e.Status)
		if e.Reason != "" {
			msg += " " + e.Reason
		}
	case KindScrapingFailed:
		if e.Reason != "" {
			msg += ": " + e.Reason
		}
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from an adapter error. The second return
// is false if err does not stem from this package.
func KindOf(err error) (Kind, bool) {
	var srcErr *Error
	if errors.As(err, &srcErr) {
		return srcErr.Kind, true
	}
	return 0, false
}

func ioError(src Source, err error) *Error {
	return &Error{Source: src, Kind: KindIO, Err: err}
}

func statusError(src Source, status int, reason string) *Error {
	return &Error{Source: src, Kind: KindHTTPStatus, Status: status, Reason: reason}
}

func invalidJSON(src Source, err error) *Error {
	return &Error{Source: src, Kind: KindInvalidJSON, Err: err}
}

func invalidRSS(src Source, err error) *Error {
	return &Error{Source: src, Kind: KindInvalidRSS, Err: err}
}

func scrapingFailed(src Source, reason string) *Error {
	return &Error{Source: src, Kind: KindScrapingFailed, Reason: reason}
}

func noImage(src Source) *Error {
	return &Error{Source: src, Kind: KindNoImage}
}
