// Package rssreader is a minimal, forward-only reader for RSS 2.0 channels.
//
// It extracts only the handful of item fields this application consumes and
// skips everything else wholesale, so arbitrary upstream extensions never
// abort a read. The reader makes a single pass over the underlying byte
// stream and cannot rewind.
package rssreader

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	xpp "github.com/mmcdole/goxpp"
)

// mediaNamespace is the media RSS namespace of media:thumbnail.
const mediaNamespace = "http://search.yahoo.com/mrss/"

var (
	// ErrNoRssDocument means the document root is not an rss element.
	ErrNoRssDocument = errors.New("rssreader: document has no rss root")
	// ErrMissingChannel means the rss element contains no channel.
	ErrMissingChannel = errors.New("rssreader: rss element has no channel")
)

// ParseError wraps the underlying XML diagnostic for structurally malformed
// documents.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("rssreader: malformed document: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// InvalidDateTimeError reports an item pubDate that is not a valid RFC 2822
// date. It is distinct from ParseError so callers can tell a single bad
// field from structural corruption. A bad date still aborts the read.
type InvalidDateTimeError struct {
	Value string
	Err   error
}

func (e *InvalidDateTimeError) Error() string {
	return fmt.Sprintf("rssreader: invalid date/time %q: %v", e.Value, e.Err)
}

func (e *InvalidDateTimeError) Unwrap() error { return e.Err }

// Item is one parsed channel item. Absent fields are empty; PubDate is nil
// when the item carries none.
type Item struct {
	Title       string
	Description string
	Link        string
	// Thumbnail is the url attribute of a namespaced media:thumbnail.
	Thumbnail string
	// PubDate is the item date truncated to a calendar day in UTC.
	PubDate *time.Time
}

// Reader yields the items of a single channel, lazily, in document order.
type Reader struct {
	p       *xpp.XMLPullParser
	started bool
	done    bool
}

// New creates a Reader over one RSS document.
func New(r io.Reader) *Reader {
	return &Reader{p: xpp.NewXMLPullParser(r, false, nil)}
}

// Next returns the next item of the channel, or io.EOF once the channel is
// exhausted.
func (r *Reader) Next() (*Item, error) {
	if !r.started {
		if err := r.start(); err != nil {
			return nil, err
		}
		r.started = true
	}
	if r.done {
		return nil, io.EOF
	}
	for {
		event, err := r.p.Next()
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		switch event {
		case xpp.EndDocument:
			r.done = true
			return nil, io.EOF
		case xpp.EndTag:
			// End of the channel. Trailing content past it is not read.
			r.done = true
			return nil, io.EOF
		case xpp.StartTag:
			if strings.EqualFold(r.p.Name, "item") {
				return r.readItem()
			}
			if err := r.p.Skip(); err != nil {
				return nil, &ParseError{Err: err}
			}
		}
	}
}

// start advances to the first channel element.
func (r *Reader) start() error {
	for {
		event, err := r.p.Next()
		if err != nil {
			return &ParseError{Err: err}
		}
		switch event {
		case xpp.EndDocument:
			return ErrNoRssDocument
		case xpp.StartTag:
			if !strings.EqualFold(r.p.Name, "rss") {
				return ErrNoRssDocument
			}
			return r.findChannel()
		}
	}
}

func (r *Reader) findChannel() error {
	for {
		event, err := r.p.Next()
		if err != nil {
			return &ParseError{Err: err}
		}
		switch event {
		case xpp.EndDocument, xpp.EndTag:
			return ErrMissingChannel
		case xpp.StartTag:
			if strings.EqualFold(r.p.Name, "channel") {
				return nil
			}
			if err := r.p.Skip(); err != nil {
				return &ParseError{Err: err}
			}
		}
	}
}

func (r *Reader) readItem() (*Item, error) {
	var item Item
	for {
		event, err := r.p.Next()
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		switch event {
		case xpp.EndDocument:
			return nil, &ParseError{Err: errors.New("unexpected end of document inside item")}
		case xpp.EndTag:
			return &item, nil
		case xpp.StartTag:
			if err := r.readItemField(&item); err != nil {
				return nil, err
			}
		}
	}
}

func (r *Reader) readItemField(item *Item) error {
	name := r.p.Name
	if isMediaNamespace(r.p.Space) && strings.EqualFold(name, "thumbnail") {
		if u := r.p.Attribute("url"); u != "" {
			item.Thumbnail = u
		}
		// The element content is expected to be empty; discard it either way
		// instead of interpreting it as item text.
		return r.skip()
	}
	if r.p.Space != "" {
		// Foreign-namespace element we do not understand.
		return r.skip()
	}
	switch {
	case strings.EqualFold(name, "title"):
		text, err := r.text()
		if err != nil {
			return err
		}
		item.Title = text
	case strings.EqualFold(name, "description"):
		text, err := r.text()
		if err != nil {
			return err
		}
		item.Description = text
	case strings.EqualFold(name, "link"):
		text, err := r.text()
		if err != nil {
			return err
		}
		item.Link = text
	case strings.EqualFold(name, "pubDate"):
		text, err := r.text()
		if err != nil {
			return err
		}
		date, perr := parseRFC2822Date(text)
		if perr != nil {
			return &InvalidDateTimeError{Value: text, Err: perr}
		}
		item.PubDate = &date
	default:
		return r.skip()
	}
	return nil
}

func (r *Reader) text() (string, error) {
	text, err := r.p.NextText()
	if err != nil {
		return "", &ParseError{Err: err}
	}
	return strings.TrimSpace(text), nil
}

func (r *Reader) skip() error {
	if err := r.p.Skip(); err != nil {
		return &ParseError{Err: err}
	}
	return nil
}

func isMediaNamespace(space string) bool {
	// Tolerate both a resolved namespace URI and a bare, undeclared prefix.
	return strings.Contains(space, "search.yahoo.com/mrss") || space == "media"
}

// rfc2822Layouts covers the date formats seen in RSS pubDate elements, most
// specific first.
var rfc2822Layouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
}

func parseRFC2822Date(value string) (time.Time, error) {
	var firstErr error
	for _, layout := range rfc2822Layouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			t = t.UTC()
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
