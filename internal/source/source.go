// Package source fetches "picture of the day" metadata from the supported
// upstream providers and normalizes it into DownloadableImage records.
package source

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Source identifies one of the supported picture-of-the-day providers.
type Source int

const (
	Apod Source = iota
	Bing
	Wikimedia
	Eoiod
	Epod
	Stalenhag
)

// All returns every supported source in display order.
func All() []Source {
	return []Source{Apod, Bing, Wikimedia, Eoiod, Epod, Stalenhag}
}

// ID returns the stable identifier used for configuration values and
// per-source download directories.
func (s Source) ID() string {
	switch s {
	case Apod:
		return "apod"
	case Bing:
		return "bing"
	case Wikimedia:
		return "wikimedia"
	case Eoiod:
		return "eoiod"
	case Epod:
		return "epod"
	case Stalenhag:
		return "stalenhag"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// Name returns the human-readable source name.
func (s Source) Name() string {
	switch s {
	case Apod:
		return "Astronomy Picture of the Day"
	case Bing:
		return "Bing"
	case Wikimedia:
		return "Wikimedia Picture of the Day"
	case Eoiod:
		return "Earth Observatory Image of the Day"
	case Epod:
		return "Earth Science Picture of the Day"
	case Stalenhag:
		return "Simon Stålenhag Artwork"
	default:
		return s.ID()
	}
}

// URL returns the canonical web page of the source.
func (s Source) URL() string {
	switch s {
	case Apod:
		return "https://apod.nasa.gov/apod/"
	case Bing:
		return "https://www.bing.com"
	case Wikimedia:
		return "https://commons.wikimedia.org/wiki/Main_Page"
	case Eoiod:
		return "https://earthobservatory.nasa.gov/topic/image-of-the-day"
	case Epod:
		return "https://epod.usra.edu/"
	case Stalenhag:
		return "https://simonstalenhag.se/"
	default:
		return ""
	}
}

func (s Source) String() string { return s.ID() }

// FromID resolves a configuration identifier to a Source.
func FromID(id string) (Source, error) {
	for _, s := range All() {
		if s.ID() == id {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown source %q", id)
}

// ImageMetadata is the display information of an image, independent of
// whether its bytes have been downloaded. Optional fields are empty strings.
type ImageMetadata struct {
	Title       string
	Description string
	Copyright   string
	WebURL      string
	Source      Source
}

// DownloadableImage is one fetched image candidate. ImageURL is the
// authoritative location of the image bytes.
type DownloadableImage struct {
	Metadata          ImageMetadata
	ImageURL          string
	PubDate           *time.Time
	SuggestedFilename string
}

// Filename derives the local file name for the image: the suggested name if
// present, else the last non-empty path segment of ImageURL, else the title.
// A pubdate prefixes the name as YYYY-MM-DD-. The result never contains path
// separators or newlines.
func (d DownloadableImage) Filename() string {
	name := d.SuggestedFilename
	if name == "" {
		name = lastPathSegment(d.ImageURL)
	}
	if name == "" {
		name = d.Metadata.Title
	}
	name = sanitizeFilename(name)
	if d.PubDate != nil {
		name = d.PubDate.Format("2006-01-02") + "-" + name
	}
	return name
}

func lastPathSegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(u.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return ""
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, "\n", " ")
	return name
}
