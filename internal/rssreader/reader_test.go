package rssreader

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
	<title>Sample Feed</title>
	<link>http://example.com/feed</link>
	<description>A sample feed.</description>
	<item>
		<title>First Entry</title>
		<link>http://example.com/entry1</link>
		<description>Description of the first entry.</description>
		<pubDate>Thu, 27 Mar 2025 10:30:00 +0000</pubDate>
		<media:thumbnail url="http://example.com/entry1_th.jpg"/>
	</item>
	<item>
		<title>Second Entry</title>
		<link>http://example.com/entry2</link>
		<pubDate>Wed, 26 Mar 2025 09:00:00 GMT</pubDate>
	</item>
</channel>
</rss>`

func TestReaderItems(t *testing.T) {
	r := New(strings.NewReader(sampleFeed))

	first, err := r.Next()
	if err != nil {
		t.Fatalf("Failed to read first item: %v", err)
	}
	if first.Title != "First Entry" {
		t.Errorf("Unexpected title %q", first.Title)
	}
	if first.Link != "http://example.com/entry1" {
		t.Errorf("Unexpected link %q", first.Link)
	}
	if first.Description != "Description of the first entry." {
		t.Errorf("Unexpected description %q", first.Description)
	}
	if first.Thumbnail != "http://example.com/entry1_th.jpg" {
		t.Errorf("Unexpected thumbnail %q", first.Thumbnail)
	}
	wantDate := time.Date(2025, time.March, 27, 0, 0, 0, 0, time.UTC)
	if first.PubDate == nil || !first.PubDate.Equal(wantDate) {
		t.Errorf("Expected pub date %v truncated to midnight UTC, got %v", wantDate, first.PubDate)
	}

	second, err := r.Next()
	if err != nil {
		t.Fatalf("Failed to read second item: %v", err)
	}
	if second.Title != "Second Entry" {
		t.Errorf("Unexpected title %q", second.Title)
	}
	if second.Thumbnail != "" {
		t.Errorf("Expected no thumbnail, got %q", second.Thumbnail)
	}

	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("Expected io.EOF after the last item, got %v", err)
	}
	// Reading past the end stays at EOF.
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("Expected io.EOF on repeated reads, got %v", err)
	}
}

func TestReaderSkipsUnknownElements(t *testing.T) {
	feed := `<?xml version="1.0"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
<channel>
	<title>Feed</title>
	<image><url>http://example.com/logo.png</url><title>Logo</title></image>
	<item>
		<guid isPermaLink="false">abc-123</guid>
		<dc:creator>Somebody</dc:creator>
		<enclosure url="http://example.com/audio.mp3" type="audio/mpeg"/>
		<title>Entry</title>
		<category>weather</category>
		<link>http://example.com/entry</link>
	</item>
</channel>
</rss>`
	r := New(strings.NewReader(feed))
	item, err := r.Next()
	if err != nil {
		t.Fatalf("Unknown elements must not abort the read: %v", err)
	}
	if item.Title != "Entry" {
		t.Errorf("Unexpected title %q", item.Title)
	}
	if item.Link != "http://example.com/entry" {
		t.Errorf("Unexpected link %q", item.Link)
	}
	if item.PubDate != nil {
		t.Errorf("Expected no pub date, got %v", item.PubDate)
	}
}

func TestReaderEmptyChannel(t *testing.T) {
	feed := `<?xml version="1.0"?>
<rss version="2.0">
<channel>
	<title>Feed</title>
	<description>No items.</description>
</channel>
</rss>`
	r := New(strings.NewReader(feed))
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("Expected io.EOF for an itemless channel, got %v", err)
	}
}

func TestReaderNoRssDocument(t *testing.T) {
	r := New(strings.NewReader(`<?xml version="1.0"?><html><body/></html>`))
	if _, err := r.Next(); !errors.Is(err, ErrNoRssDocument) {
		t.Fatalf("Expected ErrNoRssDocument, got %v", err)
	}
}

func TestReaderMissingChannel(t *testing.T) {
	r := New(strings.NewReader(`<?xml version="1.0"?><rss version="2.0"></rss>`))
	if _, err := r.Next(); !errors.Is(err, ErrMissingChannel) {
		t.Fatalf("Expected ErrMissingChannel, got %v", err)
	}
}

func TestReaderInvalidDate(t *testing.T) {
	feed := `<?xml version="1.0"?>
<rss version="2.0">
<channel>
	<title>Feed</title>
	<item>
		<title>Entry</title>
		<pubDate>yesterday, more or less</pubDate>
	</item>
</channel>
</rss>`
	r := New(strings.NewReader(feed))
	_, err := r.Next()
	var dateErr *InvalidDateTimeError
	if !errors.As(err, &dateErr) {
		t.Fatalf("Expected InvalidDateTimeError, got %v", err)
	}
	if dateErr.Value != "yesterday, more or less" {
		t.Errorf("Expected the offending value to be reported, got %q", dateErr.Value)
	}
}

func TestReaderMalformedDocument(t *testing.T) {
	r := New(strings.NewReader(`this is not xml at all`))
	_, err := r.Next()
	if err == nil {
		t.Fatal("Expected an error for a non-XML document")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) && !errors.Is(err, ErrNoRssDocument) {
		t.Fatalf("Expected ParseError or ErrNoRssDocument, got %v", err)
	}
}

func TestParseRFC2822Date(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"Thu, 27 Mar 2025 10:30:00 +0000", "2025-03-27"},
		{"Thu, 27 Mar 2025 10:30:00 GMT", "2025-03-27"},
		{"Thu, 27 Mar 2025 23:30:00 -0500", "2025-03-28"},
		{"Thu, 6 Mar 2025 08:00:00 +0100", "2025-03-06"},
		{"6 Mar 2025 08:00:00 +0100", "2025-03-06"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseRFC2822Date(tt.value)
			if err != nil {
				t.Fatalf("Failed to parse %q: %v", tt.value, err)
			}
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("Expected day %s, got %s", tt.want, got.Format("2006-01-02"))
			}
			if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 {
				t.Errorf("Expected midnight UTC, got %v", got)
			}
		})
	}

	if _, err := parseRFC2822Date("not a date"); err == nil {
		t.Error("Expected an error for an unparseable date")
	}
}
