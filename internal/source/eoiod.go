package source

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/swsnr/picture-of-the-day-sub000/internal/rssreader"
)

var eoiodFeedURL = "https://earthobservatory.nasa.gov/feeds/image-of-the-day.rss"

func (f *Fetcher) fetchEOIOD(ctx context.Context, _ Options) ([]DownloadableImage, error) {
	body, err := f.getOK(ctx, Eoiod, eoiodFeedURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	// Only the first, most recent item matters.
	item, err := rssreader.New(io.LimitReader(body, maxResponseBytes)).Next()
	if errors.Is(err, io.EOF) {
		// An empty channel is an imageless day, not a broken feed.
		return nil, nil
	}
	if err != nil {
		return nil, invalidRSS(Eoiod, err)
	}

	// A first item without title or thumbnail signals malformed feed data,
	// not an absent image.
	if item.Title == "" {
		return nil, scrapingFailed(Eoiod, "first feed item has no title")
	}
	if item.Thumbnail == "" {
		return nil, scrapingFailed(Eoiod, "first feed item has no media:thumbnail")
	}

	return []DownloadableImage{{
		Metadata: ImageMetadata{
			Title:       item.Title,
			Description: item.Description,
			WebURL:      item.Link,
			Source:      Eoiod,
		},
		// The feed only references the thumbnail rendition; the large one
		// lives at the same path under a different size marker.
		ImageURL: strings.Replace(item.Thumbnail, "_th.", "_lrg.", 1),
		PubDate:  item.PubDate,
	}}, nil
}
