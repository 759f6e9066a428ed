package source

import (
	"context"
	"errors"
	"io"

	"github.com/swsnr/picture-of-the-day-sub000/internal/scraper"
)

var epodPageURL = "https://epod.usra.edu/blog/"

func (f *Fetcher) fetchEPOD(ctx context.Context, _ Options) ([]DownloadableImage, error) {
	body, err := f.getOK(ctx, Epod, epodPageURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	entry, err := scrapeOffThread(ctx, io.LimitReader(body, maxResponseBytes))
	if err != nil {
		var scrapeErr *scraper.Error
		if errors.As(err, &scrapeErr) {
			return nil, scrapingFailed(Epod, scrapeErr.Message)
		}
		return nil, err
	}

	metadata := ImageMetadata{
		Title:       entry.Title,
		Description: entry.Description,
		Copyright:   entry.Copyright,
		WebURL:      entry.WebURL,
		Source:      Epod,
	}
	images := make([]DownloadableImage, 0, len(entry.ImageURLs))
	for _, imageURL := range entry.ImageURLs {
		date := entry.Date
		images = append(images, DownloadableImage{
			Metadata: metadata,
			ImageURL: imageURL,
			PubDate:  &date,
		})
	}
	return images, nil
}

// scrapeOffThread runs the DOM parse on its own goroutine so the heavier
// synchronous work never blocks the caller's loop, and hands the result
// back through a channel.
func scrapeOffThread(ctx context.Context, r io.Reader) (*scraper.Entry, error) {
	type result struct {
		entry *scraper.Entry
		err   error
	}
	done := make(chan result, 1)
	go func() {
		entry, err := scraper.Scrape(r)
		done <- result{entry: entry, err: err}
	}()
	select {
	case res := <-done:
		return res.entry, res.err
	case <-ctx.Done():
		// errors.Is still sees the context error through the wrapper.
		return nil, ioError(Epod, ctx.Err())
	}
}
