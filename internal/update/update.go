// Package update performs one full picture-of-the-day cycle: fetch the
// candidates of a source, pick one, download it, and record the result.
package update

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/swsnr/picture-of-the-day-sub000/internal/config"
	"github.com/swsnr/picture-of-the-day-sub000/internal/download"
	"github.com/swsnr/picture-of-the-day-sub000/internal/history"
	"github.com/swsnr/picture-of-the-day-sub000/internal/source"
)

// Updater wires the fetcher, downloader, and history store together. It is
// safe for concurrent use; the configuration may be swapped while an update
// is in flight.
type Updater struct {
	logger     *log.Logger
	fetcher    *source.Fetcher
	downloader *download.Downloader
	store      *history.Store

	mu  sync.Mutex
	cfg config.Config
}

func New(client *http.Client, logger *log.Logger, store *history.Store, cfg config.Config) *Updater {
	return &Updater{
		logger:     logger,
		fetcher:    source.NewFetcher(client, logger),
		downloader: download.New(client, logger),
		store:      store,
		cfg:        cfg,
	}
}

// SetConfig swaps the configuration for future updates.
func (u *Updater) SetConfig(cfg config.Config) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.cfg = cfg
}

func (u *Updater) config() config.Config {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cfg
}

// Update fetches src for date (zero means today), downloads one image into
// the per-source directory, and returns its local path.
func (u *Updater) Update(ctx context.Context, src source.Source, date time.Time) (string, error) {
	cfg := u.config()
	opts := cfg.FetchOptions()
	opts.Date = date

	u.logger.Printf("Fetching %s", src.Name())
	images, err := u.fetcher.Fetch(ctx, src, opts)
	if err != nil {
		return "", err
	}
	u.logger.Printf("Fetched %d image(s) from %s", len(images), src.Name())

	// Several candidates for the same day are equivalent; pick one at
	// random.
	image := images[rand.Intn(len(images))]
	filename := image.Filename()
	dir := cfg.SourceDir(src)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create image directory %s: %w", dir, err)
	}

	target := filepath.Join(dir, filename)
	if _, err := os.Stat(target); err == nil {
		u.logger.Printf("Skipping download, %s already exists", filename)
	} else if err := u.downloader.Download(ctx, image.ImageURL, dir, filename); err != nil {
		return "", err
	}

	if u.store != nil {
		record := history.Download{
			Source:   src.ID(),
			Day:      dayOf(image, date),
			Filename: filename,
			Title:    image.Metadata.Title,
			ImageURL: image.ImageURL,
		}
		if err := u.store.Record(ctx, record); err != nil {
			// History is bookkeeping; a failed record never fails the
			// update.
			u.logger.Printf("Failed to record download: %v", err)
		}
	}

	return target, nil
}

func dayOf(image source.DownloadableImage, date time.Time) time.Time {
	if image.PubDate != nil {
		return *image.PubDate
	}
	if !date.IsZero() {
		return date
	}
	return time.Now().UTC()
}
