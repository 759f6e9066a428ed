// Package download materializes remote images as local files atomically:
// the final path only ever becomes visible in a complete, fully-written
// state.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/swsnr/picture-of-the-day-sub000/internal/httpclient"
	"github.com/swsnr/picture-of-the-day-sub000/internal/source"
)

// ErrNotFound reports a 404 for the image URL. Callers map it to their "no
// image" classification.
var ErrNotFound = errors.New("download: image not found")

// StatusError reports a non-200, non-404 response for the image URL.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("download: unexpected response status %s", e.Status)
}

// maxConcurrent bounds parallel transfers in DownloadAll.
const maxConcurrent = 4

// Downloader streams images into a target directory.
type Downloader struct {
	client *http.Client
	logger *log.Logger
}

func New(client *http.Client, logger *log.Logger) *Downloader {
	return &Downloader{client: client, logger: logger}
}

// Download streams url into dir/filename. The target directory must exist
// and filename must be sanitized by the caller. The body is staged in a
// hidden temp file in the same directory and renamed into place on success;
// on any failure or cancellation the temp file is removed best-effort and
// the primary error is returned.
func (d *Downloader) Download(ctx context.Context, url, dir, filename string) error {
	target := filepath.Join(dir, filename)
	// Same-directory temp file guarantees the rename stays on one
	// filesystem. The dotted name cannot collide with final filenames.
	tmpPath := filepath.Join(dir, "."+filename+".download."+uuid.NewString())

	tmp, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("download: create temp file: %w", err)
	}
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			// Cleanup failure must never mask the primary error.
			if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				d.logger.Printf("Failed to remove temp file %s: %v", tmpPath, rmErr)
			}
		}
	}()

	resp, err := httpclient.Get(ctx, d.client, url)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("download cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("download %s: %w", url, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("download cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("download: write %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("download: fsync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("download: close %s: %w", tmpPath, err)
	}
	// No copy fallback: a cross-filesystem rename must fail loudly rather
	// than break atomicity.
	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("download: rename into place: %w", err)
	}
	success = true
	return nil
}

// DownloadAll fetches every image into dir and returns the final paths in
// input order. Images whose target file already exists are skipped, not
// re-downloaded: content for the same URL on the same day is expected to be
// identical.
func (d *Downloader) DownloadAll(ctx context.Context, images []source.DownloadableImage, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("download: create directory %s: %w", dir, err)
	}

	paths := make([]string, len(images))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			filename := img.Filename()
			paths[i] = filepath.Join(dir, filename)
			if _, err := os.Stat(paths[i]); err == nil {
				d.logger.Printf("Skipping %s: already downloaded", filename)
				return nil
			}
			return d.Download(ctx, img.ImageURL, dir, filename)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
