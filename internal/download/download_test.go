package download

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/swsnr/picture-of-the-day-sub000/internal/source"
)

func newTestDownloader(t *testing.T) *Downloader {
	t.Helper()
	return New(&http.Client{}, log.New(io.Discard, "", 0))
}

// assertNoStragglers fails if dir contains anything but the expected names.
func assertNoStragglers(t *testing.T, dir string, want ...string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if len(names) != len(want) {
		t.Fatalf("Expected directory contents %v, got %v", want, names)
	}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("Expected directory contents %v, got %v", want, names)
		}
	}
}

func TestDownload(t *testing.T) {
	const content = "fake image bytes"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, content)
	}))
	defer server.Close()

	dir := t.TempDir()
	d := newTestDownloader(t)
	if err := d.Download(context.Background(), server.URL, dir, "image.jpg"); err != nil {
		t.Fatalf("Download failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "image.jpg"))
	if err != nil {
		t.Fatalf("Failed to read downloaded file: %v", err)
	}
	if string(data) != content {
		t.Errorf("Expected content %q, got %q", content, string(data))
	}
	assertNoStragglers(t, dir, "image.jpg")
}

func TestDownloadNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	dir := t.TempDir()
	d := newTestDownloader(t)
	err := d.Download(context.Background(), server.URL, dir, "image.jpg")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	assertNoStragglers(t, dir)
}

func TestDownloadServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}))
	defer server.Close()

	dir := t.TempDir()
	d := newTestDownloader(t)
	err := d.Download(context.Background(), server.URL, dir, "image.jpg")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", statusErr.StatusCode)
	}
	assertNoStragglers(t, dir)
}

func TestDownloadCancelledMidTransfer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1048576")
		io.WriteString(w, "partial")
		w.(http.Flusher).Flush()
		// Cancel while the body is still incomplete.
		cancel()
		<-r.Context().Done()
	}))
	defer server.Close()

	dir := t.TempDir()
	d := newTestDownloader(t)
	err := d.Download(ctx, server.URL, dir, "image.jpg")
	if err == nil {
		t.Fatal("Expected an error for a cancelled download")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected the context error, got %v", err)
	}
	if !strings.Contains(err.Error(), "cancelled") {
		t.Errorf("Expected a cancellation message, got %v", err)
	}
	// Neither a partial target nor a temp file may be left behind.
	assertNoStragglers(t, dir)
}

func TestDownloadAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "bytes for "+r.URL.Path)
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "images")
	images := []source.DownloadableImage{
		{ImageURL: server.URL + "/first.jpg"},
		{ImageURL: server.URL + "/second.jpg"},
		{ImageURL: server.URL + "/third.jpg"},
	}

	d := newTestDownloader(t)
	paths, err := d.DownloadAll(context.Background(), images, dir)
	if err != nil {
		t.Fatalf("DownloadAll failed: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("Expected 3 paths, got %d", len(paths))
	}
	for i, want := range []string{"first.jpg", "second.jpg", "third.jpg"} {
		if paths[i] != filepath.Join(dir, want) {
			t.Errorf("Path %d: expected %s, got %s", i, filepath.Join(dir, want), paths[i])
		}
		if _, err := os.Stat(paths[i]); err != nil {
			t.Errorf("Expected %s to exist: %v", paths[i], err)
		}
	}
}

func TestDownloadAllSkipsExisting(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		io.WriteString(w, "fresh bytes")
	}))
	defer server.Close()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "existing.jpg"), []byte("old bytes"), 0644); err != nil {
		t.Fatalf("Failed to seed existing file: %v", err)
	}

	d := newTestDownloader(t)
	images := []source.DownloadableImage{{ImageURL: server.URL + "/existing.jpg"}}
	paths, err := d.DownloadAll(context.Background(), images, dir)
	if err != nil {
		t.Fatalf("DownloadAll failed: %v", err)
	}
	if requests != 0 {
		t.Errorf("Expected no request for an existing file, got %d", requests)
	}

	data, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(data) != "old bytes" {
		t.Errorf("Existing file must not be overwritten, got %q", string(data))
	}
}
