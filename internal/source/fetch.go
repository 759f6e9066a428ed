package source

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/swsnr/picture-of-the-day-sub000/internal/httpclient"
)

// Responses larger than this are truncated; no upstream metadata document
// comes anywhere close.
const maxResponseBytes = 5 << 20

// Options carries the externally-owned configuration adapters need.
type Options struct {
	// APODAPIKey is the api.nasa.gov key for the APOD source.
	APODAPIKey string
	// WikimediaLanguage is the wiki language code, e.g. "en".
	WikimediaLanguage string
	// DisabledCollections lists Stålenhag collection tags to exclude.
	DisabledCollections []string
	// Date requests a specific day where the source supports one. The zero
	// value means today.
	Date time.Time
}

func (o Options) date() time.Time {
	if o.Date.IsZero() {
		return time.Now().UTC()
	}
	return o.Date
}

// Fetcher retrieves image candidates from the supported sources over a
// shared HTTP client. It is safe for concurrent use.
type Fetcher struct {
	client *http.Client
	logger *log.Logger
}

func NewFetcher(client *http.Client, logger *log.Logger) *Fetcher {
	return &Fetcher{client: client, logger: logger}
}

// adapters maps every source to its fetch method. Adding a source means
// extending both the Source constants and this table.
var adapters = map[Source]func(*Fetcher, context.Context, Options) ([]DownloadableImage, error){
	Apod:      (*Fetcher).fetchAPOD,
	Bing:      (*Fetcher).fetchBing,
	Wikimedia: (*Fetcher).fetchWikimedia,
	Eoiod:     (*Fetcher).fetchEOIOD,
	Epod:      (*Fetcher).fetchEPOD,
	Stalenhag: (*Fetcher).fetchStalenhag,
}

// Fetch retrieves the image candidates of src for the requested day. The
// result is never empty: a fetch that structurally yields zero images fails
// with KindNoImage.
func (f *Fetcher) Fetch(ctx context.Context, src Source, opts Options) ([]DownloadableImage, error) {
	fetch, ok := adapters[src]
	if !ok {
		return nil, &Error{Source: src, Kind: KindNoImage, Reason: "no adapter registered"}
	}
	images, err := fetch(f, ctx, opts)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, noImage(src)
	}
	return images, nil
}

// get issues the request and funnels transport-level failures into the
// shared taxonomy. Status handling stays with the caller, because some
// adapters inspect error bodies.
func (f *Fetcher) get(ctx context.Context, src Source, url string) (*http.Response, error) {
	resp, err := httpclient.Get(ctx, f.client, url)
	if err != nil {
		return nil, ioError(src, err)
	}
	return resp, nil
}

// getOK issues the request and additionally requires a 200 response,
// returning the body reader on success.
func (f *Fetcher) getOK(ctx context.Context, src Source, url string) (io.ReadCloser, error) {
	resp, err := f.get(ctx, src, url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, statusError(src, resp.StatusCode, reasonPhrase(resp))
	}
	return resp.Body, nil
}

func readBody(src Source, body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, maxResponseBytes))
	if err != nil {
		return nil, ioError(src, err)
	}
	return data, nil
}

func reasonPhrase(resp *http.Response) string {
	status := resp.Status
	// Strip the leading "404 " so the reason is not stated twice.
	if len(status) > 4 && status[3] == ' ' {
		return status[4:]
	}
	return status
}
