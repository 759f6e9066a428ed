package source

import (
	"context"
	_ "embed"
	"encoding/json"
	"slices"
	"time"
)

// The Stålenhag source needs no network fetch for metadata: it selects from
// a bundled catalog of artwork, deterministically per calendar day.

//go:embed stalenhag.json
var stalenhagCatalogJSON []byte

// stalenhagEpoch anchors the day index. The catalog only ever grows by
// appension, so the cycle stays stable for past days.
var stalenhagEpoch = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

type stalenhagCatalog struct {
	Collections []stalenhagCollection `json:"collections"`
}

type stalenhagCollection struct {
	Tag    string   `json:"tag"`
	Title  string   `json:"title"`
	URL    string   `json:"url"`
	Images []string `json:"images"`
}

type stalenhagImage struct {
	collection *stalenhagCollection
	url        string
}

func loadStalenhagCatalog() (*stalenhagCatalog, error) {
	var catalog stalenhagCatalog
	if err := json.Unmarshal(stalenhagCatalogJSON, &catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

func (f *Fetcher) fetchStalenhag(_ context.Context, opts Options) ([]DownloadableImage, error) {
	catalog, err := loadStalenhagCatalog()
	if err != nil {
		return nil, invalidJSON(Stalenhag, err)
	}

	var pool []stalenhagImage
	for i := range catalog.Collections {
		collection := &catalog.Collections[i]
		if slices.Contains(opts.DisabledCollections, collection.Tag) {
			continue
		}
		for _, imageURL := range collection.Images {
			pool = append(pool, stalenhagImage{collection: collection, url: imageURL})
		}
	}
	if len(pool) == 0 {
		return nil, noImage(Stalenhag)
	}

	selected := pool[dayIndex(opts.date(), stalenhagEpoch, len(pool))]
	return []DownloadableImage{{
		Metadata: ImageMetadata{
			Title:     selected.collection.Title,
			Copyright: "Simon Stålenhag, all rights reserved",
			WebURL:    selected.collection.URL,
			Source:    Stalenhag,
		},
		ImageURL: selected.url,
	}}, nil
}

// dayIndex maps a date to a stable catalog index: whole days since the
// epoch, reduced modulo size. Floor division and Euclidean modulus keep
// dates before the epoch well-defined.
func dayIndex(date, epoch time.Time, size int) int {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	hours := day.Sub(epoch).Hours()
	days := int(hours) / 24
	if hours < 0 && int(hours)%24 != 0 {
		days--
	}
	return ((days % size) + size) % size
}
