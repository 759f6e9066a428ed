package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

var wikimediaEndpoint = "https://api.wikimedia.org/feed/v1/wikipedia"

// wikimediaFeed is the subset of the featured-content resource this adapter
// consumes.
type wikimediaFeed struct {
	Image *wikimediaImage `json:"image"`
}

type wikimediaImage struct {
	Title       string         `json:"title"`
	Description *wikimediaText `json:"description"`
	Artist      *wikimediaText `json:"artist"`
	Credit      *wikimediaText `json:"credit"`
	License     *struct {
		Type string `json:"type"`
	} `json:"license"`
	FilePage string `json:"file_page"`
	Image    struct {
		Source string `json:"source"`
	} `json:"image"`
}

type wikimediaText struct {
	Text string `json:"text"`
}

func (t *wikimediaText) text() string {
	if t == nil {
		return ""
	}
	return strings.TrimSpace(t.Text)
}

func (f *Fetcher) fetchWikimedia(ctx context.Context, opts Options) ([]DownloadableImage, error) {
	language := opts.WikimediaLanguage
	if language == "" {
		language = "en"
	}
	date := opts.date()
	endpoint := fmt.Sprintf("%s/%s/featured/%04d/%02d/%02d",
		wikimediaEndpoint, language, date.Year(), date.Month(), date.Day())

	body, err := f.getOK(ctx, Wikimedia, endpoint)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := readBody(Wikimedia, body)
	if err != nil {
		return nil, err
	}
	var feed wikimediaFeed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, invalidJSON(Wikimedia, err)
	}
	if feed.Image == nil || feed.Image.Image.Source == "" {
		return nil, noImage(Wikimedia)
	}

	img := feed.Image
	title := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(img.Title, "File:"), fileExtension(img.Title)))
	pubDate := date
	return []DownloadableImage{{
		Metadata: ImageMetadata{
			Title:       title,
			Description: img.Description.text(),
			Copyright:   wikimediaCopyright(img),
			WebURL:      img.FilePage,
			Source:      Wikimedia,
		},
		ImageURL: img.Image.Source,
		PubDate:  &pubDate,
	}}, nil
}

// wikimediaCopyright synthesizes the attribution string from the optional
// artist, license and credit sub-fields. The precedence is deliberate: it
// decides the user-visible attribution.
func wikimediaCopyright(img *wikimediaImage) string {
	artist := img.Artist.text()
	credit := img.Credit.text()
	license := ""
	if img.License != nil {
		license = strings.TrimSpace(img.License.Type)
	}
	switch {
	case artist != "" && license != "" && credit != "":
		return fmt.Sprintf("%s (%s, %s)", artist, license, credit)
	case artist != "" && license != "":
		return fmt.Sprintf("%s (%s)", artist, license)
	case artist != "":
		return artist
	case license != "":
		return license
	default:
		return "Unknown, all rights reserved"
	}
}

func fileExtension(name string) string {
	if dot := strings.LastIndexByte(name, '.'); dot >= 0 {
		return name[dot:]
	}
	return ""
}
