package source

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"strings"
	"time"
)

var (
	bingBaseURL  = "https://www.bing.com"
	bingEndpoint = bingBaseURL + "/HPImageArchive.aspx?format=js&idx=0&n=8"
)

// bingUHDSuffix turns a urlbase into its highest-resolution variant.
const bingUHDSuffix = "_UHD.jpg"

type bingResponse struct {
	Images []bingImage `json:"images"`
}

type bingImage struct {
	StartDate     string `json:"startdate"`
	URLBase       string `json:"urlbase"`
	Copyright     string `json:"copyright"`
	CopyrightLink string `json:"copyrightlink"`
	Title         string `json:"title"`
}

func (f *Fetcher) fetchBing(ctx context.Context, _ Options) ([]DownloadableImage, error) {
	endpoint := bingEndpoint
	if locale := bingLocale(); locale != "" {
		endpoint += "&mkt=" + url.QueryEscape(locale)
	}

	body, err := f.getOK(ctx, Bing, endpoint)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := readBody(Bing, body)
	if err != nil {
		return nil, err
	}
	var response bingResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, invalidJSON(Bing, err)
	}

	images := make([]DownloadableImage, 0, len(response.Images))
	for _, img := range response.Images {
		image, err := f.bingImage(img)
		if err != nil {
			// A single broken image does not spoil the batch.
			f.logger.Printf("Skipping bing image %q: %v", img.Title, err)
			continue
		}
		images = append(images, image)
	}
	return images, nil
}

func (f *Fetcher) bingImage(img bingImage) (DownloadableImage, error) {
	imageURL, err := url.Parse(bingBaseURL + img.URLBase + bingUHDSuffix)
	if err != nil {
		return DownloadableImage{}, err
	}

	image := DownloadableImage{
		Metadata: ImageMetadata{
			Title:     img.Title,
			Copyright: img.Copyright,
			WebURL:    img.CopyrightLink,
			Source:    Bing,
		},
		ImageURL: imageURL.String(),
		// The id query parameter is the upstream file name.
		SuggestedFilename: imageURL.Query().Get("id"),
	}
	if date, err := time.Parse("20060102", img.StartDate); err == nil {
		image.PubDate = &date
	}
	return image, nil
}

// bingLocale derives the market locale from the environment language tag,
// e.g. LANG=en_US.UTF-8 becomes en-US. An absent locale returns "".
func bingLocale() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		value := os.Getenv(key)
		if value == "" {
			continue
		}
		if dot := strings.IndexByte(value, '.'); dot >= 0 {
			value = value[:dot]
		}
		if value == "" || value == "C" || value == "POSIX" {
			continue
		}
		return strings.ReplaceAll(value, "_", "-")
	}
	return ""
}
