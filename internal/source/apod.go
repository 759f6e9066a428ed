package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var apodEndpoint = "https://api.nasa.gov/planetary/apod"

// apodResponse is the success body of the APOD API.
type apodResponse struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	Copyright   string `json:"copyright"`
	Date        string `json:"date"`
	MediaType   string `json:"media_type"`
	URL         string `json:"url"`
	HDURL       string `json:"hdurl"`
}

// apodErrorBody is the error body the API embeds in non-200 responses.
type apodErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (f *Fetcher) fetchAPOD(ctx context.Context, opts Options) ([]DownloadableImage, error) {
	query := url.Values{}
	key := opts.APODAPIKey
	if key == "" {
		key = "DEMO_KEY"
	}
	query.Set("api_key", key)
	if !opts.Date.IsZero() {
		query.Set("date", opts.Date.Format("2006-01-02"))
	}

	resp, err := f.get(ctx, Apod, apodEndpoint+"?"+query.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(Apod, resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apodError(resp, body)
	}

	var apod apodResponse
	if err := json.Unmarshal(body, &apod); err != nil {
		return nil, invalidJSON(Apod, err)
	}
	if apod.MediaType != "image" {
		return nil, &Error{Source: Apod, Kind: KindNotAnImage, Reason: apod.MediaType}
	}

	imageURL := apod.HDURL
	if imageURL == "" {
		imageURL = apod.URL
	}

	image := DownloadableImage{
		Metadata: ImageMetadata{
			Title:       apod.Title,
			Description: apod.Explanation,
			Copyright:   strings.TrimSpace(apod.Copyright),
			WebURL:      Apod.URL(),
			Source:      Apod,
		},
		ImageURL: imageURL,
	}
	if date, err := time.Parse("2006-01-02", apod.Date); err == nil {
		image.PubDate = &date
	}
	return []DownloadableImage{image}, nil
}

// apodError classifies a non-200 response. The API reports key and rate
// limit problems through a JSON error body, so that body is probed before
// falling back to a plain status error.
func apodError(resp *http.Response, body []byte) *Error {
	var apiErr apodErrorBody
	if err := json.Unmarshal(body, &apiErr); err == nil {
		switch apiErr.Error.Code {
		case "API_KEY_INVALID":
			return &Error{Source: Apod, Kind: KindInvalidAPIKey, Reason: apiErr.Error.Message}
		case "OVER_RATE_LIMIT":
			return &Error{Source: Apod, Kind: KindRateLimited, Reason: apiErr.Error.Message}
		}
	}
	return statusError(Apod, resp.StatusCode, reasonPhrase(resp))
}
