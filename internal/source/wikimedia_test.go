package source

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"
)

const wikimediaFeaturedResponse = `{
	"image": {
		"title": "File:Sunset over the sea.jpg",
		"description": {"text": "A sunset over the Baltic sea.", "lang": "en"},
		"artist": {"text": "Jane Doe"},
		"credit": {"text": "Own work"},
		"license": {"type": "CC BY-SA 4.0"},
		"file_page": "https://commons.wikimedia.org/wiki/File:Sunset_over_the_sea.jpg",
		"image": {
			"source": "https://upload.wikimedia.org/wikipedia/commons/1/11/Sunset_over_the_sea.jpg"
		}
	}
}`

func swapWikimediaEndpoint(t *testing.T, url string) func() {
	t.Helper()
	old := wikimediaEndpoint
	wikimediaEndpoint = url
	return func() { wikimediaEndpoint = old }
}

func TestFetchWikimedia(t *testing.T) {
	var gotPath string
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		io.WriteString(w, wikimediaFeaturedResponse)
	})
	defer swapWikimediaEndpoint(t, server.URL)()

	date := time.Date(2025, time.March, 27, 0, 0, 0, 0, time.UTC)
	f := newTestFetcher(t)
	images, err := f.Fetch(context.Background(), Wikimedia, Options{WikimediaLanguage: "de", Date: date})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gotPath != "/de/featured/2025/03/27" {
		t.Errorf("Expected path /de/featured/2025/03/27, got %q", gotPath)
	}

	if len(images) != 1 {
		t.Fatalf("Expected 1 image, got %d", len(images))
	}
	img := images[0]
	if img.Metadata.Title != "Sunset over the sea" {
		t.Errorf("Expected title without File: prefix and extension, got %q", img.Metadata.Title)
	}
	if img.Metadata.Description != "A sunset over the Baltic sea." {
		t.Errorf("Unexpected description %q", img.Metadata.Description)
	}
	if img.Metadata.Copyright != "Jane Doe (CC BY-SA 4.0, Own work)" {
		t.Errorf("Unexpected copyright %q", img.Metadata.Copyright)
	}
	if img.PubDate == nil || !img.PubDate.Equal(date) {
		t.Errorf("Expected pub date %v, got %v", date, img.PubDate)
	}
}

func TestFetchWikimediaDefaultLanguage(t *testing.T) {
	var gotPath string
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		io.WriteString(w, wikimediaFeaturedResponse)
	})
	defer swapWikimediaEndpoint(t, server.URL)()

	f := newTestFetcher(t)
	if _, err := f.Fetch(context.Background(), Wikimedia, Options{}); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(gotPath) < 4 || gotPath[:4] != "/en/" {
		t.Errorf("Expected the en language fallback, got path %q", gotPath)
	}
}

func TestFetchWikimediaNoImage(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"tfa": {"title": "Some article"}}`)
	})
	defer swapWikimediaEndpoint(t, server.URL)()

	f := newTestFetcher(t)
	_, err := f.Fetch(context.Background(), Wikimedia, Options{})
	assertKind(t, err, KindNoImage)
}

func TestWikimediaCopyright(t *testing.T) {
	license := &struct {
		Type string `json:"type"`
	}{Type: "CC BY-SA 4.0"}

	tests := []struct {
		name string
		img  wikimediaImage
		want string
	}{
		{
			name: "artist license and credit",
			img: wikimediaImage{
				Artist:  &wikimediaText{Text: "Jane Doe"},
				Credit:  &wikimediaText{Text: "Own work"},
				License: license,
			},
			want: "Jane Doe (CC BY-SA 4.0, Own work)",
		},
		{
			name: "artist and license",
			img: wikimediaImage{
				Artist:  &wikimediaText{Text: "Jane Doe"},
				License: license,
			},
			want: "Jane Doe (CC BY-SA 4.0)",
		},
		{
			name: "artist only",
			img:  wikimediaImage{Artist: &wikimediaText{Text: "Jane Doe"}},
			want: "Jane Doe",
		},
		{
			name: "license only",
			img:  wikimediaImage{License: license},
			want: "CC BY-SA 4.0",
		},
		{
			name: "nothing known",
			img:  wikimediaImage{},
			want: "Unknown, all rights reserved",
		},
		{
			name: "whitespace-only artist",
			img:  wikimediaImage{Artist: &wikimediaText{Text: "  \n"}, License: license},
			want: "CC BY-SA 4.0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wikimediaCopyright(&tt.img); got != tt.want {
				t.Errorf("wikimediaCopyright() = %q, want %q", got, tt.want)
			}
		})
	}
}
