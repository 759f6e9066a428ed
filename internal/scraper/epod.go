// Package scraper extracts picture-of-the-day entries from the EPOD blog
// markup. Extraction is single-pass and best-effort: structural elements the
// entry cannot exist without (header, date) fail hard, heuristic parts
// (copyright detection) degrade to empty values.
package scraper

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Error reports a required structural element that was missing from the
// page, with a human-readable locator description.
type Error struct {
	Message string
}

func (e *Error) Error() string { return "scraping failed: " + e.Message }

// Entry is one scraped blog entry.
type Entry struct {
	Title       string
	WebURL      string
	Description string
	Copyright   string
	Date        time.Time
	// ImageURLs holds every image found in the entry body, in page order.
	ImageURLs []string
}

// dateLayout is the publish date format used by the blog.
const dateLayout = "January 2, 2006"

// copyrightPrefix marks the paragraph carrying photographer attribution.
const copyrightPrefix = "Photographer:"

// relatedLinksMarker truncates the description run.
const relatedLinksMarker = "Related Links"

// Scrape parses the blog index page and extracts its newest entry. Malformed
// HTML never aborts parsing; only missing structure does.
func Scrape(r io.Reader) (*Entry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("parsing document: %v", err)}
	}

	// Rewrite every <br> into a literal newline before any text extraction.
	// The blog uses <br> inside paragraphs for list-like breaks which a
	// plain text walk would otherwise collapse.
	rewriteLineBreaks(doc)

	entry := &Entry{}

	header := doc.Find(".entry-header").First()
	if header.Length() == 0 {
		return nil, &Error{Message: "no .entry-header element on page"}
	}
	entry.Title = strings.TrimSpace(header.Text())
	if href, ok := header.Find("a[href]").First().Attr("href"); ok {
		entry.WebURL = href
	}

	dateHeader := doc.Find("h2.date-header").First()
	if dateHeader.Length() == 0 {
		return nil, &Error{Message: "no h2.date-header element on page"}
	}
	date, err := time.Parse(dateLayout, strings.TrimSpace(dateHeader.Text()))
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("invalid publish date %q: %v", strings.TrimSpace(dateHeader.Text()), err)}
	}
	entry.Date = date

	imageParagraphs, textParagraphs := partitionBody(doc.Find(".entry-body").First().Find("p"))
	if len(imageParagraphs) == 0 {
		return nil, &Error{Message: "no image paragraphs in .entry-body"}
	}

	for _, p := range imageParagraphs {
		entry.ImageURLs = append(entry.ImageURLs, imageURLs(p)...)
	}
	if len(entry.ImageURLs) == 0 {
		return nil, &Error{Message: "image paragraphs carry no image references"}
	}

	entry.Copyright, entry.Description = splitCopyright(textParagraphs)
	return entry, nil
}

// rewriteLineBreaks turns each <br> node into a plain text node containing
// one newline, in place.
func rewriteLineBreaks(doc *goquery.Document) {
	doc.Find("br").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			n.Type = html.TextNode
			n.Data = "\n"
			n.DataAtom = 0
			n.Attr = nil
		}
	})
}

// partitionBody splits the body paragraphs into image paragraphs and text
// paragraphs, starting only from the first image paragraph onward. Content
// before the first image is not part of the entry body.
func partitionBody(paragraphs *goquery.Selection) (images, texts []*goquery.Selection) {
	seenImage := false
	paragraphs.Each(func(_ int, p *goquery.Selection) {
		if isImageParagraph(p) {
			seenImage = true
			images = append(images, p)
			return
		}
		if seenImage {
			texts = append(texts, p)
		}
	})
	return images, texts
}

// isImageParagraph reports whether p carries the entry image: an asset image
// link, or, as a secondary heuristic, a single unwrapped <img>.
func isImageParagraph(p *goquery.Selection) bool {
	if p.Find("a.asset-img-link").Length() > 0 {
		return true
	}
	children := p.Children()
	return children.Length() == 1 && children.Is("img")
}

// imageURLs extracts the image references of one image paragraph, preferring
// asset link targets over bare image sources.
func imageURLs(p *goquery.Selection) []string {
	var urls []string
	p.Find("a.asset-img-link").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok && href != "" {
			urls = append(urls, href)
		}
	})
	if len(urls) > 0 {
		return urls
	}
	p.Find("img").Each(func(_ int, img *goquery.Selection) {
		if src, ok := img.Attr("src"); ok && src != "" {
			urls = append(urls, src)
		}
	})
	return urls
}

// splitCopyright segments the text paragraphs into attribution and
// description. A paragraph starting with the photographer prefix becomes the
// copyright, and everything strictly after it the description. Without one,
// the whole run is the description. A "Related Links" paragraph truncates
// the description in either case.
func splitCopyright(paragraphs []*goquery.Selection) (copyright, description string) {
	texts := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		texts = append(texts, strings.TrimSpace(p.Text()))
	}

	start := 0
	for i, text := range texts {
		if strings.HasPrefix(text, copyrightPrefix) {
			copyright = text
			start = i + 1
			break
		}
	}

	var parts []string
	for _, text := range texts[start:] {
		if strings.HasPrefix(text, relatedLinksMarker) {
			break
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return copyright, strings.Join(parts, "\n\n")
}
