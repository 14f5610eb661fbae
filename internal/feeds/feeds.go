// Package feeds reads RSS/Atom trending snapshots into raw records
package feeds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"trendbrief/internal/normalize"
)

const defaultUserAgent = "trendbrief/1.0"

// Reader parses feed snapshots from local files or HTTP URLs.
type Reader struct {
	parser *gofeed.Parser
	client *http.Client
}

// NewReader creates a feed reader whose remote fetches time out after timeout.
func NewReader(timeout time.Duration) *Reader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	parser := gofeed.NewParser()
	parser.UserAgent = defaultUserAgent
	return &Reader{
		parser: parser,
		client: &http.Client{Timeout: timeout},
	}
}

// IsFeedLocation reports whether location looks like an RSS/Atom snapshot
// rather than a JSON one.
func IsFeedLocation(location string) bool {
	lower := strings.ToLower(location)
	for _, ext := range []string{".xml", ".rss", ".atom"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Read parses the feed at location, a file path or an http(s) URL.
func (r *Reader) Read(ctx context.Context, location string) ([]normalize.RawRecord, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return r.fetch(ctx, location)
	}

	f, err := os.Open(location)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return r.Parse(f)
}

func (r *Reader) fetch(ctx context.Context, feedURL string) ([]normalize.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}
	return r.Parse(resp.Body)
}

// Parse converts feed entries into raw records in feed order. Feeds carry no
// native score, so each record's rank is its 1-based position.
func (r *Reader) Parse(body io.Reader) ([]normalize.RawRecord, error) {
	feed, err := r.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	records := make([]normalize.RawRecord, 0, len(feed.Items))
	for i, item := range feed.Items {
		records = append(records, itemToRecord(i+1, item))
	}
	return records, nil
}

func itemToRecord(position int, item *gofeed.Item) normalize.RawRecord {
	rec := normalize.RawRecord{
		"title": item.Title,
		"url":   item.Link,
		"rank":  float64(position),
	}

	desc := item.Description
	if desc == "" {
		desc = item.Content
	}
	if desc = stripTags(desc); desc != "" {
		rec["description"] = desc
	}

	switch {
	case item.PublishedParsed != nil:
		rec["published_at"] = item.PublishedParsed.UTC().Format(time.RFC3339)
	case item.UpdatedParsed != nil:
		rec["published_at"] = item.UpdatedParsed.UTC().Format(time.RFC3339)
	}
	return rec
}

// stripTags returns the text of an HTML feed description with entities
// decoded. Block elements and line breaks become spaces; inline markup joins
// its neighbours so Chinese text is not split.
func stripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml(" ")
	doc.Find("p, div, li, tr, td, h1, h2, h3, h4, h5, h6").AppendHtml(" ")
	return strings.Join(strings.Fields(doc.Text()), " ")
}
