package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"newspipe/internal/domain"
	"newspipe/internal/scanner"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// FeedScanner scrapes a news feed page and extracts article links matching a
// CSS selector.
type FeedScanner struct {
	client *http.Client
}

// NewFeedScanner wires an HTTP client; nil gets a default with timeout.
func NewFeedScanner(client *http.Client) *FeedScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &FeedScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (f *FeedScanner) Name() string {
	return "html"
}

// Scan fetches the feed page and returns one item per anchor found inside
// elements matching the selector. The article ID is the last path segment of
// the link; the thumbnail is the image source without its query string.
func (f *FeedScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.FeedItem, error) {
	if req.Selector == "" {
		return nil, fmt.Errorf("feed %s: no selector configured", req.FeedURL)
	}

	doc, err := f.fetchDocument(ctx, req.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", req.FeedURL, err)
	}

	var items []domain.FeedItem
	index := 0

	doc.Find(req.Selector).Each(func(_ int, node *goquery.Selection) {
		node.Find("a").Each(func(_ int, link *goquery.Selection) {
			href, ok := link.Attr("href")
			if !ok || href == "" {
				return
			}
			index++

			id := articleIDFromURL(href)
			if id == "" {
				return
			}

			thumbnail := ""
			if src, ok := link.Find("img").First().Attr("src"); ok {
				thumbnail = strings.SplitN(src, "?", 2)[0]
			}

			items = append(items, domain.FeedItem{
				Index:     index,
				RawID:     id,
				URL:       href,
				Thumbnail: thumbnail,
			})
		})
	})

	return items, nil
}

func (f *FeedScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

// articleIDFromURL derives the stable article ID: the final non-empty path
// segment of the link.
func articleIDFromURL(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.TrimSuffix(parsed.Path, "/"), "/")
	return segments[len(segments)-1]
}
