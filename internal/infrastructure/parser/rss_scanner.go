package parser

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"newspipe/internal/domain"
	"newspipe/internal/scanner"
)

// RSSScanner reads an RSS/Atom feed instead of scraping a listing page.
// The selector is ignored for this strategy.
type RSSScanner struct {
	parser *gofeed.Parser
}

// NewRSSScanner wires a gofeed parser; nil gets a default with timeout.
func NewRSSScanner(client *http.Client) *RSSScanner {
	p := gofeed.NewParser()
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	p.Client = client
	p.UserAgent = userAgent
	return &RSSScanner{parser: p}
}

// Name identifies the strategy inside the registry.
func (r *RSSScanner) Name() string {
	return "rss"
}

// Scan parses the feed and returns one item per entry with a usable link.
func (r *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.FeedItem, error) {
	feed, err := r.parser.ParseURLWithContext(req.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", req.FeedURL, err)
	}

	var items []domain.FeedItem
	index := 0
	for _, entry := range feed.Items {
		if entry.Link == "" {
			continue
		}
		index++

		id := articleIDFromURL(entry.Link)
		if id == "" {
			continue
		}

		thumbnail := ""
		if entry.Image != nil {
			thumbnail = entry.Image.URL
		}

		items = append(items, domain.FeedItem{
			Index:     index,
			RawID:     id,
			URL:       entry.Link,
			Thumbnail: thumbnail,
			Title:     entry.Title,
		})
	}

	return items, nil
}
