package domain

import "time"

// FeedItem is a single link discovered on a feed page before its article
// content has been fetched. Index is the position within the feed snapshot;
// the grouping service refers to items by this index and the pipeline maps
// the answer back to RawID.
type FeedItem struct {
	Index     int    `json:"id"`
	RawID     string `json:"raw_id"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
	Title     string `json:"title"`
}

// Group is an ordered set of related articles chosen by the grouping call.
// IDs hold raw article IDs; Thumbnail comes from the first member.
type Group struct {
	Title     string   `json:"title"`
	IDs       []string `json:"id"`
	Thumbnail string   `json:"thumbnail"`
}

// Translation is the structured result of translating one Markdown document.
// Use marks whether the article should be published to the site.
type Translation struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Use         bool   `json:"use"`
	Content     string `json:"content"`
	Thumbnail   string `json:"thumbnail,omitempty"`
}

// Article is a fully scraped article: formatted HTML plus the metadata the
// later stages need. Immutable once written to the raw-HTML stage.
type Article struct {
	ID        string
	Title     string
	URL       string
	Thumbnail string
	HTML      []byte
	ScrapedAt time.Time
}
