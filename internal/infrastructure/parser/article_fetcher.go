package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"newspipe/internal/domain"
	"newspipe/internal/ports"
)

// ArticleFetcher downloads an article page and reduces it to a clean HTML
// fragment: the article body with noisy attributes, comments, and link
// wrappers stripped.
type ArticleFetcher struct {
	client *http.Client
}

var _ ports.ArticleFetcher = (*ArticleFetcher)(nil)

// NewArticleFetcher wires an HTTP client; nil gets a default with timeout.
func NewArticleFetcher(client *http.Client) *ArticleFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ArticleFetcher{client: client}
}

// Fetch downloads the article page and returns the formatted article.
func (a *ArticleFetcher) Fetch(ctx context.Context, item domain.FeedItem) (domain.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		return domain.Article{}, fmt.Errorf("article %s: build request: %w", item.RawID, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return domain.Article{}, fmt.Errorf("article %s: fetch: %w", item.RawID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Article{}, fmt.Errorf("article %s: server returned %s", item.RawID, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return domain.Article{}, fmt.Errorf("article %s: parse: %w", item.RawID, err)
	}

	title, body, err := extractArticle(doc, item.URL)
	if err != nil {
		return domain.Article{}, fmt.Errorf("article %s: %w", item.RawID, err)
	}

	formatted, err := formatArticleHTML(body)
	if err != nil {
		return domain.Article{}, fmt.Errorf("article %s: %w", item.RawID, err)
	}

	return domain.Article{
		ID:        item.RawID,
		Title:     title,
		URL:       item.URL,
		Thumbnail: item.Thumbnail,
		HTML:      []byte(formatted),
		ScrapedAt: time.Now(),
	}, nil
}

// extractArticle pulls the title and body fragment out of a page. Pages with
// an <article> element use its h1 and div.article_body; anything else falls
// back to readability extraction.
func extractArticle(doc *goquery.Document, pageURL string) (string, string, error) {
	article := doc.Find("article").First()
	if article.Length() > 0 {
		title := strings.TrimSpace(article.Find("h1").First().Text())
		content := article.Find("div.article_body").First()

		if content.Length() > 0 && strings.TrimSpace(content.Text()) != "" {
			titleHTML := ""
			if h1 := article.Find("h1").First(); h1.Length() > 0 {
				if s, err := goquery.OuterHtml(h1); err == nil {
					titleHTML = s
				}
			}
			bodyHTML, err := goquery.OuterHtml(content)
			if err != nil {
				return "", "", fmt.Errorf("serialize article body: %w", err)
			}
			return title, "<article>" + titleHTML + bodyHTML + "</article>", nil
		}

		full, err := goquery.OuterHtml(article)
		if err != nil {
			return "", "", fmt.Errorf("serialize article: %w", err)
		}
		return title, full, nil
	}

	return extractWithReadability(doc, pageURL)
}

func extractWithReadability(doc *goquery.Document, pageURL string) (string, string, error) {
	html, err := doc.Html()
	if err != nil {
		return "", "", fmt.Errorf("serialize page: %w", err)
	}

	parsed, _ := url.Parse(pageURL)
	extracted, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return "", "", fmt.Errorf("readability extraction: %w", err)
	}
	if extracted.Content == "" {
		return "", "", fmt.Errorf("no article content found")
	}

	return extracted.Title, "<article><h1>" + extracted.Title + "</h1>" + extracted.Content + "</article>", nil
}
