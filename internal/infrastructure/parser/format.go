package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Attributes removed from article fragments before storage; trackers and
// presentation noise that only bloat the downstream Markdown.
var strippedAttributes = []string{
	"class", "data-cl-params", "data-ual-view-type",
	"data-ual", "srcset", "type", "alt",
}

var commentExpr = regexp.MustCompile(`<!--[\s\S]*?-->`)

// formatArticleHTML normalizes an article fragment: anchors wrapping images
// become plain divs, then the stripped attributes and HTML comments are
// removed from the serialized markup.
func formatArticleHTML(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse fragment: %w", err)
	}

	doc.Find("a").Each(func(_ int, link *goquery.Selection) {
		if link.Find("img").Length() == 0 {
			return
		}
		inner, err := link.Html()
		if err != nil {
			return
		}
		link.ReplaceWithHtml("<div>" + inner + "</div>")
	})

	body := doc.Find("body")
	html, err := body.Html()
	if err != nil || strings.TrimSpace(html) == "" {
		html, err = doc.Html()
		if err != nil {
			return "", fmt.Errorf("serialize fragment: %w", err)
		}
	}

	html = removeAttributes(html, strippedAttributes)
	html = commentExpr.ReplaceAllString(html, "")
	return html, nil
}

func removeAttributes(html string, names []string) string {
	for _, name := range names {
		pattern := regexp.MustCompile(`(?i)\s+` + regexp.QuoteMeta(name) + `\s*=\s*("[^"]*?"|'[^']*?')`)
		html = pattern.ReplaceAllString(html, "")
	}
	return html
}
