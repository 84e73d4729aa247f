package markdown

import (
	"fmt"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"newspipe/internal/ports"
)

// Converter turns merged article HTML into Markdown, keeping headings,
// links, and image references intact.
type Converter struct{}

var _ ports.Converter = (*Converter)(nil)

// NewConverter returns a ready converter.
func NewConverter() *Converter {
	return &Converter{}
}

// Convert renders one HTML document as Markdown.
func (c *Converter) Convert(html []byte) (string, error) {
	if len(html) == 0 {
		return "", fmt.Errorf("empty html document")
	}

	md, err := htmltomarkdown.ConvertString(string(html))
	if err != nil {
		return "", fmt.Errorf("convert html to markdown: %w", err)
	}
	return md, nil
}
