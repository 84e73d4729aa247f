package frontmatter

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Meta is the YAML frontmatter carried by every translated article.
type Meta struct {
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Thumbnail   string `yaml:"thumbnail"`
	Description string `yaml:"description"`
	Use         bool   `yaml:"use"`
	CreatedAt   string `yaml:"created_at"`
}

const delimiter = "---"

// Compose renders a Markdown document with a YAML frontmatter header.
// Title and description are sanitized so the header always stays parseable.
func Compose(meta Meta, content string) string {
	var b strings.Builder
	b.WriteString(delimiter + "\n")
	fmt.Fprintf(&b, "title: %q\n", Sanitize(meta.Title))
	fmt.Fprintf(&b, "slug: %q\n", meta.Slug)
	fmt.Fprintf(&b, "thumbnail: %q\n", meta.Thumbnail)
	fmt.Fprintf(&b, "description: %q\n", Sanitize(meta.Description))
	fmt.Fprintf(&b, "use: %t\n", meta.Use)
	fmt.Fprintf(&b, "created_at: %q\n", meta.CreatedAt)
	b.WriteString(delimiter + "\n\n")
	b.WriteString(content)
	return b.String()
}

// Parse splits a document into its frontmatter and body.
func Parse(doc string) (Meta, string, error) {
	trimmed := strings.TrimLeft(doc, "\n\r \t")
	if !strings.HasPrefix(trimmed, delimiter) {
		return Meta{}, "", fmt.Errorf("document has no frontmatter")
	}

	rest := trimmed[len(delimiter):]
	end := strings.Index(rest, "\n"+delimiter)
	if end < 0 {
		return Meta{}, "", fmt.Errorf("frontmatter is not terminated")
	}

	header := rest[:end]
	body := rest[end+len(delimiter)+1:]
	body = strings.TrimLeft(body, "\r\n")

	var meta Meta
	if err := yaml.Unmarshal([]byte(header), &meta); err != nil {
		return Meta{}, "", fmt.Errorf("parse frontmatter: %w", err)
	}
	return meta, body, nil
}

// yamlSpecials break naive frontmatter values; stripped by Sanitize.
const yamlSpecials = ":{}[]&*!|><%#`"

// Sanitize makes a string safe to embed as a frontmatter value.
func Sanitize(value string) string {
	value = strings.ReplaceAll(value, `"`, "'")

	var b strings.Builder
	for _, r := range value {
		if r < 32 && r != '\n' && r != '\t' {
			continue
		}
		if strings.ContainsRune(yamlSpecials, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
