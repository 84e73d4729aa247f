package markdown

import (
	"strings"
	"testing"
)

func TestConvertPreservesStructure(t *testing.T) {
	t.Parallel()

	html := `<article><h1>Top story</h1><h2>Background</h2><p>Some <a href="https://example.com/ref">context</a>.</p><img src="/images/photo.webp"></article>`

	out, err := NewConverter().Convert([]byte(html))
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}

	if !strings.Contains(out, "# Top story") {
		t.Fatalf("h1 lost: %s", out)
	}
	if !strings.Contains(out, "## Background") {
		t.Fatalf("h2 lost: %s", out)
	}
	if !strings.Contains(out, "https://example.com/ref") {
		t.Fatalf("link lost: %s", out)
	}
	if !strings.Contains(out, "/images/photo.webp") {
		t.Fatalf("image lost: %s", out)
	}
}

func TestConvertEmptyInput(t *testing.T) {
	t.Parallel()

	if _, err := NewConverter().Convert(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}
