package images

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func pngFixture(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestLocalizeRewritesThumbnailAndInline(t *testing.T) {
	t.Parallel()

	fixture := pngFixture(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "missing") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(fixture)
	}))
	defer server.Close()

	dir := t.TempDir()
	p := NewProcessor(dir, server.Client(), nil)

	markdown := `---
title: "Example"
thumbnail: "` + server.URL + `/thumb.jpg"
---

# Heading

![photo](` + server.URL + `/inline.png)
![broken](` + server.URL + `/missing.png)
![local](/images/already.webp)
`

	out, err := p.Localize(context.Background(), markdown, "example-post")
	if err != nil {
		t.Fatalf("Localize error: %v", err)
	}

	if !strings.Contains(out, `thumbnail: "/images/example-post.webp"`) {
		t.Fatalf("thumbnail not rewritten: %s", out)
	}
	if !strings.Contains(out, "(/images/inline.webp)") {
		t.Fatalf("inline image not rewritten: %s", out)
	}
	if strings.Contains(out, "missing.png") {
		t.Fatalf("failed download not removed: %s", out)
	}
	if !strings.Contains(out, "(/images/already.webp)") {
		t.Fatalf("local reference altered: %s", out)
	}

	for _, name := range []string{"example-post.webp", "inline.webp"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected webp file %s: %v", name, err)
		}
	}
}

func TestLocalizeBlanksThumbnailOnFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewProcessor(t.TempDir(), server.Client(), nil)

	markdown := "---\nthumbnail: \"" + server.URL + "/thumb.jpg\"\n---\n\nbody"
	out, err := p.Localize(context.Background(), markdown, "post")
	if err != nil {
		t.Fatalf("Localize error: %v", err)
	}

	if !strings.Contains(out, `thumbnail: ""`) {
		t.Fatalf("thumbnail not blanked: %s", out)
	}
}

func TestRemoveRemoteImages(t *testing.T) {
	t.Parallel()

	in := "keep ![a](/images/a.webp) drop ![b](https://cdn.example.com/b.jpg) and <img src=\"https://cdn.example.com/c.png\"> end"
	out := removeRemoteImages(in)

	if !strings.Contains(out, "(/images/a.webp)") {
		t.Fatalf("local image removed: %s", out)
	}
	if strings.Contains(out, "cdn.example.com") {
		t.Fatalf("remote image survived: %s", out)
	}
}

func TestLocalName(t *testing.T) {
	t.Parallel()

	if got := localName("https://cdn.example.com/photos/pic.jpg?w=640"); got != "pic.webp" {
		t.Fatalf("unexpected name: %s", got)
	}

	long := "https://cdn.example.com/" + strings.Repeat("x", 300) + ".jpg"
	got := localName(long)
	if len(got) > 40 || !strings.HasSuffix(got, ".webp") {
		t.Fatalf("long url not hashed: %s", got)
	}

	if got := localName("https://cdn.example.com/"); !strings.HasSuffix(got, ".webp") {
		t.Fatalf("extensionless url produced %s", got)
	}
}
