package site

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newspipe/internal/frontmatter"
)

func writeDoc(t *testing.T, dir, name string, meta frontmatter.Meta, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(frontmatter.Compose(meta, body)), 0o644))
}

func TestCopyPublishesOnlyUsedDocuments(t *testing.T) {
	t.Parallel()

	sourceDir := t.TempDir()
	siteDir := t.TempDir()

	writeDoc(t, sourceDir, "published.md", frontmatter.Meta{
		Slug: "published", Use: true, CreatedAt: "2026-08-28 10:00:00",
	}, "![photo](/images/pic.webp)")
	writeDoc(t, sourceDir, "draft.md", frontmatter.Meta{
		Slug: "draft", Use: false, CreatedAt: "2026-08-28 10:00:00",
	}, "draft body")

	imagesDir := filepath.Join(sourceDir, "images")
	require.NoError(t, os.MkdirAll(imagesDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(imagesDir, "published.webp"), []byte("thumb"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(imagesDir, "pic.webp"), []byte("img"), 0o644))

	p := NewPublisher(siteDir, sourceDir, "npm", nil)
	require.NoError(t, p.Copy(context.Background()))

	assert.FileExists(t, filepath.Join(siteDir, "content", "published.md"))
	assert.NoFileExists(t, filepath.Join(siteDir, "content", "draft.md"))
	assert.FileExists(t, filepath.Join(siteDir, "public", "images", "thumbnails", "published.webp"))
	assert.FileExists(t, filepath.Join(siteDir, "public", "images", "pic.webp"))
}

func TestCopyRequiresSourceDir(t *testing.T) {
	t.Parallel()

	p := NewPublisher(t.TempDir(), filepath.Join(t.TempDir(), "missing"), "npm", nil)
	assert.Error(t, p.Copy(context.Background()))
}

func TestCleanupRemovesExpiredDocuments(t *testing.T) {
	t.Parallel()

	siteDir := t.TempDir()
	contentDir := filepath.Join(siteDir, "content")
	publicDir := filepath.Join(siteDir, "public")

	old := time.Now().Add(-45 * 24 * time.Hour).Format("2006-01-02 15:04:05")
	fresh := time.Now().Format("2006-01-02 15:04:05")

	writeDoc(t, contentDir, "expired.md", frontmatter.Meta{
		Slug: "expired", Use: true, CreatedAt: old,
	}, "![img](/images/expired-img.webp)")
	writeDoc(t, contentDir, "current.md", frontmatter.Meta{
		Slug: "current", Use: true, CreatedAt: fresh,
	}, "body")

	thumbDir := filepath.Join(publicDir, "images", "thumbnails")
	require.NoError(t, os.MkdirAll(thumbDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(thumbDir, "expired.webp"), []byte("t"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(publicDir, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(publicDir, "images", "expired-img.webp"), []byte("i"), 0o644))

	p := NewPublisher(siteDir, t.TempDir(), "npm", nil)
	require.NoError(t, p.Cleanup(context.Background(), 30*24*time.Hour))

	assert.NoFileExists(t, filepath.Join(contentDir, "expired.md"))
	assert.NoFileExists(t, filepath.Join(thumbDir, "expired.webp"))
	assert.NoFileExists(t, filepath.Join(publicDir, "images", "expired-img.webp"))
	assert.FileExists(t, filepath.Join(contentDir, "current.md"))
}

func TestExtractImageRefs(t *testing.T) {
	t.Parallel()

	doc := `![a](/images/a.webp) <img src="/images/b.webp"> ![remote](https://x/c.jpg) ![dup](/images/a.webp)`
	refs := extractImageRefs(doc)
	assert.Equal(t, []string{"/images/a.webp", "/images/b.webp"}, refs)
}

func TestParseCreatedAt(t *testing.T) {
	t.Parallel()

	full, err := parseCreatedAt("2026-08-01 12:30:45")
	require.NoError(t, err)
	assert.Equal(t, 2026, full.Year())

	dateOnly, err := parseCreatedAt("2026-08-01")
	require.NoError(t, err)
	assert.Equal(t, time.August, dateOnly.Month())

	_, err = parseCreatedAt("yesterday")
	assert.Error(t, err)
}

func TestReviewerWithoutApp(t *testing.T) {
	t.Parallel()

	r := NewAppReviewer("", nil)
	assert.NoError(t, r.Review(context.Background()))
}
