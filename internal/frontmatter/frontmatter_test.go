package frontmatter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeParseRoundTrip(t *testing.T) {
	t.Parallel()

	meta := Meta{
		Title:       "Hội nghị thượng đỉnh",
		Slug:        "hoi-nghi-thuong-dinh",
		Thumbnail:   "/images/hoi-nghi-thuong-dinh.webp",
		Description: "Tóm tắt bài viết",
		Use:         true,
		CreatedAt:   "2026-08-28 09:30:00",
	}

	doc := Compose(meta, "# Heading\n\nBody text.")

	parsed, body, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, meta, parsed)
	assert.Equal(t, "# Heading\n\nBody text.", body)
}

func TestParseRejectsMissingFrontmatter(t *testing.T) {
	t.Parallel()

	_, _, err := Parse("# Just markdown")
	assert.Error(t, err)

	_, _, err = Parse("---\ntitle: \"unterminated\"")
	assert.Error(t, err)
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{`He said "hello"`, "He said 'hello'"},
		{"Breaking: markets fall", "Breaking markets fall"},
		{"a {b} [c] &d *e", "a b c d e"},
		{"  padded  ", "padded"},
		{"ctrl\x01char", "ctrlchar"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Sanitize(tc.in), "input %q", tc.in)
	}
}

func TestComposeSanitizesHeaderValues(t *testing.T) {
	t.Parallel()

	doc := Compose(Meta{Title: `Quote: "risky" title`, Slug: "s"}, "body")
	parsed, _, err := Parse(doc)
	require.NoError(t, err)
	assert.False(t, strings.Contains(parsed.Title, `"`))
	assert.False(t, strings.Contains(parsed.Title, ":"))
}
