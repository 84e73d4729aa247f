package images

import (
	"context"
	"crypto/md5"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"newspipe/internal/ports"
)

const (
	defaultMaxWidth = 1200
	defaultQuality  = 80
	maxNameLength   = 200
)

var (
	inlineImageExpr = regexp.MustCompile(`!\[.*?\]\((.*?)\)|<img.*?src=['"](.*?)['"].*?>`)
	fullImageExpr   = regexp.MustCompile(`(!\[.*?\]\((.*?)\)|<img.*?src=['"](.*?)['"].*?>)`)
	thumbnailExpr   = regexp.MustCompile(`(?s)(thumbnail:\s*["']).*?(["'])`)
	thumbnailGetter = regexp.MustCompile(`(?s)---.*?thumbnail:\s*["'](.*?)["'].*?---`)
	unsafeNameExpr  = regexp.MustCompile(`[<>:"/\\|?*]`)
)

// Processor downloads the images referenced by a translated Markdown
// document, converts them to WebP, and rewrites the references to local
// paths. References that cannot be localized are removed from the document.
type Processor struct {
	destDir  string
	client   *http.Client
	logger   *slog.Logger
	maxWidth int
	quality  float32
}

var _ ports.ImageProcessor = (*Processor)(nil)

// NewProcessor stores WebP files under destDir. A nil client gets a default
// with timeout.
func NewProcessor(destDir string, client *http.Client, logger *slog.Logger) *Processor {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Processor{
		destDir:  destDir,
		client:   client,
		logger:   logger,
		maxWidth: defaultMaxWidth,
		quality:  defaultQuality,
	}
}

// Localize processes the frontmatter thumbnail and every inline image in one
// document, returning the rewritten Markdown.
func (p *Processor) Localize(ctx context.Context, markdown string, slug string) (string, error) {
	if err := os.MkdirAll(p.destDir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}

	content := p.localizeThumbnail(ctx, markdown, slug)
	content = p.localizeInline(ctx, content)
	content = removeRemoteImages(content)
	return content, nil
}

// localizeThumbnail downloads the frontmatter thumbnail as <slug>.webp and
// rewrites the frontmatter value; on failure the value is blanked so the
// site never references a dead remote URL.
func (p *Processor) localizeThumbnail(ctx context.Context, content, slug string) string {
	match := thumbnailGetter.FindStringSubmatch(content)
	if match == nil || match[1] == "" || !isRemote(match[1]) {
		return content
	}

	name := slug + ".webp"
	if err := p.fetchWebP(ctx, match[1], name); err != nil {
		p.log("thumbnail download failed, blanking reference", "url", match[1], "error", err)
		return thumbnailExpr.ReplaceAllString(content, "${1}${2}")
	}

	return thumbnailExpr.ReplaceAllString(content, "${1}/images/"+name+"${2}")
}

// localizeInline downloads each remote inline image once and replaces all of
// its references; failed downloads are replaced with nothing.
func (p *Processor) localizeInline(ctx context.Context, content string) string {
	replacements := map[string]string{}

	for _, match := range inlineImageExpr.FindAllStringSubmatch(content, -1) {
		imageURL := match[1]
		if imageURL == "" {
			imageURL = match[2]
		}
		if imageURL == "" || !isRemote(imageURL) {
			continue
		}
		if _, done := replacements[imageURL]; done {
			continue
		}

		name := localName(imageURL)
		if err := p.fetchWebP(ctx, imageURL, name); err != nil {
			p.log("image download failed, removing reference", "url", imageURL, "error", err)
			replacements[imageURL] = ""
			continue
		}
		replacements[imageURL] = "/images/" + name
	}

	for old, local := range replacements {
		content = strings.ReplaceAll(content, old, local)
	}
	return content
}

// fetchWebP downloads one image, bounds its width, and stores it as WebP
// under the destination directory.
func (p *Processor) fetchWebP(ctx context.Context, imageURL, name string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	img, err := imaging.Decode(resp.Body)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	if img.Bounds().Dx() > p.maxWidth {
		img = imaging.Resize(img, p.maxWidth, 0, imaging.Lanczos)
	}

	dest := filepath.Join(p.destDir, name)
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}

	if err := webp.Encode(out, img, &webp.Options{Quality: p.quality}); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("encode webp: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dest, err)
	}

	p.log("image localized", "url", imageURL, "file", name)
	return nil
}

func (p *Processor) log(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

// removeRemoteImages strips every image reference that still points at a
// remote URL after localization.
func removeRemoteImages(content string) string {
	return fullImageExpr.ReplaceAllStringFunc(content, func(match string) string {
		sub := fullImageExpr.FindStringSubmatch(match)
		imageURL := sub[2]
		if imageURL == "" {
			imageURL = sub[3]
		}
		if isRemote(imageURL) {
			return ""
		}
		return match
	})
}

func isRemote(imageURL string) bool {
	return strings.Contains(imageURL, "://") &&
		!strings.HasPrefix(imageURL, "/") &&
		!strings.HasPrefix(imageURL, ".")
}

// localName derives a safe WebP filename from an image URL; overlong names
// collapse to a hash of the URL.
func localName(imageURL string) string {
	parsed, err := url.Parse(imageURL)
	base := ""
	if err == nil {
		base = path.Base(parsed.Path)
	}
	if base == "" || base == "." || base == "/" {
		base = fmt.Sprintf("img_%x", md5.Sum([]byte(imageURL)))[:12]
	}

	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	if len(base) > maxNameLength {
		stem = fmt.Sprintf("img_%x", md5.Sum([]byte(imageURL)))[:12]
	}

	stem = unsafeNameExpr.ReplaceAllString(stem, "_")
	return stem + ".webp"
}
