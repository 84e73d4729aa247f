package site

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"newspipe/internal/frontmatter"
	"newspipe/internal/ports"
)

var imageRefExpr = regexp.MustCompile(`!\[.*?\]\((.*?)\)|<img.*?src=['"](.*?)['"].*?>`)

// Publisher moves finished content into the external static-site project and
// drives its build and deploy tooling.
type Publisher struct {
	siteDir    string
	sourceDir  string
	npmCommand string
	logger     *slog.Logger
}

var _ ports.SitePublisher = (*Publisher)(nil)

// NewPublisher wires the site project directory with the image-stage output
// directory feeding it.
func NewPublisher(siteDir, sourceDir, npmCommand string, logger *slog.Logger) *Publisher {
	if npmCommand == "" {
		npmCommand = "npm"
	}
	return &Publisher{
		siteDir:    siteDir,
		sourceDir:  sourceDir,
		npmCommand: npmCommand,
		logger:     logger,
	}
}

// Copy publishes every Markdown document marked use: true into the site's
// content directory, along with its thumbnail and referenced images.
func (p *Publisher) Copy(ctx context.Context) error {
	if p.siteDir == "" {
		return fmt.Errorf("site directory is not configured")
	}

	contentDir := filepath.Join(p.siteDir, "content")
	publicDir := filepath.Join(p.siteDir, "public")
	if err := os.MkdirAll(contentDir, 0o755); err != nil {
		return fmt.Errorf("create site content dir: %w", err)
	}

	entries, err := os.ReadDir(p.sourceDir)
	if os.IsNotExist(err) {
		return fmt.Errorf("nothing to copy: %s does not exist", p.sourceDir)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", p.sourceDir, err)
	}

	total, copied := 0, 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		total++

		if err := ctx.Err(); err != nil {
			return err
		}

		sourcePath := filepath.Join(p.sourceDir, entry.Name())
		raw, err := os.ReadFile(sourcePath)
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		meta, _, err := frontmatter.Parse(string(raw))
		if err != nil {
			p.log("skipping document with bad frontmatter", "file", entry.Name(), "error", err)
			continue
		}
		if !meta.Use {
			continue
		}
		copied++

		if err := copyFile(sourcePath, filepath.Join(contentDir, entry.Name())); err != nil {
			return fmt.Errorf("copy %s: %w", entry.Name(), err)
		}

		if err := p.copyThumbnail(entry.Name(), publicDir); err != nil {
			return err
		}
		if err := p.copyReferencedImages(string(raw), publicDir); err != nil {
			return err
		}
	}

	p.log("copy complete", "copied", copied, "total", total, "site", p.siteDir)
	return nil
}

func (p *Publisher) copyThumbnail(mdName, publicDir string) error {
	name := strings.TrimSuffix(mdName, ".md") + ".webp"
	source := filepath.Join(p.sourceDir, "images", name)
	if _, err := os.Stat(source); err != nil {
		p.log("thumbnail not found", "file", name)
		return nil
	}

	dest := filepath.Join(publicDir, "images", "thumbnails", name)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create thumbnail dir: %w", err)
	}
	if err := copyFile(source, dest); err != nil {
		return fmt.Errorf("copy thumbnail %s: %w", name, err)
	}
	return nil
}

func (p *Publisher) copyReferencedImages(doc, publicDir string) error {
	for _, ref := range extractImageRefs(doc) {
		rel := strings.TrimPrefix(ref, "/")
		source := filepath.Join(p.sourceDir, rel)
		if _, err := os.Stat(source); err != nil {
			p.log("referenced image not found", "ref", ref)
			continue
		}

		dest := filepath.Join(publicDir, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("create image dir for %s: %w", ref, err)
		}
		if err := copyFile(source, dest); err != nil {
			return fmt.Errorf("copy image %s: %w", ref, err)
		}
	}
	return nil
}

// Deploy builds the site project and pushes the result to its git remote.
// Nothing is committed when the working tree is clean.
func (p *Publisher) Deploy(ctx context.Context) error {
	if p.siteDir == "" {
		return fmt.Errorf("site directory is not configured")
	}
	if _, err := os.Stat(p.siteDir); err != nil {
		return fmt.Errorf("site directory: %w", err)
	}

	if err := p.run(ctx, p.npmCommand, "run", "build"); err != nil {
		return fmt.Errorf("site build: %w", err)
	}

	dirty, err := p.hasChanges(ctx)
	if err != nil {
		return err
	}
	if !dirty {
		p.log("site working tree clean, nothing to push")
		return nil
	}

	message := fmt.Sprintf("Update blog %s", time.Now().Format("2006-01-02 15:04:05"))
	if err := p.run(ctx, "git", "add", "."); err != nil {
		return fmt.Errorf("git add: %w", err)
	}
	if err := p.run(ctx, "git", "commit", "-m", message); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}
	if err := p.run(ctx, "git", "push"); err != nil {
		return fmt.Errorf("git push: %w", err)
	}
	return nil
}

// Cleanup removes site documents older than the cutoff, along with their
// thumbnails and referenced images.
func (p *Publisher) Cleanup(ctx context.Context, olderThan time.Duration) error {
	contentDir := filepath.Join(p.siteDir, "content")
	publicDir := filepath.Join(p.siteDir, "public")
	cutoff := time.Now().Add(-olderThan)

	return filepath.WalkDir(contentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", d.Name(), err)
		}

		meta, _, err := frontmatter.Parse(string(raw))
		if err != nil || meta.CreatedAt == "" {
			return nil
		}

		created, err := parseCreatedAt(meta.CreatedAt)
		if err != nil {
			return nil
		}
		if !created.Before(cutoff) {
			return nil
		}

		p.log("removing expired document", "file", d.Name(), "created_at", meta.CreatedAt)

		thumbnail := filepath.Join(publicDir, "images", "thumbnails",
			strings.TrimSuffix(d.Name(), ".md")+".webp")
		if err := os.Remove(thumbnail); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove thumbnail for %s: %w", d.Name(), err)
		}

		for _, ref := range extractImageRefs(string(raw)) {
			imagePath := filepath.Join(publicDir, strings.TrimPrefix(ref, "/"))
			if err := os.Remove(imagePath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove image %s: %w", ref, err)
			}
		}

		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove %s: %w", d.Name(), err)
		}
		return nil
	})
}

func (p *Publisher) hasChanges(ctx context.Context) (bool, error) {
	cmd := exec.CommandContext(ctx, "git", "status", "--porcelain")
	cmd.Dir = p.siteDir
	out, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}
	return len(strings.TrimSpace(string(out))) > 0, nil
}

// run executes a command in the site directory, streaming its combined
// output into the logger line by line.
func (p *Publisher) run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = p.siteDir

	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("pipe %s: %w", name, err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}

	scanner := bufio.NewScanner(pipe)
	for scanner.Scan() {
		p.log(scanner.Text(), "command", name)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

func (p *Publisher) log(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func extractImageRefs(doc string) []string {
	var refs []string
	seen := map[string]struct{}{}
	for _, match := range imageRefExpr.FindAllStringSubmatch(doc, -1) {
		ref := match[1]
		if ref == "" {
			ref = match[2]
		}
		if ref == "" || strings.Contains(ref, "://") {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}

func parseCreatedAt(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized created_at %q", value)
}

func copyFile(source, dest string) error {
	data, err := os.ReadFile(source)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}
