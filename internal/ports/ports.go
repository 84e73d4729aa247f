package ports

import (
	"context"
	"time"

	"newspipe/internal/domain"
)

// ArticleFetcher downloads one article page and returns its cleaned HTML
// along with the extracted title.
type ArticleFetcher interface {
	Fetch(ctx context.Context, item domain.FeedItem) (domain.Article, error)
}

// Grouper partitions freshly scraped articles into groups of related stories.
type Grouper interface {
	GroupArticles(ctx context.Context, items []domain.FeedItem) ([]domain.Group, error)
}

// Translator translates one Markdown document and returns the structured
// result (title, slug, frontmatter fields, translated content).
type Translator interface {
	Translate(ctx context.Context, markdown string) (domain.Translation, error)
}

// Converter turns merged HTML into Markdown.
type Converter interface {
	Convert(html []byte) (string, error)
}

// Ledger tracks which article IDs have already been scraped so re-runs never
// fetch them again. Single-process; no locking.
type Ledger interface {
	IsProcessed(id string) bool
	MarkProcessed(id string) error
}

// ArtifactStore is the stage artifact contract: each stage has exactly one
// directory, an artifact is one file keyed by ID, and existence of the
// output artifact is the idempotence check.
type ArtifactStore interface {
	List(stage domain.Stage) ([]string, error)
	Read(stage domain.Stage, id string) ([]byte, error)
	Write(stage domain.Stage, id string, data []byte) error
	Exists(stage domain.Stage, id string) bool
	Remove(stage domain.Stage, id string) error
	Dir(stage domain.Stage) string
	Clean(stage domain.Stage) error
	CleanAll() error
}

// ImageProcessor localizes the images referenced by one translated Markdown
// document: downloads, converts, rewrites references.
type ImageProcessor interface {
	Localize(ctx context.Context, markdown string, slug string) (string, error)
}

// SitePublisher moves finished content into the external site project and
// drives its build/deploy tooling.
type SitePublisher interface {
	Copy(ctx context.Context) error
	Deploy(ctx context.Context) error
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// Reviewer opens an external application for manual content review and waits
// for it to exit.
type Reviewer interface {
	Review(ctx context.Context) error
}

// Scheduler drives recurring pipeline runs. Start returns once the job is
// registered; the job fires until Stop or context cancellation.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
