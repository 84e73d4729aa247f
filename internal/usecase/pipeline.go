package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"newspipe/internal/config"
	"newspipe/internal/domain"
	"newspipe/internal/frontmatter"
	"newspipe/internal/ports"
	"newspipe/internal/scanner"
)

// Sentinel errors callers branch on when a step's input is missing.
var (
	ErrNoSnapshot = errors.New("no feed snapshot available, run scrape first")
	ErrNoGroups   = errors.New("no group data available, run group first")
)

const (
	snapshotPrefix  = "raw_html_data_"
	groupsPrefix    = "article_groups_"
	timestampLayout = "20060102_150405"
	cleanupAge      = 30 * 24 * time.Hour
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Registry   *scanner.Registry
	Fetcher    ports.ArticleFetcher
	Grouper    ports.Grouper
	Converter  ports.Converter
	Translator ports.Translator
	Images     ports.ImageProcessor
	Publisher  ports.SitePublisher
	Reviewer   ports.Reviewer
	Ledger     ports.Ledger
	Store      ports.ArtifactStore
	Logger     *slog.Logger

	Feed           config.FeedConfig
	TranslatePause time.Duration
	SkipReview     bool
}

// Pipeline sequences the content stages. Every stage reads from the previous
// stage's directory and writes to its own; any stage error aborts the run,
// leaving completed artifacts on disk so the next run resumes where this one
// stopped.
type Pipeline struct {
	registry   *scanner.Registry
	fetcher    ports.ArticleFetcher
	grouper    ports.Grouper
	converter  ports.Converter
	translator ports.Translator
	images     ports.ImageProcessor
	publisher  ports.SitePublisher
	reviewer   ports.Reviewer
	ledger     ports.Ledger
	store      ports.ArtifactStore
	logger     *slog.Logger

	feed           config.FeedConfig
	translatePause time.Duration
	skipReview     bool
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		registry:       deps.Registry,
		fetcher:        deps.Fetcher,
		grouper:        deps.Grouper,
		converter:      deps.Converter,
		translator:     deps.Translator,
		images:         deps.Images,
		publisher:      deps.Publisher,
		reviewer:       deps.Reviewer,
		ledger:         deps.Ledger,
		store:          deps.Store,
		logger:         deps.Logger,
		feed:           deps.Feed,
		translatePause: deps.TranslatePause,
		skipReview:     deps.SkipReview,
	}
}

// Run executes the full pipeline in stage order.
func (p *Pipeline) Run(ctx context.Context) error {
	snapshot, err := p.Scrape(ctx)
	if err != nil {
		return fmt.Errorf("stage scrape: %w", err)
	}
	if snapshot == "" {
		p.log("no new articles found, nothing to do")
		return nil
	}

	groupsID, err := p.Group(ctx, snapshot)
	if err != nil {
		return fmt.Errorf("stage group: %w", err)
	}

	if err := p.Merge(ctx, groupsID); err != nil {
		return fmt.Errorf("stage merge: %w", err)
	}
	if err := p.Convert(ctx); err != nil {
		return fmt.Errorf("stage convert: %w", err)
	}
	if err := p.Translate(ctx); err != nil {
		return fmt.Errorf("stage translate: %w", err)
	}
	if err := p.Images(ctx); err != nil {
		return fmt.Errorf("stage images: %w", err)
	}

	if !p.skipReview && p.reviewer != nil {
		if err := p.reviewer.Review(ctx); err != nil {
			return fmt.Errorf("stage review: %w", err)
		}
	}

	if p.publisher != nil {
		if err := p.publisher.Copy(ctx); err != nil {
			return fmt.Errorf("stage copy: %w", err)
		}
		if err := p.publisher.Deploy(ctx); err != nil {
			return fmt.Errorf("stage deploy: %w", err)
		}
	}

	p.log("full pipeline completed")
	return nil
}

// RunStep executes a single named step against whatever its input directory
// currently holds. stageArg only applies to clean.
func (p *Pipeline) RunStep(ctx context.Context, step Step, stageArg string) error {
	switch step {
	case StepScrape:
		snapshot, err := p.Scrape(ctx)
		if err != nil {
			return fmt.Errorf("stage scrape: %w", err)
		}
		if snapshot == "" {
			p.log("no new articles found")
		}
		return nil

	case StepGroup:
		snapshot, err := p.latestArtifact(domain.StageGroups, snapshotPrefix, ErrNoSnapshot)
		if err != nil {
			return fmt.Errorf("stage group: %w", err)
		}
		if _, err := p.Group(ctx, snapshot); err != nil {
			return fmt.Errorf("stage group: %w", err)
		}
		return nil

	case StepMerge:
		groupsID, err := p.latestArtifact(domain.StageGroups, groupsPrefix, ErrNoGroups)
		if err != nil {
			return fmt.Errorf("stage merge: %w", err)
		}
		if err := p.Merge(ctx, groupsID); err != nil {
			return fmt.Errorf("stage merge: %w", err)
		}
		return nil

	case StepConvert:
		if err := p.Convert(ctx); err != nil {
			return fmt.Errorf("stage convert: %w", err)
		}
		return nil

	case StepTranslate:
		if err := p.Translate(ctx); err != nil {
			return fmt.Errorf("stage translate: %w", err)
		}
		return nil

	case StepImages:
		if err := p.Images(ctx); err != nil {
			return fmt.Errorf("stage images: %w", err)
		}
		return nil

	case StepReview:
		if p.reviewer == nil {
			return nil
		}
		return p.reviewer.Review(ctx)

	case StepCopy:
		if err := p.publisher.Copy(ctx); err != nil {
			return fmt.Errorf("stage copy: %w", err)
		}
		return nil

	case StepDeploy:
		if err := p.publisher.Deploy(ctx); err != nil {
			return fmt.Errorf("stage deploy: %w", err)
		}
		return nil

	case StepClean:
		return p.Clean(stageArg)

	case StepCleanup:
		if err := p.publisher.Cleanup(ctx, cleanupAge); err != nil {
			return fmt.Errorf("stage cleanup: %w", err)
		}
		return nil
	}

	return fmt.Errorf("unknown step %q", step)
}

// Scrape reads the feed, filters out already-processed IDs, fetches each new
// article into the raw-HTML stage, and writes a feed snapshot for grouping.
// An empty snapshot ID means nothing new was found.
func (p *Pipeline) Scrape(ctx context.Context) (string, error) {
	strategy, err := p.registry.Resolve(p.feed.Scanner)
	if err != nil {
		return "", err
	}

	items, err := strategy.Scan(ctx, scanner.Request{
		FeedURL:  p.feed.URL,
		Selector: p.feed.Selector,
	})
	if err != nil {
		return "", err
	}

	var fresh []domain.FeedItem
	for _, item := range items {
		if p.ledger.IsProcessed(item.RawID) {
			continue
		}
		fresh = append(fresh, item)
	}
	p.log("feed scanned", "found", len(items), "new", len(fresh))

	if len(fresh) == 0 {
		return "", nil
	}

	records := make([]domain.FeedItem, 0, len(fresh))
	for _, item := range fresh {
		if err := p.ledger.MarkProcessed(item.RawID); err != nil {
			return "", err
		}

		article, err := p.fetcher.Fetch(ctx, item)
		if err != nil {
			return "", err
		}

		if err := p.store.Write(domain.StageRawHTML, item.RawID+".html", article.HTML); err != nil {
			return "", err
		}

		item.Title = article.Title
		records = append(records, item)
	}

	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal feed snapshot: %w", err)
	}

	snapshotID := snapshotPrefix + time.Now().Format(timestampLayout) + ".json"
	if err := p.store.Write(domain.StageGroups, snapshotID, payload); err != nil {
		return "", err
	}

	p.log("scrape complete", "articles", len(records), "snapshot", snapshotID)
	return snapshotID, nil
}

// Group sends the snapshot to the grouping service and stores the group
// assignments.
func (p *Pipeline) Group(ctx context.Context, snapshotID string) (string, error) {
	raw, err := p.store.Read(domain.StageGroups, snapshotID)
	if err != nil {
		return "", err
	}

	var items []domain.FeedItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return "", fmt.Errorf("parse snapshot %s: %w", snapshotID, err)
	}

	groups, err := p.grouper.GroupArticles(ctx, items)
	if err != nil {
		return "", err
	}

	payload, err := json.MarshalIndent(groups, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal groups: %w", err)
	}

	groupsID := groupsPrefix + time.Now().Format(timestampLayout) + ".json"
	if err := p.store.Write(domain.StageGroups, groupsID, payload); err != nil {
		return "", err
	}

	p.log("grouping complete", "groups", len(groups), "artifact", groupsID)
	return groupsID, nil
}

// Merge combines each group's raw HTML into one composite document in the
// merged stage. Raw artifacts consumed by a merge are removed, so a group
// whose members are all gone counts as already merged.
func (p *Pipeline) Merge(ctx context.Context, groupsID string) error {
	raw, err := p.store.Read(domain.StageGroups, groupsID)
	if err != nil {
		return err
	}

	var groups []domain.Group
	if err := json.Unmarshal(raw, &groups); err != nil {
		return fmt.Errorf("parse groups %s: %w", groupsID, err)
	}

	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.mergeGroup(group); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) mergeGroup(group domain.Group) error {
	var available []string
	for _, id := range group.IDs {
		if p.store.Exists(domain.StageRawHTML, id+".html") {
			available = append(available, id)
		}
	}
	if len(available) == 0 {
		p.log("group already merged or sources missing", "group", group.Title)
		return nil
	}

	var outName string
	var content []byte

	if len(group.IDs) == 1 {
		outName = group.IDs[0] + ".html"
		data, err := p.store.Read(domain.StageRawHTML, outName)
		if err != nil {
			return err
		}
		content = data
	} else {
		var parts []string
		for _, id := range available {
			data, err := p.store.Read(domain.StageRawHTML, id+".html")
			if err != nil {
				return err
			}
			parts = append(parts, string(data))
		}

		merged := demoteHeadings(strings.Join(parts, ""))
		outName = "merged-" + uuid.NewString() + ".html"
		content = []byte("<article>\n<h1>" + group.Title + "</h1>\n" + merged + "\n</article>")
	}

	if group.Thumbnail != "" {
		content = append([]byte("<img src='"+group.Thumbnail+"'>\n"), content...)
	}

	if err := p.store.Write(domain.StageMerged, outName, content); err != nil {
		return err
	}

	for _, id := range available {
		if err := p.store.Remove(domain.StageRawHTML, id+".html"); err != nil {
			return err
		}
	}

	p.log("group merged", "group", group.Title, "articles", len(available), "artifact", outName)
	return nil
}

// Convert renders every merged HTML artifact as Markdown. Documents whose
// Markdown already exists are skipped.
func (p *Pipeline) Convert(ctx context.Context) error {
	ids, err := p.store.List(domain.StageMerged)
	if err != nil {
		return err
	}

	converted := 0
	for _, id := range ids {
		if !strings.HasSuffix(id, ".html") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		outName := strings.TrimSuffix(id, ".html") + ".md"
		if p.store.Exists(domain.StageMarkdown, outName) {
			continue
		}

		data, err := p.store.Read(domain.StageMerged, id)
		if err != nil {
			return err
		}

		md, err := p.converter.Convert(data)
		if err != nil {
			return fmt.Errorf("convert %s: %w", id, err)
		}

		if err := p.store.Write(domain.StageMarkdown, outName, []byte(md)); err != nil {
			return err
		}
		converted++
	}

	p.log("conversion complete", "converted", converted, "total", len(ids))
	return nil
}

// Translate runs every Markdown document through the translation service and
// writes the result under its slug with a frontmatter header. A successfully
// translated input is consumed, so a retry after a mid-stage failure only
// translates what is left.
func (p *Pipeline) Translate(ctx context.Context) error {
	ids, err := p.store.List(domain.StageMarkdown)
	if err != nil {
		return err
	}

	for i, id := range ids {
		if !strings.HasSuffix(id, ".md") {
			continue
		}

		data, err := p.store.Read(domain.StageMarkdown, id)
		if err != nil {
			return err
		}

		translation, err := p.translator.Translate(ctx, string(data))
		if err != nil {
			return fmt.Errorf("translate %s: %w", id, err)
		}

		if translation.Title == "" || translation.Slug == "" ||
			translation.Description == "" || translation.Content == "" {
			p.log("translation missing required fields, skipping", "artifact", id)
			continue
		}

		doc := frontmatter.Compose(frontmatter.Meta{
			Title:       translation.Title,
			Slug:        translation.Slug,
			Thumbnail:   translation.Thumbnail,
			Description: translation.Description,
			Use:         translation.Use,
			CreatedAt:   time.Now().Format("2006-01-02 15:04:05"),
		}, translation.Content)

		if err := p.store.Write(domain.StageTranslated, translation.Slug+".md", []byte(doc)); err != nil {
			return err
		}
		if err := p.store.Remove(domain.StageMarkdown, id); err != nil {
			return err
		}

		p.log("translated", "artifact", id, "slug", translation.Slug)

		if p.translatePause > 0 && i < len(ids)-1 {
			select {
			case <-time.After(p.translatePause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

// Images localizes the images of every translated document. Documents whose
// image-stage output already exists are skipped.
func (p *Pipeline) Images(ctx context.Context) error {
	ids, err := p.store.List(domain.StageTranslated)
	if err != nil {
		return err
	}

	for _, id := range ids {
		if !strings.HasSuffix(id, ".md") {
			continue
		}
		if p.store.Exists(domain.StageImages, id) {
			continue
		}

		data, err := p.store.Read(domain.StageTranslated, id)
		if err != nil {
			return err
		}

		localized, err := p.images.Localize(ctx, string(data), strings.TrimSuffix(id, ".md"))
		if err != nil {
			return fmt.Errorf("localize images for %s: %w", id, err)
		}

		if err := p.store.Write(domain.StageImages, id, []byte(localized)); err != nil {
			return err
		}
	}
	return nil
}

// Clean removes one stage's directory, or the whole data directory when no
// stage is named. Destructive and irreversible.
func (p *Pipeline) Clean(stageArg string) error {
	if stageArg == "" {
		p.log("cleaning all stage directories")
		return p.store.CleanAll()
	}

	for _, stage := range domain.Stages() {
		if string(stage) == stageArg {
			p.log("cleaning stage", "stage", stageArg)
			return p.store.Clean(stage)
		}
	}
	return fmt.Errorf("unknown stage %q", stageArg)
}

// latestArtifact returns the newest artifact with the given prefix, relying
// on the sortable timestamp suffix.
func (p *Pipeline) latestArtifact(stage domain.Stage, prefix string, missing error) (string, error) {
	ids, err := p.store.List(stage)
	if err != nil {
		return "", err
	}

	var matches []string
	for _, id := range ids {
		if strings.HasPrefix(id, prefix) {
			matches = append(matches, id)
		}
	}
	if len(matches) == 0 {
		return "", missing
	}

	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// demoteHeadings shifts every heading level down one so the injected group
// title can take h1.
func demoteHeadings(html string) string {
	for level := 5; level >= 1; level-- {
		html = strings.ReplaceAll(html, fmt.Sprintf("<h%d>", level), fmt.Sprintf("<h%d>", level+1))
		html = strings.ReplaceAll(html, fmt.Sprintf("</h%d>", level), fmt.Sprintf("</h%d>", level+1))
	}
	return html
}

func (p *Pipeline) log(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}
