// Package pipeline turns aggregated feed items into stored, rewritten articles.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robertmeta/newswire/aggregate"
	"github.com/robertmeta/newswire/model"
	"github.com/robertmeta/newswire/store"
)

// Aggregator supplies the recent items of a category.
type Aggregator interface {
	Recent(ctx context.Context, category string, window time.Duration) aggregate.Result
}

// Rewriter rewrites and classifies a news text.
type Rewriter interface {
	Rewrite(ctx context.Context, text string) (*model.Rewrite, error)
}

// Store is the article persistence the pipeline needs.
type Store interface {
	Exists(ctx context.Context, title, link string) (bool, error)
	Insert(ctx context.Context, a *model.Article) error
}

// Report summarizes one pipeline run.
type Report struct {
	ID         string    `json:"id"`
	Category   string    `json:"category"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Seen       int       `json:"seen"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Saved      int       `json:"saved"`
}

// Processor runs the rewrite and persist pipeline.
type Processor struct {
	agg     Aggregator
	rewrite Rewriter
	store   Store
	logger  *slog.Logger
	now     func() time.Time
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = l }
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) { p.now = now }
}

// NewProcessor creates a Processor.
func NewProcessor(agg Aggregator, rw Rewriter, st Store, opts ...ProcessorOption) *Processor {
	p := &Processor{
		agg:     agg,
		rewrite: rw,
		store:   st,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run aggregates category, rewrites every item that is not stored yet and
// saves the result. A failing item is logged and skipped; Run only returns an
// error when ctx ends before all items were handled.
func (p *Processor) Run(ctx context.Context, category string) (*Report, error) {
	report := &Report{
		ID:        uuid.NewString(),
		Category:  category,
		StartedAt: p.now(),
	}
	logger := p.logger.With(slog.String("run", report.ID))

	res := p.agg.Recent(ctx, category, aggregate.UseRegistryWindow)
	if report.Category == "" {
		report.Category = res.Category
	}
	logger.Info("Pipeline run started",
		slog.String("category", res.Category),
		slog.Int("items", len(res.Items)))

	for _, item := range res.Items {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = p.now()
			return report, err
		}
		report.Seen++

		switch p.processItem(ctx, logger, report.Category, item) {
		case outcomeSaved:
			report.Saved++
		case outcomeSkipped:
			report.Skipped++
		default:
			report.Failed++
		}
	}

	report.FinishedAt = p.now()
	logger.Info("Pipeline run finished",
		slog.Int("seen", report.Seen),
		slog.Int("saved", report.Saved),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed))
	return report, nil
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeSkipped
	outcomeSaved
)

func (p *Processor) processItem(ctx context.Context, logger *slog.Logger, category string, item model.FeedItem) outcome {
	logger = logger.With(slog.String("title", item.Title), slog.String("link", item.Link))

	exists, err := p.store.Exists(ctx, item.Title, item.Link)
	if err != nil {
		logger.Warn("Existence check failed", slog.String("error", err.Error()))
		return outcomeFailed
	}
	if exists {
		return outcomeSkipped
	}

	rw, err := p.rewrite.Rewrite(ctx, item.Title+"\n\n"+item.Description)
	if err != nil {
		logger.Warn("Rewrite failed", slog.String("error", err.Error()))
		return outcomeFailed
	}
	if rw.Empty() {
		logger.Warn("Rewrite returned nothing usable")
		return outcomeFailed
	}

	article := BuildArticle(item, rw, category)
	article.CreatedAt = p.now()

	err = p.store.Insert(ctx, article)
	if errors.Is(err, store.ErrArticleExists) {
		logger.Info("Article already stored", slog.String("slug", article.Slug))
		return outcomeSkipped
	}
	if err != nil {
		logger.Warn("Saving article failed", slog.String("error", err.Error()))
		return outcomeFailed
	}

	logger.Info("Article saved", slog.String("slug", article.Slug), slog.Int64("id", article.ID))
	return outcomeSaved
}

// BuildArticle combines a feed item with its rewrite. Fields the rewrite left
// empty fall back to the item's title, its description and category.
func BuildArticle(item model.FeedItem, rw *model.Rewrite, category string) *model.Article {
	a := &model.Article{
		Title:       item.Title,
		Content:     item.Description,
		Image:       item.Image,
		Category:    category,
		PublishedAt: item.PublishedAt,
	}
	if rw != nil {
		if t := strings.TrimSpace(rw.Title); t != "" {
			a.Title = t
		}
		if b := strings.TrimSpace(rw.Body); b != "" {
			a.Content = b
		}
		if c := strings.TrimSpace(rw.Category); c != "" {
			a.Category = c
		}
	}
	a.Slug = store.Slugify(a.Title)
	return a
}
