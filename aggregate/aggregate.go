// Package aggregate fans a category out to its sources and merges the results.
package aggregate

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robertmeta/newswire/model"
	"github.com/robertmeta/newswire/registry"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds the number of concurrent source fetches.
const DefaultWorkers = 50

// UseRegistryWindow asks Recent for the category's configured window.
const UseRegistryWindow time.Duration = -1

// Fetcher retrieves the items of one source. It must not fail: a broken
// source yields no items.
type Fetcher interface {
	Fetch(ctx context.Context, src model.Source) []model.FeedItem
}

// Cache stores merged category results between requests.
type Cache interface {
	Get(ctx context.Context, category string) ([]model.FeedItem, bool)
	Set(ctx context.Context, category string, items []model.FeedItem)
}

// Result is the merged output for one category.
type Result struct {
	Category string
	Window   time.Duration
	Items    []model.FeedItem
}

// Aggregator merges the feeds of a category.
type Aggregator struct {
	sources *registry.Registry
	fetcher Fetcher
	workers int
	cache   Cache
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithWorkers limits concurrent fetches. Values below one are ignored.
func WithWorkers(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithCache enables caching of merged results.
func WithCache(c Cache) Option {
	return func(a *Aggregator) { a.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// WithClock replaces the wall clock used for recency filtering.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// New creates an Aggregator over the sources of reg.
func New(reg *registry.Registry, fetcher Fetcher, opts ...Option) *Aggregator {
	a := &Aggregator{
		sources: reg,
		fetcher: fetcher,
		workers: DefaultWorkers,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate fetches every source of category and returns the deduplicated
// items, newest first. Unknown categories resolve to the default category.
func (a *Aggregator) Aggregate(ctx context.Context, category string) Result {
	name, sources := a.sources.Resolve(category)

	if a.cache != nil {
		if items, ok := a.cache.Get(ctx, name); ok {
			a.logger.Debug("Serving category from cache", slog.String("category", name), slog.Int("items", len(items)))
			return Result{Category: name, Items: items}
		}
	}

	items := Merge(a.fetchAll(ctx, sources))

	a.logger.Info("Aggregated category",
		slog.String("category", name),
		slog.Int("sources", len(sources)),
		slog.Int("items", len(items)))

	if a.cache != nil {
		a.cache.Set(ctx, name, items)
	}
	return Result{Category: name, Items: items}
}

// Recent aggregates category and drops items older than the recency window.
// UseRegistryWindow selects the window configured for the category and a zero
// window keeps everything.
func (a *Aggregator) Recent(ctx context.Context, category string, window time.Duration) Result {
	res := a.Aggregate(ctx, category)
	if window < 0 {
		window = a.sources.Window(res.Category)
	}
	res.Window = window
	res.Items = FilterRecent(res.Items, a.now(), window)
	return res
}

// fetchAll runs one fetch per source and waits for all of them.
func (a *Aggregator) fetchAll(ctx context.Context, sources []model.Source) [][]model.FeedItem {
	var (
		mu      sync.Mutex
		batches = make([][]model.FeedItem, 0, len(sources))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for _, src := range sources {
		g.Go(func() error {
			items := a.fetcher.Fetch(gctx, src)

			mu.Lock()
			batches = append(batches, items)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return batches
}

// Merge concatenates batches, keeps the first item of each (link, title) key
// and sorts the result by publish time, newest first.
func Merge(batches [][]model.FeedItem) []model.FeedItem {
	total := 0
	for _, b := range batches {
		total += len(b)
	}

	seen := make(map[[2]string]struct{}, total)
	merged := make([]model.FeedItem, 0, total)
	for _, b := range batches {
		for _, item := range b {
			key := item.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, item)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAtMillis > merged[j].PublishedAtMillis
	})
	return merged
}

// FilterRecent keeps the items published no earlier than now - window. It
// compares PublishedAtMillis, the field items are sorted by. A window of zero
// or less keeps all items.
func FilterRecent(items []model.FeedItem, now time.Time, window time.Duration) []model.FeedItem {
	if window <= 0 {
		return items
	}
	kept := make([]model.FeedItem, 0, len(items))
	for _, item := range items {
		if item.Age(now) <= window {
			kept = append(kept, item)
		}
	}
	return kept
}
