// Package feed fetches RSS/Atom feeds and normalizes their entries into FeedItems.
package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/robertmeta/newswire/model"
)

const (
	// DefaultTimeout bounds a single feed request.
	DefaultTimeout = 12 * time.Second

	// UserAgent identifies the fetcher to feed servers.
	UserAgent = "Mozilla/5.0 (compatible; newswire/1.0; +https://github.com/robertmeta/newswire)"

	// UntitledPlaceholder replaces missing entry titles.
	UntitledPlaceholder = "Başlık Yok"

	acceptHeader = "application/rss+xml, application/xml;q=0.9, */*;q=0.8"
	maxFeedBytes = 10 << 20
)

// Fetcher handles fetching and parsing RSS/Atom feeds.
type Fetcher struct {
	client *http.Client
	dates  *Normalizer
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithTimeout sets the per request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.client.Timeout = d }
}

// WithLocation sets the display location of published times.
func WithLocation(loc *time.Location) Option {
	return func(f *Fetcher) { f.dates.Location = loc }
}

// WithClock replaces the wall clock used for date fallbacks.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.dates.Now = now }
}

// WithLogger sets the logger failures are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a new Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: DefaultTimeout},
		dates:  NewNormalizer(time.UTC),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves one source and returns its normalized items. Any failure is
// logged and yields an empty list.
func (f *Fetcher) Fetch(ctx context.Context, src model.Source) []model.FeedItem {
	items, err := f.FetchSource(ctx, src)
	if err != nil {
		f.logger.Warn("Source contributed no items",
			slog.String("source", src.ID),
			slog.String("url", src.URL),
			slog.String("error", err.Error()))
		return []model.FeedItem{}
	}
	return items
}

// FetchSource retrieves and parses one source, reporting failures.
func (f *Fetcher) FetchSource(ctx context.Context, src model.Source) ([]model.FeedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", src.URL, err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed from %s: %w", src.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch feed from %s: unexpected status %d", src.URL, resp.StatusCode)
	}

	parsed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed from %s: %w", src.URL, err)
	}

	return f.convert(parsed, src), nil
}

// Parse parses feed content from a string on behalf of src.
func (f *Fetcher) Parse(src model.Source, content string) ([]model.FeedItem, error) {
	if content == "" {
		return nil, fmt.Errorf("feed content is empty")
	}

	parsed, err := gofeed.NewParser().ParseString(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	return f.convert(parsed, src), nil
}

// convert converts a gofeed.Feed to FeedItems attributed to src.
func (f *Fetcher) convert(gf *gofeed.Feed, src model.Source) []model.FeedItem {
	items := make([]model.FeedItem, 0, len(gf.Items))
	for _, it := range gf.Items {
		if it == nil {
			continue
		}
		entry := newEntry(it)
		items = append(items, f.convertEntry(&entry, src))
	}
	return items
}

// convertEntry normalizes one entry.
func (f *Fetcher) convertEntry(e *Entry, src model.Source) model.FeedItem {
	item := model.FeedItem{
		Source:      src.ID,
		SourceLogo:  src.Logo,
		SourceColor: src.Color,
		Title:       strings.TrimSpace(e.Title),
		Link:        strings.TrimSpace(e.Link),
		RawPubDate:  e.Published,
		Description: StripHTML(e.Description),
	}

	if item.Title == "" {
		item.Title = UntitledPlaceholder
	}
	if item.RawPubDate == "" {
		item.RawPubDate = e.Updated
	}

	item.PublishedAt, item.DateSource = f.dates.Normalize(e)
	item.PublishedAtMillis = item.PublishedAt.UnixMilli()

	if img, ok := ResolveImage(e); ok {
		item.Image = img
	}

	return item
}
