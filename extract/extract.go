// Package extract pulls title, description, image and publish dates out of a
// single article page.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/robertmeta/newswire/model"
)

const (
	// DefaultTimeout bounds a single page request.
	DefaultTimeout = 12 * time.Second

	// UserAgent is sent with page requests. Several outlets reject bot agents.
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// MissingTitle is reported when a page has no title at all.
	MissingTitle = "Başlık bulunamadı"

	acceptLanguage = "tr-TR,tr;q=0.9,en;q=0.8"
)

// ErrFetch reports that the page could not be retrieved.
var ErrFetch = errors.New("failed to fetch page")

// Extractor retrieves article pages and reads their metadata.
type Extractor struct {
	loc     *time.Location
	now     func() time.Time
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLocation sets the location dates are reported in.
func WithLocation(loc *time.Location) Option {
	return func(x *Extractor) { x.loc = loc }
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(x *Extractor) { x.now = now }
}

// WithTimeout sets the page request timeout.
func WithTimeout(d time.Duration) Option {
	return func(x *Extractor) { x.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(x *Extractor) { x.logger = l }
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	x := &Extractor{
		loc:     time.UTC,
		now:     time.Now,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract fetches url and returns its metadata. Fetch failures are returned as
// errors wrapping ErrFetch; a page without recognizable fields is not an error.
func (x *Extractor) Extract(ctx context.Context, url string) (*model.PageMetadata, error) {
	body, err := x.fetch(ctx, url)
	if err != nil {
		x.logger.Warn("Page fetch failed", slog.String("url", url), slog.String("error", err.Error()))
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %s: %w", url, err)
	}

	meta := x.ExtractDocument(doc)
	return &meta, nil
}

func (x *Extractor) fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrFetch, url, err)
	}

	c := colly.NewCollector(colly.UserAgent(UserAgent))
	c.SetRequestTimeout(x.timeout)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		r.Headers.Set("Accept-Language", acceptLanguage)
	})

	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	if err := c.Visit(url); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrFetch, url, err)
	}
	if body == nil {
		return nil, fmt.Errorf("%w %s: empty response", ErrFetch, url)
	}
	return body, nil
}

// ExtractDocument reads the metadata of an already parsed page.
func (x *Extractor) ExtractDocument(doc *goquery.Document) model.PageMetadata {
	now := x.now()

	meta := model.PageMetadata{
		Title:       pageTitle(doc),
		Description: strings.TrimSpace(metaContent(doc, `meta[property="og:description"]`)),
		Image:       strings.TrimSpace(metaContent(doc, `meta[property="og:image"]`)),
		FullText:    paragraphText(doc),
	}

	text := visibleText(doc)

	published, ok := x.firstDate(now, publishedCandidates(doc, text))
	if !ok {
		published = now.In(x.loc)
	}
	meta.PublishedAt = published.Format(time.RFC3339)

	if updated, ok := x.firstDate(now, updatedCandidates(doc, text)); ok {
		meta.UpdatedAt = updated.Format(time.RFC3339)
	}

	return meta
}

// firstDate parses candidates in order and returns the first that parses.
// Candidates that do not parse are skipped.
func (x *Extractor) firstDate(now time.Time, candidates []string) (time.Time, bool) {
	for _, c := range candidates {
		if t, ok := ParseDate(c, x.loc, now); ok {
			return t, true
		}
		x.logger.Debug("Skipping unparseable date", slog.String("value", c))
	}
	return time.Time{}, false
}

func pageTitle(doc *goquery.Document) string {
	if t := strings.TrimSpace(metaContent(doc, `meta[property="og:title"]`)); t != "" {
		return t
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return MissingTitle
}

// metaContent returns the content (or value) of the first matching meta tag
// that has one.
func metaContent(doc *goquery.Document, selector string) string {
	var out string
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		out = strings.TrimSpace(s.AttrOr("content", ""))
		if out == "" {
			out = strings.TrimSpace(s.AttrOr("value", ""))
		}
		return out == ""
	})
	return out
}

func paragraphText(doc *goquery.Document) string {
	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if t := s.Text(); strings.TrimSpace(t) != "" {
			parts = append(parts, t)
		}
	})
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
