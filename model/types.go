// Package model defines the core data structures for newswire.
package model

import (
	"errors"
	"strings"
	"time"
)

// Source is one outlet feed inside a category of the source registry.
type Source struct {
	ID    string `json:"id" yaml:"-"`
	URL   string `json:"url" yaml:"url"`
	Logo  string `json:"logo,omitempty" yaml:"logo,omitempty"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

// Validate checks if the source has required fields.
func (s *Source) Validate() error {
	if s.ID == "" {
		return errors.New("source id is required")
	}
	if s.URL == "" {
		return errors.New("source URL is required")
	}
	return nil
}

// FeedItem is one normalized news entry produced by the fetcher.
type FeedItem struct {
	Source            string    `json:"source"`
	SourceLogo        string    `json:"source_logo,omitempty"`
	SourceColor       string    `json:"source_color,omitempty"`
	Title             string    `json:"title"`
	Link              string    `json:"link"`
	RawPubDate        string    `json:"pubDate"`
	PublishedAt       time.Time `json:"published_at"`
	PublishedAtMillis int64     `json:"published_at_ms"`
	DateSource        string    `json:"date_source,omitempty"`
	Description       string    `json:"description"`
	Image             string    `json:"image,omitempty"`
}

// Key returns the deduplication key of the item.
func (i *FeedItem) Key() [2]string {
	return [2]string{i.Link, i.Title}
}

// Age returns how long ago the item was published.
func (i *FeedItem) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(i.PublishedAtMillis))
}

// PageMetadata is the result of extracting a single article page.
type PageMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
	FullText    string `json:"fullText"`
}

// Rewrite is the structured output of the generative rewrite service.
type Rewrite struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Category string `json:"category"`
}

// Empty reports whether the rewrite carries neither a title nor a body.
func (r *Rewrite) Empty() bool {
	return r == nil || (strings.TrimSpace(r.Title) == "" && strings.TrimSpace(r.Body) == "")
}

// Article is a persisted, rewritten news article.
type Article struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Content     string    `json:"content"`
	Image       string    `json:"image,omitempty"`
	Category    string    `json:"category"`
	PublishedAt time.Time `json:"published_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks if the article has required fields.
func (a *Article) Validate() error {
	if a.Title == "" || a.Content == "" {
		return errors.New("title and content are required")
	}
	return nil
}
