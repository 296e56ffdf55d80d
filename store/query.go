package store

import (
	"fmt"
	"time"

	"github.com/robertmeta/newswire/registry"
)

// List paging bounds.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ListOptions specifies how to list articles.
type ListOptions struct {
	Limit     int
	Offset    int
	Category  string // empty lists every category
	SinceTime *int64 // Unix timestamp
}

// BuildListOptions constructs ListOptions from request or CLI parameters.
// The category "all" lists every category. since is a window such as "7d" or
// "6h" measured back from now.
func BuildListOptions(limit, offset int, category, since string, now time.Time) (ListOptions, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		return ListOptions{}, fmt.Errorf("offset must not be negative: %d", offset)
	}
	if category == "all" {
		category = ""
	}

	opts := ListOptions{
		Limit:    limit,
		Offset:   offset,
		Category: category,
	}

	// Parse since window if provided
	if since != "" {
		window, err := registry.ParseWindow(since)
		if err != nil {
			return opts, fmt.Errorf("failed to parse since: %w", err)
		}
		if window > 0 {
			sinceUnix := now.Add(-window).Unix()
			opts.SinceTime = &sinceUnix
		}
	}

	return opts, nil
}
