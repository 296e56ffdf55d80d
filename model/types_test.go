package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSource_Validation(t *testing.T) {
	tests := []struct {
		name    string
		source  Source
		wantErr bool
	}{
		{
			name:   "valid source",
			source: Source{ID: "ntv", URL: "https://example.com/rss"},
		},
		{
			name:    "missing URL",
			source:  Source{ID: "ntv"},
			wantErr: true,
		},
		{
			name:    "missing id",
			source:  Source{URL: "https://example.com/rss"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.source.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestArticle_Validation(t *testing.T) {
	tests := []struct {
		name    string
		article Article
		wantErr bool
	}{
		{"valid article", Article{Title: "Başlık", Content: "Gövde"}, false},
		{"missing title", Article{Content: "Gövde"}, true},
		{"missing content", Article{Title: "Başlık"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.article.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFeedItem_Key(t *testing.T) {
	a := FeedItem{Link: "https://example.com/a", Title: "A"}
	b := FeedItem{Link: "https://example.com/a", Title: "A", Source: "other"}
	c := FeedItem{Link: "https://example.com/a", Title: "A (updated)"}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestFeedItem_Age(t *testing.T) {
	now := time.Date(2025, 9, 2, 12, 0, 0, 0, time.UTC)
	item := FeedItem{PublishedAtMillis: now.Add(-90 * time.Minute).UnixMilli()}

	assert.Equal(t, 90*time.Minute, item.Age(now))
}

func TestRewrite_Empty(t *testing.T) {
	var missing *Rewrite
	assert.True(t, missing.Empty())
	assert.True(t, (&Rewrite{Category: "spor"}).Empty())
	assert.True(t, (&Rewrite{Title: "  ", Body: "\n"}).Empty())
	assert.False(t, (&Rewrite{Title: "Başlık"}).Empty())
	assert.False(t, (&Rewrite{Body: "Metin"}).Empty())
}
