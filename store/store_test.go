package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/robertmeta/newswire/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore(t *testing.T) {
	// Test creating a new in-memory database
	s, err := New("", ":memory:")
	require.NoError(t, err)
	require.NotNil(t, s)
	defer s.Close()
	assert.Equal(t, DriverSQLite, s.driver)
}

func TestNewStore_UnknownDriver(t *testing.T) {
	_, err := New("mysql", "user@/db")
	assert.Error(t, err)
}

func TestStore_InsertAndGetBySlug(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	published := time.Date(2025, 9, 2, 12, 44, 59, 0, time.UTC)
	a := &model.Article{
		Title:       "Ağrı'da Öğrenci Sevinci",
		Content:     "Yeniden yazılmış içerik. Kaynak: https://example.com/haber/1",
		Image:       "https://example.com/1.jpg",
		Category:    "egitim",
		PublishedAt: published,
	}

	require.NoError(t, s.Insert(ctx, a))
	assert.NotZero(t, a.ID, "Article ID should be set after insert")
	assert.Equal(t, "agrida-ogrenci-sevinci", a.Slug)
	assert.False(t, a.CreatedAt.IsZero(), "CreatedAt is set on insert")

	got, err := s.GetBySlug(ctx, "agrida-ogrenci-sevinci")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, a.Title, got.Title)
	assert.Equal(t, a.Content, got.Content)
	assert.Equal(t, a.Image, got.Image)
	assert.Equal(t, "egitim", got.Category)
	assert.True(t, published.Equal(got.PublishedAt))
	assert.Equal(t, a.CreatedAt.Unix(), got.CreatedAt.Unix())
}

func TestStore_GetBySlug_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrArticleNotFound)
}

func TestStore_Insert_Validation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, s.Insert(ctx, &model.Article{Title: "no content"}))
	assert.Error(t, s.Insert(ctx, &model.Article{Content: "no title"}))
	assert.Error(t, s.Insert(ctx, &model.Article{Title: "!!!", Content: "x"}), "title without slug characters")
}

func TestStore_Insert_DuplicateSlug(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, &model.Article{Title: "Aynı Başlık", Content: "a"}))

	err := s.Insert(ctx, &model.Article{Title: "aynı başlık!", Content: "b"})
	assert.ErrorIs(t, err, ErrArticleExists)
}

func TestStore_Exists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, &model.Article{
		Title:   "Mevcut Haber",
		Content: "Metin https://example.com/haber/42 sonu",
	}))

	tests := []struct {
		name  string
		title string
		link  string
		want  bool
	}{
		{"same title", "Mevcut Haber", "https://other/1", true},
		{"link mentioned in content", "Başka Başlık", "https://example.com/haber/42", true},
		{"unrelated", "Başka Başlık", "https://example.com/haber/43", false},
		{"empty link checks title only", "Başka Başlık", "", false},
		{"like wildcards are literal", "Başka Başlık", "%", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Exists(ctx, tt.title, tt.link)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_List(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		category := "spor"
		if i%2 == 1 {
			category = "ekonomi"
		}
		require.NoError(t, s.Insert(ctx, &model.Article{
			Title:       fmt.Sprintf("Haber %d", i),
			Content:     "içerik",
			Category:    category,
			PublishedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	all, total, err := s.List(ctx, ListOptions{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, all, 5)
	assert.Equal(t, "Haber 4", all[0].Title, "newest first")
	assert.Equal(t, "Haber 0", all[4].Title)

	page, total, err := s.List(ctx, ListOptions{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 5, total, "total ignores pagination")
	require.Len(t, page, 2)
	assert.Equal(t, "Haber 3", page[0].Title)
	assert.Equal(t, "Haber 2", page[1].Title)

	spor, total, err := s.List(ctx, ListOptions{Category: "spor"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, spor, 3)
	for _, a := range spor {
		assert.Equal(t, "spor", a.Category)
	}

	since := base.Add(3 * time.Hour).Unix()
	recent, total, err := s.List(ctx, ListOptions{SinceTime: &since})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, recent, 2)

	none, total, err := s.List(ctx, ListOptions{Category: "magazin"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	assert.Equal(t,
		"SELECT 1 FROM articles WHERE title = $1 OR content LIKE $2 LIMIT 1",
		pg.rebind("SELECT 1 FROM articles WHERE title = ? OR content LIKE ? LIMIT 1"))

	lite := &Store{driver: DriverSQLite}
	assert.Equal(t, "SELECT ?", lite.rebind("SELECT ?"))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\%b\_c\\d`, escapeLike(`a%b_c\d`))
}
