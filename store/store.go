// Package store persists rewritten articles in SQLite or PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robertmeta/newswire/model"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

var (
	// ErrArticleNotFound is returned when no article matches a lookup.
	ErrArticleNotFound = errors.New("article not found")

	// ErrArticleExists is returned when an article with the same slug is stored.
	ErrArticleExists = errors.New("article already exists")
)

// Store manages the article database.
type Store struct {
	db     *sql.DB
	driver string
}

// New opens the database behind dsn with driver and creates the schema.
// Use ":memory:" with DriverSQLite for an in-memory database (useful for testing).
func New(driver, dsn string) (*Store, error) {
	switch driver {
	case "", "sqlite3":
		driver = DriverSQLite
	case "postgres", "postgresql":
		driver = DriverPostgres
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite && strings.Contains(dsn, ":memory:") {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, driver: driver}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.createSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createSchema creates the articles table and its indexes.
func (s *Store) createSchema(ctx context.Context) error {
	id := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.driver == DriverPostgres {
		id = "id BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS articles (
		` + id + `,
		title TEXT NOT NULL,
		slug TEXT UNIQUE NOT NULL,
		content TEXT NOT NULL,
		image TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		published_at BIGINT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Exists reports whether an article with title is stored, or one whose content
// mentions link. An empty link only checks the title.
func (s *Store) Exists(ctx context.Context, title, link string) (bool, error) {
	query := "SELECT 1 FROM articles WHERE title = ?"
	args := []any{title}

	if link != "" {
		query += ` OR content LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(link)+"%")
	}
	query += " LIMIT 1"

	var one int
	err := s.db.QueryRowContext(ctx, s.rebind(query), args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check article: %w", err)
	}
	return true, nil
}

// Insert stores a new article and sets its ID. A missing slug is derived from
// the title and a zero CreatedAt is set to now.
func (s *Store) Insert(ctx context.Context, a *model.Article) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.Slug == "" {
		a.Slug = Slugify(a.Title)
	}
	if a.Slug == "" {
		return errors.New("title yields an empty slug")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	if a.PublishedAt.IsZero() {
		a.PublishedAt = a.CreatedAt
	}

	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO articles (title, slug, content, image, category, published_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		a.Title, a.Slug, a.Content, a.Image, a.Category, a.PublishedAt.Unix(), a.CreatedAt.Unix(),
	).Scan(&a.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrArticleExists, a.Slug)
	}
	if err != nil {
		return fmt.Errorf("failed to insert article: %w", err)
	}
	return nil
}

// List returns a page of articles, newest first, and the number of articles
// matching opts before pagination.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]model.Article, int, error) {
	where := " WHERE 1=1"
	args := []any{}

	if opts.Category != "" {
		where += " AND category = ?"
		args = append(args, opts.Category)
	}
	if opts.SinceTime != nil {
		where += " AND published_at >= ?"
		args = append(args, *opts.SinceTime)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM articles"+where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count articles: %w", err)
	}

	query := "SELECT id, title, slug, content, image, category, published_at, created_at FROM articles" +
		where + " ORDER BY published_at DESC, id DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, max(opts.Offset, 0))

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	articles := []model.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, *a)
	}

	return articles, total, rows.Err()
}

// GetBySlug retrieves an article by slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*model.Article, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		"SELECT id, title, slug, content, image, category, published_at, created_at FROM articles WHERE slug = ?"),
		slug,
	)

	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return a, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(row scanner) (*model.Article, error) {
	a := &model.Article{}
	var publishedUnix, createdUnix int64

	err := row.Scan(&a.ID, &a.Title, &a.Slug, &a.Content, &a.Image, &a.Category, &publishedUnix, &createdUnix)
	if err != nil {
		return nil, err
	}

	a.PublishedAt = unixToTime(publishedUnix)
	a.CreatedAt = unixToTime(createdUnix)
	return a, nil
}

// rebind rewrites ? placeholders into the $n form PostgreSQL expects.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT:
			// the primary code is reported when extended codes are off
			return true
		}
	}
	return false
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Helper to convert Unix timestamp to time.Time
func unixToTime(unix int64) time.Time {
	return time.Unix(unix, 0).UTC()
}
