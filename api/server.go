// Package api exposes aggregation, extraction and the article store over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robertmeta/newswire/aggregate"
	"github.com/robertmeta/newswire/model"
	"github.com/robertmeta/newswire/pipeline"
	"github.com/robertmeta/newswire/store"
)

// Feeds aggregates categories.
type Feeds interface {
	Recent(ctx context.Context, category string, window time.Duration) aggregate.Result
}

// Pages extracts single article pages.
type Pages interface {
	Extract(ctx context.Context, url string) (*model.PageMetadata, error)
}

// Rewriter rewrites news texts.
type Rewriter interface {
	Rewrite(ctx context.Context, text string) (*model.Rewrite, error)
}

// Articles is the article store.
type Articles interface {
	Insert(ctx context.Context, a *model.Article) error
	List(ctx context.Context, opts store.ListOptions) ([]model.Article, int, error)
	GetBySlug(ctx context.Context, slug string) (*model.Article, error)
}

// Pipeline runs the rewrite and persist pipeline once.
type Pipeline interface {
	Run(ctx context.Context, category string) (*pipeline.Report, error)
}

// Options wires a Server. Nil components disable their endpoints with 503.
type Options struct {
	Feeds    Feeds
	Pages    Pages
	Rewriter Rewriter
	Articles Articles
	Pipeline Pipeline

	// Origin is reported by /rss to tell deployments apart.
	Origin   string
	Location *time.Location
	Logger   *slog.Logger
	Now      func() time.Time
}

// Server handles the HTTP API.
type Server struct {
	feeds    Feeds
	pages    Pages
	rewriter Rewriter
	articles Articles
	pipeline Pipeline

	origin string
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time
}

// NewServer creates a Server.
func NewServer(opts Options) *Server {
	s := &Server{
		feeds:    opts.Feeds,
		pages:    opts.Pages,
		rewriter: opts.Rewriter,
		articles: opts.Articles,
		pipeline: opts.Pipeline,
		origin:   opts.Origin,
		loc:      opts.Location,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if s.origin == "" {
		s.origin = "local"
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Handler returns a gin engine with middleware and every route registered.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger), cors())
	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers the API routes on r.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	r.GET("/rss", s.rss)
	r.GET("/parse", s.parse)
	r.POST("/rewrite", s.rewrite)

	r.POST("/save", s.save)
	r.GET("/news", s.listNews)
	r.GET("/news/slug/:slug", s.newsBySlug)

	r.GET("/cron", s.cron)
}

// ListenAndServe serves the API on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
