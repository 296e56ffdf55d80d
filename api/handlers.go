package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robertmeta/newswire/aggregate"
	"github.com/robertmeta/newswire/extract"
	"github.com/robertmeta/newswire/model"
	"github.com/robertmeta/newswire/registry"
	"github.com/robertmeta/newswire/store"
)

type rewriteRequest struct {
	Text string `json:"text"`
}

type rewriteResponse struct {
	Title     string `json:"title_ai"`
	Rewritten string `json:"rewritten"`
	Category  string `json:"category"`
}

type saveRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Image       string `json:"image"`
	PublishedAt string `json:"published_at"`
	Category    string `json:"category"`
}

// articleView renders stored times in the display location.
type articleView struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Content     string `json:"content"`
	Image       string `json:"image"`
	Category    string `json:"category"`
	PublishedAt string `json:"published_at"`
	CreatedAt   string `json:"created_at"`
}

func (s *Server) view(a *model.Article) articleView {
	return articleView{
		ID:          a.ID,
		Title:       a.Title,
		Slug:        a.Slug,
		Content:     a.Content,
		Image:       a.Image,
		Category:    a.Category,
		PublishedAt: a.PublishedAt.In(s.loc).Format(time.RFC3339),
		CreatedAt:   a.CreatedAt.In(s.loc).Format(time.RFC3339),
	}
}

func unavailable(c *gin.Context, what string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": what + " is not configured"})
}

// rss serves the aggregated feed of a category.
// The window parameter overrides the category's recency window.
func (s *Server) rss(c *gin.Context) {
	if s.feeds == nil {
		unavailable(c, "aggregation")
		return
	}

	window := aggregate.UseRegistryWindow
	if raw := c.Query("window"); raw != "" {
		w, err := registry.ParseWindow(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		window = w
	}

	res := s.feeds.Recent(c.Request.Context(), c.DefaultQuery("category", "all"), window)
	c.JSON(http.StatusOK, gin.H{
		"origin":   s.origin,
		"category": res.Category,
		"window":   registry.FormatWindow(res.Window),
		"total":    len(res.Items),
		"news":     res.Items,
	})
}

func (s *Server) parse(c *gin.Context) {
	url := strings.TrimSpace(c.Query("url"))
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url parameter is required"})
		return
	}
	if s.pages == nil {
		unavailable(c, "page extraction")
		return
	}

	meta, err := s.pages.Extract(c.Request.Context(), url)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (s *Server) rewrite(c *gin.Context) {
	var req rewriteRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text parameter is required"})
		return
	}
	if s.rewriter == nil {
		unavailable(c, "rewrite service")
		return
	}

	rw, err := s.rewriter.Rewrite(c.Request.Context(), req.Text)
	if err != nil {
		s.logger.Warn("Rewrite request failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rewriteResponse{Title: rw.Title, Rewritten: rw.Body, Category: rw.Category})
}

func (s *Server) save(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "title and content are required"})
		return
	}
	if s.articles == nil {
		unavailable(c, "article store")
		return
	}

	now := s.now()
	published := now
	if req.PublishedAt != "" {
		if t, ok := extract.ParseDate(req.PublishedAt, s.loc, now); ok {
			published = t
		}
	}

	article := &model.Article{
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		Image:       req.Image,
		Category:    req.Category,
		PublishedAt: published,
		CreatedAt:   now,
	}

	err := s.articles.Insert(c.Request.Context(), article)
	if errors.Is(err, store.ErrArticleExists) {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "article saved", "slug": article.Slug, "id": article.ID})
}

func (s *Server) listNews(c *gin.Context) {
	if s.articles == nil {
		unavailable(c, "article store")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(store.DefaultListLimit)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "limit must be a number"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "offset must be a number"})
		return
	}

	opts, err := store.BuildListOptions(limit, offset, c.DefaultQuery("category", "all"), c.Query("since"), s.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	articles, total, err := s.articles.List(c.Request.Context(), opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	news := make([]articleView, 0, len(articles))
	for i := range articles {
		news = append(news, s.view(&articles[i]))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "news": news, "total": total})
}

func (s *Server) newsBySlug(c *gin.Context) {
	if s.articles == nil {
		unavailable(c, "article store")
		return
	}

	a, err := s.articles.GetBySlug(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, store.ErrArticleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "article not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "news": s.view(a)})
}

// cron runs the pipeline once for a category and reports the outcome.
func (s *Server) cron(c *gin.Context) {
	if s.pipeline == nil {
		unavailable(c, "pipeline")
		return
	}

	category := c.DefaultQuery("category", "all")
	report, err := s.pipeline.Run(c.Request.Context(), category)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error(), "report": report})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "category": report.Category, "report": report})
}
