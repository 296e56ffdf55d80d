// Package rewrite talks to an OpenAI compatible chat completions service that
// rewrites a news text and classifies it.
package rewrite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/robertmeta/newswire/model"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 60 * time.Second

	maxResponseBytes = 4 << 20
)

// Categories is the taxonomy the service is asked to classify into.
var Categories = []string{
	"spor", "siyaset", "gündem", "ekonomi", "dünya",
	"magazin", "sağlık", "teknoloji", "eğitim", "kültür-sanat",
}

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("rewrite service is not configured")

	// ErrMalformedResponse is returned when the service answer is not the
	// expected JSON object.
	ErrMalformedResponse = errors.New("malformed rewrite response")
)

var systemPrompt = "Sen deneyimli bir haber editörüsün. " +
	"Haberi yeniden yazarken resmi bir haber dili kullan. " +
	"Olayları detaylandır, bağlam ekle, haberi uzat ve anlaşılır kıl. " +
	"Reklam, yönlendirme, kaynak ismi veya link kullanma. " +
	"Sadece haberin kendisine odaklan. " +
	"Son cümlede haberi özetleyici güçlü bir ifade ekle. " +
	"Ayrıca haberi sınıflandır: " + quoteList(Categories) + ". " +
	`Sonucu JSON formatında döndür: {"title": ..., "body": ..., "category": ...}`

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client calls the rewrite service.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another OpenAI compatible endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithModel selects the model.
func WithModel(m string) Option {
	return func(c *Client) {
		if m != "" {
			c.model = m
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client authenticating with apiKey.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rewrite sends text to the service and returns its rewritten title, body and
// category. Fields the service leaves out are returned empty, but an answer
// without both a title and a body is ErrMalformedResponse.
func (c *Client) Rewrite(ctx context.Context, text string) (*model.Rewrite, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text is required")
	}

	content, err := c.complete(ctx, text)
	if err != nil {
		return nil, err
	}

	var out *model.Rewrite
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		c.logger.Warn("Rewrite service returned invalid JSON", slog.String("raw", truncate(content, 200)))
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: null object", ErrMalformedResponse)
	}

	out.Title = strings.TrimSpace(out.Title)
	out.Body = strings.TrimSpace(out.Body)
	out.Category = strings.TrimSpace(out.Category)
	if out.Empty() {
		c.logger.Warn("Rewrite service returned no title or body", slog.String("raw", truncate(content, 200)))
		return nil, fmt.Errorf("%w: no title or body", ErrMalformedResponse)
	}
	return out, nil
}

func (c *Client) complete(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call rewrite service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read rewrite response: %w", err)
	}

	var parsed chatResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			return "", fmt.Errorf("rewrite service returned status %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("rewrite service returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedResponse, decodeErr)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}

	c.logger.Debug("Rewrite completed",
		slog.String("model", c.model),
		slog.Duration("took", time.Since(start)))

	return parsed.Choices[0].Message.Content, nil
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return strings.Join(quoted, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
