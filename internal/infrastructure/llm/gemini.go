package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"newspipe/internal/config"
	"newspipe/internal/domain"
	"newspipe/internal/ports"
)

// GeminiClient talks to the Gemini generateContent API for article grouping
// and translation.
type GeminiClient struct {
	endpoint       string
	model          string
	apiKey         string
	targetLanguage string
	httpClient     *http.Client
	logger         *slog.Logger

	maxAttempts int
	baseDelay   time.Duration
}

var _ ports.Grouper = (*GeminiClient)(nil)
var _ ports.Translator = (*GeminiClient)(nil)

// NewGeminiClient builds a client from configuration.
func NewGeminiClient(cfg config.GeminiConfig, logger *slog.Logger) *GeminiClient {
	return &GeminiClient{
		endpoint:       strings.TrimSuffix(cfg.Endpoint, "/"),
		model:          cfg.Model,
		apiKey:         cfg.APIKey,
		targetLanguage: cfg.TargetLanguage,
		httpClient:     &http.Client{Timeout: 120 * time.Second},
		logger:         logger,
		maxAttempts:    3,
		baseDelay:      5 * time.Second,
	}
}

// GroupArticles asks the model to partition the feed items into groups of
// related stories. Without an API key every article becomes its own group.
// The model answers with feed-snapshot indices; these are remapped to raw
// article IDs and each group inherits its first member's thumbnail.
func (c *GeminiClient) GroupArticles(ctx context.Context, items []domain.FeedItem) ([]domain.Group, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("no articles to group")
	}

	if c.apiKey == "" {
		c.log("no API key configured, grouping each article individually")
		return fallbackGroups(items), nil
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal grouping payload: %w", err)
	}

	text, err := c.generate(ctx, promptGroupArticles+string(payload))
	if err != nil {
		return nil, fmt.Errorf("grouping call: %w", err)
	}

	var raw []struct {
		Title string `json:"title"`
		IDs   []any  `json:"id"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &raw); err != nil {
		return nil, fmt.Errorf("parse grouping response: %w", err)
	}

	byIndex := make(map[int]domain.FeedItem, len(items))
	for _, item := range items {
		byIndex[item.Index] = item
	}

	groups := make([]domain.Group, 0, len(raw))
	for _, g := range raw {
		group := domain.Group{Title: g.Title}
		for _, id := range g.IDs {
			switch v := id.(type) {
			case float64:
				item, ok := byIndex[int(v)]
				if !ok {
					continue
				}
				group.IDs = append(group.IDs, item.RawID)
				if group.Thumbnail == "" {
					group.Thumbnail = item.Thumbnail
				}
			case string:
				group.IDs = append(group.IDs, v)
			}
		}
		if len(group.IDs) > 0 {
			groups = append(groups, group)
		}
	}

	if len(groups) == 0 {
		return nil, fmt.Errorf("grouping response contained no usable groups")
	}
	return groups, nil
}

// Translate translates one Markdown document. A leading thumbnail line of
// the form ![](url) is lifted out before the call and carried through on the
// result.
func (c *GeminiClient) Translate(ctx context.Context, markdown string) (domain.Translation, error) {
	if c.apiKey == "" {
		return domain.Translation{}, fmt.Errorf("translation requires an API key")
	}

	thumbnail, body := liftThumbnail(markdown)

	prompt := fmt.Sprintf(promptTranslateArticle, c.targetLanguage) + body
	text, err := c.generate(ctx, prompt)
	if err != nil {
		return domain.Translation{}, fmt.Errorf("translation call: %w", err)
	}

	var result domain.Translation
	if err := json.Unmarshal([]byte(extractJSON(text)), &result); err != nil {
		return domain.Translation{}, fmt.Errorf("parse translation response: %w", err)
	}
	result.Thumbnail = thumbnail
	return result, nil
}

// generate posts one prompt and returns the first candidate's text, retrying
// transient failures with a doubling delay.
func (c *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.endpoint, c.model)

	var lastErr error
	delay := c.baseDelay
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			c.log("retrying Gemini call", "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			delay *= 2
		}

		text, err := c.post(ctx, url, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("gemini call failed after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *GeminiClient) post(ctx context.Context, url string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("gemini error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from model")
	}

	text := strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

func (c *GeminiClient) log(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

// fallbackGroups keeps every article in its own group.
func fallbackGroups(items []domain.FeedItem) []domain.Group {
	groups := make([]domain.Group, 0, len(items))
	for _, item := range items {
		groups = append(groups, domain.Group{
			Title:     item.Title,
			IDs:       []string{item.RawID},
			Thumbnail: item.Thumbnail,
		})
	}
	return groups
}

// extractJSON pulls a JSON document out of a possibly fenced model answer.
func extractJSON(text string) string {
	if idx := strings.Index(text, "```json"); idx >= 0 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+len("```"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}
	return strings.TrimSpace(text)
}

// liftThumbnail splits a leading ![](url) line off the Markdown body.
func liftThumbnail(markdown string) (string, string) {
	lines := strings.Split(markdown, "\n")
	if len(lines) == 0 {
		return "", markdown
	}

	first := strings.TrimSpace(lines[0])
	if strings.HasPrefix(first, "![](") && strings.HasSuffix(first, ")") {
		url := strings.TrimSuffix(strings.TrimPrefix(first, "![]("), ")")
		return url, strings.Join(lines[1:], "\n")
	}
	return "", markdown
}
