// Package webfetch загружает веб-страницы и извлекает из них читаемый текст.
//
// Это "тупой" клиент: GET с таймаутом и User-Agent, ограничение частоты
// запросов на хост, HTML → строки текста. Что делать с текстом, решает
// вызывающий (см. pkg/tools/std fetch_pilates_exercises).
package webfetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ilkoid/pilates-vision/pkg/config"
	"github.com/ilkoid/pilates-vision/pkg/utils"
	"golang.org/x/time/rate"
)

// HTTPClient интерфейс для выполнения HTTP запросов.
//
// Позволяет мокировать HTTP клиент в тестах.
// Стандартный *http.Client реализует этот интерфейс.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client загружает страницы и возвращает отфильтрованный текст.
type Client struct {
	httpClient    HTTPClient
	userAgent     string
	maxLines      int
	minLineLength int
	rateLimit     int // запросов в минуту на хост
	burst         int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter // host → limiter
}

// NewFromConfig создает клиент из конфигурации fetcher.
// Поля с нулевыми значениями используют FetcherConfig.GetDefaults().
func NewFromConfig(cfg config.FetcherConfig) *Client {
	cfg = cfg.GetDefaults()

	return &Client{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		userAgent:     cfg.UserAgent,
		maxLines:      cfg.MaxLines,
		minLineLength: cfg.MinLineLength,
		rateLimit:     cfg.RateLimit,
		burst:         cfg.BurstLimit,
		limiters:      make(map[string]*rate.Limiter),
	}
}

// WithHTTPClient подменяет HTTP клиент (для тестов).
func (c *Client) WithHTTPClient(hc HTTPClient) *Client {
	c.httpClient = hc
	return c
}

// FetchText загружает страницу и возвращает её текст: без script/style/noscript,
// только строки длиннее minLineLength, не более maxLines строк.
func (c *Client) FetchText(ctx context.Context, rawURL string) (string, error) {
	start := time.Now()

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid url %q", rawURL)
	}

	// Ждем разрешения от лимитера (блокирует горутину, если превысили лимит)
	if err := c.getOrCreateLimiter(u.Host).Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%d %s for url: %s", resp.StatusCode, http.StatusText(resp.StatusCode), rawURL)
	}

	text, err := ExtractText(resp.Body, c.maxLines, c.minLineLength)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	utils.Debug("Page fetched",
		"url", rawURL,
		"status", resp.StatusCode,
		"text_length", len(text),
		"duration_ms", time.Since(start).Milliseconds())

	return text, nil
}

// getOrCreateLimiter возвращает limiter для хоста.
func (c *Client) getOrCreateLimiter(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if limiter, exists := c.limiters[host]; exists {
		return limiter
	}

	// rateLimit в запросах/минуту → rate.Limit в запросах/секунду
	limiter := rate.NewLimiter(rate.Limit(float64(c.rateLimit)/60.0), c.burst)
	c.limiters[host] = limiter
	return limiter
}
