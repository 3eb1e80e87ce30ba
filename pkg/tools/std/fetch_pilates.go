package std

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ilkoid/pilates-vision/pkg/config"
	"github.com/ilkoid/pilates-vision/pkg/tools"
	"github.com/ilkoid/pilates-vision/pkg/utils"
)

// FetchPilatesToolName — имя инструмента в Function Calling API.
const FetchPilatesToolName = "fetch_pilates_exercises"

// truncationMarker дописывается к тексту, превысившему лимит.
const truncationMarker = "\n\n[truncated]"

// PageFetcher загружает страницу и возвращает её текст.
// Реализуется webfetch.Client.
type PageFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// --- Tool: fetch_pilates_exercises ---
// Загружает справочные страницы с упражнениями пилатеса. Ошибка одной
// страницы встраивается в текст и не прерывает остальные.

type FetchPilatesTool struct {
	fetcher     PageFetcher
	defaultURLs []string
	maxChars    int
}

// NewFetchPilatesTool создаёт инструмент. Нулевые поля cfg заменяются дефолтами.
func NewFetchPilatesTool(fetcher PageFetcher, cfg config.FetcherConfig) *FetchPilatesTool {
	cfg = cfg.GetDefaults()
	return &FetchPilatesTool{
		fetcher:     fetcher,
		defaultURLs: cfg.URLs,
		maxChars:    cfg.MaxChars,
	}
}

func (t *FetchPilatesTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        FetchPilatesToolName,
		Description: "Fetches and summarizes Pilates exercises from curated web URLs.",
		Parameters: tools.JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"urls": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Optional list of URLs to scrape. If omitted, default URLs are used.",
				},
			},
			"required":             []string{},
			"additionalProperties": false,
		},
	}
}

func (t *FetchPilatesTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var args struct {
		URLs []string `json:"urls"`
	}
	if strings.TrimSpace(argsJSON) != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}
	}

	targets := args.URLs
	if len(targets) == 0 {
		targets = t.defaultURLs
	}
	if len(targets) == 0 {
		return "No URLs provided.", nil
	}

	start := time.Now()
	chunks := make([]string, 0, len(targets))
	failed := 0

	for _, url := range targets {
		content, err := t.fetcher.FetchText(ctx, url)
		if err != nil {
			failed++
			utils.Warn("Reference page fetch failed", "url", url, "error", err)
			chunks = append(chunks, fmt.Sprintf("Source: %s\nError fetching content: %v", url, err))
			continue
		}
		chunks = append(chunks, fmt.Sprintf("Source: %s\n%s", url, content))
	}

	combined := strings.Join(chunks, "\n\n")
	if utf8.RuneCountInString(combined) > t.maxChars {
		combined = utils.Preview(combined, t.maxChars) + truncationMarker
	}

	utils.Info("Reference pages fetched",
		"urls", len(targets),
		"failed", failed,
		"result_length", len(combined),
		"duration_ms", time.Since(start).Milliseconds())

	return combined, nil
}
