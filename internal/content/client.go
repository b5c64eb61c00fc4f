// Package content talks to the external media-scraping service that supplies
// quiz items. The service is slow and flaky by nature; callers treat every
// failure here as skippable.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/AtharAdista/garuda-hacks-6-BE/internal"
)

const DefaultTimeout = 45 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchItem requests one quiz item. seq is only used for logging; the
// service hands out a fresh item per call. A timeout counts as an ordinary
// per-item failure.
func (c *Client) FetchItem(ctx context.Context, seq int) (internal.ContentItem, error) {
	var item internal.ContentItem

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/scrape/cultural-media", nil)
	if err != nil {
		return item, fmt.Errorf("building content request %d: %w", seq, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return item, fmt.Errorf("content call %d: %w", seq, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return item, fmt.Errorf("content call %d: service returned %d: %s", seq, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return item, fmt.Errorf("content call %d: decoding response: %w", seq, err)
	}

	if err := validateItem(item); err != nil {
		return internal.ContentItem{}, fmt.Errorf("content call %d: %w", seq, err)
	}

	// The contextual note falls back to the originating query when the
	// service omits it.
	if item.CulturalContext == "" {
		item.CulturalContext = item.Query
	}

	log.Printf("[FetchItem] call %d completed: %s - %s", seq, item.Province, item.CulturalCategory)
	return item, nil
}

func validateItem(item internal.ContentItem) error {
	missing := []string{}
	if item.Province == "" {
		missing = append(missing, "province")
	}
	if item.MediaType == "" {
		missing = append(missing, "media_type")
	}
	if item.MediaURL == "" {
		missing = append(missing, "media_url")
	}
	if item.CulturalCategory == "" {
		missing = append(missing, "cultural_category")
	}
	if len(missing) > 0 {
		return fmt.Errorf("incomplete item, missing %v", missing)
	}
	return nil
}
