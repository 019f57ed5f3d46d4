package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

type HTTPGetter struct {
	client    *http.Client
	userAgent string
}

func NewHTTPGetter(userAgent string, timeout time.Duration) *HTTPGetter {
	return &HTTPGetter{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

func (g *HTTPGetter) GetPage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %d for %s", ErrBadStatus, resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body of %s: %w", url, err)
	}

	return string(body), nil
}
