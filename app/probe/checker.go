package probe

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// HTTPChecker probes existence with HEAD requests against the content
// origin, bypassing caches.
type HTTPChecker struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	timeout    time.Duration
}

func NewHTTPChecker(httpClient *http.Client, baseURL, userAgent string, timeout time.Duration) *HTTPChecker {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPChecker{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

func (c *HTTPChecker) Exists(ctx context.Context, url string) bool {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodHead, c.baseURL+url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("Probe request failed", "url", url, "error", err)
		return false
	}
	resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}
