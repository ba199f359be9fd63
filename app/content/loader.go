package content

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const maxPayloadBytes = 8 << 20

type Loader struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	timeout    time.Duration
}

func NewLoader(httpClient *http.Client, baseURL, userAgent string, timeout time.Duration) *Loader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Loader{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// Fetch GETs a resource from the content origin, bypassing caches.
func (l *Loader) Fetch(ctx context.Context, path string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", l.Resolve(path), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// LoadCollection never fails: on any error the returned collection is
// empty and carries the error.
func (l *Loader) LoadCollection(ctx context.Context, name, path string) Collection {
	collection := Collection{Name: name, Items: []RawItem{}}

	data, err := l.Fetch(ctx, path)
	if err != nil {
		slog.Warn("Collection fetch failed", "collection", name, "path", path, "error", err)
		collection.Err = err
		return collection
	}

	items, err := Decode(data, name)
	if err != nil {
		slog.Warn("Collection decode failed", "collection", name, "path", path, "error", err)
		collection.Err = err
		return collection
	}

	collection.Items = items
	slog.Debug("Collection loaded", "collection", name, "items", len(items))
	return collection
}

// Source is a collection and the origin path it is fetched from.
type Source struct {
	Name string
	Path string
}

// DefaultSource is the Source for a well-known collection.
func DefaultSource(name string) Source {
	return Source{Name: name, Path: DefaultSources[name]}
}

// LoadAll fetches every source concurrently and waits for all of them.
// Results are keyed by path; a path listed twice is fetched once.
func (l *Loader) LoadAll(ctx context.Context, sources []Source) map[string]Collection {
	results := make(map[string]Collection, len(sources))
	seen := make(map[string]bool, len(sources))
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	for _, src := range sources {
		if seen[src.Path] {
			continue
		}
		seen[src.Path] = true

		eg.Go(func() error {
			collection := l.LoadCollection(egCtx, src.Name, src.Path)
			mu.Lock()
			results[src.Path] = collection
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	return results
}

// FetchFragment loads an HTML partial. ok is false when it is unavailable.
func (l *Loader) FetchFragment(ctx context.Context, path string) (string, bool) {
	data, err := l.Fetch(ctx, path)
	if err != nil {
		slog.Debug("Fragment unavailable", "path", path, "error", err)
		return "", false
	}
	return string(data), true
}

func (l *Loader) Resolve(path string) string {
	if IsExternal(path) || l.baseURL == "" {
		return path
	}
	return l.baseURL + "/" + strings.TrimLeft(path, "/")
}
