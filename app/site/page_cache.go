package site

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/lysyi3m/edgeboard/app/probe"
	"gopkg.in/yaml.v3"
)

var mountNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

type PageCache struct {
	pagesDir string
	cache    map[string]*Page
	routes   map[string]string // normalized route -> page name
	mu       sync.RWMutex
}

func NewPageCache(pagesDir string) *PageCache {
	return &PageCache{
		pagesDir: pagesDir,
		cache:    make(map[string]*Page),
		routes:   make(map[string]string),
	}
}

// Run rebuilds the cache from the default pages overlaid with every
// definition in the pages directory. On error the previous pages are kept.
func (pc *PageCache) Run() error {
	pages := DefaultPages()
	loaded := make(map[string]string) // route -> page name

	if _, err := os.Stat(pc.pagesDir); err == nil {
		files, err := filepath.Glob(filepath.Join(pc.pagesDir, "*.yml"))
		if err != nil {
			return fmt.Errorf("failed to find YML files: %w", err)
		}

		for _, file := range files {
			// Derive page name from filename (remove .yml extension)
			pageName := strings.TrimSuffix(filepath.Base(file), ".yml")

			page, err := pc.loadPage(pageName)
			if err != nil {
				return fmt.Errorf("error loading %s: %w", file, err)
			}
			if other, ok := loaded[NormalizeRoute(page.Route)]; ok {
				return fmt.Errorf("pages %s and %s share route %s", other, pageName, page.Route)
			}
			loaded[NormalizeRoute(page.Route)] = pageName
			pages[pageName] = page

			slog.Debug("Page loaded", "page", pageName, "route", page.Route, "mounts", len(page.Mounts))
		}
	}

	// A definition on disk takes over the route of a default page.
	routes := make(map[string]string, len(pages))
	for name, page := range pages {
		route := NormalizeRoute(page.Route)
		if owner, ok := loaded[route]; ok && owner != name {
			delete(pages, name)
			slog.Debug("Default page replaced", "page", name, "route", route, "by", owner)
			continue
		}
		routes[route] = name
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.cache = pages
	pc.routes = routes

	return nil
}

// LoadPage re-reads one definition after it changed on disk. The whole cache
// is rebuilt so the reloaded page goes through the same route checks as a
// full reload; on error the previous pages are kept.
func (pc *PageCache) LoadPage(pageName string) (*Page, error) {
	if _, err := pc.loadPage(pageName); err != nil {
		return nil, err
	}

	if err := pc.Run(); err != nil {
		return nil, err
	}

	return pc.GetPage(pageName)
}

func (pc *PageCache) loadPage(pageName string) (*Page, error) {
	pageFile := pc.getPageFilePath(pageName)
	page, err := pc.parsePage(pageFile)
	if err != nil {
		return nil, err
	}

	page.Name = pageName

	if err := pc.validatePage(page); err != nil {
		return nil, fmt.Errorf("invalid page %s: %w", pageFile, err)
	}

	return page, nil
}

func (pc *PageCache) Dir() string {
	return pc.pagesDir
}

func (pc *PageCache) GetPage(pageName string) (*Page, error) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	page, ok := pc.cache[pageName]
	if !ok {
		return nil, fmt.Errorf("page '%s': %w", pageName, ErrPageNotFound)
	}
	return page, nil
}

// GetPageByRoute finds the page served at a request path. "/work",
// "/work/" and "/work/index.html" all resolve to the same route.
func (pc *PageCache) GetPageByRoute(route string) (*Page, error) {
	route = NormalizeRoute(route)

	pc.mu.RLock()
	defer pc.mu.RUnlock()

	if page, ok := pc.cache[pc.routes[route]]; ok {
		return page, nil
	}
	return nil, fmt.Errorf("route '%s': %w", route, ErrPageNotFound)
}

func (pc *PageCache) GetPages() map[string]*Page {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	pagesCopy := make(map[string]*Page, len(pc.cache))
	for k, v := range pc.cache {
		pagesCopy[k] = v
	}
	return pagesCopy
}

func (pc *PageCache) GetPageCount() int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return len(pc.cache)
}

func (pc *PageCache) parsePage(pageFile string) (*Page, error) {
	data, err := os.ReadFile(pageFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var page Page
	if err := yaml.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if page.Partials == nil {
		page.Partials = defaultPartials
	}
	for i := range page.Mounts {
		if page.Mounts[i].Type == "" {
			page.Mounts[i].Type = MountCards
		}
	}

	return &page, nil
}

func (pc *PageCache) validatePage(page *Page) error {
	if page == nil {
		return fmt.Errorf("page is nil")
	}

	requiredFields := map[string]string{
		"page name": page.Name,
		"template":  page.Template,
		"route":     page.Route,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	if !strings.HasPrefix(page.Route, "/") {
		return fmt.Errorf("route must start with '/': %s", page.Route)
	}
	if filepath.IsAbs(page.Template) || strings.Contains(page.Template, "..") {
		return fmt.Errorf("template must be a relative path inside the site: %s", page.Template)
	}

	seen := make(map[string]bool)
	for i, mount := range page.Mounts {
		if !mountNamePattern.MatchString(mount.Name) {
			return fmt.Errorf("invalid mount name at index %d: %q", i, mount.Name)
		}
		if seen[mount.Name] {
			return fmt.Errorf("duplicate mount name: %s", mount.Name)
		}
		seen[mount.Name] = true

		if mount.Limit < 0 {
			return fmt.Errorf("mount %s: limit must be non-negative", mount.Name)
		}
		if mount.Sort != "" && mount.Sort != SortLatest {
			return fmt.Errorf("mount %s: unknown sort %q", mount.Name, mount.Sort)
		}

		switch mount.Type {
		case MountCards:
			if mount.Source == "" {
				return fmt.Errorf("mount %s: source is required", mount.Name)
			}
		case MountNewDrop:
		case MountDetected:
			if _, ok := probe.Lookup(mount.Convention); !ok {
				return fmt.Errorf("mount %s: unknown convention %q", mount.Name, mount.Convention)
			}
		default:
			return fmt.Errorf("mount %s: invalid type %q", mount.Name, mount.Type)
		}

		for j, filter := range mount.Filters {
			if filter.Field == "" {
				return fmt.Errorf("mount %s: filter at index %d has no field", mount.Name, j)
			}
			if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
				return fmt.Errorf("mount %s: filter at index %d must have at least one include or exclude rule", mount.Name, j)
			}
		}
	}

	return nil
}

func (pc *PageCache) getPageFilePath(pageName string) string {
	return filepath.Join(pc.pagesDir, pageName+".yml")
}

// NormalizeRoute drops query, fragment and a trailing index.html, and
// ensures a trailing slash.
func NormalizeRoute(route string) string {
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	route = strings.TrimSuffix(route, "index.html")
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	if !strings.HasSuffix(route, "/") {
		route += "/"
	}
	return route
}
