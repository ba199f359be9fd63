package site

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lysyi3m/edgeboard/app/content"
	"github.com/lysyi3m/edgeboard/app/probe"
	"github.com/lysyi3m/edgeboard/app/render"
	"github.com/lysyi3m/edgeboard/app/theme"
	"golang.org/x/sync/errgroup"
)

// newDropSources are the collections merged into the New Drop.
var newDropSources = []string{
	content.CollectionProjects,
	content.CollectionExperiments,
	content.CollectionNotes,
}

// Pipeline renders a page template into the final document: it loads the
// collections and partials the page needs, renders each mount and injects
// everything in a single pass.
type Pipeline struct {
	siteDir    string
	pages      *PageCache
	loader     *content.Loader
	normalizer *content.Normalizer
	filterer   *content.Filterer
	unfurler   *content.Unfurler
	renderer   *render.Renderer
	mounter    *render.Mounter
	prober     *probe.Prober
	themes     *theme.Manager
	window     int
}

func NewPipeline(siteDir string, pages *PageCache, loader *content.Loader, renderer *render.Renderer,
	prober *probe.Prober, themes *theme.Manager, window int) *Pipeline {
	if window <= 0 {
		window = content.DefaultNewDropWindow
	}
	return &Pipeline{
		siteDir:    siteDir,
		pages:      pages,
		loader:     loader,
		normalizer: content.NewNormalizer(nil),
		filterer:   content.NewFilterer(),
		renderer:   renderer,
		mounter:    render.NewMounter(),
		prober:     prober,
		themes:     themes,
		window:     window,
	}
}

// EnableUnfurling fills missing link descriptions from the linked pages.
func (p *Pipeline) EnableUnfurling(unfurler *content.Unfurler) {
	p.unfurler = unfurler
}

// UseCardRoutes overrides where cards of a kind link when their item has no
// link of its own. Kinds not named keep content.DefaultRoutes.
func (p *Pipeline) UseCardRoutes(routes map[string]string) {
	overrides := make(map[content.Kind]string, len(routes))
	for kind, route := range routes {
		overrides[content.Kind(kind)] = route
	}
	p.normalizer = content.NewNormalizer(overrides)
}

// Run renders the page for requestPath in the visitor's theme. Only a
// missing or unreadable template fails the render; every other problem
// degrades to placeholders.
func (p *Pipeline) Run(ctx context.Context, page *Page, requestPath, visitor string) (string, error) {
	data, err := p.readTemplate(page.Template)
	if err != nil {
		return "", err
	}

	doc, err := render.ParseDocument(string(data))
	if err != nil {
		return "", err
	}

	def := p.resolveDefinition(doc, page)

	mounts := make([]MountConfig, 0, len(def.Mounts))
	for _, m := range def.Mounts {
		if doc.Has(mountTarget(m)) {
			mounts = append(mounts, m)
		} else {
			slog.Debug("Mount not on page, skipping", "page", def.Name, "mount", m.Name)
		}
	}

	collections, partials := p.fetch(ctx, def, mounts, doc.Includes())

	rendered := make([]render.Mount, 0, len(mounts))
	for _, m := range mounts {
		target := mountTarget(m)
		target.HTML = p.renderMount(ctx, m, collections)
		rendered = append(rendered, target)
	}

	current, err := p.themes.Current(visitor)
	if err != nil {
		slog.Warn("Using default theme", "visitor", visitor, "error", err)
	}

	p.mounter.Inject(doc, render.Injection{
		Theme:    string(current),
		Partials: partials,
		Mounts:   rendered,
		Path:     requestPath,
		Script:   render.ScriptPath,
	})

	return doc.HTML()
}

// NewDrop loads the aggregated collections and builds the New Drop feed.
func (p *Pipeline) NewDrop(ctx context.Context) []content.Card {
	sources := make([]content.Source, 0, len(newDropSources))
	for _, name := range newDropSources {
		sources = append(sources, content.DefaultSource(name))
	}
	return p.buildNewDrop(p.loader.LoadAll(ctx, sources))
}

// Detect probes the named convention.
func (p *Pipeline) Detect(ctx context.Context, convention string) ([]probe.Found, error) {
	conv, ok := probe.Lookup(convention)
	if !ok {
		return nil, fmt.Errorf("unknown convention %q", convention)
	}
	return p.prober.Run(ctx, conv), nil
}

func (p *Pipeline) readTemplate(name string) ([]byte, error) {
	local := filepath.FromSlash(strings.TrimPrefix(name, "/"))
	if !filepath.IsLocal(local) {
		return nil, fmt.Errorf("template %s is outside the site directory", name)
	}

	data, err := os.ReadFile(filepath.Join(p.siteDir, local))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("template %s: %w", name, ErrPageNotFound)
		}
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}
	return data, nil
}

// resolveDefinition prefers the identity declared on the page body over the
// route the page was requested at.
func (p *Pipeline) resolveDefinition(doc *render.Document, page *Page) *Page {
	id := doc.PageID()
	if id == "" || id == page.Name {
		return page
	}
	if declared, err := p.pages.GetPage(id); err == nil {
		return declared
	}
	slog.Debug("Unknown page identity, using route definition", "data_page", id, "page", page.Name)
	return page
}

// fetch loads the collections used by the mounts and the requested
// partials concurrently.
func (p *Pipeline) fetch(ctx context.Context, page *Page, mounts []MountConfig, includes []string) (map[string]content.Collection, map[string]string) {
	var sources []content.Source
	for _, m := range mounts {
		switch m.Type {
		case MountCards:
			sources = append(sources, content.Source{Name: m.Source, Path: sourcePath(m)})
		case MountNewDrop:
			for _, name := range newDropSources {
				sources = append(sources, content.DefaultSource(name))
			}
		}
	}

	var (
		collections map[string]content.Collection
		partials    = make(map[string]string, len(includes))
		mu          sync.Mutex
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		collections = p.loader.LoadAll(egCtx, sources)
		return nil
	})
	for _, key := range includes {
		eg.Go(func() error {
			html, ok := p.loader.FetchFragment(egCtx, partialPath(page, key))
			if !ok {
				return nil
			}
			mu.Lock()
			partials[key] = html
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	return collections, partials
}

// renderMount never fails: errors and panics become a placeholder card.
func (p *Pipeline) renderMount(ctx context.Context, m MountConfig, collections map[string]content.Collection) (html string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Mount render panicked", "mount", m.Name, "panic", r)
			html = p.loadError(m.Name, fmt.Errorf("%v", r))
		}
	}()

	var err error
	switch m.Type {
	case MountNewDrop:
		html, err = p.renderer.NewDrop(p.buildNewDrop(collections))
	case MountDetected:
		html, err = p.renderDetected(ctx, m)
	default:
		html, err = p.renderCards(ctx, m, collections[sourcePath(m)])
	}

	if err != nil {
		slog.Error("Mount render failed", "mount", m.Name, "error", err)
		return p.loadError(m.Name, err)
	}
	return html
}

func (p *Pipeline) renderCards(ctx context.Context, m MountConfig, collection content.Collection) (string, error) {
	if collection.Failed() {
		return p.loadError(path.Base(sourcePath(m)), collection.Err), nil
	}

	kind := content.KindFor(m.Source)
	if m.Kind != "" {
		kind = content.Kind(m.Kind)
	}

	cards := p.normalizer.RunAll(p.filterer.Run(collection.Items, m.Filters), kind)
	if m.Sort == SortLatest {
		content.SortLatestFirst(cards)
	}
	if m.Limit > 0 && len(cards) > m.Limit {
		cards = cards[:m.Limit]
	}

	if p.unfurler != nil && kind == content.KindLink {
		p.unfurler.Run(ctx, cards)
	}

	empty := render.EmptyCards
	if m.Empty != "" {
		empty = render.Placeholder{Title: m.Empty}
	}
	return p.renderer.Cards(cards, empty)
}

func (p *Pipeline) renderDetected(ctx context.Context, m MountConfig) (string, error) {
	conv, ok := probe.Lookup(m.Convention)
	if !ok {
		return "", fmt.Errorf("unknown convention %q", m.Convention)
	}
	return p.renderer.Detected(p.prober.Run(ctx, conv), conv)
}

// buildNewDrop treats failed collections as empty. Collections are keyed by
// path.
func (p *Pipeline) buildNewDrop(collections map[string]content.Collection) []content.Card {
	return content.BuildNewDrop(p.normalizer,
		collections[content.DefaultSources[content.CollectionProjects]].Items,
		collections[content.DefaultSources[content.CollectionExperiments]].Items,
		collections[content.DefaultSources[content.CollectionNotes]].Items,
		p.window,
	)
}

func (p *Pipeline) loadError(name string, err error) string {
	html, renderErr := p.renderer.LoadError(name, err)
	if renderErr != nil {
		slog.Error("Placeholder render failed", "mount", name, "error", renderErr)
		return ""
	}
	return html
}

func mountTarget(m MountConfig) render.Mount {
	return render.Mount{Name: m.Name, Selectors: m.Selectors}
}

func sourcePath(m MountConfig) string {
	if m.Path != "" {
		return m.Path
	}
	if p, ok := content.DefaultSources[m.Source]; ok {
		return p
	}
	return "/data/" + m.Source + ".json"
}

func partialPath(page *Page, key string) string {
	if p, ok := page.Partials[key]; ok && p != "" {
		return p
	}
	if strings.HasPrefix(key, "/") {
		return key
	}
	return "/partials/" + key + ".html"
}
