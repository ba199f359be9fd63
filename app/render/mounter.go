package render

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Partial slot names with a dedicated element id besides data-include.
var partialIDs = map[string]string{
	"header": "siteHeader",
	"footer": "siteFooter",
}

// Mount is a rendered fragment and the page regions it may replace.
type Mount struct {
	Name      string
	Selectors []string
	HTML      string
}

// selector matches #name, [data-mount='name'] and any configured aliases.
func (m Mount) selector() string {
	sels := []string{"#" + m.Name, fmt.Sprintf("[data-mount='%s']", m.Name)}
	sels = append(sels, m.Selectors...)
	return strings.Join(sels, ", ")
}

// Document is a parsed page template.
type Document struct {
	doc *goquery.Document
}

func ParseDocument(html string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return &Document{doc: doc}, nil
}

// PageID is the page identity declared on <body data-page>.
func (d *Document) PageID() string {
	return strings.TrimSpace(d.doc.Find("body").AttrOr("data-page", ""))
}

// Has reports whether any region for the mount exists.
func (d *Document) Has(m Mount) bool {
	return d.doc.Find(m.selector()).Length() > 0
}

// Includes lists the partial slots the page asks for, in document order.
func (d *Document) Includes() []string {
	seen := make(map[string]bool)
	var keys []string
	add := func(key string) {
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		keys = append(keys, key)
	}

	d.doc.Find("[data-include]").Each(func(_ int, s *goquery.Selection) {
		add(strings.TrimSpace(s.AttrOr("data-include", "")))
	})
	for key, id := range partialIDs {
		if d.doc.Find("#"+id).Length() > 0 {
			add(key)
		}
	}
	return keys
}

func (d *Document) HTML() (string, error) {
	html, err := d.doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to serialize page: %w", err)
	}
	return html, nil
}

// Injection is everything applied to a page in a single pass.
type Injection struct {
	Theme    string
	Partials map[string]string
	Mounts   []Mount
	Path     string
	Script   string
}

type Mounter struct{}

func NewMounter() *Mounter {
	return &Mounter{}
}

// Inject applies the theme, partials, mounts, nav highlighting and the card
// script. Regions missing from the page are skipped.
func (m *Mounter) Inject(d *Document, inj Injection) {
	if inj.Theme != "" {
		d.doc.Find("html").SetAttr("data-theme", inj.Theme)
	}

	m.injectPartials(d, inj.Partials)

	for _, mount := range inj.Mounts {
		sel := d.doc.Find(mount.selector())
		if sel.Length() == 0 {
			slog.Debug("Mount not present, skipping", "mount", mount.Name)
			continue
		}
		sel.SetHtml(mount.HTML)
	}

	if inj.Path != "" {
		markCurrent(d, inj.Path)
	}

	if inj.Script != "" {
		injectScript(d, inj.Script)
	}
}

func (m *Mounter) injectPartials(d *Document, partials map[string]string) {
	if len(partials) == 0 {
		return
	}

	d.doc.Find("[data-include]").Each(func(_ int, s *goquery.Selection) {
		if html, ok := partials[strings.TrimSpace(s.AttrOr("data-include", ""))]; ok {
			s.SetHtml(html)
		}
	})
	for key, id := range partialIDs {
		if html, ok := partials[key]; ok {
			d.doc.Find("#" + id).SetHtml(html)
		}
	}
}

func markCurrent(d *Document, path string) {
	current := normalizePath(path)
	d.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		if !strings.HasPrefix(href, "/") {
			return
		}
		if normalizePath(href) == current {
			s.SetAttr("aria-current", "page")
		}
	})
}

func normalizePath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimSuffix(p, "index.html")
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

func injectScript(d *Document, src string) {
	if d.doc.Find(fmt.Sprintf("script[src='%s']", src)).Length() > 0 {
		return
	}
	body := d.doc.Find("body")
	if body.Length() == 0 {
		return
	}
	body.AppendHtml(fmt.Sprintf(`<script src="%s" defer></script>`, src))
}
