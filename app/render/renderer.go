package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/lysyi3m/edgeboard/app/content"
	"github.com/lysyi3m/edgeboard/app/probe"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Placeholder is the single card shown instead of an empty or failed list.
type Placeholder struct {
	Title string
	Hint  string
	Tags  []string
	Error bool
}

var (
	EmptyCards    = Placeholder{Title: "Nothing here yet."}
	EmptyNewDrop  = Placeholder{Title: "No drops yet."}
	EmptyDetected = Placeholder{
		Title: "Nothing detected yet.",
		Hint:  "Use the naming convention, commit files, redeploy, refresh.",
	}
)

type cardView struct {
	content.Card
	Target    string
	Date      string
	KindLabel string
	Media     []mediaView
}

type mediaView struct {
	Kind     string
	Source   string
	Title    string
	Label    string
	External bool
}

type foundView struct {
	probe.Found
	Label string
}

// Renderer turns cards into escaped HTML fragments.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("render").
		Funcs(template.FuncMap{"tagClass": tagClass}).
		ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Cards renders a card grid. An empty list renders exactly the empty
// placeholder instead.
func (r *Renderer) Cards(cards []content.Card, empty Placeholder) (string, error) {
	if len(cards) == 0 {
		return r.Placeholder(empty)
	}
	return r.execute("cards", cardViews(cards))
}

func (r *Renderer) Placeholder(p Placeholder) (string, error) {
	return r.execute("placeholder", p)
}

// LoadError renders the placeholder for a collection that failed to load.
func (r *Renderer) LoadError(name string, err error) (string, error) {
	p := Placeholder{Title: fmt.Sprintf("Couldn't load %s", name), Error: true}
	if err != nil {
		p.Hint = err.Error()
	}
	return r.Placeholder(p)
}

func (r *Renderer) NewDrop(cards []content.Card) (string, error) {
	if len(cards) == 0 {
		return r.Placeholder(EmptyNewDrop)
	}
	return r.execute("newdrop", cardViews(cards))
}

// Detected renders probe results, or naming hints for the convention when
// nothing was found.
func (r *Renderer) Detected(found []probe.Found, conv probe.Convention) (string, error) {
	if len(found) == 0 {
		empty := EmptyDetected
		empty.Tags = conv.Hints()
		return r.Placeholder(empty)
	}

	views := make([]foundView, 0, len(found))
	for _, f := range found {
		label := strings.ToUpper(string(f.Kind))
		if f.Kind == content.MediaLink {
			label = "FILE"
		}
		views = append(views, foundView{Found: f, Label: label})
	}
	return r.execute("detected", views)
}

func (r *Renderer) execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

func cardViews(cards []content.Card) []cardView {
	views := make([]cardView, 0, len(cards))
	for _, card := range cards {
		views = append(views, cardView{
			Card:      card,
			Target:    NavigationFor(card.Href).Target,
			Date:      card.DateLabel(),
			KindLabel: content.KindLabel(card.Kind),
			Media:     mediaViews(card.Media),
		})
	}
	return views
}

func mediaViews(refs []content.MediaRef) []mediaView {
	views := make([]mediaView, 0, len(refs))
	for _, ref := range refs {
		label := ref.Title
		if label == "" {
			label = string(ref.Kind)
		}
		views = append(views, mediaView{
			Kind:     string(ref.Kind),
			Source:   ref.Source,
			Title:    ref.Title,
			Label:    label,
			External: content.IsExternal(ref.Source),
		})
	}
	return views
}

func tagClass(tag string) string {
	t := strings.ToLower(tag)
	switch {
	case strings.Contains(t, "audio"), strings.Contains(t, "music"):
		return "tag cold"
	case strings.Contains(t, "interactive"), strings.Contains(t, "hardware"), strings.Contains(t, "nfc"),
		strings.Contains(t, "ship"), strings.Contains(t, "drop"):
		return "tag hot"
	default:
		return "tag"
	}
}
