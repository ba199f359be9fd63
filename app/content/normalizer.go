package content

import (
	"encoding/json"
	"math"
	"path"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DefaultTitle = "Untitled"

	// Epoch values below this are seconds, everything else milliseconds.
	epochSecondsLimit = 2_000_000_000
	epochMillisLimit  = 1e15
)

var DefaultRoutes = map[Kind]string{
	KindProject:    "/work/",
	KindExperiment: "/playground/",
	KindNote:       "/notes/",
	KindLink:       "/",
}

var (
	titleFields     = []string{"title", "name"}
	bodyFields      = []string{"description", "desc", "text", "body"}
	timestampFields = []string{"date", "updated", "when", "timestamp", "year"}
	hrefFields      = []string{"url", "href", "link", "route", "path"}
	metaFields      = []string{"role", "mood"}

	dateLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02",
		"2006-01",
	}

	mediaExtensions = map[string]MediaKind{
		"jpg": MediaImage, "jpeg": MediaImage, "png": MediaImage, "gif": MediaImage,
		"webp": MediaImage, "svg": MediaImage, "avif": MediaImage,
		"mp3": MediaAudio, "wav": MediaAudio, "ogg": MediaAudio, "m4a": MediaAudio,
		"aac": MediaAudio, "flac": MediaAudio, "aif": MediaAudio, "aiff": MediaAudio,
		"mp4": MediaVideo, "mov": MediaVideo, "webm": MediaVideo, "m4v": MediaVideo,
		"pdf": MediaPDF,
	}
)

type Normalizer struct {
	routes map[Kind]string
}

// NewNormalizer returns a normalizer whose default card routes are
// DefaultRoutes with the given overrides applied.
func NewNormalizer(routes map[Kind]string) *Normalizer {
	merged := make(map[Kind]string, len(DefaultRoutes)+len(routes))
	for k, v := range DefaultRoutes {
		merged[k] = v
	}
	for k, v := range routes {
		merged[k] = v
	}
	return &Normalizer{routes: merged}
}

func (n *Normalizer) Run(item RawItem, kind Kind) Card {
	fields := map[string]any(item)

	card := Card{
		Kind:  kind,
		Title: stringField(fields, titleFields...),
		Body:  stringField(fields, bodyFields...),
		Tags:  normalizeTags(fields["tags"]),
		Media: normalizeMedia(fields["media"]),
		Href:  stringField(fields, hrefFields...),
		Slug:  stringField(fields, "slug"),
	}

	if card.Title == "" {
		card.Title = KindLabel(kind)
	}

	if card.Href == "" {
		card.Href = n.routes[kind]
	}

	for _, field := range timestampFields {
		if ts, ok := parseTimestamp(fields[field]); ok {
			card.Timestamp = &ts
			break
		}
	}

	for _, field := range metaFields {
		if v := stringField(fields, field); v != "" {
			card.Meta = append(card.Meta, v)
		}
	}

	return card
}

func (n *Normalizer) RunAll(items []RawItem, kind Kind) []Card {
	cards := make([]Card, 0, len(items))
	for _, item := range items {
		cards = append(cards, n.Run(item, kind))
	}
	return cards
}

// KindLabel is the fallback title for an item of the given kind.
func KindLabel(kind Kind) string {
	if _, known := DefaultRoutes[kind]; !known {
		return DefaultTitle
	}
	return cases.Title(language.English).String(string(kind))
}

// SniffMediaKind infers a media kind from the file extension of src.
// Unknown extensions report MediaLink and false.
func SniffMediaKind(src string) (MediaKind, bool) {
	return MediaKindFromExt(extension(src))
}

func MediaKindFromExt(ext string) (MediaKind, bool) {
	kind, ok := mediaExtensions[strings.ToLower(strings.TrimPrefix(ext, "."))]
	if !ok {
		return MediaLink, false
	}
	return kind, true
}

func extension(src string) string {
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	return strings.TrimPrefix(strings.ToLower(path.Ext(src)), ".")
}

func stringField(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := scalarString(fields[key]); s != "" {
			return s
		}
	}
	return ""
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

func parseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		return parseDateString(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return parseEpoch(f)
		}
		return parseDateString(t.String())
	case float64:
		return parseEpoch(t)
	case int:
		return parseEpoch(float64(t))
	case int64:
		return parseEpoch(float64(t))
	default:
		return time.Time{}, false
	}
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if isYear(s) {
		year, _ := strconv.Atoi(s)
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
	}

	s = strings.ReplaceAll(s, "/", "-")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}

func parseEpoch(n float64) (time.Time, bool) {
	if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 || n >= epochMillisLimit {
		return time.Time{}, false
	}

	if n == math.Trunc(n) && n >= 1000 && n <= 9999 {
		return time.Date(int(n), time.January, 1, 0, 0, 0, 0, time.UTC), true
	}

	if n < epochSecondsLimit {
		sec, frac := math.Modf(n)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
	}

	return time.UnixMilli(int64(n)).UTC(), true
}

func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// normalizeTags splits strings on commas, trims, drops empties and keeps
// the first occurrence of duplicates.
func normalizeTags(v any) []string {
	tags := []string{}
	seen := make(map[string]bool)

	add := func(s string) {
		for _, part := range strings.Split(s, ",") {
			tag := strings.TrimSpace(part)
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			tags = append(tags, tag)
		}
	}

	switch t := v.(type) {
	case []any:
		for _, entry := range t {
			add(scalarString(entry))
		}
	case []string:
		for _, entry := range t {
			add(entry)
		}
	default:
		add(scalarString(t))
	}

	return tags
}

func normalizeMedia(v any) []MediaRef {
	var entries []any
	switch t := v.(type) {
	case nil:
		return []MediaRef{}
	case []any:
		entries = t
	default:
		entries = []any{t}
	}

	refs := make([]MediaRef, 0, len(entries))
	for _, entry := range entries {
		if ref, ok := mediaRef(entry); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

func mediaRef(v any) (MediaRef, bool) {
	var fields map[string]any
	switch t := v.(type) {
	case string:
		src := strings.TrimSpace(t)
		if src == "" {
			return MediaRef{}, false
		}
		kind, _ := SniffMediaKind(src)
		return MediaRef{Kind: kind, Source: src}, true
	case map[string]any:
		fields = t
	case RawItem:
		fields = t
	default:
		return MediaRef{}, false
	}

	src := stringField(fields, "src", "url", "href")
	if src == "" {
		return MediaRef{}, false
	}

	ref := MediaRef{
		Source: src,
		Title:  stringField(fields, "title", "caption", "label"),
	}

	switch kind := MediaKind(strings.ToLower(stringField(fields, "type"))); kind {
	case MediaImage, MediaAudio, MediaVideo, MediaPDF, MediaLink:
		ref.Kind = kind
	default:
		ref.Kind, _ = SniffMediaKind(src)
	}

	return ref, true
}
