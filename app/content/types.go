package content

import (
	"strings"
	"time"
)

// Content collection types

type Kind string

const (
	KindProject    Kind = "project"
	KindExperiment Kind = "experiment"
	KindNote       Kind = "note"
	KindLink       Kind = "link"
)

// RawItem is one entry of a JSON collection as it was decoded. Every field
// is optional and may carry any JSON shape.
type RawItem map[string]any

type Collection struct {
	Name  string
	Items []RawItem
	Err   error // set when the fetch or decode failed; Items is then empty
}

func (c Collection) Failed() bool {
	return c.Err != nil
}

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
	MediaPDF   MediaKind = "pdf"
	MediaLink  MediaKind = "link"
)

type MediaRef struct {
	Kind   MediaKind `json:"kind"`
	Source string    `json:"source"`
	Title  string    `json:"title,omitempty"`
}

// Card is the normalized view model rendered for a single item.
type Card struct {
	Kind      Kind       `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body,omitempty"`
	Tags      []string   `json:"tags"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Media     []MediaRef `json:"media"`
	Href      string     `json:"href,omitempty"`
	Slug      string     `json:"slug,omitempty"`
	Meta      []string   `json:"meta,omitempty"`
}

// External reports whether the card links to an absolute http(s) URL.
func (c Card) External() bool {
	return IsExternal(c.Href)
}

// DateLabel is the card timestamp as YYYY-MM-DD, or "" when undated.
func (c Card) DateLabel() string {
	if c.Timestamp == nil {
		return ""
	}
	return c.Timestamp.UTC().Format("2006-01-02")
}

func IsExternal(href string) bool {
	lower := strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Filter configuration, shared with page definitions.

type Filter struct {
	Field    string   `yaml:"field" json:"field"`
	Includes []string `yaml:"includes" json:"includes,omitempty"`
	Excludes []string `yaml:"excludes" json:"excludes,omitempty"`
}
