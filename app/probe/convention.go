package probe

import (
	"fmt"
	"sort"
)

// Location is a directory probed with a fixed set of extensions.
type Location struct {
	Dir        string
	Extensions []string
}

// Convention describes statically named slot files such as
// /media/work-01.jpg or /music/work-01.mp3.
type Convention struct {
	Name      string
	Prefix    string
	Locations []Location
}

var conventions = map[string]Convention{
	"work": {
		Name:   "work",
		Prefix: "work",
		Locations: []Location{
			{Dir: "/media", Extensions: []string{"jpg", "jpeg", "png", "webp", "mp4", "mov", "webm"}},
			{Dir: "/music", Extensions: []string{"mp3", "wav", "m4a"}},
			{Dir: "/media", Extensions: []string{"pdf"}},
			{Dir: "/music", Extensions: []string{"pdf"}},
		},
	},
	"media": {
		Name:   "media",
		Prefix: "media",
		Locations: []Location{
			{Dir: "/media", Extensions: []string{"mp4", "mov", "webm", "jpg", "jpeg", "png", "webp"}},
		},
	},
}

// Lookup returns a registered convention by name.
func Lookup(name string) (Convention, bool) {
	conv, ok := conventions[name]
	return conv, ok
}

// Names lists the registered conventions.
func Names() []string {
	names := make([]string, 0, len(conventions))
	for name := range conventions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Candidates lists every path that could hold the given slot.
func (c Convention) Candidates(slot int) []string {
	base := fmt.Sprintf("%s-%02d", c.Prefix, slot)

	var out []string
	for _, loc := range c.Locations {
		for _, ext := range loc.Extensions {
			out = append(out, fmt.Sprintf("%s/%s.%s", loc.Dir, base, ext))
		}
	}
	return out
}

// Hints are the glob-like patterns shown when nothing was detected.
func (c Convention) Hints() []string {
	seen := make(map[string]bool)
	var hints []string
	for _, loc := range c.Locations {
		hint := fmt.Sprintf("%s/%s-01.*", loc.Dir, c.Prefix)
		if seen[hint] {
			continue
		}
		seen[hint] = true
		hints = append(hints, hint)
	}
	return hints
}
