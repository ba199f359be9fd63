package site

import (
	"github.com/lysyi3m/edgeboard/app/content"
)

var defaultPartials = map[string]string{
	"header": "/partials/header.html",
	"footer": "/partials/footer.html",
}

// DefaultPages is the page set used when no definitions are on disk.
func DefaultPages() map[string]*Page {
	return map[string]*Page{
		"hub": {
			Name:     "hub",
			Template: "index.html",
			Route:    "/",
			Partials: defaultPartials,
			Mounts: []MountConfig{
				{Name: "newDrop", Type: MountNewDrop, Selectors: []string{"#newDropGrid"}},
				{Name: "projectsGrid", Type: MountCards, Source: content.CollectionProjects},
				{Name: "experimentsGrid", Type: MountCards, Source: content.CollectionExperiments},
				{Name: "linksGrid", Type: MountCards, Source: content.CollectionLinks},
			},
		},
		"work": {
			Name:     "work",
			Template: "work/index.html",
			Route:    "/work/",
			Partials: defaultPartials,
			Mounts: []MountConfig{
				{
					Name:      "workGrid",
					Type:      MountCards,
					Source:    content.CollectionProjects,
					Selectors: []string{"#projectsList"},
					Filters:   []content.Filter{{Field: "category", Includes: []string{"work"}}},
				},
				{Name: "detectedGrid", Type: MountDetected, Convention: "work"},
			},
		},
		"media": {
			Name:     "media",
			Template: "media/index.html",
			Route:    "/media/",
			Partials: defaultPartials,
			Mounts: []MountConfig{
				{
					Name:      "mediaGrid",
					Type:      MountCards,
					Source:    content.CollectionProjects,
					Selectors: []string{"#mediaList"},
					Filters:   []content.Filter{{Field: "category", Includes: []string{"media"}}},
				},
				{Name: "detectedGrid", Type: MountDetected, Convention: "media"},
			},
		},
		"playground": {
			Name:     "playground",
			Template: "playground/index.html",
			Route:    "/playground/",
			Partials: defaultPartials,
			Mounts: []MountConfig{
				{Name: "experimentsGrid", Type: MountCards, Source: content.CollectionExperiments, Selectors: []string{"#experimentsList"}},
			},
		},
		"notes": {
			Name:     "notes",
			Template: "notes/index.html",
			Route:    "/notes/",
			Partials: defaultPartials,
			Mounts: []MountConfig{
				{
					Name:      "notesGrid",
					Type:      MountCards,
					Source:    content.CollectionNotes,
					Sort:      SortLatest,
					Selectors: []string{"#notesList"},
					Empty:     "No notes yet.",
				},
			},
		},
	}
}
