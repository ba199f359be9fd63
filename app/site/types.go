package site

import (
	"errors"

	"github.com/lysyi3m/edgeboard/app/content"
)

var (
	ErrAlreadyBooted = errors.New("application already booted")
	ErrPageNotFound  = errors.New("page not found")
)

// Mount types

const (
	MountCards    = "cards"
	MountNewDrop  = "newdrop"
	MountDetected = "detected"

	SortLatest = "latest"
)

// Page definition types

type Page struct {
	Name     string            // Derived from filename (without .yml extension)
	Template string            `yaml:"template" json:"template"`
	Route    string            `yaml:"route" json:"route"`
	Mounts   []MountConfig     `yaml:"mounts" json:"mounts"`
	Partials map[string]string `yaml:"partials" json:"partials,omitempty"`
}

type MountConfig struct {
	Name       string           `yaml:"name" json:"name"`
	Type       string           `yaml:"type" json:"type"`
	Source     string           `yaml:"source" json:"source,omitempty"`
	Path       string           `yaml:"path" json:"path,omitempty"`
	Kind       string           `yaml:"kind" json:"kind,omitempty"`
	Sort       string           `yaml:"sort" json:"sort,omitempty"`
	Limit      int              `yaml:"limit" json:"limit,omitempty"`
	Selectors  []string         `yaml:"selectors" json:"selectors,omitempty"`
	Filters    []content.Filter `yaml:"filters" json:"filters,omitempty"`
	Convention string           `yaml:"convention" json:"convention,omitempty"`
	Empty      string           `yaml:"empty" json:"empty,omitempty"`
}
