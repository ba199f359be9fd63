package cfg

import (
	"fmt"
	"time"
)

type Cfg struct {
	// Site configuration
	SiteDir    string
	PagesDir   string
	ContentURL string
	Port       string
	BaseUrl    string

	// Storage
	DBPath   string
	ThemeKey string

	// Rendering
	NewDropWindow   int
	ProbeMaxSlots   int
	ProbeMinSlots   int
	ProbeDeadStreak int
	UnfurlLinks     bool
	CardRoutes      map[string]string

	// HTTP client
	FetchTimeout time.Duration
	UserAgent    string

	APIAccessKey string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}

// PublicURL is the externally visible address of the service.
func (c *Cfg) PublicURL() string {
	if c.BaseUrl != "" {
		return c.BaseUrl
	}
	return fmt.Sprintf("http://localhost:%s", c.Port)
}

// ContentOrigin is where JSON collections, partials and media are fetched
// from. Without an explicit content URL the service reads from itself.
func (c *Cfg) ContentOrigin() string {
	if c.ContentURL != "" {
		return c.ContentURL
	}
	return fmt.Sprintf("http://localhost:%s", c.Port)
}
