package cfg

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Site configuration
	SiteDir    string `long:"site-dir" env:"SITE_DIR" default:"./site" description:"Directory with the site's HTML pages, data and media"`
	PagesDir   string `long:"pages-dir" env:"PAGES_DIR" default:"./pages" description:"Directory containing page definition files"`
	ContentURL string `long:"content-url" env:"CONTENT_URL" description:"Origin serving /data, /partials and media (defaults to this service)"`
	Port       string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl    string `long:"base-url" env:"BASE_URL" description:"Public base URL for the site (e.g., https://edge.example.com)"`

	// Storage
	DBPath   string `long:"db-path" env:"DB_PATH" default:"./edgeboard.db" description:"SQLite database file for preferences"`
	ThemeKey string `long:"theme-key" env:"THEME_KEY" default:"theme" description:"Preference key holding the theme"`

	// Rendering
	NewDropWindow   int  `long:"newdrop-window" env:"NEWDROP_WINDOW" default:"8" description:"Number of items in the New Drop feed"`
	ProbeMaxSlots   int  `long:"probe-max-slots" env:"PROBE_MAX_SLOTS" default:"30" description:"Highest media slot number probed"`
	ProbeMinSlots   int  `long:"probe-min-slots" env:"PROBE_MIN_SLOTS" default:"6" description:"Slots always probed before the dead streak cutoff applies"`
	ProbeDeadStreak int  `long:"probe-dead-streak" env:"PROBE_DEAD_STREAK" default:"8" description:"Consecutive empty slots that stop probing"`
	UnfurlLinks     bool `long:"unfurl-links" env:"UNFURL_LINKS" description:"Fill missing link descriptions from the linked page"`

	CardRoutes map[string]string `long:"card-route" env:"CARD_ROUTES" env-delim:"," key-value-delimiter:"=" description:"Fallback link for cards of a kind without one, as kind=/path/ (repeatable)"`

	// HTTP client
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"10" description:"Timeout in seconds for content fetches"`
	UserAgent    string `long:"user-agent" env:"USER_AGENT" default:"edgeboard/1.0" description:"User agent string for HTTP requests"`

	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validate(&raw); err != nil {
		return nil, err
	}

	cfg := &Cfg{
		SiteDir:         raw.SiteDir,
		PagesDir:        raw.PagesDir,
		ContentURL:      raw.ContentURL,
		Port:            raw.Port,
		BaseUrl:         raw.BaseUrl,
		DBPath:          raw.DBPath,
		ThemeKey:        raw.ThemeKey,
		NewDropWindow:   raw.NewDropWindow,
		ProbeMaxSlots:   raw.ProbeMaxSlots,
		ProbeMinSlots:   raw.ProbeMinSlots,
		ProbeDeadStreak: raw.ProbeDeadStreak,
		UnfurlLinks:     raw.UnfurlLinks,
		CardRoutes:      raw.CardRoutes,
		FetchTimeout:    time.Duration(raw.FetchTimeout) * time.Second,
		UserAgent:       raw.UserAgent,
		APIAccessKey:    raw.APIAccessKey,
		Timezone:        raw.Timezone,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func validate(raw *rawCfg) error {
	if raw.ThemeKey == "" {
		return fmt.Errorf("theme key cannot be empty")
	}
	if raw.NewDropWindow <= 0 {
		return fmt.Errorf("newdrop window must be positive, got %d", raw.NewDropWindow)
	}
	if raw.ProbeMaxSlots <= 0 || raw.ProbeMinSlots <= 0 || raw.ProbeDeadStreak <= 0 {
		return fmt.Errorf("probe limits must be positive")
	}
	if raw.ProbeMinSlots > raw.ProbeMaxSlots {
		return fmt.Errorf("probe min slots (%d) exceeds max slots (%d)", raw.ProbeMinSlots, raw.ProbeMaxSlots)
	}
	for kind, route := range raw.CardRoutes {
		if kind == "" || !strings.HasPrefix(route, "/") {
			return fmt.Errorf("card route for %q must be kind=/path/, got %q", kind, route)
		}
	}
	if raw.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %d", raw.FetchTimeout)
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
