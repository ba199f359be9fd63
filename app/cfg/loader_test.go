package cfg

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	oldArgs := os.Args
	os.Args = append([]string{"edgeboard"}, args...)
	t.Cleanup(func() { os.Args = oldArgs })
}

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestLoadDefaults(t *testing.T) {
	withArgs(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.ThemeKey != "theme" {
		t.Errorf("Expected theme key 'theme', got '%s'", cfg.ThemeKey)
	}
	if cfg.NewDropWindow != 8 {
		t.Errorf("Expected newdrop window 8, got %d", cfg.NewDropWindow)
	}
	if cfg.ProbeMaxSlots != 30 || cfg.ProbeMinSlots != 6 || cfg.ProbeDeadStreak != 8 {
		t.Errorf("Expected probe limits 30/6/8, got %d/%d/%d", cfg.ProbeMaxSlots, cfg.ProbeMinSlots, cfg.ProbeDeadStreak)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("Expected fetch timeout 10s, got %s", cfg.FetchTimeout)
	}
	if len(cfg.CardRoutes) != 0 {
		t.Errorf("Expected no card route overrides, got %v", cfg.CardRoutes)
	}
	if Get() != cfg {
		t.Error("Expected Get to return the loaded configuration")
	}
}

func TestLoadFlags(t *testing.T) {
	withArgs(t, "--port", "9090", "--newdrop-window", "6", "--content-url", "https://cdn.example.com", "--unfurl-links")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port '9090', got '%s'", cfg.Port)
	}
	if cfg.NewDropWindow != 6 {
		t.Errorf("Expected newdrop window 6, got %d", cfg.NewDropWindow)
	}
	if !cfg.UnfurlLinks {
		t.Error("Expected link unfurling to be enabled")
	}
	if cfg.ContentOrigin() != "https://cdn.example.com" {
		t.Errorf("Expected content origin 'https://cdn.example.com', got '%s'", cfg.ContentOrigin())
	}
	if cfg.PublicURL() != "http://localhost:9090" {
		t.Errorf("Expected public URL 'http://localhost:9090', got '%s'", cfg.PublicURL())
	}
}

func TestLoadCardRoutes(t *testing.T) {
	withArgs(t, "--card-route", "note=/journal/", "--card-route", "zine=/zines/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := map[string]string{"note": "/journal/", "zine": "/zines/"}
	if diff := cmp.Diff(want, cfg.CardRoutes); diff != "" {
		t.Errorf("Card routes mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsInvalidLimits(t *testing.T) {
	tests := [][]string{
		{"--newdrop-window", "0"},
		{"--probe-min-slots", "40"},
		{"--probe-dead-streak=-1"},
		{"--fetch-timeout", "0"},
		{"--card-route", "note=journal"},
	}

	for _, args := range tests {
		withArgs(t, args...)
		if _, err := Load(); err == nil {
			t.Errorf("Args %v: expected error, got nil", args)
		}
	}
}

func TestOrigins(t *testing.T) {
	cfg := &Cfg{Port: "8080", BaseUrl: "https://edge.example.com"}

	if cfg.PublicURL() != "https://edge.example.com" {
		t.Errorf("Expected public URL 'https://edge.example.com', got '%s'", cfg.PublicURL())
	}
	if cfg.ContentOrigin() != "http://localhost:8080" {
		t.Errorf("Expected content origin 'http://localhost:8080', got '%s'", cfg.ContentOrigin())
	}
}
