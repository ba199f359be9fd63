package site

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lysyi3m/edgeboard/app/theme"
)

func TestAppBootsOnce(t *testing.T) {
	themes := theme.NewManager(&memoryStore{values: map[string]string{}}, "theme")
	app := NewApp(NewPageCache(filepath.Join(t.TempDir(), "pages")), themes, nil)

	if _, err := uuid.Parse(app.ID); err != nil {
		t.Errorf("Expected instance id to be a UUID, got '%s'", app.ID)
	}
	if app.Booted() {
		t.Error("Expected app not to be booted yet")
	}

	if err := app.Boot(); err != nil {
		t.Fatalf("Expected first boot to succeed, got %v", err)
	}
	if !app.Booted() {
		t.Error("Expected app to be booted")
	}
	if app.Pages.GetPageCount() != 5 {
		t.Errorf("Expected default pages to be loaded, got %d", app.Pages.GetPageCount())
	}

	if err := app.Boot(); !errors.Is(err, ErrAlreadyBooted) {
		t.Errorf("Expected ErrAlreadyBooted, got %v", err)
	}
}

func TestAppBootFailureCanBeRetried(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "broken", "template: x.html\nroute: nowhere\n")

	themes := theme.NewManager(&memoryStore{values: map[string]string{}}, "theme")
	app := NewApp(NewPageCache(dir), themes, nil)

	if err := app.Boot(); err == nil {
		t.Fatal("Expected boot to fail on an invalid page definition")
	}
	if app.Booted() {
		t.Error("Expected failed boot to leave the app unbooted")
	}

	writePage(t, dir, "broken", "template: x.html\nroute: /nowhere/\n")
	if err := app.Boot(); err != nil {
		t.Errorf("Expected retry to succeed, got %v", err)
	}
}

func TestAppRender(t *testing.T) {
	s := newTestSite(t, nil)
	app := NewApp(s.pages, s.themes, s.pipeline)

	html, err := app.Render(context.Background(), "/work", "v1")
	if err != nil {
		t.Fatalf("Expected render to succeed, got %v", err)
	}
	if !strings.Contains(html, "Tide Pools") {
		t.Error("Expected work page content")
	}

	if _, err := app.Render(context.Background(), "/zines/", "v1"); !errors.Is(err, ErrPageNotFound) {
		t.Errorf("Expected ErrPageNotFound, got %v", err)
	}
}
