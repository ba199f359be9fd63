package site

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/lysyi3m/edgeboard/app/theme"
)

// App is the process-wide site state. It is booted exactly once.
type App struct {
	ID       string
	Pages    *PageCache
	Themes   *theme.Manager
	Pipeline *Pipeline

	mu     sync.Mutex
	booted bool
}

func NewApp(pages *PageCache, themes *theme.Manager, pipeline *Pipeline) *App {
	return &App{
		ID:       uuid.New().String(),
		Pages:    pages,
		Themes:   themes,
		Pipeline: pipeline,
	}
}

// Boot loads the page definitions. Only the first call does any work; later
// calls return ErrAlreadyBooted.
func (a *App) Boot() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.booted {
		return ErrAlreadyBooted
	}

	if err := a.Pages.Run(); err != nil {
		return fmt.Errorf("failed to load pages: %w", err)
	}

	a.booted = true
	slog.Info("Site booted", "instance", a.ID, "pages", a.Pages.GetPageCount())

	return nil
}

func (a *App) Booted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.booted
}

// Render renders the page served at requestPath in the visitor's theme.
func (a *App) Render(ctx context.Context, requestPath, visitor string) (string, error) {
	page, err := a.Pages.GetPageByRoute(requestPath)
	if err != nil {
		return "", err
	}
	return a.Pipeline.Run(ctx, page, requestPath, visitor)
}
